package directory

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/X-Magic-X/console-network-chat/pkg/model"
)

func openTestStore(t *testing.T, now func() time.Time) *Store {
	t.Helper()
	s, err := OpenWithClock(filepath.Join(t.TempDir(), "chat.db"), now)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRegisterAndAuthenticate(t *testing.T) {
	s := openTestStore(t, nil)

	acct, err := s.Register("Alice", "password1", "alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	want := &Account{UserID: acct.UserID, Username: "alice", Role: model.RoleUser}
	if diff := cmp.Diff(want, acct); diff != "" {
		t.Errorf("account (-want +got):\n%s", diff)
	}

	// Login is case-insensitive.
	got, err := s.Authenticate("ALICE", "password1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("authenticated account (-want +got):\n%s", diff)
	}

	if _, err := s.Authenticate("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.Authenticate("nobody", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown login err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterConflicts(t *testing.T) {
	s := openTestStore(t, nil)
	if _, err := s.Register("alice", "password1", "alice"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Register("ALICE", "password1", "other"); !errors.Is(err, ErrLoginTaken) {
		t.Errorf("duplicate login err = %v, want ErrLoginTaken", err)
	}
	if _, err := s.Register("fresh", "password1", "ALICE"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username err = %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := openTestStore(t, nil)

	cases := map[string]struct {
		login, password, username string
		want                      error
	}{
		"short login":    {"ab", "password1", "alice", model.ErrLoginTooShort},
		"short password": {"alice", "pw", "alice", model.ErrPasswordTooShort},
		"short username": {"alice", "password1", "ab", model.ErrUsernameTooShort},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Register(tc.login, tc.password, tc.username); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRenameUser(t *testing.T) {
	s := openTestStore(t, nil)
	if _, err := s.Register("alice", "password1", "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Register("bob", "password1", "bob"); err != nil {
		t.Fatal(err)
	}

	if ok, err := s.RenameUser("alice", "wonderland"); err != nil || !ok {
		t.Fatalf("RenameUser = (%v, %v), want (true, nil)", ok, err)
	}
	acct, err := s.Authenticate("alice", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if acct.Username != "wonderland" {
		t.Errorf("username = %q after rename, want wonderland", acct.Username)
	}

	if ok, _ := s.RenameUser("bob", "wonderland"); ok {
		t.Error("RenameUser succeeded onto a taken name")
	}
	if ok, _ := s.RenameUser("ghost", "whatever"); ok {
		t.Error("RenameUser succeeded for an unknown user")
	}
}

func TestBans(t *testing.T) {
	current := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, func() time.Time { return current })

	acct, err := s.Register("bob", "password1", "bob")
	if err != nil {
		t.Fatal(err)
	}

	if ban, err := s.IsBanned(acct.UserID); err != nil || ban != nil {
		t.Fatalf("IsBanned before ban = (%v, %v), want (nil, nil)", ban, err)
	}

	if found, err := s.RecordBan(7, "ghost", "spam", 0); err != nil || found {
		t.Fatalf("RecordBan unknown user = (%v, %v), want (false, nil)", found, err)
	}

	// Temporary ban: active now, gone after expiry.
	if found, err := s.RecordBan(7, "bob", "spam", 10*time.Minute); err != nil || !found {
		t.Fatalf("RecordBan = (%v, %v), want (true, nil)", found, err)
	}
	ban, err := s.IsBanned(acct.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if ban == nil {
		t.Fatal("temporary ban not active")
	}
	if ban.Reason != "spam" || ban.BannedBy != 7 || ban.Permanent() {
		t.Errorf("ban = %+v, want temporary spam ban by 7", ban)
	}
	if want := current.Add(10 * time.Minute); !ban.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", ban.ExpiresAt, want)
	}

	current = current.Add(11 * time.Minute)
	if ban, err := s.IsBanned(acct.UserID); err != nil || ban != nil {
		t.Fatalf("IsBanned after expiry = (%v, %v), want (nil, nil)", ban, err)
	}

	// Permanent ban never expires.
	if found, err := s.RecordBan(7, "bob", "for good", 0); err != nil || !found {
		t.Fatalf("RecordBan permanent = (%v, %v)", found, err)
	}
	current = current.Add(1000 * time.Hour)
	ban, err = s.IsBanned(acct.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if ban == nil || !ban.Permanent() || ban.Reason != "for good" {
		t.Errorf("permanent ban = %+v", ban)
	}
}

func TestEnsureAdmin(t *testing.T) {
	s := openTestStore(t, nil)

	password, created, err := s.EnsureAdmin("admin", "admin")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if !created || password == "" {
		t.Fatalf("EnsureAdmin = (%q, %v), want generated password and created", password, created)
	}

	acct, err := s.Authenticate("admin", password)
	if err != nil {
		t.Fatalf("Authenticate as admin: %v", err)
	}
	if acct.Role != model.RoleAdmin {
		t.Errorf("role = %v, want admin", acct.Role)
	}

	// Second run is a no-op.
	if _, created, err := s.EnsureAdmin("admin", "admin"); err != nil || created {
		t.Errorf("second EnsureAdmin = (created=%v, err=%v), want no-op", created, err)
	}
}
