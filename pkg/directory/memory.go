package directory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/X-Magic-X/console-network-chat/pkg/crypto"
	"github.com/X-Magic-X/console-network-chat/pkg/model"
)

// MemoryDirectory is an in-memory Directory implementation for tests.
// It mirrors the SQLite store's validation and error behavior.
type MemoryDirectory struct {
	mu sync.RWMutex

	now func() time.Time

	nextUserID int64

	accounts   map[int64]*memAccount
	byLogin    map[string]int64 // login (lowercase) -> user ID
	byUsername map[string]int64 // username (lowercase) -> user ID
	bans       map[int64][]memBan
}

type memAccount struct {
	id       int64
	login    string
	username string
	salt     []byte
	hash     []byte
	role     model.Role
}

type memBan struct {
	reason   string
	bannedBy int64
	issuedAt time.Time
	endsAt   time.Time // zero = permanent
}

var _ Directory = (*MemoryDirectory)(nil)

// NewMemory creates a MemoryDirectory using time.Now().UTC().
func NewMemory() *MemoryDirectory {
	return NewMemoryWithClock(nil)
}

// NewMemoryWithClock creates a MemoryDirectory with a custom clock.
func NewMemoryWithClock(now func() time.Time) *MemoryDirectory {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryDirectory{
		now:        now,
		nextUserID: 1,
		accounts:   make(map[int64]*memAccount),
		byLogin:    make(map[string]int64),
		byUsername: make(map[string]int64),
		bans:       make(map[int64][]memBan),
	}
}

// Close is a no-op for MemoryDirectory.
func (d *MemoryDirectory) Close() error {
	return nil
}

// CreateAccount seeds an account with an explicit role. Tests use this to
// provision admins, which production deployments do via EnsureAdmin or
// directly in the database.
func (d *MemoryDirectory) CreateAccount(login, password, username string, role model.Role) (*Account, error) {
	acct, err := d.create(login, password, username, role)
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// Register creates a new account with RoleUser.
func (d *MemoryDirectory) Register(login, password, username string) (*Account, error) {
	return d.create(login, password, username, model.RoleUser)
}

func (d *MemoryDirectory) create(login, password, username string, role model.Role) (*Account, error) {
	if err := model.ValidateLogin(login); err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}
	if err := model.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	loginKey := strings.ToLower(login)
	if _, exists := d.byLogin[loginKey]; exists {
		return nil, ErrLoginTaken
	}
	if _, exists := d.byUsername[strings.ToLower(username)]; exists {
		return nil, ErrUsernameTaken
	}

	acct := &memAccount{
		id:       d.nextUserID,
		login:    loginKey,
		username: username,
		salt:     salt,
		hash:     crypto.HashPassword(password, salt),
		role:     role,
	}
	d.nextUserID++
	d.accounts[acct.id] = acct
	d.byLogin[loginKey] = acct.id
	d.byUsername[strings.ToLower(username)] = acct.id

	return &Account{UserID: acct.id, Username: acct.username, Role: acct.role}, nil
}

// Authenticate resolves credentials to an account.
func (d *MemoryDirectory) Authenticate(login, password string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byLogin[strings.ToLower(login)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	acct := d.accounts[id]
	if !crypto.VerifyPassword(password, acct.salt, acct.hash) {
		return nil, ErrInvalidCredentials
	}
	return &Account{UserID: acct.id, Username: acct.username, Role: acct.role}, nil
}

// UsernameExists reports whether any account holds the username.
func (d *MemoryDirectory) UsernameExists(username string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byUsername[strings.ToLower(username)]
	return ok, nil
}

// LoginExists reports whether any account holds the login.
func (d *MemoryDirectory) LoginExists(login string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byLogin[strings.ToLower(login)]
	return ok, nil
}

// RenameUser changes a user's username if the new name is free.
func (d *MemoryDirectory) RenameUser(currentUsername, newUsername string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.byUsername[strings.ToLower(currentUsername)]
	if !ok {
		return false, nil
	}
	newKey := strings.ToLower(newUsername)
	if holder, taken := d.byUsername[newKey]; taken && holder != id {
		return false, nil
	}

	acct := d.accounts[id]
	delete(d.byUsername, strings.ToLower(acct.username))
	acct.username = newUsername
	d.byUsername[newKey] = id
	return true, nil
}

// RecordBan persists a ban against the named user.
func (d *MemoryDirectory) RecordBan(adminID int64, targetUsername, reason string, duration time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.byUsername[strings.ToLower(targetUsername)]
	if !ok {
		return false, nil
	}

	ban := memBan{
		reason:   reason,
		bannedBy: adminID,
		issuedAt: d.now(),
	}
	if duration > 0 {
		ban.endsAt = ban.issuedAt.Add(duration)
	}
	d.bans[id] = append(d.bans[id], ban)
	return true, nil
}

// IsBanned returns the most recent active ban for a user, or nil when none.
func (d *MemoryDirectory) IsBanned(userID int64) (*model.BanInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	now := d.now()
	for i := len(d.bans[userID]) - 1; i >= 0; i-- {
		b := d.bans[userID][i]
		if b.endsAt.IsZero() || b.endsAt.After(now) {
			return &model.BanInfo{
				Reason:    b.reason,
				BannedBy:  b.bannedBy,
				IssuedAt:  b.issuedAt,
				ExpiresAt: b.endsAt,
			}, nil
		}
	}
	return nil, nil
}
