package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/X-Magic-X/console-network-chat/pkg/crypto"
	"github.com/X-Magic-X/console-network-chat/pkg/model"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// Store is the SQLite-backed Directory implementation.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ Directory = (*Store)(nil)

// Open opens (or creates) a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	return OpenWithClock(dbPath, nil)
}

// OpenWithClock is Open with an injectable clock, used by tests to control
// ban expiry.
func OpenWithClock(dbPath string, now func() time.Time) (*Store, error) {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("directory: open DB: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("directory: set WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("directory: enable FK: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("directory: set busy_timeout: %w", err)
	}

	s := &Store{db: db, now: now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("directory: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		user_id       INTEGER PRIMARY KEY AUTOINCREMENT,
		login         TEXT    NOT NULL UNIQUE,
		username      TEXT    NOT NULL UNIQUE COLLATE NOCASE,
		password_hash BLOB    NOT NULL,
		salt          BLOB    NOT NULL,
		role          INTEGER NOT NULL DEFAULT 0 CHECK(role >= 0 AND role <= 1),
		created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS bans (
		ban_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id   INTEGER NOT NULL,
		banned_by INTEGER NOT NULL DEFAULT 0,
		reason    TEXT    NOT NULL DEFAULT '',
		ban_start TEXT    NOT NULL DEFAULT (datetime('now')),
		ban_end   TEXT
	);
	`

	if err := s.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	currentVersion, err := s.getSchemaVersion(ctx)
	if err != nil {
		return err
	}

	migrations := []struct {
		version    int
		statements []string
	}{
		{
			version:    1,
			statements: []string{schema},
		},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("directory: migrate v%d: %w", m.version, err)
			}
		}
		if err := s.setSchemaVersion(ctx, m.version); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureSchemaMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("directory: create schema_migrations: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("directory: check schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (0)"); err != nil {
			return fmt.Errorf("directory: init schema_migrations: %w", err)
		}
	}
	return nil
}

func (s *Store) getSchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("directory: read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, version int) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE schema_migrations SET version = ?", version); err != nil {
		return fmt.Errorf("directory: update schema version: %w", err)
	}
	return nil
}

func formatDBTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func parseDBTime(value string) (time.Time, error) {
	return time.ParseInLocation(dbTimeLayout, value, time.UTC)
}

// ---- Accounts ----

// Authenticate resolves credentials to an account. The login is compared
// case-insensitively; the password against the stored Argon2id hash.
func (s *Store) Authenticate(login, password string) (*Account, error) {
	var (
		userID   int64
		username string
		roleInt  int
		hash     []byte
		salt     []byte
	)
	err := s.db.QueryRowContext(context.Background(),
		"SELECT user_id, username, role, password_hash, salt FROM users WHERE login = ?",
		strings.ToLower(login)).
		Scan(&userID, &username, &roleInt, &hash, &salt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("directory: authenticate: %w", err)
	}
	if !crypto.VerifyPassword(password, salt, hash) {
		return nil, ErrInvalidCredentials
	}
	return &Account{UserID: userID, Username: username, Role: model.Role(roleInt)}, nil
}

// Register creates a new account with RoleUser.
func (s *Store) Register(login, password, username string) (*Account, error) {
	if err := model.ValidateLogin(login); err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}
	if err := model.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}

	if taken, err := s.LoginExists(login); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrLoginTaken
	}
	if taken, err := s.UsernameExists(username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}
	hash := crypto.HashPassword(password, salt)

	res, err := s.db.ExecContext(context.Background(),
		"INSERT INTO users (login, username, password_hash, salt, role) VALUES (?, ?, ?, ?, ?)",
		strings.ToLower(login), username, hash, salt, int(model.RoleUser))
	if err != nil {
		return nil, fmt.Errorf("directory: register: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Account{UserID: id, Username: username, Role: model.RoleUser}, nil
}

// UsernameExists reports whether any account holds the username
// (case-insensitive by column collation).
func (s *Store) UsernameExists(username string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("directory: check username: %w", err)
	}
	return count > 0, nil
}

// LoginExists reports whether any account holds the login.
func (s *Store) LoginExists(login string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM users WHERE login = ?", strings.ToLower(login)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("directory: check login: %w", err)
	}
	return count > 0, nil
}

// RenameUser changes a user's username if the new name is free.
func (s *Store) RenameUser(currentUsername, newUsername string) (bool, error) {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("directory: rename: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID int64
	err = tx.QueryRowContext(ctx, "SELECT user_id FROM users WHERE username = ?", currentUsername).Scan(&userID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("directory: rename: %w", err)
	}

	var taken int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ? AND user_id != ?", newUsername, userID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("directory: rename: %w", err)
	}
	if taken > 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, "UPDATE users SET username = ? WHERE user_id = ?", newUsername, userID); err != nil {
		return false, fmt.Errorf("directory: rename: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("directory: rename: %w", err)
	}
	return true, nil
}

// ---- Bans ----

// RecordBan persists a ban against the named user. Duration zero means
// permanent (NULL ban_end).
func (s *Store) RecordBan(adminID int64, targetUsername, reason string, duration time.Duration) (bool, error) {
	ctx := context.Background()

	var userID int64
	err := s.db.QueryRowContext(ctx, "SELECT user_id FROM users WHERE username = ?", targetUsername).Scan(&userID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("directory: record ban: %w", err)
	}

	issued := s.now()
	var endStr *string
	if duration > 0 {
		es := formatDBTime(issued.Add(duration))
		endStr = &es
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO bans (user_id, banned_by, reason, ban_start, ban_end) VALUES (?, ?, ?, ?, ?)",
		userID, adminID, reason, formatDBTime(issued), endStr)
	if err != nil {
		return false, fmt.Errorf("directory: record ban: %w", err)
	}
	return true, nil
}

// IsBanned returns the most recent active ban for a user, or nil when none.
func (s *Store) IsBanned(userID int64) (*model.BanInfo, error) {
	var (
		reason   string
		bannedBy int64
		startStr string
		endStr   *string
	)
	err := s.db.QueryRowContext(context.Background(),
		"SELECT reason, banned_by, ban_start, ban_end FROM bans WHERE user_id = ? AND (ban_end IS NULL OR ban_end > ?) ORDER BY ban_start DESC LIMIT 1",
		userID, formatDBTime(s.now())).
		Scan(&reason, &bannedBy, &startStr, &endStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("directory: check ban: %w", err)
	}

	ban := &model.BanInfo{Reason: reason, BannedBy: bannedBy}
	if ban.IssuedAt, err = parseDBTime(startStr); err != nil {
		return nil, fmt.Errorf("directory: check ban: %w", err)
	}
	if endStr != nil {
		if ban.ExpiresAt, err = parseDBTime(*endStr); err != nil {
			return nil, fmt.Errorf("directory: check ban: %w", err)
		}
	}
	return ban, nil
}

// EnsureAdmin creates an admin account on first run (no users exist yet)
// and returns its generated password so the operator can note it down.
// On subsequent runs it returns created=false.
func (s *Store) EnsureAdmin(login, username string) (password string, created bool, err error) {
	ctx := context.Background()
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return "", false, fmt.Errorf("directory: count users: %w", err)
	}
	if count > 0 {
		return "", false, nil
	}

	raw, err := crypto.GenerateSalt() // random bytes double as a one-time password source
	if err != nil {
		return "", false, fmt.Errorf("directory: ensure admin: %w", err)
	}
	password = fmt.Sprintf("%x", raw)

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return "", false, fmt.Errorf("directory: ensure admin: %w", err)
	}
	hash := crypto.HashPassword(password, salt)

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (login, username, password_hash, salt, role) VALUES (?, ?, ?, ?, ?)",
		strings.ToLower(login), username, hash, salt, int(model.RoleAdmin))
	if err != nil {
		return "", false, fmt.Errorf("directory: ensure admin: %w", err)
	}
	return password, true, nil
}
