// Package directory implements the account directory: credentials, roles,
// bans, and nickname bookkeeping behind a narrow interface consumed by the
// chat server. The server never touches persistence directly.
package directory

import (
	"errors"
	"time"

	"github.com/X-Magic-X/console-network-chat/pkg/model"
)

var (
	// ErrInvalidCredentials is returned by Authenticate when the login is
	// unknown or the password does not match.
	ErrInvalidCredentials = errors.New("directory: invalid login or password")

	// ErrLoginTaken is returned by Register when the login already exists.
	ErrLoginTaken = errors.New("directory: login already taken")

	// ErrUsernameTaken is returned by Register when the username already
	// exists (compared case-insensitively, matching the stored accounts).
	ErrUsernameTaken = errors.New("directory: username already taken")
)

// Account is the identity handed to a session on successful
// authentication or registration.
type Account struct {
	UserID   int64
	Username string
	Role     model.Role
}

// Directory is the account service consumed by the chat server.
//
// Logins are case-insensitive (stored lowercase); usernames keep their
// stored form but are unique case-insensitively. A ban duration of zero
// means permanent.
type Directory interface {
	// Authenticate resolves credentials to an account, or fails with
	// ErrInvalidCredentials.
	Authenticate(login, password string) (*Account, error)

	// Register creates a new account with RoleUser and returns it.
	// Validation failures surface model sentinel errors; conflicts
	// surface ErrLoginTaken or ErrUsernameTaken.
	Register(login, password, username string) (*Account, error)

	// IsBanned returns the active ban for a user, or nil when none.
	IsBanned(userID int64) (*model.BanInfo, error)

	// RecordBan persists a ban against the named user. It returns false
	// when no such user exists.
	RecordBan(adminID int64, targetUsername, reason string, duration time.Duration) (bool, error)

	// RenameUser changes a user's username. It returns false when the
	// current name is unknown or the new name is already taken.
	RenameUser(currentUsername, newUsername string) (bool, error)

	// UsernameExists reports whether any account holds the username.
	UsernameExists(username string) (bool, error)

	// LoginExists reports whether any account holds the login.
	LoginExists(login string) (bool, error)

	Close() error
}
