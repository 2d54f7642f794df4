// Package command parses lines received on the chat wire into typed
// commands. A leading '/' marks a control command; anything else is plain
// chat text. Keeping parsing separate from the session loop makes dispatch
// exhaustive and testable without any I/O.
package command

// Command is a parsed user intent. Exactly one concrete type is produced
// per input line.
type Command interface {
	isCommand()
}

// Auth authenticates an existing account: /auth <login> <password>
type Auth struct {
	Login    string
	Password string
}

// Register creates an account and signs it in: /reg <login> <password> <username>
type Register struct {
	Login    string
	Password string
	Username string
}

// Exit leaves the chat: /exit
type Exit struct{}

// Kick disconnects a user (admin only): /kick <username> <reason...>
type Kick struct {
	Target string
	Reason string
}

// Ban records a ban and disconnects the target (admin only):
// /ban <username> <minutes> <reason...>. Zero minutes means permanent.
type Ban struct {
	Target  string
	Minutes int64
	Reason  string
}

// Shutdown stops the whole server (admin only): /shutdown
type Shutdown struct{}

// ActiveList requests the list of connected usernames: /activelist
type ActiveList struct{}

// Whisper sends a private message: /w <username> <text...>
type Whisper struct {
	Target string
	Text   string
}

// Rename changes the sender's nickname: /changenick <newname>
type Rename struct {
	NewName string
}

// Chat is a plain broadcast message (no leading '/').
type Chat struct {
	Text string
}

func (Auth) isCommand()       {}
func (Register) isCommand()   {}
func (Exit) isCommand()       {}
func (Kick) isCommand()       {}
func (Ban) isCommand()        {}
func (Shutdown) isCommand()   {}
func (ActiveList) isCommand() {}
func (Whisper) isCommand()    {}
func (Rename) isCommand()     {}
func (Chat) isCommand()       {}

// UsageError reports malformed control command syntax. The message is
// suitable to send back to the client verbatim; the connection stays open.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func usage(msg string) error {
	return &UsageError{Message: msg}
}
