package server

import (
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/X-Magic-X/console-network-chat/pkg/command"
	"github.com/X-Magic-X/console-network-chat/pkg/directory"
	"github.com/X-Magic-X/console-network-chat/pkg/model"
	"github.com/X-Magic-X/console-network-chat/pkg/wire"
)

const authPrompt = "authenticate with /auth <login> <password> or register with /reg <login> <password> <username>"

// sendBufferSize bounds the per-session outbound queue. A peer that
// stops reading fills its own queue and starts losing frames; it never
// blocks anyone else.
const sendBufferSize = 64

// drainGrace is how long Terminate waits for the writer to flush queued
// frames (the final /kickok or /exitok) before closing the connection.
const drainGrace = time.Second

var (
	errSessionClosed  = errors.New("server: session closed")
	errSendBufferFull = errors.New("server: send buffer full")
)

// Session owns one client connection from accept to teardown. It runs
// through authentication into the chat loop on its own goroutine; the
// registry, the reaper, and moderation may all touch it concurrently.
type Session struct {
	conn   net.Conn
	server *Server

	// out feeds the writer goroutine, the connection's only writer.
	// Senders enqueue without blocking; frames stay whole because one
	// goroutine owns the socket.
	out        chan string
	done       chan struct{}
	writerDone chan struct{}

	mu            sync.RWMutex
	username      string
	role          model.Role
	userID        int64
	authenticated bool

	lastActivity atomic.Int64 // unix nanoseconds
	closed       atomic.Bool
}

func newSession(srv *Server, conn net.Conn) *Session {
	s := &Session{
		conn:       conn,
		server:     srv,
		out:        make(chan string, sendBufferSize),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	s.touch()
	go s.writeLoop()
	return s
}

// Username returns the session's current username, empty before auth.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Role returns the session's role, RoleUser before auth.
func (s *Session) Role() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// UserID returns the directory user ID, zero before auth.
func (s *Session) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Authenticated reports whether the session has passed authentication.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Alive reports whether the session has not been terminated.
func (s *Session) Alive() bool {
	return !s.closed.Load()
}

// LastActivity returns the time of the last frame read from the client.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// setUsername is called by the registry while holding its lock, so the
// registry key and the session's own name change together.
func (s *Session) setUsername(name string) {
	s.mu.Lock()
	s.username = name
	s.mu.Unlock()
}

func (s *Session) setIdentity(acct *directory.Account) {
	s.mu.Lock()
	s.username = acct.Username
	s.role = acct.Role
	s.userID = acct.UserID
	s.authenticated = true
	s.mu.Unlock()
}

func (s *Session) clearIdentity() {
	s.mu.Lock()
	s.username = ""
	s.role = model.RoleUser
	s.userID = 0
	s.authenticated = false
	s.mu.Unlock()
}

// SendSystem queues one frame for the client without blocking. When the
// peer has stopped reading and its queue is full, the frame is dropped
// and the failure reported to the caller.
func (s *Session) SendSystem(text string) error {
	if s.closed.Load() {
		return errSessionClosed
	}
	select {
	case s.out <- text:
		return nil
	default:
		return errSendBufferFull
	}
}

// writeLoop is the connection's single writer. It drains the outbound
// queue until the session is done, then flushes whatever is still queued
// so final control frames reach a cooperating peer.
func (s *Session) writeLoop() {
	defer close(s.writerDone)
	for {
		select {
		case msg := <-s.out:
			if err := wire.WriteMessage(s.conn, msg); err != nil {
				return
			}
		case <-s.done:
			for {
				select {
				case msg := <-s.out:
					if err := wire.WriteMessage(s.conn, msg); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// SendDisplay writes a display line prefixed with the wall-clock time,
// the form all chat traffic takes.
func (s *Session) SendDisplay(text string) error {
	return s.SendSystem("[" + time.Now().Format("15:04:05") + "] " + text)
}

// Run drives the session through authentication and chat until the
// client leaves, the connection breaks, or the session is terminated.
func (s *Session) Run() {
	defer s.Terminate()
	if !s.runAuth() {
		return
	}
	s.runChat()
}

// Terminate tears the session down exactly once: remove from the
// registry, give the writer a moment to flush queued frames, then close
// the connection to unblock any pending read. Safe to call from the
// session's own goroutine, moderation, and the reaper.
func (s *Session) Terminate() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.server.registry.Remove(s)
	close(s.done)
	select {
	case <-s.writerDone:
	case <-time.After(drainGrace):
		// Peer is not draining; abandon whatever is still queued.
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		slog.Debug("session close", "err", err)
	}
	if s.Authenticated() {
		slog.Info("session closed", "username", s.Username())
	}
}

type authResult int

const (
	authRetry authResult = iota
	authOK
	authFatal
)

// runAuth loops until the client authenticates, gives up, or trips a
// ban. Only /auth, /reg, and /exit do anything here; everything else
// re-prompts. Returns true when the session may enter chat.
func (s *Session) runAuth() bool {
	for {
		if err := s.SendSystem(authPrompt); err != nil {
			return false
		}
		line, err := wire.ReadMessage(s.conn)
		if err != nil {
			return false
		}
		s.touch()

		cmd, perr := command.Parse(line)
		if perr != nil {
			var ue *command.UsageError
			if errors.As(perr, &ue) {
				_ = s.SendSystem(ue.Error())
			}
			continue
		}

		switch c := cmd.(type) {
		case command.Exit:
			_ = s.SendSystem("/exitok")
			return false
		case command.Auth:
			switch s.handleAuth(c) {
			case authOK:
				return true
			case authFatal:
				return false
			}
		case command.Register:
			switch s.handleRegister(c) {
			case authOK:
				return true
			case authFatal:
				return false
			}
		}
	}
}

func (s *Session) handleAuth(c command.Auth) authResult {
	acct, err := s.server.directory.Authenticate(c.Login, c.Password)
	if errors.Is(err, directory.ErrInvalidCredentials) {
		AuthTotal.WithLabelValues("rejected").Inc()
		_ = s.SendSystem("invalid login or password")
		return authRetry
	}
	if err != nil {
		slog.Error("authenticate failed", "err", err)
		_ = s.SendSystem("error: authentication is temporarily unavailable")
		return authRetry
	}

	if s.server.registry.IsUsernameBusy(acct.Username) {
		AuthTotal.WithLabelValues("busy").Inc()
		_ = s.SendSystem("this account is already in use")
		return authRetry
	}

	ban, err := s.server.directory.IsBanned(acct.UserID)
	if err != nil {
		slog.Error("ban lookup failed", "err", err)
		_ = s.SendSystem("error: authentication is temporarily unavailable")
		return authRetry
	}
	if ban != nil {
		AuthTotal.WithLabelValues("banned").Inc()
		_ = s.SendSystem("/kickok " + ban.Reason)
		if ban.Permanent() {
			_ = s.SendSystem("you are banned permanently")
		} else {
			_ = s.SendSystem("you are banned until " + ban.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
		}
		slog.Info("banned user rejected", "username", acct.Username, "reason", ban.Reason)
		return authFatal
	}

	return s.enterChat(acct, "/authok")
}

func (s *Session) handleRegister(c command.Register) authResult {
	acct, err := s.server.directory.Register(c.Login, c.Password, c.Username)
	switch {
	case err == nil:
	case errors.Is(err, directory.ErrLoginTaken):
		_ = s.SendSystem("this login is already taken")
		return authRetry
	case errors.Is(err, directory.ErrUsernameTaken):
		_ = s.SendSystem("this username is already taken")
		return authRetry
	case errors.Is(err, model.ErrLoginTooShort),
		errors.Is(err, model.ErrPasswordTooShort),
		errors.Is(err, model.ErrUsernameTooShort),
		errors.Is(err, model.ErrUsernameTooLong):
		_ = s.SendSystem("login and password need at least 3 characters, username 3 to 30")
		return authRetry
	default:
		slog.Error("register failed", "err", err)
		_ = s.SendSystem("error: registration is temporarily unavailable")
		return authRetry
	}

	AuthTotal.WithLabelValues("registered").Inc()
	return s.enterChat(acct, "/regok")
}

// enterChat installs the identity and joins the registry, acking with
// /authok or /regok depending on how the client got here. A losing race
// against another session for the same account falls back to retry.
func (s *Session) enterChat(acct *directory.Account, ack string) authResult {
	s.setIdentity(acct)
	if err := s.server.registry.Add(s); err != nil {
		s.clearIdentity()
		AuthTotal.WithLabelValues("busy").Inc()
		_ = s.SendSystem("this account is already in use")
		return authRetry
	}
	AuthTotal.WithLabelValues("ok").Inc()
	if err := s.SendSystem(ack + " " + acct.Username); err != nil {
		return authFatal
	}
	slog.Info("user authenticated", "username", acct.Username, "role", acct.Role.String())
	return authOK
}

// runChat is the main dispatch loop for an authenticated session.
func (s *Session) runChat() {
	for {
		line, err := wire.ReadMessage(s.conn)
		if err != nil {
			return
		}
		s.touch()

		cmd, perr := command.Parse(line)
		if perr != nil {
			var ue *command.UsageError
			if errors.As(perr, &ue) {
				_ = s.SendSystem(ue.Error())
			}
			continue
		}

		switch c := cmd.(type) {
		case command.Exit:
			s.server.registry.Broadcast(s.Username() + " left the chat")
			_ = s.SendSystem("/exitok")
			return
		case command.Chat:
			MessagesTotal.WithLabelValues("chat").Inc()
			s.server.registry.Broadcast(s.Username() + ": " + c.Text)
		case command.Whisper:
			s.handleWhisper(c)
		case command.Rename:
			s.handleRename(c)
		case command.ActiveList:
			names := s.server.registry.SnapshotUsernames()
			_ = s.SendSystem("Active users:\n" + strings.Join(names, "\n"))
		case command.Kick:
			s.server.Kick(s, c.Target, c.Reason)
		case command.Ban:
			s.server.Ban(s, c.Target, time.Duration(c.Minutes)*time.Minute, c.Reason)
		case command.Shutdown:
			s.server.Shutdown(s)
		case command.Auth, command.Register:
			_ = s.SendSystem("error: already authenticated")
		}
	}
}

func (s *Session) handleWhisper(c command.Whisper) {
	if c.Target == s.Username() {
		_ = s.SendSystem("you cannot message yourself")
		return
	}
	target, ok := s.server.registry.Find(c.Target)
	if !ok {
		_ = s.SendSystem("user " + c.Target + " not found")
		return
	}
	MessagesTotal.WithLabelValues("whisper").Inc()
	_ = s.SendDisplay("me -> " + c.Target + ": " + c.Text)
	_ = target.SendDisplay(s.Username() + " -> me: " + c.Text)
}

func (s *Session) handleRename(c command.Rename) {
	if err := model.ValidateUsername(c.NewName); err != nil {
		_ = s.SendSystem("nickname must be between 3 and 30 characters")
		return
	}

	old := s.Username()
	ok, err := s.server.directory.RenameUser(old, c.NewName)
	if err != nil {
		slog.Error("rename failed", "username", old, "err", err)
		_ = s.SendSystem("error: could not change nickname")
		return
	}
	if !ok {
		_ = s.SendSystem("this nickname is already taken")
		return
	}

	if !s.server.registry.Rename(s, c.NewName) {
		// Another live session got the name first; put the directory back.
		if _, rerr := s.server.directory.RenameUser(c.NewName, old); rerr != nil {
			slog.Error("rename rollback failed", "username", old, "err", rerr)
		}
		_ = s.SendSystem("this nickname is already taken")
		return
	}

	s.server.registry.Broadcast("user " + old + " changed nickname to " + c.NewName)
	_ = s.SendSystem("/nickchanged " + c.NewName)
	slog.Info("nickname changed", "from", old, "to", c.NewName)
}
