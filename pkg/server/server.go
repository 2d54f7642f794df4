// Package server implements the chat relay: the TCP accept loop, the
// per-connection session state machine, the registry of live sessions,
// the idle reaper, and admin moderation. Account state lives behind the
// directory.Directory interface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/X-Magic-X/console-network-chat/pkg/directory"
)

// Dependencies are the external collaborators injected into a Server.
type Dependencies struct {
	Directory directory.Directory
}

// Server ties the listener, registry, reaper, and directory together.
type Server struct {
	cfg       Config
	registry  *Registry
	reaper    *IdleReaper
	directory directory.Directory

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// New creates a Server from config and dependencies.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	reg := NewRegistry()
	return &Server{
		cfg:       cfg,
		registry:  reg,
		reaper:    NewIdleReaper(reg, time.Duration(cfg.ReapInterval), time.Duration(cfg.IdleTimeout)),
		directory: deps.Directory,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Registry exposes the live session registry, mainly for tests.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Start opens the listener and launches the accept loop and the idle
// reaper. It does not block.
func (s *Server) Start() error {
	if s.directory == nil {
		return fmt.Errorf("server: missing directory dependency")
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.listener = ln
	s.reaper.Start()
	go s.acceptLoop(ln)
	slog.Info("chat server listening", "addr", ln.Addr().String())
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				slog.Error("accept failed", "err", err)
				continue
			}
		}
		ConnectionsTotal.Inc()
		slog.Debug("client connected", "remote", conn.RemoteAddr().String())
		sess := newSession(s, conn)
		go sess.Run()
	}
}

// Run starts the server and blocks until an admin /shutdown or an OS
// signal. On signal it drains sessions the same way /shutdown does.
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}
	s.startMetricsHTTP()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		slog.Info("signal received, shutting down", "signal", sig.String())
		s.drainSessions()
		s.Stop()
	case <-s.ctx.Done():
		// Admin /shutdown already drained the sessions.
	}

	s.reaper.Wait()
	slog.Info("chat server stopped")
	return nil
}

// Stop cancels the server context and closes the listener. Safe to call
// more than once. Live sessions are not touched; drainSessions handles
// those on the shutdown paths.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}
