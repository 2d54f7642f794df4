package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/X-Magic-X/console-network-chat/pkg/directory"
	"github.com/X-Magic-X/console-network-chat/pkg/logging"
	"github.com/X-Magic-X/console-network-chat/pkg/server"
	"github.com/X-Magic-X/console-network-chat/pkg/version"
)

func main() {
	defaults := server.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file (flags override it)")
	showVersion := flag.Bool("version", false, "Print version and exit")

	listenAddr := flag.String("listen", defaults.ListenAddr, "TCP bind address for chat clients")
	metricsAddr := flag.String("metrics", defaults.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	dbPath := flag.String("db", defaults.DBPath, "SQLite database file path")
	idleTimeout := flag.Duration("idle-timeout", time.Duration(defaults.IdleTimeout), "Disconnect sessions silent for longer than this")
	reapInterval := flag.Duration("reap-interval", time.Duration(defaults.ReapInterval), "How often to scan for idle sessions")
	adminLogin := flag.String("admin-login", "admin", "Login for the bootstrap admin account")
	adminName := flag.String("admin-name", "admin", "Username for the bootstrap admin account")

	logLevel := flag.String("log-level", defaults.LogLevel, "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", defaults.LogFormat, "Log format: text or json")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := server.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags given explicitly on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.ListenAddr = *listenAddr
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		case "db":
			cfg.DBPath = *dbPath
		case "idle-timeout":
			cfg.IdleTimeout = server.Duration(*idleTimeout)
		case "reap-interval":
			cfg.ReapInterval = server.Duration(*reapInterval)
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		}
	})

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	store, err := directory.Open(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	password, created, err := store.EnsureAdmin(*adminLogin, *adminName)
	if err != nil {
		slog.Error("ensure admin account", "err", err)
		os.Exit(1)
	}
	if created {
		// Printed once on first start; change it or keep it somewhere safe.
		slog.Info("admin account created", "login", *adminLogin, "password", password)
	}

	srv := server.New(cfg, server.Dependencies{Directory: store})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
