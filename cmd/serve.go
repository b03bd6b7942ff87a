package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/desertthunder/yard/internal/auth"
	"github.com/desertthunder/yard/internal/server"
	"github.com/desertthunder/yard/internal/shared"
	"github.com/desertthunder/yard/internal/store"
	"github.com/desertthunder/yard/internal/web"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

const sweepInterval = time.Minute

// Serve opens the database and serves the web application until the context is cancelled.
//
// A database that cannot be opened or migrated is fatal; the server never starts listening.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	if a := cmd.String("addr"); a != "" {
		addr = a
	}

	s, db, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	handler, cleanup, err := r.newApp(ctx, s)
	if err != nil {
		return err
	}
	defer cleanup()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	url := "http://" + ln.Addr().String()
	r.writePlain("→ Yard is running at %s\n", url)

	if cmd.Bool("open") {
		if err := r.browser(url); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlain("⚠ Could not open browser automatically. Please open %s\n", url)
		}
	}

	srv := server.NewHTTPServer(handler, server.Options{
		Addr:         addr,
		ReadTimeout:  r.config.Server.ReadTimeout.Duration,
		WriteTimeout: r.config.Server.WriteTimeout.Duration,
		Logger:       r.logger,
	})
	return srv.Serve(ctx, ln)
}

// newApp wires the session gate, pages, and middleware over s.
// cleanup releases the session backend and stops the throttle sweeper.
func (r *Runner) newApp(ctx context.Context, s *store.EntityStore) (http.Handler, func(), error) {
	cfg := r.config

	sessions, closeSessions, err := r.newSessionStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	throttle := auth.NewThrottle(cfg.Auth.LoginBurst, cfg.Auth.LoginInterval.Duration)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go throttle.RunSweeper(sweepCtx, sweepInterval)

	cleanup := func() {
		stopSweep()
		closeSessions()
	}

	gate := auth.NewSessionGate(s, sessions, auth.GateOptions{
		TTL:      cfg.Session.TTL.Duration,
		Throttle: throttle,
		Logger:   r.logger,
	})

	pages, err := web.New(s, gate, web.Options{
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		FormLimit:    server.RateLimit(cfg.Server.LoginRateLimit, time.Minute),
		Logger:       r.logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	mux := server.NewMux()
	mux.Use(server.Defaults(cfg.Server.RequestTimeout.Duration)...)
	mux.Use(server.RequestLogger(r.logger.With("component", "http")), server.CORS(cfg.Server.AllowedOrigins))
	mux.Handler(pages)
	mux.NotFound(pages.NotFound())

	return mux, cleanup, nil
}

// newSessionStore builds the configured session backend.
func (r *Runner) newSessionStore(ctx context.Context) (auth.SessionStore, func(), error) {
	cfg := r.config.Session

	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		sessions := auth.NewRedisStore(client, cfg.KeyPrefix)
		if err := sessions.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}

		r.logger.Info("using redis sessions", "addr", cfg.RedisAddr)
		return sessions, func() { client.Close() }, nil

	case "memory", "":
		sessions := auth.NewMemoryStore()
		sweepCtx, cancel := context.WithCancel(ctx)
		go sessions.RunSweeper(sweepCtx, sweepInterval)
		return sessions, cancel, nil

	default:
		return nil, nil, fmt.Errorf("%w: session.backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

var getRuntime = func() string { return runtime.GOOS }

// browserCommand returns the command that opens url on the current platform.
func browserCommand(url string) (*exec.Cmd, error) {
	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// openBrowser opens the default system browser to url.
func openBrowser(url string) error {
	cmd, err := browserCommand(url)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
