package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nestor-bot/nestor/internal/api"
	"github.com/nestor-bot/nestor/internal/auth"
	"github.com/nestor-bot/nestor/internal/config"
	"github.com/nestor-bot/nestor/internal/connection"
	"github.com/nestor-bot/nestor/internal/reporter"
	"github.com/nestor-bot/nestor/internal/resolver"
	"github.com/nestor-bot/nestor/internal/router"
	"github.com/nestor-bot/nestor/internal/sink"
	"github.com/nestor-bot/nestor/internal/version"
)

const shutdownTimeout = 10 * time.Second

func runArchiver(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger := newLogger(verbose).With("run_id", runID)
	slog.SetDefault(logger)

	logger.Info("starting nestor",
		"version", version.Version,
		"commit", version.Commit,
		"config", cfgFile,
	)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return &usageError{err: err}
	}
	if react {
		cfg.Router.React = true
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return &usageError{err: err}
	}

	dest := cfg.Archive.Dir
	if len(args) == 1 {
		dest = args[0]
	}
	if dest == "" {
		return usagef("no archive destination: pass a directory argument or set archive.dir")
	}

	token, err := auth.ResolveToken(cfg.API.Token)
	if err != nil {
		return &usageError{err: err}
	}
	if !auth.HasKnownPrefix(token) {
		logger.Warn("token does not look like a slack token", "token", auth.Redact(token))
	}

	logger.Info("configuration loaded",
		"destination", dest,
		"event_types", len(cfg.Events),
		"token", auth.Redact(token),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(cfg.API.BaseURL, token,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	ident, err := client.AuthTest(ctx)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	logger.Info("authenticated",
		"team", ident.Team,
		"user", ident.User,
		"user_id", ident.UserID,
	)

	archive, err := sink.New(dest, logger)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		if err := archive.Close(); err != nil {
			logger.Error("closing archive", "error", err)
		}
	}()

	directory := resolver.NewDirectory(client, logger)

	mgr := connection.NewManager(connection.ManagerConfig{
		ReconnectBaseDelay: cfg.Connection.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Connection.ReconnectMaxDelay,
		PingInterval:       cfg.Connection.PingInterval,
		PongTimeout:        cfg.Connection.PongTimeout,
		BufferSize:         cfg.Connection.BufferSize,
	}, client, logger)

	rt := router.New(router.Config{
		Events:     cfg.Events,
		Augment:    *cfg.Router.Augment,
		React:      cfg.Router.React,
		Reaction:   cfg.Router.Reaction,
		LogDropped: *cfg.Router.LogDropped,
	}, mgr.Events(), directory, archive, client, logger)

	var health *http.Server
	if cfg.Health.Addr != "" {
		health = &http.Server{
			Addr:    cfg.Health.Addr,
			Handler: newHealthHandler(runID, mgr, rt, archive, directory),
		}
		go func() {
			logger.Info("health server listening", "addr", cfg.Health.Addr)
			if err := health.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()
	}

	if err := mgr.Start(ctx); err != nil {
		return err
	}

	rep := reporter.New(reporter.DefaultConfig(), func() []slog.Attr {
		conn := mgr.Stats()
		routing := rt.Stats()
		files := archive.Stats()
		return []slog.Attr{
			slog.Bool("connected", conn.Connected),
			slog.Int64("forwarded", conn.Forwarded),
			slog.Int64("reconnects", conn.Reconnects),
			slog.Int64("archived", routing.Archived),
			slog.Int64("skipped", routing.Skipped),
			slog.Int64("dropped", routing.Dropped),
			slog.Int64("malformed", routing.Malformed),
			slog.Int("files_open", files.FilesOpen),
			slog.Int64("bytes", files.Bytes),
		}
	}, logger)
	if err := rep.Start(ctx); err != nil {
		return err
	}

	logger.Info("nestor running", "destination", dest)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Background, not gctx: the router must drain everything the
		// manager buffered before exiting. Stop closes the channel.
		return rt.Run(context.Background())
	})

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return mgr.Stop(stopCtx)
	})

	err = g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	rep.Stop(stopCtx)
	if health != nil {
		health.Shutdown(stopCtx)
	}

	stats := rt.Stats()
	logger.Info("nestor stopped",
		"archived", stats.Archived,
		"skipped", stats.Skipped,
		"dropped", stats.Dropped,
		"reconnects", mgr.Stats().Reconnects,
	)

	return err
}

// newLogger builds the process logger. Debug level when verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
