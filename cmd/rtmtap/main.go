// rtmtap connects to the Slack RTM stream and prints every event to
// stdout without archiving anything. Useful for checking a token and
// watching what a workspace actually sends.
//
// Usage: go run ./cmd/rtmtap --config configs/nestor.example.yaml
//
// The bot token comes from api.token in the config file or from the
// SLACK_TOKEN / TOKEN environment variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nestor-bot/nestor/internal/api"
	"github.com/nestor-bot/nestor/internal/auth"
	"github.com/nestor-bot/nestor/internal/config"
	"github.com/nestor-bot/nestor/internal/connection"
	"github.com/nestor-bot/nestor/internal/model"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	// Logs go to stderr; stdout carries the event stream.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.ApplyDefaults()

	token, err := auth.ResolveToken(cfg.API.Token)
	if err != nil {
		logger.Error("no token available", "error", err)
		os.Exit(1)
	}
	logger.Info("using token", "token", auth.Redact(token))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(cfg.API.BaseURL, token, api.WithLogger(logger))

	mgr := connection.NewManager(connection.ManagerConfig{
		ReconnectBaseDelay: cfg.Connection.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Connection.ReconnectMaxDelay,
		PingInterval:       cfg.Connection.PingInterval,
		PongTimeout:        cfg.Connection.PongTimeout,
		BufferSize:         cfg.Connection.BufferSize,
	}, client, logger)

	if err := mgr.Start(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := mgr.Stats()
				logger.Info("stats",
					"connected", stats.Connected,
					"forwarded", stats.Forwarded,
					"reconnects", stats.Reconnects,
					"pongs", stats.Pongs,
				)
			}
		}
	}()

	// Close the event channel once a signal arrives so the print loop
	// below drains and exits.
	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mgr.Stop(stopCtx)
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	for raw := range mgr.Events() {
		printEvent(raw, *verbose)
	}

	logger.Info("shutdown complete")
}

func printEvent(raw connection.RawEvent, verbose bool) {
	if verbose {
		var payload any
		if err := json.Unmarshal(raw.Data, &payload); err == nil {
			data, _ := json.MarshalIndent(payload, "", "  ")
			fmt.Printf("%s\n", data)
			return
		}
		fmt.Printf("%s\n", raw.Data)
		return
	}

	ev, err := model.Decode(raw.Data)
	if err != nil {
		fmt.Printf("[UNPARSED] %s\n", raw.Data)
		return
	}

	label := strings.ToUpper(ev.Type())
	if label == "" {
		label = "UNTYPED"
	}

	ts, _ := ev.Timestamp()
	fmt.Printf("[%s] channel=%s user=%s ts=%s subtype=%s\n",
		label, ev.ChannelID(), ev.UserID(), ts, ev.Subtype())
}
