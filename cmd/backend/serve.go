package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Shuru63/skylark-lab-assignment/internal/config"
	"github.com/Shuru63/skylark-lab-assignment/internal/httpapi"
	"github.com/Shuru63/skylark-lab-assignment/internal/live"
	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
	"github.com/Shuru63/skylark-lab-assignment/internal/store/memory"
	"github.com/Shuru63/skylark-lab-assignment/internal/store/postgres"
	"github.com/Shuru63/skylark-lab-assignment/internal/store/sqlite"
	"github.com/Shuru63/skylark-lab-assignment/internal/supervisor"
	"github.com/Shuru63/skylark-lab-assignment/internal/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and websocket channel",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	registry := live.NewRegistry(tokens, live.Options{
		HeartbeatInterval: cfg.Live.HeartbeatInterval,
		SendBuffer:        cfg.Live.SendBuffer,
		WriteWait:         cfg.Live.WriteWait,
		MaxMessageSize:    cfg.Live.MaxMessageSize,
	})

	api := httpapi.NewServer(cfg, st, tokens, registry)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	tree := supervisor.NewTree("camera-backend", supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.Add(supervisor.NewHTTPService(httpServer, cfg.ListenAddr(), cfg.Server.ShutdownTimeout))
	tree.Add(registry)
	if cfg.Retention.AlertDays > 0 {
		tree.Add(supervisor.NewRetentionService(st, cfg.Retention.AlertDays, cfg.Retention.Interval))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("addr", cfg.ListenAddr()).
		Str("store", cfg.Store.Driver).
		Str("live_path", cfg.Live.Path).
		Int("alert_retention_days", cfg.Retention.AlertDays).
		Msg("starting camera backend")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	logging.Info().Msg("shutdown complete")
	return nil
}

func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := postgres.NewStore(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return pg, pg.Close, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db, db.Close, nil
	default:
		logging.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}
}
