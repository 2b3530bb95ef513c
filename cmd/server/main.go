package main

import (
	"context"
	"ctchen222/bookshelf/internal/config"
	"ctchen222/bookshelf/internal/db/migrations"
	"ctchen222/bookshelf/internal/events"
	"ctchen222/bookshelf/internal/seed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:          "bookshelf",
	Short:        "Token-gated book catalog server",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate, seed and serve the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		version, dirty, err := migrations.Version(a.db.DB)
		if err != nil {
			return err
		}
		fmt.Printf("Schema at version %d (dirty=%t)\n", version, dirty)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate an empty catalog with the bundled books",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		n, err := seed.Run(cmd.Context(), a.books, a.cache)
		if err != nil {
			return err
		}
		fmt.Printf("Inserted %d books\n", n)
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail activity events published by running servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.RedisAddr == "" {
			return errors.New("redis address must be set to tail events")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		return events.Subscribe(ctx, a.rdb, func(ctx context.Context, e events.Event) error {
			fmt.Printf("%s %-20s %s\n", e.OccurredAt.Format(time.RFC3339), e.Type, e.Payload)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	config.AddFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, eventsCmd)
}

// loadConfig layers defaults, the config file, the environment and the
// command-line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("reading flags: %w", err)
	}
	if cfg.DatabasePath == "" {
		return nil, errors.New("database path must be set")
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close(context.Background())

	if _, err := seed.Run(ctx, a.books, a.cache); err != nil {
		return err
	}

	srv := a.newServer()
	srv.StartMaintenance(ctx)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ListenAndServe: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exiting")
	return nil
}
