package main

import (
	"context"
	"ctchen222/bookshelf/internal/api/controller"
	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/api/service"
	"ctchen222/bookshelf/internal/auth"
	"ctchen222/bookshelf/internal/config"
	"ctchen222/bookshelf/internal/db"
	"ctchen222/bookshelf/internal/db/migrations"
	"ctchen222/bookshelf/internal/events"
	"ctchen222/bookshelf/internal/library"
	"ctchen222/bookshelf/internal/logger"
	"ctchen222/bookshelf/internal/server"
	"ctchen222/bookshelf/internal/telemetry"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// app holds the process-wide dependencies shared by every subcommand.
type app struct {
	cfg       *config.Config
	db        *sqlx.DB
	rdb       *redis.Client
	accounts  repository.AccountRepository
	books     repository.BookRepository
	cache     repository.BookCache
	publisher events.Publisher
	shutdown  telemetry.ShutdownFunc
}

// newApp initializes telemetry and logging, opens the database, applies
// migrations and connects to Redis when configured. The caller must defer
// Close.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.InitOtel(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	logger.Init(level)
	gin.SetMode(gin.ReleaseMode)

	a := &app{cfg: cfg, shutdown: shutdown}

	a.db, err = db.Connect(ctx, cfg.DatabasePath)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrations.MigrateUp(a.db.DB); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a.cache = repository.NewNoopBookCache()
	a.publisher = events.NewNoopPublisher()
	if cfg.RedisAddr != "" {
		a.rdb, err = db.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.cache = repository.NewBookCache(a.rdb, cfg.CatalogCacheTTL)
		a.publisher = events.NewRedisPublisher(a.rdb)
	}

	a.accounts = repository.NewAccountRepository(a.db)
	a.books = repository.NewBookRepository(a.db)
	return a, nil
}

// newServer wires services and controllers into the HTTP server.
func (a *app) newServer() *server.Server {
	authService := service.NewAuthService(a.accounts, auth.NewIssuer(a.cfg.JWTSecret, a.cfg.TokenTTL), a.publisher)
	bookService := service.NewBookService(a.books, a.cache, a.accounts, library.New(a.cfg.PremiumDir), a.publisher)
	walletService := service.NewWalletService(a.accounts, a.publisher)

	srv := server.NewServer(
		server.Options{
			WebDir:        a.cfg.WebDir,
			AuthRateLimit: a.cfg.AuthRateLimit,
			AuthRateBurst: a.cfg.AuthRateBurst,
		},
		a.db,
		authService,
		controller.NewUserController(authService, walletService),
		controller.NewBookController(bookService),
	)
	srv.RegisterHandlers()
	return srv
}

// Close releases every resource newApp acquired.
func (a *app) Close(ctx context.Context) {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			slog.Warn("Error closing redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("Error closing database", "error", err)
		}
	}
	if err := a.shutdown(ctx); err != nil {
		slog.Warn("Error shutting down telemetry", "error", err)
	}
}
