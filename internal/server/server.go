package server

import (
	"context"
	"ctchen222/bookshelf/internal/api/controller"
	"ctchen222/bookshelf/internal/api/middleware"
	"ctchen222/bookshelf/internal/api/response"
	"ctchen222/bookshelf/internal/api/service"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("server")

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options tune the HTTP surface.
type Options struct {
	WebDir        string
	AuthRateLimit float64
	AuthRateBurst int
	Logger        *slog.Logger
}

// Server owns the gin engine serving the bookshelf API.
type Server struct {
	engine  *gin.Engine
	opts    Options
	db      Pinger
	auth    service.AuthService
	users   *controller.UserController
	books   *controller.BookController
	limiter *middleware.RateLimiter
}

func NewServer(
	opts Options,
	db Pinger,
	authService service.AuthService,
	users *controller.UserController,
	books *controller.BookController,
) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.AccessLog(opts.Logger), middleware.CORS())

	return &Server{
		engine:  engine,
		opts:    opts,
		db:      db,
		auth:    authService,
		users:   users,
		books:   books,
		limiter: middleware.NewRateLimiter(opts.AuthRateLimit, opts.AuthRateBurst),
	}
}

func (s *Server) RegisterHandlers() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.POST("/register", s.limiter.Handler(), s.users.Register)
	api.POST("/login", s.limiter.Handler(), s.users.Login)
	api.GET("/books", s.books.ListBooks)

	protected := api.Group("", middleware.RequireAuth(s.auth))
	protected.GET("/books/:id/pdf", s.books.DownloadPDF)
	protected.POST("/buy-tokens", s.users.BuyTokens)

	s.engine.NoRoute(func(c *gin.Context) {
		response.ErrorResponse(c, http.StatusNotFound, "Not found")
	})
}

// Handler returns the engine wrapped with OpenTelemetry HTTP instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.engine, "bookshelf",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// StartMaintenance sweeps idle rate-limit entries until ctx is done.
func (s *Server) StartMaintenance(ctx context.Context) {
	s.limiter.StartCleanup(ctx, time.Minute, 10*time.Minute)
}

func (s *Server) handleIndex(c *gin.Context) {
	index := filepath.Join(s.opts.WebDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(c.Request.Context(), "Failed to stat index page", "path", index, "error", err)
		}
		response.ErrorResponse(c, http.StatusNotFound, "Not found")
		return
	}
	c.File(index)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleHealth")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database unreachable")
		slog.ErrorContext(ctx, "Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
