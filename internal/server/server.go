// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root. It is the only place that knows
// which concrete store, analyzer and HTTP clients are in use:
//
//	config.Config ─┬─ store (sqlite | postgres) ─┬─ AuthService  ─ AuthHandler
//	               ├─ TokenService / bcrypt ─────┘
//	               ├─ source.Acquirer ──────────┬─ AuditService ─ AuditHandler
//	               ├─ groq.Analyzer ────────────┘
//	               └─ incident.Client ──────────── IncidentHandler
//
// Everything below this package depends on interfaces only.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/contract-auditor/internal/analysis"
	"github.com/sakif/contract-auditor/internal/analysis/groq"
	"github.com/sakif/contract-auditor/internal/auth"
	"github.com/sakif/contract-auditor/internal/config"
	"github.com/sakif/contract-auditor/internal/handler"
	"github.com/sakif/contract-auditor/internal/incident"
	"github.com/sakif/contract-auditor/internal/middleware"
	"github.com/sakif/contract-auditor/internal/repository"
	"github.com/sakif/contract-auditor/internal/repository/postgres"
	sqliteRepo "github.com/sakif/contract-auditor/internal/repository/sqlite"
	"github.com/sakif/contract-auditor/internal/service"
	"github.com/sakif/contract-auditor/internal/source"
)

// shutdownTimeout is how long in-flight requests get after SIGINT/SIGTERM.
// It matches the default write timeout so a running audit can finish.
const shutdownTimeout = 3 * time.Minute

// Deps are the collaborators the server wires together. New builds them
// from config; tests build them by hand with fakes.
type Deps struct {
	Store     repository.Store
	Tokens    *auth.TokenService
	Passwords *auth.PasswordService
	Acquirer  service.SourceAcquirer
	Analyzer  analysis.Analyzer
	Incidents handler.IncidentFeed
}

// Server represents the HTTP server and all its dependencies.
// It owns the store and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
}

// New opens the configured store and builds every production dependency.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		store.Close()
		return nil, err
	}

	analyzer, err := groq.New(groq.Config{
		APIKey:    cfg.GroqAPIKey,
		BaseURL:   cfg.GroqBaseURL,
		Model:     cfg.GroqModel,
		MaxTokens: cfg.AnalysisMaxTokens,
	}, logger.With(slog.String("component", "groq")))
	if err != nil {
		store.Close()
		return nil, err
	}

	deps := Deps{
		Store:     store,
		Tokens:    tokens,
		Passwords: auth.NewPasswordService(),
		Acquirer: source.New(
			source.NewGitHubClient(ctx, cfg.GitHubToken),
			logger.With(slog.String("component", "source")),
		),
		Analyzer:  analyzer,
		Incidents: incident.New(cfg.IncidentFeedURL, nil, logger.With(slog.String("component", "incident"))),
	}

	return NewWithDeps(cfg, deps, logger), nil
}

// NewWithDeps builds the router around already-constructed dependencies.
func NewWithDeps(cfg config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  deps.Store,
	}
	s.setupRoutes(deps)
	return s
}

// openStore picks the backend from DB_DRIVER.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.DriverSQLite, "":
		if cfg.DBPath != ":memory:" {
			// Like `mkdir -p`: the data directory may not exist on first run.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqliteRepo.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /                    → liveness text
//	GET  /healthz             → {"status":"ok"}
//	POST /api/register        → create account
//	POST /api/login           → get a bearer token
//	GET  /api/me              → current user            (auth)
//	POST /api/audits          → run an audit            (auth)
//	GET  /api/audits          → audit history           (auth)
//	GET  /api/audits/{id}     → one audit               (auth)
//	GET  /api/attacks         → recent real-world hacks
//
// The unprefixed paths the legacy front-end calls (/register, /login,
// /audit, /audits, /attacks) are mounted on the same handlers.
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can include it; Recoverer runs inside
// the logger so a panic is still logged as a 500; CORS runs before routing
// so preflight OPTIONS requests never hit auth.
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authService := service.NewAuthService(deps.Store, deps.Tokens, deps.Passwords, s.logger)
	auditService := service.NewAuditService(deps.Store, deps.Acquirer, deps.Analyzer, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	auditHandler := handler.NewAuditHandler(auditService, s.logger)
	incidentHandler := handler.NewIncidentHandler(deps.Incidents, s.logger)

	requireAuth := auth.RequireAuth(authService)

	s.router.Get("/", handler.HandleRoot)
	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/attacks", incidentHandler.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/audits", auditHandler.HandleSubmit)
			r.Get("/audits", auditHandler.HandleList)
			r.Get("/audits/{id}", auditHandler.HandleGet)
		})
	})

	// Legacy paths.
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Get("/attacks", incidentHandler.HandleList)
	s.router.With(requireAuth).Post("/audit", auditHandler.HandleSubmit)
	s.router.With(requireAuth).Get("/audits", auditHandler.HandleList)
}

// Start runs the HTTP server until SIGINT/SIGTERM or until ctx is cancelled,
// then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait for in-flight requests (an audit can take minutes)
//  3. Close the store
func (s *Server) Start(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing database", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Audits block on the model; the default 15s would cut them off.
		WriteTimeout: s.config.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("db_driver", s.config.DBDriver),
			slog.String("model", s.config.GroqModel),
			slog.Duration("write_timeout", srv.WriteTimeout),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
