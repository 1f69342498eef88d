// Package server implements the self-hosted collection server: per-user
// libraries in sqlite behind a token-authenticated REST API, with a
// WebSocket stream of snapshots for live updates.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Options configure the collection server
type Options struct {
	Addr           string
	DBPath         string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowSignup    bool
	CORSOrigins    []string
	LoginRateLimit int // attempts per minute per IP; 0 disables
}

// Server is a running collection server
type Server struct {
	opts    Options
	db      *DB
	tokens  *TokenManager
	hub     *Hub
	handler *Handler
	logger  *slog.Logger
}

// New opens the database and prepares the server
func New(opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	db, err := OpenDB(opts.DBPath)
	if err != nil {
		return nil, err
	}
	tokens, err := NewTokenManager(opts.JWTSecret, opts.TokenTTL)
	if err != nil {
		db.Close()
		return nil, err
	}
	if opts.JWTSecret == "" {
		logger.Warn("no jwt secret configured, tokens will not survive a restart")
	}

	hub := NewHub(db.ListEntries, logger)
	return &Server{
		opts:    opts,
		db:      db,
		tokens:  tokens,
		hub:     hub,
		handler: NewHandler(db, tokens, hub, opts.AllowSignup, logger),
		logger:  logger,
	}, nil
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	h := s.handler
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(metricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			login := r.With()
			if s.opts.LoginRateLimit > 0 {
				login = r.With(httprate.LimitByIP(s.opts.LoginRateLimit, time.Minute))
			}
			login.Post("/login", h.Login)
			r.With(h.Authenticate).Post("/logout", h.Logout)
		})

		r.Route("/library", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Get("/", h.ListLibrary)
			r.Get("/ws", h.LibraryWebSocket)
			r.Put("/{id}", h.PutEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = s.hub.RunWithContext(ctx)
	}()
	go s.pruneRevoked(ctx)

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("collection server listening", "addr", s.opts.Addr, "signup", s.opts.AllowSignup)
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	cancel()
	<-hubDone

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown failed", "error", err)
	}
	s.logger.Info("collection server stopped")
	return serveErr
}

// Close releases the database
func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) pruneRevoked(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.db.PruneRevoked(ctx, time.Now())
			if err != nil {
				s.logger.Warn("failed to prune revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("pruned revoked tokens", "count", n)
			}
		}
	}
}
