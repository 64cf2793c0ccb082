// Package http exposes the JSON API and the static exports directory.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/log"
	"fintrack/internal/services"
)

type Server struct {
	http.Server
	auth         *services.AuthService
	categories   *services.CategoryService
	transactions *services.TransactionService
	exports      *services.ExportService
	rateLimiter  *rateLimiter
	logger       *log.Logger
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// exportDir is served read-only under /static/exports/.
func NewServer(
	addr string,
	auth *services.AuthService,
	categories *services.CategoryService,
	transactions *services.TransactionService,
	exports *services.ExportService,
	exportDir string,
	logger *log.Logger,
) *Server {
	s := &Server{
		auth:         auth,
		categories:   categories,
		transactions: transactions,
		exports:      exports,
		rateLimiter:  newRateLimiter(),
		logger:       logger.WithComponent(log.ComponentHTTP),
	}

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.With(s.rateLimit).Post("/register", s.handleRegister)
		r.With(s.rateLimit).Post("/login", s.handleLogin)
		r.With(s.authenticate).Get("/me", s.handleMe)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.handleCreateCategory)
		r.Get("/", s.handleListCategories)
		r.Get("/{id}", s.handleGetCategory)
		r.Patch("/{id}", s.handleUpdateCategory)
		r.Delete("/{id}", s.handleDeleteCategory)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.handleCreateTransaction)
		r.Get("/", s.handleListTransactions)
		r.Get("/balance", s.handleBalance)
		r.Get("/analytics", s.handleMonthAnalytics)
		r.Get("/category_analytics", s.handleCategoryAnalytics)
		r.Get("/export", s.handleSyncExport)
		r.Get("/{id}", s.handleGetTransaction)
		r.Patch("/{id}", s.handleUpdateTransaction)
		r.Delete("/{id}", s.handleDeleteTransaction)
	})

	r.Route("/api/export", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.handleSubmitExport)
		r.Get("/status/{taskID}", s.handleExportStatus)
	})

	fileServer := http.StripPrefix("/static/exports/", http.FileServer(http.Dir(exportDir)))
	r.Get("/static/exports/*", fileServer.ServeHTTP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter's cleanup goroutine along with the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
