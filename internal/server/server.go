// Package server exposes the ledger facade as a JSON HTTP API. It is
// the presentation adapter: thin routing and encoding around the
// facade, with no domain logic of its own.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairtab/fairtab/internal/connectivity"
	"github.com/fairtab/fairtab/internal/identity"
	"github.com/fairtab/fairtab/internal/ledger"
)

// Config holds server configuration.
type Config struct {
	Port int
}

// Server wires the facade to HTTP routes.
type Server struct {
	router   *chi.Mux
	config   Config
	ledger   *ledger.Ledger
	resolver *identity.Resolver
	monitor  *connectivity.Monitor
}

// New creates a server around the given facade.
func New(cfg Config, l *ledger.Ledger, resolver *identity.Resolver, monitor *connectivity.Monitor) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		ledger:   l,
		resolver: resolver,
		monitor:  monitor,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/status", s.handleStatus)

		r.Get("/friends", s.handleListFriends)
		r.Post("/friends", s.handleAddFriend)
		r.Put("/friends/{email}", s.handleUpdateFriend)
		r.Delete("/friends/{email}", s.handleRemoveFriend)

		r.Get("/groups", s.handleListGroups)
		r.Post("/groups", s.handleAddGroup)
		r.Put("/groups/{id}", s.handleUpdateGroup)
		r.Delete("/groups/{id}", s.handleRemoveGroup)
		r.Get("/groups/{id}/expenses", s.handleGroupExpenses)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleAddExpense)
		r.Put("/expenses/{id}", s.handleUpdateExpense)
		r.Delete("/expenses/{id}", s.handleRemoveExpense)

		r.Get("/balances", s.handleBalances)
		r.Get("/balances/summary", s.handleBalanceSummary)

		r.Get("/snapshot", s.handleExport)
		r.Post("/snapshot", s.handleImport)

		r.Post("/signout", s.handleSignOut)
	})
}

// Handler returns the assembled router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", s.config.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server stopped gracefully")
	}
	return nil
}

// requestLogger logs each request with timing info.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
