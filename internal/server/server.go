// Package server wires the emulator HTTP surface: chi routes for the
// documents API under "/" and "/v1", bearer auth and health.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/finsync/internal/server/handlers"
	"github.com/iudanet/finsync/internal/server/middleware"
	"github.com/iudanet/finsync/pkg/api"
)

// HealthPath is excluded from request logging.
const HealthPath = "/health"

// Config holds the router dependencies
type Config struct {
	Documents handlers.DocumentService
	Tokens    middleware.TokenValidator
	Health    *handlers.HealthHandler
	// Limiter ограничивает частоту запросов; nil - без ограничения
	Limiter *middleware.RateLimiter
	Logger  *slog.Logger
}

// NewRouter builds the emulator handler
func NewRouter(cfg Config) http.Handler {
	docs := handlers.NewDocumentHandler(cfg.Logger, cfg.Documents)

	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(cfg.Logger))
	r.Use(middleware.LoggingWithSkip(cfg.Logger, []string{HealthPath}))

	if cfg.Health != nil {
		r.Get(HealthPath, cfg.Health.Health)
	}

	mount := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.Logger, cfg.Tokens))
			if cfg.Limiter != nil {
				r.Use(middleware.RateLimitMiddleware(cfg.Limiter))
			}

			r.Post("/projects/{project}/databases/{database}/documents:commit", docs.Commit)
			r.HandleFunc("/projects/{project}/databases/{database}/documents/*", docs.Documents)
		})
	}
	mount(r)
	r.Route("/v1", mount)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, api.StatusNotFound, "no such endpoint")
	})

	return r
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Emulator listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
