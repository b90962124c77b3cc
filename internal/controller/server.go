// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"postplane/internal/controller/handlers"
	"postplane/internal/controller/middleware"
)

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server.
func New(addr string, store handlers.StoreFactory, uploader handlers.Uploader, executor handlers.Executor, internalSecret string) *Server {
	h := handlers.New(store, uploader, executor)
	authMW := middleware.AuthMiddleware(store)
	rateMW := middleware.RateLimitMiddleware()
	internalMW := middleware.RequireInternalAuth(internalSecret)

	authed := func(next http.HandlerFunc) http.Handler {
		return authMW(rateMW(next))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /users", h.CreateUser)

	// Public authenticated apis
	mux.Handle("POST /accounts", authed(h.LinkAccount))
	mux.Handle("POST /posts/schedule", authed(h.SchedulePost))
	mux.Handle("GET /posts/{id}", authed(h.GetPost))
	mux.Handle("GET /schedules/{id}", authed(h.GetSchedule))

	// Internal endpoints.
	// These should run on a separate port or behind strict network rules.
	mux.Handle("POST /internal/schedules/{id}/execute", internalMW(http.HandlerFunc(h.ExecuteSchedule)))

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
