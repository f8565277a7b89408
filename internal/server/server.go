// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package server exposes the Argus HTTP surface: health and backend status
// endpoints plus the streaming chat route.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/argus-dev/argus/internal/provider"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps a chi router with a huma API and the chat stream route.
type Server struct {
	router      chi.Router
	api         huma.API
	cfg         Config
	chatHandler ChatHandler
}

// New creates a Server with chi router, huma API, health endpoint, and CORS.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, arguserr.New(arguserr.CodeServerStartFailure, "listen address is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Minute
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware(cfg.CORSOrigins))

	humaConfig := huma.DefaultConfig("Argus", "0.1.0")
	humaConfig.Info.Description = "Conversational security assistant API"
	api := humachi.New(r, humaConfig)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*HealthResponse, error) {
		return &HealthResponse{Body: HealthBody{Status: "ok"}}, nil
	})

	srv := &Server{
		router: r,
		api:    api,
		cfg:    cfg,
	}

	// The chat route answers 503 until a ChatHandler is registered.
	srv.registerChatRoute()

	return srv, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// RegisterProviderRoutes exposes backend availability at
// GET /api/v1/providers, computed on demand from the checker.
func (s *Server) RegisterProviderRoutes(checker *provider.Checker, chain []provider.Kind) {
	if len(chain) == 0 {
		chain = provider.DefaultChain()
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/api/v1/providers",
		Summary:     "List model backends and their availability",
		Tags:        []string{"providers"},
	}, func(ctx context.Context, _ *struct{}) (*ProvidersResponse, error) {
		descriptors := checker.DescribeAll(ctx, chain)
		out := make([]ProviderStatus, 0, len(descriptors))
		for _, d := range descriptors {
			out = append(out, ProviderStatus{
				Kind:      string(d.Kind),
				Models:    d.Models,
				Available: d.Available,
				Reason:    d.Reason,
			})
		}
		return &ProvidersResponse{Body: ProvidersBody{Providers: out}}, nil
	})
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return arguserr.Wrapf(err, arguserr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return arguserr.Wrap(err, arguserr.CodeServerShutdownFailure, "shutting down")
	}

	return <-errCh
}

// HealthBody is the JSON body of the health endpoint response.
type HealthBody struct {
	Status string `json:"status" example:"ok" doc:"Health status"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

// ProviderStatus is one backend's availability row.
type ProviderStatus struct {
	Kind      string   `json:"kind" doc:"Backend kind"`
	Models    []string `json:"models" doc:"Candidate models, most preferred first"`
	Available bool     `json:"available" doc:"Whether the backend can serve requests"`
	Reason    string   `json:"reason,omitempty" doc:"Why the backend is unavailable"`
}

// ProvidersBody is the JSON body of the providers endpoint response.
type ProvidersBody struct {
	Providers []ProviderStatus `json:"providers"`
}

// ProvidersResponse wraps the providers listing.
type ProvidersResponse struct {
	Body ProvidersBody
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
