package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/sohamkundu27/AITelehealth/internal/api/v1"
	"github.com/sohamkundu27/AITelehealth/internal/api/ws"
	"github.com/sohamkundu27/AITelehealth/internal/config"
	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/server/middleware"
	redisstore "github.com/sohamkundu27/AITelehealth/internal/store/redis"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// New creates a Server with all routes wired. pubsub may be nil; the
// clarification WebSocket stream is only registered when it is present.
func New(ctx context.Context, cfg *config.Config, visits v1.VisitService, records domain.VisitRecordRepository, pubsub *redisstore.PubSub) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// API routes on /api/v1. Producer auth is optional: the event producers
	// run inside the call platform, which may front this service itself.
	router.Route("/api/v1", func(r chi.Router) {
		if cfg.Auth.Enabled() {
			r.Use(middleware.Auth(cfg.Auth.Secret))
			log.Info().Msg("producer auth enabled")
		}
		r.Use(middleware.RateLimitByIP(ctx, 50, 100))

		apiConfig := huma.DefaultConfig("Telehealth Session Safety API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, visits, records)
	})

	// Clarification WebSocket stream, present only with Redis fan-out.
	if pubsub != nil {
		hub := ws.NewHub(pubsub)
		router.Route("/ws", func(r chi.Router) {
			if cfg.Auth.Enabled() {
				r.Use(middleware.Auth(cfg.Auth.Secret))
			}
			registerWSRoutes(r, hub)
		})
		log.Info().Msg("clarification websocket stream enabled")
	}

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
