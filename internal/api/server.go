// Package api provides the HTTP API server and handlers for the Quadro application.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quadroapp/quadro-server/internal/config"
	"github.com/quadroapp/quadro-server/internal/ratelimit"
	"github.com/quadroapp/quadro-server/internal/sse"
	"github.com/quadroapp/quadro-server/internal/store"
)

// APIVersion is reported by the health endpoint and the OpenAPI spec.
const APIVersion = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	sseHandler      *sse.Handler
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *ratelimit.KeyedRateLimiter
	maxUploadBytes  int64
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st store.Store, services *Services, sseHandler *sse.Handler, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	authLimiter := ratelimit.New(1, 10)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(authRateLimit(authLimiter, logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig(cfg.Server.Name, APIVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		sseHandler:      sseHandler,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: authLimiter,
		maxUploadBytes:  cfg.Uploads.MaxSizeBytes,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBoardRoutes()
	s.registerCardRoutes()
	s.registerAttachmentRoutes()
	s.registerEventRoutes()
	s.registerProfileRoutes()
	s.registerEquipmentRoutes()
	s.registerReportRoutes()
	s.registerWebhookRoutes()
	s.registerSearchRoutes()

	// SSE does not fit huma's request/response model; it mounts on chi
	// directly and shares the auth middleware's context.
	if sseHandler != nil {
		router.Get("/api/v1/events/stream", sseHandler.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// === Health ===

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string    `json:"status" doc:"Server status"`
	Version string    `json:"version" doc:"API version"`
	Time    time.Time `json:"time" doc:"Server time"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status",
		Tags:        []string{"System"},
	}, s.handleHealth)
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{
		Body: HealthResponse{
			Status:  "healthy",
			Version: APIVersion,
			Time:    time.Now().UTC(),
		},
	}, nil
}
