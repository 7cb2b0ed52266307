package api

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/quadroapp/quadro-server/internal/auth"
	"github.com/quadroapp/quadro-server/internal/ratelimit"
	"github.com/quadroapp/quadro-server/internal/service"
	"github.com/quadroapp/quadro-server/internal/store"
	"github.com/quadroapp/quadro-server/internal/store/sqlite"
	"github.com/quadroapp/quadro-server/internal/validation"
)

// testEnvelope mirrors the wire envelope for unmarshalling in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api          humatest.TestAPI
	tokenService *auth.TokenService
}

// setupTestServer builds a server against a real sqlite store with
// every route group registered.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	validate := validation.New()
	emitter := store.NewNoopEmitter()

	authService := service.NewAuthService(st, tokenService, validate, logger)
	boardService := service.NewBoardService(st, emitter, validate, logger)
	cardService := service.NewCardService(st, boardService, emitter, validate, logger)
	eventService := service.NewEventService(st, emitter, validate, logger)
	profileService := service.NewProfileService(st, validate, logger)
	equipmentService := service.NewEquipmentService(st, validate, logger)
	webhookService := service.NewWebhookService(st, validate, logger)

	services := &Services{
		Auth:      authService,
		Board:     boardService,
		Card:      cardService,
		Event:     eventService,
		Profile:   profileService,
		Equipment: equipmentService,
		Webhook:   webhookService,
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Quadro API Test", APIVersion)
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
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: ratelimit.New(100, 100),
		maxUploadBytes:  25 * 1024 * 1024,
	}
	t.Cleanup(s.Close)

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBoardRoutes()
	s.registerCardRoutes()
	s.registerEventRoutes()
	s.registerProfileRoutes()
	s.registerEquipmentRoutes()
	s.registerWebhookRoutes()

	return &testServer{
		Server:       s,
		api:          humatest.Wrap(t, api),
		tokenService: tokenService,
	}
}

// registerUser creates an account and returns its access token and
// user ID. The first registration on a fresh store becomes the admin.
func (ts *testServer) registerUser(t *testing.T, email, displayName string) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "CorrectHorse9!",
		"display_name": displayName,
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	claims, err := ts.tokenService.VerifyAccessToken(envelope.Data.AccessToken)
	require.NoError(t, err)

	return envelope.Data.AccessToken, claims.UserID
}

// mustUnmarshal decodes a response body into an envelope of T.
func mustUnmarshal[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}
