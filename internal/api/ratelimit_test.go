package api

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadroapp/quadro-server/internal/ratelimit"
)

func authRateTestHandler(t *testing.T) (http.Handler, *ratelimit.KeyedRateLimiter) {
	t.Helper()
	limiter := ratelimit.New(0.001, 2)
	t.Cleanup(limiter.Stop)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return authRateLimit(limiter, slog.New(slog.DiscardHandler))(next), limiter
}

func doLogin(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthRateLimit_KeysPerClientAddress(t *testing.T) {
	handler, _ := authRateTestHandler(t)

	// Exhaust one client's burst.
	require.Equal(t, http.StatusOK, doLogin(handler, "10.0.0.1:50001"))
	require.Equal(t, http.StatusOK, doLogin(handler, "10.0.0.1:50002"))
	assert.Equal(t, http.StatusTooManyRequests, doLogin(handler, "10.0.0.1:50003"))

	// A different address has its own untouched bucket.
	assert.Equal(t, http.StatusOK, doLogin(handler, "10.0.0.2:50001"))
}

func TestAuthRateLimit_OnlyGuardsCredentialRoutes(t *testing.T) {
	handler, _ := authRateTestHandler(t)

	for range 5 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/boards", nil)
		req.RemoteAddr = "10.0.0.3:50001"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
