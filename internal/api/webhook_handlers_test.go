package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadroapp/quadro-server/internal/domain"
)

func TestCreateWebhook_AdminOnly(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")
	memberToken, _ := ts.registerUser(t, "member@example.com", "Member")

	body := map[string]any{
		"url":         "https://hooks.example.com/quadro",
		"event_types": []string{"board_deleted", "card_moved"},
	}

	resp := ts.api.Post("/api/v1/webhooks", "Authorization: Bearer "+memberToken, body)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/webhooks", "Authorization: Bearer "+adminToken, body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := mustUnmarshal[struct {
		Subscription *domain.WebhookSubscription `json:"subscription"`
		Secret       string                      `json:"secret"`
	}](t, resp.Body.Bytes())
	require.NotNil(t, envelope.Data.Subscription)
	assert.NotEmpty(t, envelope.Data.Secret)
	assert.True(t, envelope.Data.Subscription.Enabled)

	// The secret is never returned again.
	resp = ts.api.Get("/api/v1/webhooks/"+envelope.Data.Subscription.ID,
		"Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotContains(t, resp.Body.String(), envelope.Data.Secret)
}

func TestCreateWebhook_UnknownEventType(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")

	resp := ts.api.Post("/api/v1/webhooks", "Authorization: Bearer "+adminToken, map[string]any{
		"url":         "https://hooks.example.com/quadro",
		"event_types": []string{"board_exploded"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateWebhook_DisablesDelivery(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")

	resp := ts.api.Post("/api/v1/webhooks", "Authorization: Bearer "+adminToken, map[string]any{
		"url":         "https://hooks.example.com/quadro",
		"event_types": []string{"card_moved"},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	created := mustUnmarshal[struct {
		Subscription *domain.WebhookSubscription `json:"subscription"`
		Secret       string                      `json:"secret"`
	}](t, resp.Body.Bytes())

	resp = ts.api.Put("/api/v1/webhooks/"+created.Data.Subscription.ID,
		"Authorization: Bearer "+adminToken,
		map[string]any{
			"url":         "https://hooks.example.com/quadro-v2",
			"event_types": []string{"card_moved"},
			"enabled":     false,
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := mustUnmarshal[*domain.WebhookSubscription](t, resp.Body.Bytes())
	assert.False(t, updated.Data.Enabled)
	assert.Equal(t, "https://hooks.example.com/quadro-v2", updated.Data.URL)
}

func TestDeleteWebhook(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")

	resp := ts.api.Post("/api/v1/webhooks", "Authorization: Bearer "+adminToken, map[string]any{
		"url":         "https://hooks.example.com/quadro",
		"event_types": []string{"card_moved"},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	created := mustUnmarshal[struct {
		Subscription *domain.WebhookSubscription `json:"subscription"`
		Secret       string                      `json:"secret"`
	}](t, resp.Body.Bytes())

	resp = ts.api.Delete("/api/v1/webhooks/"+created.Data.Subscription.ID,
		"Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/webhooks/"+created.Data.Subscription.ID,
		"Authorization: Bearer "+adminToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
