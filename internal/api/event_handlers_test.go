package api

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/service"
)

func TestCreateEvent_AndAgendaExpansion(t *testing.T) {
	ts := setupTestServer(t)

	token, _ := ts.registerUser(t, "planner@example.com", "Planner")

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	until := start.AddDate(0, 0, 21)

	resp := ts.api.Post("/api/v1/events",
		"Authorization: Bearer "+token,
		map[string]any{
			"title":        "Weekly pauta",
			"starts_at":    start.Format(time.RFC3339),
			"ends_at":      start.Add(time.Hour).Format(time.RFC3339),
			"recurrence":   "weekly",
			"repeat_until": until.Format(time.RFC3339),
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	created := mustUnmarshal[*domain.Event](t, resp.Body.Bytes())
	assert.Equal(t, domain.RecurrenceWeekly, created.Data.Recurrence)

	from := start.AddDate(0, 0, -1)
	to := start.AddDate(0, 0, 30)
	resp = ts.api.Get("/api/v1/agenda?from="+url.QueryEscape(from.Format(time.RFC3339))+
		"&to="+url.QueryEscape(to.Format(time.RFC3339)),
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := mustUnmarshal[struct {
		Entries []service.AgendaEntry `json:"entries"`
	}](t, resp.Body.Bytes())

	// Four Mondays fall inside the repeat window.
	require.Len(t, envelope.Data.Entries, 4)
	assert.Equal(t, start, envelope.Data.Entries[0].StartsAt.UTC())
	assert.Equal(t, start.AddDate(0, 0, 7), envelope.Data.Entries[1].StartsAt.UTC())
}

func TestAgenda_RejectsBackwardsWindow(t *testing.T) {
	ts := setupTestServer(t)

	token, _ := ts.registerUser(t, "planner@example.com", "Planner")

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	resp := ts.api.Get("/api/v1/agenda?from="+url.QueryEscape(from.Format(time.RFC3339))+
		"&to="+url.QueryEscape(to.Format(time.RFC3339)),
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateEvent_OnlyOwnerOrResponsible(t *testing.T) {
	ts := setupTestServer(t)

	creatorToken, _ := ts.registerUser(t, "creator@example.com", "Creator")
	otherToken, _ := ts.registerUser(t, "other@example.com", "Other")

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	resp := ts.api.Post("/api/v1/events",
		"Authorization: Bearer "+creatorToken,
		map[string]any{
			"title":     "Editorial meeting",
			"starts_at": start.Format(time.RFC3339),
			"ends_at":   start.Add(time.Hour).Format(time.RFC3339),
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	created := mustUnmarshal[*domain.Event](t, resp.Body.Bytes())

	update := map[string]any{
		"title":     "Renamed meeting",
		"starts_at": start.Format(time.RFC3339),
		"ends_at":   start.Add(time.Hour).Format(time.RFC3339),
	}

	resp = ts.api.Put("/api/v1/events/"+created.Data.ID,
		"Authorization: Bearer "+otherToken, update)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Put("/api/v1/events/"+created.Data.ID,
		"Authorization: Bearer "+creatorToken, update)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := mustUnmarshal[*domain.Event](t, resp.Body.Bytes())
	assert.Equal(t, "Renamed meeting", updated.Data.Title)
}

func TestDeleteEvent(t *testing.T) {
	ts := setupTestServer(t)

	token, _ := ts.registerUser(t, "creator@example.com", "Creator")

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	resp := ts.api.Post("/api/v1/events",
		"Authorization: Bearer "+token,
		map[string]any{
			"title":     "One-off",
			"starts_at": start.Format(time.RFC3339),
			"ends_at":   start.Add(time.Hour).Format(time.RFC3339),
		})
	require.Equal(t, http.StatusOK, resp.Code)
	created := mustUnmarshal[*domain.Event](t, resp.Body.Bytes())

	resp = ts.api.Delete("/api/v1/events/"+created.Data.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/events/"+created.Data.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
