package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadroapp/quadro-server/internal/domain"
)

func (ts *testServer) createBoard(t *testing.T, token, title, visibility string) *domain.Board {
	t.Helper()

	resp := ts.api.Post("/api/v1/boards", "Authorization: Bearer "+token, map[string]any{
		"title":      title,
		"visibility": visibility,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := mustUnmarshal[*domain.Board](t, resp.Body.Bytes())
	require.NotNil(t, envelope.Data)
	return envelope.Data
}

func (ts *testServer) createList(t *testing.T, token, boardID, title string) *domain.List {
	t.Helper()

	resp := ts.api.Post("/api/v1/boards/"+boardID+"/lists",
		"Authorization: Bearer "+token,
		map[string]any{"title": title})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := mustUnmarshal[*domain.List](t, resp.Body.Bytes())
	require.NotNil(t, envelope.Data)
	return envelope.Data
}

func (ts *testServer) createCard(t *testing.T, token, listID, title string) *domain.Card {
	t.Helper()

	resp := ts.api.Post("/api/v1/lists/"+listID+"/cards",
		"Authorization: Bearer "+token,
		map[string]any{"title": title})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := mustUnmarshal[*domain.Card](t, resp.Body.Bytes())
	require.NotNil(t, envelope.Data)
	return envelope.Data
}

func TestCreateBoard_AndList(t *testing.T) {
	ts := setupTestServer(t)

	token, userID := ts.registerUser(t, "owner@example.com", "Owner")
	board := ts.createBoard(t, token, "Production", "private")
	assert.Equal(t, userID, board.OwnerID)
	assert.Equal(t, domain.VisibilityPrivate, board.Visibility)

	resp := ts.api.Get("/api/v1/boards", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := mustUnmarshal[struct {
		Boards []*domain.Board `json:"boards"`
	}](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Boards, 1)
	assert.Equal(t, board.ID, envelope.Data.Boards[0].ID)
}

func TestCreateBoard_TitleOnlyBody(t *testing.T) {
	ts := setupTestServer(t)

	token, _ := ts.registerUser(t, "owner@example.com", "Owner")

	// Optional fields left out entirely must not fail schema validation.
	resp := ts.api.Post("/api/v1/boards", "Authorization: Bearer "+token,
		map[string]any{"title": "Bare minimum"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := mustUnmarshal[*domain.Board](t, resp.Body.Bytes())
	require.NotNil(t, envelope.Data)
	assert.Equal(t, domain.VisibilityPrivate, envelope.Data.Visibility)
	assert.Empty(t, envelope.Data.Description)
}

func TestGetBoard_PrivateInvisibleToOutsider(t *testing.T) {
	ts := setupTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	outsiderToken, _ := ts.registerUser(t, "outsider@example.com", "Outsider")

	board := ts.createBoard(t, ownerToken, "Secret", "private")

	resp := ts.api.Get("/api/v1/boards/"+board.ID, "Authorization: Bearer "+outsiderToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	envelope := mustUnmarshal[struct{}](t, resp.Body.Bytes())
	assert.False(t, envelope.Success)
	assert.Equal(t, "NOT_FOUND", envelope.Code)
}

func TestBoardMembers_AddAndRemove(t *testing.T) {
	ts := setupTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	memberToken, memberID := ts.registerUser(t, "member@example.com", "Member")

	board := ts.createBoard(t, ownerToken, "Shared", "private")

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/members",
		"Authorization: Bearer "+ownerToken,
		map[string]any{"user_id": memberID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// The new member can now read the board.
	resp = ts.api.Get("/api/v1/boards/"+board.ID, "Authorization: Bearer "+memberToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/boards/"+board.ID+"/members/"+memberID,
		"Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/boards/"+board.ID, "Authorization: Bearer "+memberToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMoveList_StaleVersionConflicts(t *testing.T) {
	ts := setupTestServer(t)

	token, _ := ts.registerUser(t, "owner@example.com", "Owner")
	board := ts.createBoard(t, token, "Ordered", "private")

	a := ts.createList(t, token, board.ID, "A")
	ts.createList(t, token, board.ID, "B")

	resp := ts.api.Post("/api/v1/lists/"+a.ID+"/move",
		"Authorization: Bearer "+token,
		map[string]any{"to_index": 1, "expected_version": a.Version})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	moved := mustUnmarshal[*domain.List](t, resp.Body.Bytes())
	assert.Equal(t, 1, moved.Data.Position)
	assert.Greater(t, moved.Data.Version, a.Version)

	// Replaying the same move with the pre-move version must 409.
	resp = ts.api.Post("/api/v1/lists/"+a.ID+"/move",
		"Authorization: Bearer "+token,
		map[string]any{"to_index": 0, "expected_version": a.Version})
	assert.Equal(t, http.StatusConflict, resp.Code)

	envelope := mustUnmarshal[struct{}](t, resp.Body.Bytes())
	assert.Equal(t, "VERSION_CONFLICT", envelope.Code)
}

func TestMoveCard_AcrossLists(t *testing.T) {
	ts := setupTestServer(t)

	token, _ := ts.registerUser(t, "owner@example.com", "Owner")
	board := ts.createBoard(t, token, "Kanban", "private")

	todo := ts.createList(t, token, board.ID, "Todo")
	done := ts.createList(t, token, board.ID, "Done")
	card := ts.createCard(t, token, todo.ID, "Ship it")

	resp := ts.api.Post("/api/v1/cards/"+card.ID+"/move",
		"Authorization: Bearer "+token,
		map[string]any{
			"to_list_id":       done.ID,
			"to_index":         0,
			"expected_version": card.Version,
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	moved := mustUnmarshal[*domain.Card](t, resp.Body.Bytes())
	assert.Equal(t, done.ID, moved.Data.ListID)
}

func TestDeleteBoard_CascadesAndVanishes(t *testing.T) {
	ts := setupTestServer(t)

	token, _ := ts.registerUser(t, "owner@example.com", "Owner")
	board := ts.createBoard(t, token, "Doomed", "private")
	list := ts.createList(t, token, board.ID, "Only")
	card := ts.createCard(t, token, list.ID, "Gone too")

	resp := ts.api.Delete("/api/v1/boards/"+board.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/boards/"+board.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/cards/"+card.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAddCardLabel_BoardScoped(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerUser(t, "owner@example.com", "Owner")

	boardA := ts.createBoard(t, token, "Board A", "private")
	boardB := ts.createBoard(t, token, "Board B", "private")
	listB := ts.createList(t, token, boardB.ID, "Todo")
	cardB := ts.createCard(t, token, listB.ID, "Task")

	resp := ts.api.Post("/api/v1/boards/"+boardA.ID+"/labels",
		"Authorization: Bearer "+token,
		map[string]any{"name": "urgent", "color": "#ff0000"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	label := mustUnmarshal[*domain.Label](t, resp.Body.Bytes()).Data
	require.NotNil(t, label)

	// Another board's label reads as absent.
	resp = ts.api.Put("/api/v1/cards/"+cardB.ID+"/labels/"+label.ID,
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
	assert.Equal(t, "NOT_FOUND", mustUnmarshal[struct{}](t, resp.Body.Bytes()).Code)

	// Attaching within its own board still works.
	listA := ts.createList(t, token, boardA.ID, "Todo")
	cardA := ts.createCard(t, token, listA.ID, "Task")
	resp = ts.api.Put("/api/v1/cards/"+cardA.ID+"/labels/"+label.ID,
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	card := mustUnmarshal[*domain.Card](t, resp.Body.Bytes()).Data
	require.NotNil(t, card)
	assert.Contains(t, card.LabelIDs, label.ID)
}

func TestAddComment_AndAuthorOnlyDelete(t *testing.T) {
	ts := setupTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	memberToken, memberID := ts.registerUser(t, "member@example.com", "Member")

	board := ts.createBoard(t, ownerToken, "Talk", "private")
	list := ts.createList(t, ownerToken, board.ID, "Open")
	card := ts.createCard(t, ownerToken, list.ID, "Discuss")

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/members",
		"Authorization: Bearer "+ownerToken,
		map[string]any{"user_id": memberID})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/cards/"+card.ID+"/comments",
		"Authorization: Bearer "+memberToken,
		map[string]any{"body": "first"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	comment := mustUnmarshal[*domain.Comment](t, resp.Body.Bytes())

	// The board owner did not write it, so they cannot delete it.
	resp = ts.api.Delete("/api/v1/comments/"+comment.Data.ID, "Authorization: Bearer "+ownerToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/comments/"+comment.Data.ID, "Authorization: Bearer "+memberToken)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBoardActivity_Paginates(t *testing.T) {
	ts := setupTestServer(t)

	token, _ := ts.registerUser(t, "owner@example.com", "Owner")
	board := ts.createBoard(t, token, "Busy", "private")

	for i := 0; i < 5; i++ {
		ts.createList(t, token, board.ID, fmt.Sprintf("List %d", i))
	}

	resp := ts.api.Get("/api/v1/boards/"+board.ID+"/activity?limit=3",
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := mustUnmarshal[struct {
		Items      []*domain.Activity `json:"items"`
		NextCursor string             `json:"next_cursor"`
		HasMore    bool               `json:"has_more"`
	}](t, resp.Body.Bytes())
	assert.Len(t, envelope.Data.Items, 3)
	assert.True(t, envelope.Data.HasMore)

	resp = ts.api.Get("/api/v1/boards/"+board.ID+"/activity?limit=10&cursor="+envelope.Data.NextCursor,
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
}
