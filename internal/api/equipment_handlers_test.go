package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadroapp/quadro-server/internal/domain"
)

func (ts *testServer) createEquipment(t *testing.T, token, name string) *domain.Equipment {
	t.Helper()

	resp := ts.api.Post("/api/v1/equipment",
		"Authorization: Bearer "+token,
		map[string]any{"name": name})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := mustUnmarshal[*domain.Equipment](t, resp.Body.Bytes())
	require.NotNil(t, envelope.Data)
	return envelope.Data
}

func TestCreateEquipment_MembersCannot(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")
	memberToken, _ := ts.registerUser(t, "member@example.com", "Member")

	resp := ts.api.Post("/api/v1/equipment",
		"Authorization: Bearer "+memberToken,
		map[string]any{"name": "Camera"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	item := ts.createEquipment(t, adminToken, "Camera")
	assert.Equal(t, domain.EquipmentAvailable, item.Status)
}

func TestCheckoutAndReturn(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")
	memberToken, memberID := ts.registerUser(t, "member@example.com", "Member")

	item := ts.createEquipment(t, adminToken, "Tripod")

	resp := ts.api.Post("/api/v1/equipment/"+item.ID+"/checkout",
		"Authorization: Bearer "+memberToken,
		map[string]any{"notes": "field shoot"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	loan := mustUnmarshal[*domain.EquipmentLoan](t, resp.Body.Bytes())
	assert.Equal(t, memberID, loan.Data.BorrowerID)
	assert.Nil(t, loan.Data.ReturnedAt)

	// A second checkout while the loan is open must fail.
	resp = ts.api.Post("/api/v1/equipment/"+item.ID+"/checkout",
		"Authorization: Bearer "+adminToken, map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.api.Post("/api/v1/equipment/"+item.ID+"/return",
		"Authorization: Bearer "+memberToken, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	returned := mustUnmarshal[*domain.EquipmentLoan](t, resp.Body.Bytes())
	assert.NotNil(t, returned.Data.ReturnedAt)

	resp = ts.api.Get("/api/v1/equipment/"+item.ID+"/loans",
		"Authorization: Bearer "+memberToken)
	require.Equal(t, http.StatusOK, resp.Code)

	history := mustUnmarshal[struct {
		Loans []*domain.EquipmentLoan `json:"loans"`
	}](t, resp.Body.Bytes())
	assert.Len(t, history.Data.Loans, 1)
}

func TestReturn_StrangerCannot(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")
	borrowerToken, _ := ts.registerUser(t, "borrower@example.com", "Borrower")
	strangerToken, _ := ts.registerUser(t, "stranger@example.com", "Stranger")

	item := ts.createEquipment(t, adminToken, "Recorder")

	resp := ts.api.Post("/api/v1/equipment/"+item.ID+"/checkout",
		"Authorization: Bearer "+borrowerToken, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/equipment/"+item.ID+"/return",
		"Authorization: Bearer "+strangerToken, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestSetStatus_BlockedWhileCheckedOut(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")

	item := ts.createEquipment(t, adminToken, "Drone")

	resp := ts.api.Post("/api/v1/equipment/"+item.ID+"/checkout",
		"Authorization: Bearer "+adminToken, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Put("/api/v1/equipment/"+item.ID+"/status",
		"Authorization: Bearer "+adminToken,
		map[string]any{"status": "maintenance"})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestListOpenLoans(t *testing.T) {
	ts := setupTestServer(t)

	adminToken, _ := ts.registerUser(t, "admin@example.com", "Admin")

	a := ts.createEquipment(t, adminToken, "Mic A")
	b := ts.createEquipment(t, adminToken, "Mic B")

	for _, id := range []string{a.ID, b.ID} {
		resp := ts.api.Post("/api/v1/equipment/"+id+"/checkout",
			"Authorization: Bearer "+adminToken, map[string]any{})
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := ts.api.Get("/api/v1/loans/open", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)

	open := mustUnmarshal[struct {
		Loans []*domain.EquipmentLoan `json:"loans"`
	}](t, resp.Body.Bytes())
	assert.Len(t, open.Data.Loans, 2)
}
