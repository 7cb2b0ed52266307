package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/service"
)

func (s *Server) registerEquipmentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listEquipment",
		Method:      http.MethodGet,
		Path:        "/api/v1/equipment",
		Summary:     "List equipment",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListEquipment)

	huma.Register(s.api, huma.Operation{
		OperationID: "createEquipment",
		Method:      http.MethodPost,
		Path:        "/api/v1/equipment",
		Summary:     "Add equipment",
		Description: "Editors and admins only",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateEquipment)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEquipment",
		Method:      http.MethodGet,
		Path:        "/api/v1/equipment/{id}",
		Summary:     "Get equipment",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetEquipment)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateEquipment",
		Method:      http.MethodPut,
		Path:        "/api/v1/equipment/{id}",
		Summary:     "Update equipment",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateEquipment)

	huma.Register(s.api, huma.Operation{
		OperationID: "setEquipmentStatus",
		Method:      http.MethodPut,
		Path:        "/api/v1/equipment/{id}/status",
		Summary:     "Set equipment status",
		Description: "Marks an item available, in maintenance, or retired. An item with an open loan cannot change status.",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetEquipmentStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEquipment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/equipment/{id}",
		Summary:     "Delete equipment",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteEquipment)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkoutEquipment",
		Method:      http.MethodPost,
		Path:        "/api/v1/equipment/{id}/checkout",
		Summary:     "Check out equipment",
		Description: "Opens a loan for the calling user. Fails if the item already has an open loan.",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCheckoutEquipment)

	huma.Register(s.api, huma.Operation{
		OperationID: "returnEquipment",
		Method:      http.MethodPost,
		Path:        "/api/v1/equipment/{id}/return",
		Summary:     "Return equipment",
		Description: "Closes the open loan. The borrower, an editor, or an admin may return an item.",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReturnEquipment)

	huma.Register(s.api, huma.Operation{
		OperationID: "equipmentLoanHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/equipment/{id}/loans",
		Summary:     "Loan history",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEquipmentLoanHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOpenLoans",
		Method:      http.MethodGet,
		Path:        "/api/v1/loans/open",
		Summary:     "List open loans",
		Tags:        []string{"Equipment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListOpenLoans)
}

// === DTOs ===

// EquipmentInput wraps the equipment request for Huma.
type EquipmentInput struct {
	Authorization string `header:"Authorization"`
	Body          service.EquipmentRequest
}

// EquipmentIDInput identifies an inventory item.
type EquipmentIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Equipment ID"`
}

// UpdateEquipmentInput wraps an equipment update for Huma.
type UpdateEquipmentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Equipment ID"`
	Body          service.EquipmentRequest
}

// EquipmentStatusInput carries a status change.
type EquipmentStatusInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Equipment ID"`
	Body          struct {
		Status string `json:"status" enum:"available,maintenance,retired" doc:"New status"`
	}
}

// CheckoutInput wraps the checkout request for Huma.
type CheckoutInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Equipment ID"`
	Body          service.CheckoutRequest
}

// EquipmentOutput wraps an inventory item for Huma.
type EquipmentOutput struct {
	Body *domain.Equipment
}

// EquipmentListOutput wraps the inventory listing for Huma.
type EquipmentListOutput struct {
	Body struct {
		Equipment []*domain.Equipment `json:"equipment" doc:"Inventory items"`
	}
}

// LoanOutput wraps a loan for Huma.
type LoanOutput struct {
	Body *domain.EquipmentLoan
}

// LoansOutput wraps a loan list for Huma.
type LoansOutput struct {
	Body struct {
		Loans []*domain.EquipmentLoan `json:"loans" doc:"Loans, newest first"`
	}
}

// === Handlers ===

func (s *Server) handleListEquipment(ctx context.Context, _ *AuthedInput) (*EquipmentListOutput, error) {
	if _, err := GetUser(ctx); err != nil {
		return nil, err
	}

	items, err := s.services.Equipment.ListEquipment(ctx)
	if err != nil {
		return nil, err
	}

	out := &EquipmentListOutput{}
	out.Body.Equipment = items
	return out, nil
}

func (s *Server) handleCreateEquipment(ctx context.Context, input *EquipmentInput) (*EquipmentOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Equipment.CreateEquipment(ctx, user, input.Body)
	if err != nil {
		return nil, err
	}
	return &EquipmentOutput{Body: item}, nil
}

func (s *Server) handleGetEquipment(ctx context.Context, input *EquipmentIDInput) (*EquipmentOutput, error) {
	if _, err := GetUser(ctx); err != nil {
		return nil, err
	}

	item, err := s.services.Equipment.GetEquipment(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &EquipmentOutput{Body: item}, nil
}

func (s *Server) handleUpdateEquipment(ctx context.Context, input *UpdateEquipmentInput) (*EquipmentOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Equipment.UpdateEquipment(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &EquipmentOutput{Body: item}, nil
}

func (s *Server) handleSetEquipmentStatus(ctx context.Context, input *EquipmentStatusInput) (*EquipmentOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Equipment.SetStatus(ctx, user, input.ID, domain.EquipmentStatus(input.Body.Status))
	if err != nil {
		return nil, err
	}
	return &EquipmentOutput{Body: item}, nil
}

func (s *Server) handleDeleteEquipment(ctx context.Context, input *EquipmentIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Equipment.DeleteEquipment(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Equipment deleted"}}, nil
}

func (s *Server) handleCheckoutEquipment(ctx context.Context, input *CheckoutInput) (*LoanOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	loan, err := s.services.Equipment.Checkout(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: loan}, nil
}

func (s *Server) handleReturnEquipment(ctx context.Context, input *EquipmentIDInput) (*LoanOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	loan, err := s.services.Equipment.Return(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}
	return &LoanOutput{Body: loan}, nil
}

func (s *Server) handleEquipmentLoanHistory(ctx context.Context, input *EquipmentIDInput) (*LoansOutput, error) {
	if _, err := GetUser(ctx); err != nil {
		return nil, err
	}

	loans, err := s.services.Equipment.LoanHistory(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	out := &LoansOutput{}
	out.Body.Loans = loans
	return out, nil
}

func (s *Server) handleListOpenLoans(ctx context.Context, _ *AuthedInput) (*LoansOutput, error) {
	if _, err := GetUser(ctx); err != nil {
		return nil, err
	}

	loans, err := s.services.Equipment.OpenLoans(ctx)
	if err != nil {
		return nil, err
	}

	out := &LoansOutput{}
	out.Body.Loans = loans
	return out, nil
}
