package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/id"
	"github.com/quadroapp/quadro-server/internal/store"
	"github.com/quadroapp/quadro-server/internal/validation"
)

// EquipmentService manages the loanable inventory. Checkout and
// return run as store transactions, so two people cannot hold the
// same item at once.
type EquipmentService struct {
	store    store.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewEquipmentService creates a new equipment service.
func NewEquipmentService(st store.Store, validate *validation.Validator, logger *slog.Logger) *EquipmentService {
	return &EquipmentService{
		store:    st,
		validate: validate,
		logger:   logger,
	}
}

// EquipmentRequest holds inventory item input.
type EquipmentRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	SerialNo    string `json:"serial_no,omitempty" validate:"max=100"`
}

// CheckoutRequest holds loan input.
type CheckoutRequest struct {
	DueAt *time.Time `json:"due_at,omitempty"`
	Notes string     `json:"notes,omitempty" validate:"max=1000"`
}

// CreateEquipment adds an item to the inventory. Editors and admins
// only.
func (s *EquipmentService) CreateEquipment(ctx context.Context, user *domain.User, req EquipmentRequest) (*domain.Equipment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if !user.CanEdit() {
		return nil, apperrors.Forbidden("editor role required to manage inventory")
	}

	now := time.Now().UTC()
	item := &domain.Equipment{
		ID:          id.MustGenerate("eqp"),
		CreatedAt:   now,
		UpdatedAt:   now,
		Name:        req.Name,
		Description: req.Description,
		SerialNo:    req.SerialNo,
		Status:      domain.EquipmentAvailable,
	}
	if err := s.store.CreateEquipment(ctx, item); err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}

	s.logger.Info("equipment added", "equipment_id", item.ID, "name", item.Name)
	return item, nil
}

// GetEquipment returns one inventory item.
func (s *EquipmentService) GetEquipment(ctx context.Context, equipmentID string) (*domain.Equipment, error) {
	return s.store.GetEquipment(ctx, equipmentID)
}

// ListEquipment returns the whole inventory.
func (s *EquipmentService) ListEquipment(ctx context.Context) ([]*domain.Equipment, error) {
	return s.store.ListEquipment(ctx)
}

// UpdateEquipment edits item metadata.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, user *domain.User, equipmentID string, req EquipmentRequest) (*domain.Equipment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if !user.CanEdit() {
		return nil, apperrors.Forbidden("editor role required to manage inventory")
	}

	item, err := s.store.GetEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	item.Name = req.Name
	item.Description = req.Description
	item.SerialNo = req.SerialNo
	item.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateEquipment(ctx, item); err != nil {
		return nil, fmt.Errorf("update equipment: %w", err)
	}
	return item, nil
}

// SetStatus moves an item between available, maintenance, and retired.
// Checked-out status is owned by the loan flow.
func (s *EquipmentService) SetStatus(ctx context.Context, user *domain.User, equipmentID string, status domain.EquipmentStatus) (*domain.Equipment, error) {
	if !user.CanEdit() {
		return nil, apperrors.Forbidden("editor role required to manage inventory")
	}
	if !status.Valid() || status == domain.EquipmentCheckedOut {
		return nil, apperrors.Validationf("cannot set status %q directly", status)
	}

	item, err := s.store.GetEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if item.Status == domain.EquipmentCheckedOut {
		return nil, apperrors.Conflict("item is checked out; return it first")
	}
	item.Status = status
	item.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateEquipment(ctx, item); err != nil {
		return nil, fmt.Errorf("update equipment: %w", err)
	}
	return item, nil
}

// DeleteEquipment removes an item and its loan history. Admin only.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, user *domain.User, equipmentID string) error {
	if !user.IsAdmin() {
		return apperrors.Forbidden("only admins can remove inventory items")
	}
	return s.store.DeleteEquipment(ctx, equipmentID)
}

// Checkout starts a loan for the user. An item already out comes back
// as unavailable; the store enforces at most one open loan per item.
func (s *EquipmentService) Checkout(ctx context.Context, user *domain.User, equipmentID string, req CheckoutRequest) (*domain.EquipmentLoan, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	loan := &domain.EquipmentLoan{
		ID:           id.MustGenerate("loan"),
		CheckedOutAt: time.Now().UTC(),
		DueAt:        req.DueAt,
		EquipmentID:  equipmentID,
		BorrowerID:   user.ID,
		Notes:        req.Notes,
	}
	if err := s.store.CheckoutEquipment(ctx, loan); err != nil {
		return nil, err
	}

	s.logger.Info("equipment checked out",
		"equipment_id", equipmentID,
		"borrower_id", user.ID,
		"loan_id", loan.ID,
	)
	return loan, nil
}

// Return closes the open loan. The borrower, an editor, or an admin
// may return an item.
func (s *EquipmentService) Return(ctx context.Context, user *domain.User, equipmentID string) (*domain.EquipmentLoan, error) {
	loans, err := s.store.LoansForEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	for _, loan := range loans {
		if loan.Open() && loan.BorrowerID != user.ID && !user.CanEdit() {
			return nil, apperrors.Forbidden("only the borrower can return this item")
		}
	}

	loan, err := s.store.ReturnEquipment(ctx, equipmentID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("equipment returned", "equipment_id", equipmentID, "loan_id", loan.ID)
	return loan, nil
}

// LoanHistory returns all loans for one item, newest first.
func (s *EquipmentService) LoanHistory(ctx context.Context, equipmentID string) ([]*domain.EquipmentLoan, error) {
	if _, err := s.store.GetEquipment(ctx, equipmentID); err != nil {
		return nil, err
	}
	return s.store.LoansForEquipment(ctx, equipmentID)
}

// OpenLoans returns every loan currently out, for the inventory
// dashboard.
func (s *EquipmentService) OpenLoans(ctx context.Context) ([]*domain.EquipmentLoan, error) {
	return s.store.OpenLoans(ctx)
}
