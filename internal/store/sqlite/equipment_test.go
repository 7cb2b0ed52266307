package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

func insertTestEquipment(t *testing.T, s *Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateEquipment(context.Background(), &domain.Equipment{
		ID: id, CreatedAt: now, UpdatedAt: now,
		Name: "Camera " + id, Status: domain.EquipmentAvailable,
	})
	if err != nil {
		t.Fatalf("insert test equipment: %v", err)
	}
}

func TestCheckoutAndReturn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "usr-1", "one@example.com")
	insertTestEquipment(t, s, "eqp-1")

	now := time.Now().UTC()
	loan := &domain.EquipmentLoan{
		ID: "lon-1", CheckedOutAt: now,
		EquipmentID: "eqp-1", BorrowerID: "usr-1",
	}
	if err := s.CheckoutEquipment(ctx, loan); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	item, err := s.GetEquipment(ctx, "eqp-1")
	if err != nil {
		t.Fatalf("get equipment: %v", err)
	}
	if item.Status != domain.EquipmentCheckedOut {
		t.Errorf("status %s after checkout, want %s", item.Status, domain.EquipmentCheckedOut)
	}

	returned, err := s.ReturnEquipment(ctx, "eqp-1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.ReturnedAt == nil {
		t.Error("returned loan has nil ReturnedAt")
	}

	item, err = s.GetEquipment(ctx, "eqp-1")
	if err != nil {
		t.Fatalf("get equipment: %v", err)
	}
	if item.Status != domain.EquipmentAvailable {
		t.Errorf("status %s after return, want %s", item.Status, domain.EquipmentAvailable)
	}
}

func TestDoubleCheckoutRefused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "usr-1", "one@example.com")
	insertTestUser(t, s, "usr-2", "two@example.com")
	insertTestEquipment(t, s, "eqp-1")

	now := time.Now().UTC()
	first := &domain.EquipmentLoan{
		ID: "lon-1", CheckedOutAt: now,
		EquipmentID: "eqp-1", BorrowerID: "usr-1",
	}
	if err := s.CheckoutEquipment(ctx, first); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	second := &domain.EquipmentLoan{
		ID: "lon-2", CheckedOutAt: now,
		EquipmentID: "eqp-1", BorrowerID: "usr-2",
	}
	if err := s.CheckoutEquipment(ctx, second); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on double checkout, got %v", err)
	}
}

func TestReturnWithoutOpenLoan(t *testing.T) {
	s := newTestStore(t)
	insertTestEquipment(t, s, "eqp-1")

	_, err := s.ReturnEquipment(context.Background(), "eqp-1", time.Now().UTC())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
