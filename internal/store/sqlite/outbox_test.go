package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

func TestOutboxLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := insertOutbox(ctx, s.db, &store.OutboxInsert{
		EventType: domain.WebhookCardCreated,
		Payload:   []byte(`{"card_id":"crd-1"}`),
	})
	if err != nil {
		t.Fatalf("insert outbox: %v", err)
	}

	now := time.Now().UTC()
	pending, err := s.PendingOutboxEvents(ctx, now, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending rows, want 1", len(pending))
	}
	ev := pending[0]
	if ev.Status != domain.OutboxPending || ev.Attempts != 0 {
		t.Errorf("unexpected initial state: %+v", ev)
	}

	// A failed attempt reschedules; the row stays pending but is not
	// due until its next attempt time.
	retryAt := now.Add(time.Minute)
	if err := s.MarkOutboxFailed(ctx, ev.ID, 1, retryAt, false); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	due, err := s.PendingOutboxEvents(ctx, now, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("row due before its retry time")
	}
	due, err = s.PendingOutboxEvents(ctx, retryAt, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(due) != 1 || due[0].Attempts != 1 {
		t.Errorf("expected one due row with 1 attempt, got %v", due)
	}

	// Idempotency key survives retries.
	if due[0].IdempotencyKey != ev.IdempotencyKey {
		t.Errorf("idempotency key changed across attempts")
	}

	if err := s.MarkOutboxDelivered(ctx, ev.ID, now); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	due, err = s.PendingOutboxEvents(ctx, retryAt, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("delivered row still pending")
	}
}

func TestOutboxDeadAfterExhaustion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := insertOutbox(ctx, s.db, &store.OutboxInsert{
		EventType: domain.WebhookCardDeleted,
		Payload:   []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("insert outbox: %v", err)
	}

	now := time.Now().UTC()
	pending, err := s.PendingOutboxEvents(ctx, now, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending: %v (%d rows)", err, len(pending))
	}

	if err := s.MarkOutboxFailed(ctx, pending[0].ID, 8, now, true); err != nil {
		t.Fatalf("mark dead: %v", err)
	}
	due, err := s.PendingOutboxEvents(ctx, now.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("dead row still returned as pending")
	}
}
