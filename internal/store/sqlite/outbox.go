package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/id"
	"github.com/quadroapp/quadro-server/internal/store"
)

const outboxColumns = `id, created_at, next_attempt_at, delivered_at, idempotency_key, event_type, payload, status, attempts`

// execer covers *sql.Tx and *sql.DB for helpers shared between
// transactional and standalone writes.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertOutbox writes a pending outbox row. Callers pass their
// transaction so the row commits atomically with the change it
// describes; the idempotency key is fixed at insert time so every
// delivery attempt carries the same one.
func insertOutbox(ctx context.Context, e execer, insert *store.OutboxInsert) error {
	if insert == nil {
		return nil
	}
	now := nowUTC()
	_, err := e.ExecContext(ctx, `
		INSERT INTO outbox (id, created_at, next_attempt_at, idempotency_key, event_type, payload, status, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		id.MustGenerate("obx"),
		formatTime(now),
		formatTime(now),
		uuid.NewString(),
		string(insert.EventType),
		insert.Payload,
		string(domain.OutboxPending),
	)
	return err
}

func scanOutboxEvent(scanner interface{ Scan(dest ...any) error }) (*domain.OutboxEvent, error) {
	var ev domain.OutboxEvent
	var createdAt, nextAttemptAt string
	var deliveredAt sql.NullString

	err := scanner.Scan(
		&ev.ID,
		&createdAt,
		&nextAttemptAt,
		&deliveredAt,
		&ev.IdempotencyKey,
		&ev.EventType,
		&ev.Payload,
		&ev.Status,
		&ev.Attempts,
	)
	if err != nil {
		return nil, err
	}

	if ev.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if ev.NextAttemptAt, err = parseTime(nextAttemptAt); err != nil {
		return nil, err
	}
	if ev.DeliveredAt, err = parseNullableTime(deliveredAt); err != nil {
		return nil, err
	}
	return &ev, nil
}

// PendingOutboxEvents returns pending rows due at or before now, in
// creation order.
func (s *Store) PendingOutboxEvents(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+outboxColumns+`
		FROM outbox
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY created_at
		LIMIT ?`,
		string(domain.OutboxPending), formatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		ev, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// MarkOutboxDelivered finalizes a row after a successful delivery.
func (s *Store) MarkOutboxDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE outbox SET status = ?, delivered_at = ? WHERE id = ?`,
		string(domain.OutboxDelivered), formatTime(at), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkOutboxFailed records a failed attempt, scheduling a retry or
// marking the row dead once attempts are exhausted.
func (s *Store) MarkOutboxFailed(ctx context.Context, id string, attempts int, nextAttempt time.Time, dead bool) error {
	status := domain.OutboxPending
	if dead {
		status = domain.OutboxDead
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE outbox SET status = ?, attempts = ?, next_attempt_at = ? WHERE id = ?`,
		string(status), attempts, formatTime(nextAttempt), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
