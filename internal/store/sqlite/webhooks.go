package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

const webhookColumns = `id, created_at, updated_at, creator_id, url, secret, event_types, enabled`

func scanWebhookSubscription(scanner interface{ Scan(dest ...any) error }) (*domain.WebhookSubscription, error) {
	var sub domain.WebhookSubscription
	var createdAt, updatedAt, eventTypes string
	var enabled int

	err := scanner.Scan(
		&sub.ID,
		&createdAt,
		&updatedAt,
		&sub.CreatorID,
		&sub.URL,
		&sub.Secret,
		&eventTypes,
		&enabled,
	)
	if err != nil {
		return nil, err
	}

	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sub.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	for _, t := range splitList(eventTypes) {
		sub.EventTypes = append(sub.EventTypes, domain.WebhookEventType(t))
	}
	sub.Enabled = enabled != 0
	return &sub, nil
}

func joinEventTypes(types []domain.WebhookEventType) string {
	values := make([]string, len(types))
	for i, t := range types {
		values[i] = string(t)
	}
	return joinList(values)
}

// CreateWebhookSubscription registers a delivery target.
func (s *Store) CreateWebhookSubscription(ctx context.Context, sub *domain.WebhookSubscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_subscriptions (id, created_at, updated_at, creator_id, url, secret, event_types, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		formatTime(sub.CreatedAt),
		formatTime(sub.UpdatedAt),
		sub.CreatorID,
		sub.URL,
		sub.Secret,
		joinEventTypes(sub.EventTypes),
		boolToInt(sub.Enabled),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetWebhookSubscription retrieves a subscription by ID.
func (s *Store) GetWebhookSubscription(ctx context.Context, id string) (*domain.WebhookSubscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+webhookColumns+` FROM webhook_subscriptions WHERE id = ?`, id)
	sub, err := scanWebhookSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return sub, err
}

// UpdateWebhookSubscription persists subscription changes.
func (s *Store) UpdateWebhookSubscription(ctx context.Context, sub *domain.WebhookSubscription) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE webhook_subscriptions
		SET updated_at = ?, url = ?, secret = ?, event_types = ?, enabled = ?
		WHERE id = ?`,
		formatTime(sub.UpdatedAt),
		sub.URL,
		sub.Secret,
		joinEventTypes(sub.EventTypes),
		boolToInt(sub.Enabled),
		sub.ID,
	)
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

// DeleteWebhookSubscription removes a subscription.
func (s *Store) DeleteWebhookSubscription(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhook_subscriptions WHERE id = ?`, id)
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

// ListWebhookSubscriptions returns all subscriptions.
func (s *Store) ListWebhookSubscriptions(ctx context.Context) ([]*domain.WebhookSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+webhookColumns+` FROM webhook_subscriptions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.WebhookSubscription
	for rows.Next() {
		sub, err := scanWebhookSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
