package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

const eventColumns = `id, created_at, updated_at, starts_at, ends_at, repeat_until, creator_id, responsible_id, board_id, title, description, location, type, status, priority, recurrence`

func scanEvent(scanner interface{ Scan(dest ...any) error }) (*domain.Event, error) {
	var e domain.Event
	var createdAt, updatedAt, startsAt, endsAt string
	var repeatUntil sql.NullString

	err := scanner.Scan(
		&e.ID,
		&createdAt,
		&updatedAt,
		&startsAt,
		&endsAt,
		&repeatUntil,
		&e.CreatorID,
		&e.ResponsibleID,
		&e.BoardID,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.Type,
		&e.Status,
		&e.Priority,
		&e.Recurrence,
	)
	if err != nil {
		return nil, err
	}

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if e.StartsAt, err = parseTime(startsAt); err != nil {
		return nil, err
	}
	if e.EndsAt, err = parseTime(endsAt); err != nil {
		return nil, err
	}
	if e.RepeatUntil, err = parseNullableTime(repeatUntil); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) loadEventAttendees(ctx context.Context, event *domain.Event) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM event_attendees WHERE event_id = ?`, event.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return err
		}
		event.AttendeeIDs = append(event.AttendeeIDs, userID)
	}
	return rows.Err()
}

// CreateEvent inserts an agenda event and its attendees in a
// transaction.
func (s *Store) CreateEvent(ctx context.Context, event *domain.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, created_at, updated_at, starts_at, ends_at, repeat_until, creator_id, responsible_id, board_id, title, description, location, type, status, priority, recurrence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
		formatTime(event.StartsAt),
		formatTime(event.EndsAt),
		nullTimeString(event.RepeatUntil),
		event.CreatorID,
		event.ResponsibleID,
		event.BoardID,
		event.Title,
		event.Description,
		event.Location,
		string(event.Type),
		string(event.Status),
		string(event.Priority),
		string(event.Recurrence),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	for _, userID := range event.AttendeeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_attendees (event_id, user_id) VALUES (?, ?)`,
			event.ID, userID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.searchIndexer.IndexEvent(event)
	return nil
}

// GetEvent retrieves an event with its attendees.
func (s *Store) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadEventAttendees(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent rewrites the event and replaces its attendee set in a
// transaction.
func (s *Store) UpdateEvent(ctx context.Context, event *domain.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE events
		SET updated_at = ?, starts_at = ?, ends_at = ?, repeat_until = ?, responsible_id = ?, board_id = ?, title = ?, description = ?, location = ?, type = ?, status = ?, priority = ?, recurrence = ?
		WHERE id = ?`,
		formatTime(event.UpdatedAt),
		formatTime(event.StartsAt),
		formatTime(event.EndsAt),
		nullTimeString(event.RepeatUntil),
		event.ResponsibleID,
		event.BoardID,
		event.Title,
		event.Description,
		event.Location,
		string(event.Type),
		string(event.Status),
		string(event.Priority),
		string(event.Recurrence),
		event.ID,
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

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = ?`, event.ID); err != nil {
		return err
	}
	for _, userID := range event.AttendeeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_attendees (event_id, user_id) VALUES (?, ?)`,
			event.ID, userID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.searchIndexer.IndexEvent(event)
	return nil
}

// DeleteEvent removes an event; attendees cascade.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
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
	s.searchIndexer.Remove(id)
	return nil
}

// ListEvents returns events whose first occurrence starts before the
// window end and that either recur or end after the window start.
// Recurrence expansion happens in the service layer; this filter only
// trims events that cannot produce an occurrence in the window.
func (s *Store) ListEvents(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE starts_at < ? AND (recurrence != ? OR ends_at > ?)
		ORDER BY starts_at`,
		formatTime(to), string(domain.RecurrenceNone), formatTime(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, event := range events {
		if err := s.loadEventAttendees(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}
