package sqlite

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"strings"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/id"
	"github.com/quadroapp/quadro-server/internal/store"
)

// newActivityID mints an ID for activity rows created inside store
// transactions.
func newActivityID() string {
	return id.MustGenerate("act")
}

const activityColumns = `id, created_at, board_id, actor_id, card_id, type, detail`

func scanActivity(scanner interface{ Scan(dest ...any) error }) (*domain.Activity, error) {
	var a domain.Activity
	var createdAt, detail string

	err := scanner.Scan(
		&a.ID,
		&createdAt,
		&a.BoardID,
		&a.ActorID,
		&a.CardID,
		&a.Type,
		&detail,
	)
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if detail != "" && detail != "{}" {
		if err := json.Unmarshal([]byte(detail), &a.Detail); err != nil {
			return nil, fmt.Errorf("decode activity detail: %w", err)
		}
	}
	return &a, nil
}

// insertActivity writes an activity row, transactional when callers
// pass their *sql.Tx.
func insertActivity(ctx context.Context, e execer, activity *domain.Activity) error {
	if activity == nil {
		return nil
	}
	detail := "{}"
	if len(activity.Detail) > 0 {
		raw, err := json.Marshal(activity.Detail)
		if err != nil {
			return fmt.Errorf("encode activity detail: %w", err)
		}
		detail = string(raw)
	}
	_, err := e.ExecContext(ctx, `
		INSERT INTO activities (id, created_at, board_id, actor_id, card_id, type, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		formatTime(activity.CreatedAt),
		activity.BoardID,
		activity.ActorID,
		activity.CardID,
		string(activity.Type),
		detail,
	)
	return err
}

// CreateActivity writes a standalone activity entry.
func (s *Store) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	return insertActivity(ctx, s.db, activity)
}

// ActivitiesForBoard returns the board's feed newest-first, cursor
// paginated on (created_at, id).
func (s *Store) ActivitiesForBoard(ctx context.Context, boardID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Activity], error) {
	params.Validate()

	query := `SELECT ` + activityColumns + ` FROM activities WHERE board_id = ?`
	args := []any{boardID}

	if params.Cursor != "" {
		key, err := store.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		createdAt, id, ok := strings.Cut(key, "|")
		if !ok {
			return nil, fmt.Errorf("malformed cursor")
		}
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, createdAt, createdAt, id)
	}

	// Fetch one extra row to detect another page.
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, params.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.Activity]{Items: items}
	if len(items) > params.Limit {
		result.Items = items[:params.Limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = store.EncodeCursor(formatTime(last.CreatedAt) + "|" + last.ID)
	}
	return result, nil
}
