package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

const listColumns = `id, created_at, updated_at, board_id, title, color, position, version`

func scanList(scanner interface{ Scan(dest ...any) error }) (*domain.List, error) {
	var l domain.List
	var createdAt, updatedAt string

	err := scanner.Scan(
		&l.ID,
		&createdAt,
		&updatedAt,
		&l.BoardID,
		&l.Title,
		&l.Color,
		&l.Position,
		&l.Version,
	)
	if err != nil {
		return nil, err
	}

	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// queryer covers *sql.Tx and *sql.DB for shared read helpers.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// orderedListIDs returns the board's list IDs in position order.
func orderedListIDs(ctx context.Context, q queryer, boardID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM board_lists WHERE board_id = ? ORDER BY position`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// renumberLists writes dense positions matching the given order.
func renumberLists(ctx context.Context, tx *sql.Tx, ids []string) error {
	for pos, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE board_lists SET position = ? WHERE id = ?`, pos, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateList appends a list at the end of the board in a transaction.
func (s *Store) CreateList(ctx context.Context, list *domain.List) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM board_lists WHERE board_id = ?`, list.BoardID).Scan(&count); err != nil {
		return err
	}
	list.Position = count
	if list.Version == 0 {
		list.Version = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO board_lists (id, created_at, updated_at, board_id, title, color, position, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		list.ID,
		formatTime(list.CreatedAt),
		formatTime(list.UpdatedAt),
		list.BoardID,
		list.Title,
		list.Color,
		list.Position,
		list.Version,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetList retrieves a list by ID.
func (s *Store) GetList(ctx context.Context, id string) (*domain.List, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM board_lists WHERE id = ?`, id)
	list, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return list, err
}

// UpdateList persists title and color changes. Reordering goes
// through MoveList.
func (s *Store) UpdateList(ctx context.Context, list *domain.List) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE board_lists SET updated_at = ?, title = ?, color = ? WHERE id = ?`,
		formatTime(list.UpdatedAt), list.Title, list.Color, list.ID)
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

// DeleteList removes the list (cards cascade) and renumbers the
// board's remaining lists in the same transaction.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var boardID string
	err = tx.QueryRowContext(ctx,
		`SELECT board_id FROM board_lists WHERE id = ?`, id).Scan(&boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM board_lists WHERE id = ?`, id); err != nil {
		return err
	}

	ids, err := orderedListIDs(ctx, tx, boardID)
	if err != nil {
		return err
	}
	if err := renumberLists(ctx, tx, ids); err != nil {
		return err
	}
	return tx.Commit()
}

// ListsForBoard returns the board's lists in position order.
func (s *Store) ListsForBoard(ctx context.Context, boardID string) ([]*domain.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listColumns+` FROM board_lists WHERE board_id = ? ORDER BY position`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []*domain.List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// MoveList reorders a list within its board in one transaction. The
// move is rejected with store.ErrVersionConflict when the caller's
// version is stale; on success every list in the board holds a dense
// position and the moved list's version is bumped.
func (s *Store) MoveList(ctx context.Context, actorID string, move store.ListMove) (*domain.List, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM board_lists WHERE id = ?`, move.ListID)
	list, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if list.Version != move.ExpectedVersion {
		return nil, store.ErrVersionConflict
	}

	ids, err := orderedListIDs(ctx, tx, list.BoardID)
	if err != nil {
		return nil, err
	}
	reordered, ok := domain.MoveWithin(ids, list.ID, move.ToIndex)
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := renumberLists(ctx, tx, reordered); err != nil {
		return nil, err
	}

	now := nowUTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE board_lists SET updated_at = ?, version = version + 1 WHERE id = ?`,
		formatTime(now), list.ID); err != nil {
		return nil, err
	}

	if err := insertActivity(ctx, tx, &domain.Activity{
		ID:        newActivityID(),
		CreatedAt: now,
		BoardID:   list.BoardID,
		ActorID:   actorID,
		Type:      domain.ActivityListMoved,
		Detail:    map[string]string{"list_id": list.ID, "title": list.Title},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetList(ctx, list.ID)
}
