package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

const boardColumns = `id, created_at, updated_at, owner_id, title, description, visibility`

func scanBoard(scanner interface{ Scan(dest ...any) error }) (*domain.Board, error) {
	var b domain.Board
	var createdAt, updatedAt string

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.OwnerID,
		&b.Title,
		&b.Description,
		&b.Visibility,
	)
	if err != nil {
		return nil, err
	}

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) loadBoardMembers(ctx context.Context, boardID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM board_members WHERE board_id = ?`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		memberIDs = append(memberIDs, userID)
	}
	return memberIDs, rows.Err()
}

// CreateBoard inserts a board and its member rows in a transaction.
func (s *Store) CreateBoard(ctx context.Context, board *domain.Board) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO boards (id, created_at, updated_at, owner_id, title, description, visibility)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		board.ID,
		formatTime(board.CreatedAt),
		formatTime(board.UpdatedAt),
		board.OwnerID,
		board.Title,
		board.Description,
		string(board.Visibility),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	for _, userID := range board.MemberIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO board_members (board_id, user_id) VALUES (?, ?)`,
			board.ID, userID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.searchIndexer.IndexBoard(board)
	return nil
}

// GetBoard retrieves a board with its member IDs.
func (s *Store) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE id = ?`, id)
	board, err := scanBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	board.MemberIDs, err = s.loadBoardMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return board, nil
}

// GetBoardDetail loads the board together with its full list/card
// tree and labels, for initial render.
func (s *Store) GetBoardDetail(ctx context.Context, id string) (*domain.BoardDetail, error) {
	board, err := s.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	lists, err := s.ListsForBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	cards := make(map[string][]*domain.Card, len(lists))
	for _, list := range lists {
		listCards, err := s.CardsForList(ctx, list.ID)
		if err != nil {
			return nil, err
		}
		cards[list.ID] = listCards
	}

	labels, err := s.ListLabelsForBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.BoardDetail{
		Board:  board,
		Lists:  lists,
		Cards:  cards,
		Labels: labels,
	}, nil
}

// UpdateBoard persists mutable board fields. Membership changes go
// through AddBoardMember/RemoveBoardMember.
func (s *Store) UpdateBoard(ctx context.Context, board *domain.Board) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE boards SET updated_at = ?, title = ?, description = ?, visibility = ?
		WHERE id = ?`,
		formatTime(board.UpdatedAt),
		board.Title,
		board.Description,
		string(board.Visibility),
		board.ID,
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
	s.searchIndexer.IndexBoard(board)
	return nil
}

// DeleteBoard removes the board in one transaction. Foreign keys
// cascade the delete down to lists, cards, comments, labels, members,
// attachments, and activities; the optional outbox row commits with
// it so a crash cannot separate the delete from its notification.
func (s *Store) DeleteBoard(ctx context.Context, id string, outbox *store.OutboxInsert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
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

	if err := insertOutbox(ctx, tx, outbox); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.searchIndexer.Remove(id)
	return nil
}

// ListBoardsForUser returns boards the user can see: own, member of,
// or team-visible.
func (s *Store) ListBoardsForUser(ctx context.Context, userID string) ([]*domain.Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT b.id, b.created_at, b.updated_at, b.owner_id, b.title, b.description, b.visibility
		FROM boards b
		LEFT JOIN board_members m ON m.board_id = b.id
		WHERE b.owner_id = ? OR m.user_id = ? OR b.visibility = ?
		ORDER BY b.created_at`,
		userID, userID, string(domain.VisibilityTeam))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []*domain.Board
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, board := range boards {
		if board.MemberIDs, err = s.loadBoardMembers(ctx, board.ID); err != nil {
			return nil, err
		}
	}
	return boards, nil
}

// AddBoardMember adds a user to the board. Adding an existing member
// is a no-op.
func (s *Store) AddBoardMember(ctx context.Context, boardID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO board_members (board_id, user_id) VALUES (?, ?)`,
		boardID, userID)
	return err
}

// RemoveBoardMember removes a user from the board.
func (s *Store) RemoveBoardMember(ctx context.Context, boardID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM board_members WHERE board_id = ? AND user_id = ?`,
		boardID, userID)
	return err
}

// CreateLabel inserts a board-scoped label.
func (s *Store) CreateLabel(ctx context.Context, label *domain.Label) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labels (id, board_id, name, color) VALUES (?, ?, ?, ?)`,
		label.ID, label.BoardID, label.Name, label.Color)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// DeleteLabel removes a label; card_labels rows cascade.
func (s *Store) DeleteLabel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, id)
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

// GetLabel returns one label by ID.
func (s *Store) GetLabel(ctx context.Context, id string) (*domain.Label, error) {
	var label domain.Label
	err := s.db.QueryRowContext(ctx,
		`SELECT id, board_id, name, color FROM labels WHERE id = ?`, id).
		Scan(&label.ID, &label.BoardID, &label.Name, &label.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &label, nil
}

// ListLabelsForBoard returns the board's labels ordered by name.
func (s *Store) ListLabelsForBoard(ctx context.Context, boardID string) ([]*domain.Label, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_id, name, color FROM labels WHERE board_id = ? ORDER BY name`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []*domain.Label
	for rows.Next() {
		var label domain.Label
		if err := rows.Scan(&label.ID, &label.BoardID, &label.Name, &label.Color); err != nil {
			return nil, err
		}
		labels = append(labels, &label)
	}
	return labels, rows.Err()
}
