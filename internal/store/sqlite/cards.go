package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

// cardMovedPayload builds the webhook body for a card_moved event.
func cardMovedPayload(cardID, fromListID, toListID string, toIndex int) []byte {
	payload, _ := json.Marshal(map[string]any{
		"card_id":      cardID,
		"from_list_id": fromListID,
		"to_list_id":   toListID,
		"to_index":     toIndex,
	})
	return payload
}

const cardColumns = `id, created_at, updated_at, due_at, list_id, title, description, cover_color, priority, position, version, done`

func scanCard(scanner interface{ Scan(dest ...any) error }) (*domain.Card, error) {
	var c domain.Card
	var createdAt, updatedAt string
	var dueAt sql.NullString
	var done int

	err := scanner.Scan(
		&c.ID,
		&createdAt,
		&updatedAt,
		&dueAt,
		&c.ListID,
		&c.Title,
		&c.Description,
		&c.CoverColor,
		&c.Priority,
		&c.Position,
		&c.Version,
		&done,
	)
	if err != nil {
		return nil, err
	}

	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if c.DueAt, err = parseNullableTime(dueAt); err != nil {
		return nil, err
	}
	c.Done = done != 0
	return &c, nil
}

func (s *Store) loadCardAssociations(ctx context.Context, card *domain.Card) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label_id FROM card_labels WHERE card_id = ?`, card.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var labelID string
		if err := rows.Scan(&labelID); err != nil {
			return err
		}
		card.LabelIDs = append(card.LabelIDs, labelID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	memberRows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM card_members WHERE card_id = ?`, card.ID)
	if err != nil {
		return err
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var userID string
		if err := memberRows.Scan(&userID); err != nil {
			return err
		}
		card.MemberIDs = append(card.MemberIDs, userID)
	}
	return memberRows.Err()
}

// orderedCardIDs returns the list's card IDs in position order.
func orderedCardIDs(ctx context.Context, q queryer, listID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM cards WHERE list_id = ? ORDER BY position`, listID)
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

// renumberCards writes dense positions matching the given order.
func renumberCards(ctx context.Context, tx *sql.Tx, ids []string) error {
	for pos, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE cards SET position = ? WHERE id = ?`, pos, id); err != nil {
			return err
		}
	}
	return nil
}

// cardBoardID resolves the board a card belongs to, through its list.
func cardBoardID(ctx context.Context, q queryer, cardID string) (string, error) {
	var boardID string
	err := q.QueryRowContext(ctx, `
		SELECT l.board_id FROM cards c JOIN board_lists l ON l.id = c.list_id
		WHERE c.id = ?`, cardID).Scan(&boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	return boardID, err
}

// CreateCard appends a card at the end of its list, writing the card,
// its associations, the activity entry, and the outbox row in one
// transaction.
func (s *Store) CreateCard(ctx context.Context, card *domain.Card, activity *domain.Activity, outbox *store.OutboxInsert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE list_id = ?`, card.ListID).Scan(&count); err != nil {
		return err
	}
	card.Position = count
	if card.Version == 0 {
		card.Version = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cards (id, created_at, updated_at, due_at, list_id, title, description, cover_color, priority, position, version, done)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.ID,
		formatTime(card.CreatedAt),
		formatTime(card.UpdatedAt),
		nullTimeString(card.DueAt),
		card.ListID,
		card.Title,
		card.Description,
		card.CoverColor,
		string(card.Priority),
		card.Position,
		card.Version,
		boolToInt(card.Done),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	for _, labelID := range card.LabelIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO card_labels (card_id, label_id) VALUES (?, ?)`,
			card.ID, labelID); err != nil {
			return err
		}
	}
	for _, userID := range card.MemberIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO card_members (card_id, user_id) VALUES (?, ?)`,
			card.ID, userID); err != nil {
			return err
		}
	}

	if err := insertActivity(ctx, tx, activity); err != nil {
		return err
	}
	if err := insertOutbox(ctx, tx, outbox); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.searchIndexer.IndexCard(card)
	return nil
}

// GetCard retrieves a card with its label and member IDs.
func (s *Store) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadCardAssociations(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// UpdateCard persists scalar card fields and bumps the version.
// Position and list changes go through MoveCard.
func (s *Store) UpdateCard(ctx context.Context, card *domain.Card, activity *domain.Activity, outbox *store.OutboxInsert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET updated_at = ?, due_at = ?, title = ?, description = ?, cover_color = ?, priority = ?, done = ?, version = version + 1
		WHERE id = ?`,
		formatTime(card.UpdatedAt),
		nullTimeString(card.DueAt),
		card.Title,
		card.Description,
		card.CoverColor,
		string(card.Priority),
		boolToInt(card.Done),
		card.ID,
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

	if err := insertActivity(ctx, tx, activity); err != nil {
		return err
	}
	if err := insertOutbox(ctx, tx, outbox); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	card.Version++
	s.searchIndexer.IndexCard(card)
	return nil
}

// DeleteCard removes the card and renumbers its list in one
// transaction.
func (s *Store) DeleteCard(ctx context.Context, id string, activity *domain.Activity, outbox *store.OutboxInsert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var listID string
	err = tx.QueryRowContext(ctx,
		`SELECT list_id FROM cards WHERE id = ?`, id).Scan(&listID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
		return err
	}

	ids, err := orderedCardIDs(ctx, tx, listID)
	if err != nil {
		return err
	}
	if err := renumberCards(ctx, tx, ids); err != nil {
		return err
	}

	if err := insertActivity(ctx, tx, activity); err != nil {
		return err
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

// CardsForList returns the list's cards in position order with their
// associations loaded.
func (s *Store) CardsForList(ctx context.Context, listID string) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE list_id = ? ORDER BY position`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, card := range cards {
		if err := s.loadCardAssociations(ctx, card); err != nil {
			return nil, err
		}
	}
	return cards, nil
}

// MoveCard moves a card to a target list and index in one
// transaction: version check, source renumber, clamped insert,
// destination renumber, version bump, activity entry, and outbox row
// all commit together or not at all.
func (s *Store) MoveCard(ctx context.Context, actorID string, move store.CardMove) (*domain.Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, move.CardID)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if card.Version != move.ExpectedVersion {
		return nil, store.ErrVersionConflict
	}

	var destBoardID string
	err = tx.QueryRowContext(ctx,
		`SELECT board_id FROM board_lists WHERE id = ?`, move.ToListID).Scan(&destBoardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := nowUTC()
	fromListID := card.ListID

	if fromListID == move.ToListID {
		ids, err := orderedCardIDs(ctx, tx, fromListID)
		if err != nil {
			return nil, err
		}
		reordered, ok := domain.MoveWithin(ids, card.ID, move.ToIndex)
		if !ok {
			return nil, store.ErrNotFound
		}
		if err := renumberCards(ctx, tx, reordered); err != nil {
			return nil, err
		}
	} else {
		sourceIDs, err := orderedCardIDs(ctx, tx, fromListID)
		if err != nil {
			return nil, err
		}
		sourceIDs, ok := domain.RemoveID(sourceIDs, card.ID)
		if !ok {
			return nil, store.ErrNotFound
		}
		if err := renumberCards(ctx, tx, sourceIDs); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE cards SET list_id = ? WHERE id = ?`, move.ToListID, card.ID); err != nil {
			return nil, err
		}

		destIDs, err := orderedCardIDs(ctx, tx, move.ToListID)
		if err != nil {
			return nil, err
		}
		destIDs, _ = domain.RemoveID(destIDs, card.ID)
		destIDs = domain.InsertIDAt(destIDs, card.ID, move.ToIndex)
		if err := renumberCards(ctx, tx, destIDs); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE cards SET updated_at = ?, version = version + 1 WHERE id = ?`,
		formatTime(now), card.ID); err != nil {
		return nil, err
	}

	if err := insertActivity(ctx, tx, &domain.Activity{
		ID:        newActivityID(),
		CreatedAt: now,
		BoardID:   destBoardID,
		ActorID:   actorID,
		CardID:    card.ID,
		Type:      domain.ActivityCardMoved,
		Detail: map[string]string{
			"from_list_id": fromListID,
			"to_list_id":   move.ToListID,
			"title":        card.Title,
		},
	}); err != nil {
		return nil, err
	}

	if err := insertOutbox(ctx, tx, &store.OutboxInsert{
		EventType: domain.WebhookCardMoved,
		Payload:   cardMovedPayload(card.ID, fromListID, move.ToListID, move.ToIndex),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetCard(ctx, card.ID)
}

// AddCardMember assigns a user to a card; adding twice is a no-op.
func (s *Store) AddCardMember(ctx context.Context, cardID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO card_members (card_id, user_id) VALUES (?, ?)`,
		cardID, userID)
	return err
}

// RemoveCardMember unassigns a user from a card.
func (s *Store) RemoveCardMember(ctx context.Context, cardID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM card_members WHERE card_id = ? AND user_id = ?`,
		cardID, userID)
	return err
}

// AddCardLabel attaches a label with its activity and outbox rows in
// one transaction.
func (s *Store) AddCardLabel(ctx context.Context, cardID, labelID string, activity *domain.Activity, outbox *store.OutboxInsert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO card_labels (card_id, label_id) VALUES (?, ?)`,
		cardID, labelID); err != nil {
		return err
	}
	if err := insertActivity(ctx, tx, activity); err != nil {
		return err
	}
	if err := insertOutbox(ctx, tx, outbox); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveCardLabel detaches a label with its activity and outbox rows
// in one transaction.
func (s *Store) RemoveCardLabel(ctx context.Context, cardID, labelID string, activity *domain.Activity, outbox *store.OutboxInsert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM card_labels WHERE card_id = ? AND label_id = ?`,
		cardID, labelID); err != nil {
		return err
	}
	if err := insertActivity(ctx, tx, activity); err != nil {
		return err
	}
	if err := insertOutbox(ctx, tx, outbox); err != nil {
		return err
	}
	return tx.Commit()
}
