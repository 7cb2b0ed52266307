package service

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/id"
	"github.com/quadroapp/quadro-server/internal/sse"
	"github.com/quadroapp/quadro-server/internal/store"
	"github.com/quadroapp/quadro-server/internal/validation"
)

// CardService orchestrates card writes. Every mutation lands in one
// store transaction together with its activity entry and its webhook
// outbox row, then broadcasts over SSE.
type CardService struct {
	store    store.Store
	boards   *BoardService
	events   store.EventEmitter
	validate *validation.Validator
	logger   *slog.Logger
}

// NewCardService creates a new card service.
func NewCardService(st store.Store, boards *BoardService, events store.EventEmitter, validate *validation.Validator, logger *slog.Logger) *CardService {
	return &CardService{
		store:    st,
		boards:   boards,
		events:   events,
		validate: validate,
		logger:   logger,
	}
}

// CreateCardRequest holds new-card input.
type CreateCardRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=500"`
	Description string     `json:"description,omitempty" validate:"max=10000"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,priority"`
	CoverColor  string     `json:"cover_color,omitempty" validate:"omitempty,hexcolor"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	LabelIDs    []string   `json:"label_ids,omitempty"`
	MemberIDs   []string   `json:"member_ids,omitempty"`
}

// UpdateCardRequest holds card update input. Nil fields stay as they
// are; DueAtSet distinguishes clearing the due date from leaving it.
type UpdateCardRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,priority"`
	CoverColor  *string    `json:"cover_color,omitempty" validate:"omitempty,hexcolor"`
	Done        *bool      `json:"done,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	DueAtSet    bool       `json:"-"`
}

// MoveCardRequest holds card move input.
type MoveCardRequest struct {
	ToListID        string `json:"to_list_id" validate:"required"`
	ToIndex         int    `json:"to_index,omitempty" validate:"min=0"`
	ExpectedVersion int64  `json:"expected_version" validate:"required,min=1"`
}

// CreateCard appends a card to the end of a list.
func (s *CardService) CreateCard(ctx context.Context, user *domain.User, listID string, req CreateCardRequest) (*domain.Card, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, user, list.BoardID); err != nil {
		return nil, err
	}

	for _, labelID := range req.LabelIDs {
		label, err := s.store.GetLabel(ctx, labelID)
		if err != nil {
			return nil, err
		}
		if label.BoardID != list.BoardID {
			return nil, apperrors.NotFound("label not found on this board")
		}
	}

	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:          id.MustGenerate("crd"),
		CreatedAt:   now,
		UpdatedAt:   now,
		DueAt:       req.DueAt,
		ListID:      listID,
		Title:       req.Title,
		Description: req.Description,
		CoverColor:  req.CoverColor,
		Priority:    priority,
		Version:     1,
		LabelIDs:    req.LabelIDs,
		MemberIDs:   req.MemberIDs,
	}

	activity := s.newActivity(list.BoardID, user.ID, card.ID, domain.ActivityCardCreated, map[string]string{"title": card.Title})
	outbox := cardOutbox(domain.WebhookCardCreated, card, list.BoardID)

	if err := s.store.CreateCard(ctx, card, activity, outbox); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}

	s.events.Emit(sse.NewCardEvent(sse.EventCardCreated, list.BoardID, card))
	s.logger.Info("card created", "card_id", card.ID, "list_id", listID, "actor_id", user.ID)

	return card, nil
}

// GetCard returns a card if the user can view its board.
func (s *CardService) GetCard(ctx context.Context, user *domain.User, cardID string) (*domain.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.viewableBoardID(ctx, user, card); err != nil {
		return nil, err
	}
	return card, nil
}

// UpdateCard applies partial updates and bumps the version.
func (s *CardService) UpdateCard(ctx context.Context, user *domain.User, cardID string, req UpdateCardRequest) (*domain.Card, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	boardID, err := s.memberBoardID(ctx, user, card)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		card.Title = *req.Title
	}
	if req.Description != nil {
		card.Description = *req.Description
	}
	if req.Priority != nil {
		card.Priority = domain.Priority(*req.Priority)
	}
	if req.CoverColor != nil {
		card.CoverColor = *req.CoverColor
	}
	if req.Done != nil {
		card.Done = *req.Done
	}
	if req.DueAtSet {
		card.DueAt = req.DueAt
	}
	card.UpdatedAt = time.Now().UTC()

	activity := s.newActivity(boardID, user.ID, card.ID, domain.ActivityCardUpdated, map[string]string{"title": card.Title})
	outbox := cardOutbox(domain.WebhookCardUpdated, card, boardID)

	if err := s.store.UpdateCard(ctx, card, activity, outbox); err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}

	s.events.Emit(sse.NewCardEvent(sse.EventCardUpdated, boardID, card))
	return card, nil
}

// DeleteCard removes a card and renumbers its list.
func (s *CardService) DeleteCard(ctx context.Context, user *domain.User, cardID string) error {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return err
	}
	boardID, err := s.memberBoardID(ctx, user, card)
	if err != nil {
		return err
	}

	activity := s.newActivity(boardID, user.ID, card.ID, domain.ActivityCardDeleted, map[string]string{"title": card.Title})
	outbox := cardOutbox(domain.WebhookCardDeleted, card, boardID)

	if err := s.store.DeleteCard(ctx, cardID, activity, outbox); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}

	s.events.Emit(sse.NewDeletedEvent(sse.EventCardDeleted, boardID, cardID))
	return nil
}

// MoveCard moves a card to a destination list and index. The store
// runs the whole reorder in one transaction; a stale expected version
// comes back as a version conflict with nothing changed.
func (s *CardService) MoveCard(ctx context.Context, user *domain.User, cardID string, req MoveCardRequest) (*domain.Card, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberBoardID(ctx, user, card); err != nil {
		return nil, err
	}

	destList, err := s.store.GetList(ctx, req.ToListID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, user, destList.BoardID); err != nil {
		return nil, err
	}

	fromListID := card.ListID
	moved, err := s.store.MoveCard(ctx, user.ID, store.CardMove{
		CardID:          cardID,
		ToListID:        req.ToListID,
		ToIndex:         req.ToIndex,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(sse.NewCardMovedEvent(destList.BoardID, moved, fromListID))
	s.logger.Info("card moved",
		"card_id", cardID,
		"from_list_id", fromListID,
		"to_list_id", req.ToListID,
		"actor_id", user.ID,
	)

	return moved, nil
}

// CommentRequest holds new-comment input.
type CommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}

// AddComment posts a comment on a card.
func (s *CardService) AddComment(ctx context.Context, user *domain.User, cardID string, req CommentRequest) (*domain.Comment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	boardID, err := s.memberBoardID(ctx, user, card)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID:        id.MustGenerate("cmt"),
		CreatedAt: now,
		UpdatedAt: now,
		CardID:    cardID,
		AuthorID:  user.ID,
		Body:      req.Body,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.boards.recordActivity(ctx, boardID, user.ID, cardID, domain.ActivityCommentAdded, map[string]string{"title": card.Title})
	s.events.Emit(sse.NewCommentEvent(sse.EventCommentAdded, boardID, comment))
	return comment, nil
}

// DeleteComment removes a comment. Authors can delete their own;
// admins can moderate.
func (s *CardService) DeleteComment(ctx context.Context, user *domain.User, commentID string) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !comment.CanModify(user) {
		return apperrors.Forbidden("only the author can delete a comment")
	}

	card, err := s.store.GetCard(ctx, comment.CardID)
	if err != nil {
		return err
	}
	boardID, err := s.viewableBoardID(ctx, user, card)
	if err != nil {
		return err
	}

	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.events.Emit(sse.NewDeletedEvent(sse.EventCommentDeleted, boardID, commentID))
	return nil
}

// ListComments returns the card's comments, oldest first.
func (s *CardService) ListComments(ctx context.Context, user *domain.User, cardID string) ([]*domain.Comment, error) {
	if _, err := s.GetCard(ctx, user, cardID); err != nil {
		return nil, err
	}
	return s.store.CommentsForCard(ctx, cardID)
}

// AddLabel attaches a board label to the card, writing the activity
// and label_added outbox rows in the same transaction.
func (s *CardService) AddLabel(ctx context.Context, user *domain.User, cardID, labelID string) (*domain.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	boardID, err := s.memberBoardID(ctx, user, card)
	if err != nil {
		return nil, err
	}

	// Labels are board scoped; one from another board reads as absent.
	label, err := s.store.GetLabel(ctx, labelID)
	if err != nil {
		return nil, err
	}
	if label.BoardID != boardID {
		return nil, apperrors.NotFound("label not found on this board")
	}

	activity := s.newActivity(boardID, user.ID, cardID, domain.ActivityLabelAdded, map[string]string{"label_id": labelID})
	outbox := labelOutbox(domain.WebhookLabelAdded, cardID, labelID, boardID)

	if err := s.store.AddCardLabel(ctx, cardID, labelID, activity, outbox); err != nil {
		return nil, fmt.Errorf("add label: %w", err)
	}

	card, err = s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	s.events.Emit(sse.NewCardEvent(sse.EventCardUpdated, boardID, card))
	return card, nil
}

// RemoveLabel detaches a label from the card.
func (s *CardService) RemoveLabel(ctx context.Context, user *domain.User, cardID, labelID string) (*domain.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	boardID, err := s.memberBoardID(ctx, user, card)
	if err != nil {
		return nil, err
	}

	activity := s.newActivity(boardID, user.ID, cardID, domain.ActivityLabelRemoved, map[string]string{"label_id": labelID})
	outbox := labelOutbox(domain.WebhookLabelRemoved, cardID, labelID, boardID)

	if err := s.store.RemoveCardLabel(ctx, cardID, labelID, activity, outbox); err != nil {
		return nil, fmt.Errorf("remove label: %w", err)
	}

	card, err = s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	s.events.Emit(sse.NewCardEvent(sse.EventCardUpdated, boardID, card))
	return card, nil
}

// AssignMember assigns a user to the card.
func (s *CardService) AssignMember(ctx context.Context, user *domain.User, cardID, memberID string) (*domain.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	boardID, err := s.memberBoardID(ctx, user, card)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddCardMember(ctx, cardID, memberID); err != nil {
		return nil, fmt.Errorf("assign member: %w", err)
	}

	card, err = s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	s.events.Emit(sse.NewCardEvent(sse.EventCardUpdated, boardID, card))
	return card, nil
}

// UnassignMember removes a user from the card.
func (s *CardService) UnassignMember(ctx context.Context, user *domain.User, cardID, memberID string) (*domain.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	boardID, err := s.memberBoardID(ctx, user, card)
	if err != nil {
		return nil, err
	}

	if err := s.store.RemoveCardMember(ctx, cardID, memberID); err != nil {
		return nil, fmt.Errorf("unassign member: %w", err)
	}

	card, err = s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	s.events.Emit(sse.NewCardEvent(sse.EventCardUpdated, boardID, card))
	return card, nil
}

// viewableBoardID resolves the card's board and checks read access.
func (s *CardService) viewableBoardID(ctx context.Context, user *domain.User, card *domain.Card) (string, error) {
	list, err := s.store.GetList(ctx, card.ListID)
	if err != nil {
		return "", err
	}
	if _, err := s.boards.GetBoard(ctx, user, list.BoardID); err != nil {
		return "", err
	}
	return list.BoardID, nil
}

// memberBoardID resolves the card's board and checks write access.
func (s *CardService) memberBoardID(ctx context.Context, user *domain.User, card *domain.Card) (string, error) {
	list, err := s.store.GetList(ctx, card.ListID)
	if err != nil {
		return "", err
	}
	if _, err := s.boards.requireMember(ctx, user, list.BoardID); err != nil {
		return "", err
	}
	return list.BoardID, nil
}

func (s *CardService) newActivity(boardID, actorID, cardID string, activityType domain.ActivityType, detail map[string]string) *domain.Activity {
	return &domain.Activity{
		ID:        id.MustGenerate("act"),
		CreatedAt: time.Now().UTC(),
		BoardID:   boardID,
		ActorID:   actorID,
		CardID:    cardID,
		Type:      activityType,
		Detail:    detail,
	}
}

func cardOutbox(eventType domain.WebhookEventType, card *domain.Card, boardID string) *store.OutboxInsert {
	payload, _ := json.Marshal(map[string]any{
		"card_id":  card.ID,
		"list_id":  card.ListID,
		"board_id": boardID,
		"title":    card.Title,
	})
	return &store.OutboxInsert{EventType: eventType, Payload: payload}
}

func labelOutbox(eventType domain.WebhookEventType, cardID, labelID, boardID string) *store.OutboxInsert {
	payload, _ := json.Marshal(map[string]any{
		"card_id":  cardID,
		"label_id": labelID,
		"board_id": boardID,
	})
	return &store.OutboxInsert{EventType: eventType, Payload: payload}
}
