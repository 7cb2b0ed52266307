package service

import (
	"context"
	"encoding/json/v2"
	"errors"
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

// BoardService orchestrates board, list, and label operations.
type BoardService struct {
	store    store.Store
	events   store.EventEmitter
	validate *validation.Validator
	logger   *slog.Logger
}

// NewBoardService creates a new board service.
func NewBoardService(st store.Store, events store.EventEmitter, validate *validation.Validator, logger *slog.Logger) *BoardService {
	return &BoardService{
		store:    st,
		events:   events,
		validate: validate,
		logger:   logger,
	}
}

// CreateBoardRequest holds new-board input.
type CreateBoardRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Visibility  string `json:"visibility,omitempty" validate:"omitempty,visibility"`
}

// UpdateBoardRequest holds board update input. Nil fields are left
// unchanged.
type UpdateBoardRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Visibility  *string `json:"visibility,omitempty" validate:"omitempty,visibility"`
}

// CreateBoard creates a board owned by the user.
func (s *BoardService) CreateBoard(ctx context.Context, user *domain.User, req CreateBoardRequest) (*domain.Board, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	visibility := domain.Visibility(req.Visibility)
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}

	now := time.Now().UTC()
	board := &domain.Board{
		ID:          id.MustGenerate("brd"),
		CreatedAt:   now,
		UpdatedAt:   now,
		OwnerID:     user.ID,
		Title:       req.Title,
		Description: req.Description,
		Visibility:  visibility,
		MemberIDs:   []string{user.ID},
	}
	if err := s.store.CreateBoard(ctx, board); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}

	s.recordActivity(ctx, board.ID, user.ID, "", domain.ActivityBoardCreated, map[string]string{"title": board.Title})
	s.events.Emit(sse.NewBoardEvent(sse.EventBoardCreated, board))
	s.logger.Info("board created", "board_id", board.ID, "owner_id", user.ID)

	return board, nil
}

// GetBoard returns a board if the user can view it.
func (s *BoardService) GetBoard(ctx context.Context, user *domain.User, boardID string) (*domain.Board, error) {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !s.canView(user, board) {
		return nil, store.ErrNotFound
	}
	return board, nil
}

// GetBoardDetail returns the full board tree for initial render.
func (s *BoardService) GetBoardDetail(ctx context.Context, user *domain.User, boardID string) (*domain.BoardDetail, error) {
	if _, err := s.GetBoard(ctx, user, boardID); err != nil {
		return nil, err
	}
	return s.store.GetBoardDetail(ctx, boardID)
}

// ListBoards returns boards visible to the user.
func (s *BoardService) ListBoards(ctx context.Context, user *domain.User) ([]*domain.Board, error) {
	return s.store.ListBoardsForUser(ctx, user.ID)
}

// UpdateBoard applies partial updates. Only the owner or an admin may
// change a board.
func (s *BoardService) UpdateBoard(ctx context.Context, user *domain.User, boardID string, req UpdateBoardRequest) (*domain.Board, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	board, err := s.requireManage(ctx, user, boardID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		board.Title = *req.Title
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.Visibility != nil {
		board.Visibility = domain.Visibility(*req.Visibility)
	}
	board.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateBoard(ctx, board); err != nil {
		return nil, fmt.Errorf("update board: %w", err)
	}

	s.recordActivity(ctx, board.ID, user.ID, "", domain.ActivityBoardUpdated, map[string]string{"title": board.Title})
	s.events.Emit(sse.NewBoardEvent(sse.EventBoardUpdated, board))

	return board, nil
}

// DeleteBoard removes a board and everything under it in one
// transaction, queueing the board_deleted webhook in the same commit.
func (s *BoardService) DeleteBoard(ctx context.Context, user *domain.User, boardID string) error {
	board, err := s.requireManage(ctx, user, boardID)
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]any{
		"board_id": board.ID,
		"title":    board.Title,
	})
	outbox := &store.OutboxInsert{
		EventType: domain.WebhookBoardDeleted,
		Payload:   payload,
	}

	if err := s.store.DeleteBoard(ctx, boardID, outbox); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}

	s.events.Emit(sse.NewDeletedEvent(sse.EventBoardDeleted, boardID, boardID))
	s.logger.Info("board deleted", "board_id", boardID, "actor_id", user.ID)

	return nil
}

// AddMember adds a user to the board.
func (s *BoardService) AddMember(ctx context.Context, user *domain.User, boardID, memberID string) (*domain.Board, error) {
	board, err := s.requireManage(ctx, user, boardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, memberID); err != nil {
		return nil, err
	}
	if err := s.store.AddBoardMember(ctx, boardID, memberID); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	s.recordActivity(ctx, boardID, user.ID, "", domain.ActivityMemberAdded, map[string]string{"member_id": memberID})
	board, err = s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.events.Emit(sse.NewBoardEvent(sse.EventBoardUpdated, board))
	return board, nil
}

// RemoveMember removes a user from the board. The owner cannot be
// removed.
func (s *BoardService) RemoveMember(ctx context.Context, user *domain.User, boardID, memberID string) (*domain.Board, error) {
	board, err := s.requireManage(ctx, user, boardID)
	if err != nil {
		return nil, err
	}
	if memberID == board.OwnerID {
		return nil, apperrors.Validation("board owner cannot be removed")
	}
	if err := s.store.RemoveBoardMember(ctx, boardID, memberID); err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}

	s.recordActivity(ctx, boardID, user.ID, "", domain.ActivityMemberRemoved, map[string]string{"member_id": memberID})
	board, err = s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.events.Emit(sse.NewBoardEvent(sse.EventBoardUpdated, board))
	return board, nil
}

// CreateListRequest holds new-list input.
type CreateListRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// CreateList appends a list at the end of the board.
func (s *BoardService) CreateList(ctx context.Context, user *domain.User, boardID string, req CreateListRequest) (*domain.List, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, user, boardID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	list := &domain.List{
		ID:        id.MustGenerate("lst"),
		CreatedAt: now,
		UpdatedAt: now,
		BoardID:   boardID,
		Title:     req.Title,
		Color:     req.Color,
		Version:   1,
	}
	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	s.recordActivity(ctx, boardID, user.ID, "", domain.ActivityListCreated, map[string]string{"title": list.Title})
	s.events.Emit(sse.NewListEvent(sse.EventListCreated, list))
	return list, nil
}

// UpdateListRequest holds list update input.
type UpdateListRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// UpdateList changes list metadata. Reordering goes through MoveList.
func (s *BoardService) UpdateList(ctx context.Context, user *domain.User, listID string, req UpdateListRequest) (*domain.List, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, user, list.BoardID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		list.Title = *req.Title
	}
	if req.Color != nil {
		list.Color = *req.Color
	}
	list.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}

	s.events.Emit(sse.NewListEvent(sse.EventListUpdated, list))
	return list, nil
}

// DeleteList removes a list and its cards, then renumbers the board's
// remaining lists.
func (s *BoardService) DeleteList(ctx context.Context, user *domain.User, listID string) error {
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return err
	}
	if _, err := s.requireMember(ctx, user, list.BoardID); err != nil {
		return err
	}

	if err := s.store.DeleteList(ctx, listID); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	s.recordActivity(ctx, list.BoardID, user.ID, "", domain.ActivityListDeleted, map[string]string{"title": list.Title})
	s.events.Emit(sse.NewDeletedEvent(sse.EventListDeleted, list.BoardID, listID))
	return nil
}

// MoveListRequest holds list reorder input.
type MoveListRequest struct {
	ToIndex         int   `json:"to_index,omitempty" validate:"min=0"`
	ExpectedVersion int64 `json:"expected_version" validate:"required,min=1"`
}

// MoveList reorders a list within its board. A stale expected version
// returns a version conflict and leaves the board untouched.
func (s *BoardService) MoveList(ctx context.Context, user *domain.User, listID string, req MoveListRequest) (*domain.List, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, user, list.BoardID); err != nil {
		return nil, err
	}

	moved, err := s.store.MoveList(ctx, user.ID, store.ListMove{
		ListID:          listID,
		ToIndex:         req.ToIndex,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(sse.NewListEvent(sse.EventListMoved, moved))
	return moved, nil
}

// CreateLabelRequest holds new-label input.
type CreateLabelRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=50"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// CreateLabel adds a board-scoped label.
func (s *BoardService) CreateLabel(ctx context.Context, user *domain.User, boardID string, req CreateLabelRequest) (*domain.Label, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, user, boardID); err != nil {
		return nil, err
	}

	label := &domain.Label{
		ID:      id.MustGenerate("lbl"),
		BoardID: boardID,
		Name:    req.Name,
		Color:   req.Color,
	}
	if err := s.store.CreateLabel(ctx, label); err != nil {
		return nil, fmt.Errorf("create label: %w", err)
	}
	return label, nil
}

// DeleteLabel removes a label from the board and all its cards.
func (s *BoardService) DeleteLabel(ctx context.Context, user *domain.User, boardID, labelID string) error {
	if _, err := s.requireMember(ctx, user, boardID); err != nil {
		return err
	}
	return s.store.DeleteLabel(ctx, labelID)
}

// ListActivities returns the board's activity feed, newest first.
func (s *BoardService) ListActivities(ctx context.Context, user *domain.User, boardID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Activity], error) {
	if _, err := s.GetBoard(ctx, user, boardID); err != nil {
		return nil, err
	}
	return s.store.ActivitiesForBoard(ctx, boardID, params)
}

// CanAccess reports whether the user can view the board. Wired into
// the SSE manager for per-board event filtering.
func (s *BoardService) CanAccess(ctx context.Context, userID, boardID string) bool {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return false
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false
	}
	return s.canView(user, board)
}

func (s *BoardService) canView(user *domain.User, board *domain.Board) bool {
	return user.IsAdmin() || board.CanView(user.ID)
}

// requireMember loads the board and checks write access: owner,
// member, or admin.
func (s *BoardService) requireMember(ctx context.Context, user *domain.User, boardID string) (*domain.Board, error) {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && !board.IsMember(user.ID) {
		if !board.CanView(user.ID) {
			return nil, store.ErrNotFound
		}
		return nil, apperrors.Forbidden("board membership required")
	}
	return board, nil
}

// requireManage loads the board and checks owner-level access.
func (s *BoardService) requireManage(ctx context.Context, user *domain.User, boardID string) (*domain.Board, error) {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && board.OwnerID != user.ID {
		if !board.CanView(user.ID) {
			return nil, store.ErrNotFound
		}
		return nil, apperrors.Forbidden("only the board owner can do that")
	}
	return board, nil
}

// recordActivity writes a feed entry; failures are logged, not
// propagated, since the primary write already succeeded.
func (s *BoardService) recordActivity(ctx context.Context, boardID, actorID, cardID string, activityType domain.ActivityType, detail map[string]string) {
	activity := &domain.Activity{
		ID:        id.MustGenerate("act"),
		CreatedAt: time.Now().UTC(),
		BoardID:   boardID,
		ActorID:   actorID,
		CardID:    cardID,
		Type:      activityType,
		Detail:    detail,
	}
	if err := s.store.CreateActivity(ctx, activity); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("record activity failed", "type", activityType, "error", err)
	}
}
