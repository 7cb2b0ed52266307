package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/service"
)

func (s *Server) registerCardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createCard",
		Method:      http.MethodPost,
		Path:        "/api/v1/lists/{id}/cards",
		Summary:     "Create card",
		Description: "Appends a card to the end of the list",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCard",
		Method:      http.MethodGet,
		Path:        "/api/v1/cards/{id}",
		Summary:     "Get card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCard",
		Method:      http.MethodPatch,
		Path:        "/api/v1/cards/{id}",
		Summary:     "Update card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCard",
		Method:      http.MethodDelete,
		Path:        "/api/v1/cards/{id}",
		Summary:     "Delete card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveCard",
		Method:      http.MethodPost,
		Path:        "/api/v1/cards/{id}/move",
		Summary:     "Move card",
		Description: "Moves a card within or across lists. Requires the card's current version; a stale version returns 409.",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMoveCard)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/cards/{id}/comments",
		Summary:     "List comments",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "addComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/cards/{id}/comments",
		Summary:     "Add comment",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Delete comment",
		Description: "Authors can delete their own comments; admins can moderate",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "addCardLabel",
		Method:      http.MethodPut,
		Path:        "/api/v1/cards/{id}/labels/{labelID}",
		Summary:     "Add label to card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddCardLabel)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeCardLabel",
		Method:      http.MethodDelete,
		Path:        "/api/v1/cards/{id}/labels/{labelID}",
		Summary:     "Remove label from card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveCardLabel)

	huma.Register(s.api, huma.Operation{
		OperationID: "assignCardMember",
		Method:      http.MethodPut,
		Path:        "/api/v1/cards/{id}/members/{userID}",
		Summary:     "Assign member to card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAssignCardMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "unassignCardMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/cards/{id}/members/{userID}",
		Summary:     "Unassign member from card",
		Tags:        []string{"Cards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnassignCardMember)
}

// === DTOs ===

// CreateCardInput wraps the create card request for Huma.
type CreateCardInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"List ID"`
	Body          service.CreateCardRequest
}

// CardIDInput identifies a card.
type CardIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Card ID"`
}

// UpdateCardInput wraps the update card request for Huma. ClearDueAt
// removes the due date; due_at and clear_due_at are mutually exclusive.
type UpdateCardInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Card ID"`
	Body          struct {
		service.UpdateCardRequest
		ClearDueAt bool `json:"clear_due_at,omitempty" doc:"Remove the card's due date"`
	}
}

// MoveCardInput wraps the move card request for Huma.
type MoveCardInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Card ID"`
	Body          service.MoveCardRequest
}

// CardOutput wraps a card for Huma.
type CardOutput struct {
	Body *domain.Card
}

// CommentInput wraps the add comment request for Huma.
type CommentInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Card ID"`
	Body          service.CommentRequest
}

// CommentOutput wraps a comment for Huma.
type CommentOutput struct {
	Body *domain.Comment
}

// CommentsOutput wraps a comment list for Huma.
type CommentsOutput struct {
	Body struct {
		Comments []*domain.Comment `json:"comments" doc:"Comments, oldest first"`
	}
}

// CardLabelInput identifies a card/label pair.
type CardLabelInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Card ID"`
	LabelID       string `path:"labelID" doc:"Label ID"`
}

// CardMemberInput identifies a card/member pair.
type CardMemberInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Card ID"`
	UserID        string `path:"userID" doc:"Member user ID"`
}

// === Handlers ===

func (s *Server) handleCreateCard(ctx context.Context, input *CreateCardInput) (*CardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.CreateCard(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleGetCard(ctx context.Context, input *CardIDInput) (*CardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.GetCard(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleUpdateCard(ctx context.Context, input *UpdateCardInput) (*CardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	req := input.Body.UpdateCardRequest
	if req.DueAt != nil {
		req.DueAtSet = true
	}
	if input.Body.ClearDueAt {
		req.DueAt = nil
		req.DueAtSet = true
	}

	card, err := s.services.Card.UpdateCard(ctx, user, input.ID, req)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleDeleteCard(ctx context.Context, input *CardIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Card.DeleteCard(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Card deleted"}}, nil
}

func (s *Server) handleMoveCard(ctx context.Context, input *MoveCardInput) (*CardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.MoveCard(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *CardIDInput) (*CommentsOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	comments, err := s.services.Card.ListComments(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}

	out := &CommentsOutput{}
	out.Body.Comments = comments
	return out, nil
}

func (s *Server) handleAddComment(ctx context.Context, input *CommentInput) (*CommentOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Card.AddComment(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CardIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Card.DeleteComment(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Comment deleted"}}, nil
}

func (s *Server) handleAddCardLabel(ctx context.Context, input *CardLabelInput) (*CardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.AddLabel(ctx, user, input.ID, input.LabelID)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleRemoveCardLabel(ctx context.Context, input *CardLabelInput) (*CardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.RemoveLabel(ctx, user, input.ID, input.LabelID)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleAssignCardMember(ctx context.Context, input *CardMemberInput) (*CardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.AssignMember(ctx, user, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}

func (s *Server) handleUnassignCardMember(ctx context.Context, input *CardMemberInput) (*CardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.services.Card.UnassignMember(ctx, user, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &CardOutput{Body: card}, nil
}
