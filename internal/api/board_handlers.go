package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/service"
	"github.com/quadroapp/quadro-server/internal/store"
)

func (s *Server) registerBoardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBoards",
		Method:      http.MethodGet,
		Path:        "/api/v1/boards",
		Summary:     "List boards",
		Description: "Returns boards visible to the current user",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBoards)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBoard",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards",
		Summary:     "Create board",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBoard",
		Method:      http.MethodGet,
		Path:        "/api/v1/boards/{id}",
		Summary:     "Get board",
		Description: "Returns the full board tree: board, lists, cards, and labels",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBoard",
		Method:      http.MethodPatch,
		Path:        "/api/v1/boards/{id}",
		Summary:     "Update board",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBoard",
		Method:      http.MethodDelete,
		Path:        "/api/v1/boards/{id}",
		Summary:     "Delete board",
		Description: "Deletes the board and everything under it",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBoardMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{id}/members",
		Summary:     "Add board member",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddBoardMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBoardMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/boards/{id}/members/{userID}",
		Summary:     "Remove board member",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveBoardMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "createLabel",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{id}/labels",
		Summary:     "Create label",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateLabel)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteLabel",
		Method:      http.MethodDelete,
		Path:        "/api/v1/boards/{id}/labels/{labelID}",
		Summary:     "Delete label",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteLabel)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBoardActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/boards/{id}/activity",
		Summary:     "Board activity feed",
		Description: "Returns the board's activity entries, newest first",
		Tags:        []string{"Boards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBoardActivity)

	huma.Register(s.api, huma.Operation{
		OperationID: "createList",
		Method:      http.MethodPost,
		Path:        "/api/v1/boards/{id}/lists",
		Summary:     "Create list",
		Description: "Appends a list at the end of the board",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateList",
		Method:      http.MethodPatch,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Update list",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Delete list",
		Description: "Deletes the list and its cards, renumbering the remaining lists",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteList)

	huma.Register(s.api, huma.Operation{
		OperationID: "moveList",
		Method:      http.MethodPost,
		Path:        "/api/v1/lists/{id}/move",
		Summary:     "Move list",
		Description: "Reorders a list within its board. Requires the list's current version; a stale version returns 409.",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMoveList)
}

// === DTOs ===

// AuthedInput carries just the auth header for list-style endpoints.
type AuthedInput struct {
	Authorization string `header:"Authorization"`
}

// BoardIDInput identifies a board.
type BoardIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Board ID"`
}

// BoardsOutput wraps a board list for Huma.
type BoardsOutput struct {
	Body struct {
		Boards []*domain.Board `json:"boards" doc:"Boards visible to the user"`
	}
}

// BoardOutput wraps a single board for Huma.
type BoardOutput struct {
	Body *domain.Board
}

// BoardDetailOutput wraps the full board tree for Huma.
type BoardDetailOutput struct {
	Body *domain.BoardDetail
}

// CreateBoardInput wraps the create board request for Huma.
type CreateBoardInput struct {
	Authorization string `header:"Authorization"`
	Body          service.CreateBoardRequest
}

// UpdateBoardInput wraps the update board request for Huma.
type UpdateBoardInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Board ID"`
	Body          service.UpdateBoardRequest
}

// BoardMemberInput adds a member to a board.
type BoardMemberInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Board ID"`
	Body          struct {
		UserID string `json:"user_id" validate:"required" doc:"User to add"`
	}
}

// BoardMemberPathInput identifies a board member.
type BoardMemberPathInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Board ID"`
	UserID        string `path:"userID" doc:"Member user ID"`
}

// CreateLabelInput wraps the create label request for Huma.
type CreateLabelInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Board ID"`
	Body          service.CreateLabelRequest
}

// LabelPathInput identifies a board label.
type LabelPathInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Board ID"`
	LabelID       string `path:"labelID" doc:"Label ID"`
}

// LabelOutput wraps a label for Huma.
type LabelOutput struct {
	Body *domain.Label
}

// ActivityInput pages through a board's activity feed.
type ActivityInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Board ID"`
	Limit         int    `query:"limit" doc:"Items per page (max 500)"`
	Cursor        string `query:"cursor" doc:"Opaque cursor from previous page"`
}

// ActivityOutput wraps an activity page for Huma.
type ActivityOutput struct {
	Body *store.PaginatedResult[*domain.Activity]
}

// CreateListInput wraps the create list request for Huma.
type CreateListInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Board ID"`
	Body          service.CreateListRequest
}

// ListIDInput identifies a list.
type ListIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"List ID"`
}

// UpdateListInput wraps the update list request for Huma.
type UpdateListInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"List ID"`
	Body          service.UpdateListRequest
}

// MoveListInput wraps the move list request for Huma.
type MoveListInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"List ID"`
	Body          service.MoveListRequest
}

// ListOutput wraps a list for Huma.
type ListOutput struct {
	Body *domain.List
}

// === Handlers ===

func (s *Server) handleListBoards(ctx context.Context, _ *AuthedInput) (*BoardsOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	boards, err := s.services.Board.ListBoards(ctx, user)
	if err != nil {
		return nil, err
	}

	out := &BoardsOutput{}
	out.Body.Boards = boards
	return out, nil
}

func (s *Server) handleCreateBoard(ctx context.Context, input *CreateBoardInput) (*BoardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	board, err := s.services.Board.CreateBoard(ctx, user, input.Body)
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleGetBoard(ctx context.Context, input *BoardIDInput) (*BoardDetailOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := s.services.Board.GetBoardDetail(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}
	return &BoardDetailOutput{Body: detail}, nil
}

func (s *Server) handleUpdateBoard(ctx context.Context, input *UpdateBoardInput) (*BoardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	board, err := s.services.Board.UpdateBoard(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleDeleteBoard(ctx context.Context, input *BoardIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Board.DeleteBoard(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Board deleted"}}, nil
}

func (s *Server) handleAddBoardMember(ctx context.Context, input *BoardMemberInput) (*BoardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	board, err := s.services.Board.AddMember(ctx, user, input.ID, input.Body.UserID)
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleRemoveBoardMember(ctx context.Context, input *BoardMemberPathInput) (*BoardOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	board, err := s.services.Board.RemoveMember(ctx, user, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: board}, nil
}

func (s *Server) handleCreateLabel(ctx context.Context, input *CreateLabelInput) (*LabelOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	label, err := s.services.Board.CreateLabel(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &LabelOutput{Body: label}, nil
}

func (s *Server) handleDeleteLabel(ctx context.Context, input *LabelPathInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Board.DeleteLabel(ctx, user, input.ID, input.LabelID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Label deleted"}}, nil
}

func (s *Server) handleListBoardActivity(ctx context.Context, input *ActivityInput) (*ActivityOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	params := store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor}
	params.Validate()

	page, err := s.services.Board.ListActivities(ctx, user, input.ID, params)
	if err != nil {
		return nil, err
	}
	return &ActivityOutput{Body: page}, nil
}

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Board.CreateList(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}

func (s *Server) handleUpdateList(ctx context.Context, input *UpdateListInput) (*ListOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Board.UpdateList(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *ListIDInput) (*MessageOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Board.DeleteList(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "List deleted"}}, nil
}

func (s *Server) handleMoveList(ctx context.Context, input *MoveListInput) (*ListOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Board.MoveList(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}
