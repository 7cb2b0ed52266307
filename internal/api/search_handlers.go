package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quadroapp/quadro-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Full-text search",
		Description: "Searches boards, cards, and agenda events. Results are limited to what the caller can see.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// SearchInput carries the search query.
type SearchInput struct {
	Authorization string   `header:"Authorization"`
	Query         string   `query:"q" required:"true" doc:"Search query"`
	Kinds         []string `query:"kind" doc:"Restrict to document kinds: board, card, event"`
	Limit         int      `query:"limit" doc:"Max hits to return (default 20, max 100)"`
	Offset        int      `query:"offset" doc:"Hits to skip"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Search.Search(ctx, user, input.Query, input.Kinds, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}
