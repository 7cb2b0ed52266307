package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/search"
	"github.com/quadroapp/quadro-server/internal/store"
)

const maxSearchLimit = 100

// SearchService runs full-text queries scoped to what the caller can
// see. Non-admins only get hits from boards they can view, plus
// team-wide agenda events.
type SearchService struct {
	index  *search.Index
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, st store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  st,
		logger: logger,
	}
}

// Search executes a query. Kinds narrows results to board, card or
// event documents; an empty slice means all kinds.
func (s *SearchService) Search(ctx context.Context, user *domain.User, query string, kinds []string, limit, offset int) (*search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("search query is required")
	}

	params := search.DefaultParams()
	params.Query = query
	params.Offset = max(offset, 0)
	if limit > 0 {
		params.Limit = min(limit, maxSearchLimit)
	}

	for _, k := range kinds {
		switch search.Kind(k) {
		case search.KindBoard, search.KindCard, search.KindEvent:
			params.Kinds = append(params.Kinds, search.Kind(k))
		default:
			return nil, apperrors.Validationf("unknown search kind %q", k)
		}
	}

	// Admins search everything; everyone else is fenced to the boards
	// they can view plus team-scoped event documents.
	if !user.IsAdmin() {
		boards, err := s.store.ListBoardsForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		params.BoardIDs = make([]string, 0, len(boards)+1)
		for _, b := range boards {
			params.BoardIDs = append(params.BoardIDs, b.ID)
		}
		params.BoardIDs = append(params.BoardIDs, search.TeamScope)
	}

	return s.index.Search(ctx, params)
}
