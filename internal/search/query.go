package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search query.
type Params struct {
	Query string // User's search query
	Kinds []Kind // Document kinds to include (empty = all)

	// BoardIDs restricts results to documents belonging to the given
	// boards. Callers include TeamScope to also match team-wide
	// documents. Empty means no board filter (admin search).
	BoardIDs []string

	// Pagination
	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		Offset: 0,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single search result.
type Hit struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	BoardID    string            `json:"board_id,omitempty"`
	ListID     string            `json:"list_id,omitempty"`
	Location   string            `json:"location,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("title")
	searchRequest.Highlight.AddField("description")

	searchRequest.Fields = []string{"id", "kind", "title", "board_id", "list_id", "location"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if k, ok := hit.Fields["kind"].(string); ok {
			h.Kind = Kind(k)
		}
		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}
		if b, ok := hit.Fields["board_id"].(string); ok {
			h.BoardID = b
		}
		if l, ok := hit.Fields["list_id"].(string); ok {
			h.ListID = l
		}
		if loc, ok := hit.Fields["location"].(string); ok {
			h.Location = loc
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	if params.Query != "" {
		textQueries := []query.Query{}

		// Title match with highest boost
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		// Description match
		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		// Location match for events
		locationMatch := bleve.NewMatchQuery(params.Query)
		locationMatch.SetField("location")
		textQueries = append(textQueries, locationMatch)

		// Fuzzy matching for typo tolerance on title
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for incremental typing (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	} else {
		queries = append(queries, bleve.NewMatchAllQuery())
	}

	if len(params.Kinds) > 0 {
		kindQueries := make([]query.Query, 0, len(params.Kinds))
		for _, kind := range params.Kinds {
			tq := bleve.NewTermQuery(string(kind))
			tq.SetField("kind")
			kindQueries = append(kindQueries, tq)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(kindQueries...))
	}

	if len(params.BoardIDs) > 0 {
		boardQueries := make([]query.Query, 0, len(params.BoardIDs))
		for _, boardID := range params.BoardIDs {
			tq := bleve.NewTermQuery(boardID)
			tq.SetField("board_id")
			boardQueries = append(boardQueries, tq)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(boardQueries...))
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
