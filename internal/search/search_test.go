package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := NewIndex(Options{
		DataPath: t.TempDir(),
		Logger:   nil,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func TestNewIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexDocument(t *testing.T) {
	index := setupTestIndex(t)

	doc := &Document{
		ID:      "crd_1",
		Kind:    KindCard,
		Title:   "Interview the mayor",
		BoardID: "brd_1",
		ListID:  "lst_1",
	}

	require.NoError(t, index.IndexDocument(doc))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndexDocumentsBatch(t *testing.T) {
	index := setupTestIndex(t)

	docs := []*Document{
		{ID: "brd_1", Kind: KindBoard, Title: "Newsroom", BoardID: "brd_1"},
		{ID: "crd_1", Kind: KindCard, Title: "Draft headline", BoardID: "brd_1"},
		{ID: "evt_1", Kind: KindEvent, Title: "Morning pauta", BoardID: TeamScope},
	}
	require.NoError(t, index.IndexDocuments(docs))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchByTitle(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexDocuments([]*Document{
		{ID: "crd_1", Kind: KindCard, Title: "Flood coverage downtown", BoardID: "brd_1"},
		{ID: "crd_2", Kind: KindCard, Title: "Budget interview", BoardID: "brd_1"},
	}))

	result, err := index.Search(context.Background(), Params{Query: "flood", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "crd_1", result.Hits[0].ID)
	assert.Equal(t, KindCard, result.Hits[0].Kind)
	assert.Equal(t, "brd_1", result.Hits[0].BoardID)
}

func TestSearchMatchesDescription(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexDocument(&Document{
		ID:          "crd_1",
		Kind:        KindCard,
		Title:       "Follow up",
		Description: "call the hospital press office",
		BoardID:     "brd_1",
	}))

	result, err := index.Search(context.Background(), Params{Query: "hospital", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "crd_1", result.Hits[0].ID)
}

func TestSearchKindFilter(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexDocuments([]*Document{
		{ID: "brd_1", Kind: KindBoard, Title: "Election desk", BoardID: "brd_1"},
		{ID: "crd_1", Kind: KindCard, Title: "Election map", BoardID: "brd_1"},
	}))

	result, err := index.Search(context.Background(), Params{
		Query: "election",
		Kinds: []Kind{KindCard},
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "crd_1", result.Hits[0].ID)
}

func TestSearchBoardFilter(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexDocuments([]*Document{
		{ID: "crd_1", Kind: KindCard, Title: "Weather story", BoardID: "brd_1"},
		{ID: "crd_2", Kind: KindCard, Title: "Weather graphics", BoardID: "brd_2"},
		{ID: "evt_1", Kind: KindEvent, Title: "Weather briefing", BoardID: TeamScope},
	}))

	result, err := index.Search(context.Background(), Params{
		Query:    "weather",
		BoardIDs: []string{"brd_1", TeamScope},
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)

	ids := []string{result.Hits[0].ID, result.Hits[1].ID}
	assert.ElementsMatch(t, []string{"crd_1", "evt_1"}, ids)
}

func TestSearchFuzzyMatch(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexDocument(&Document{
		ID: "crd_1", Kind: KindCard, Title: "council meeting", BoardID: "brd_1",
	}))

	result, err := index.Search(context.Background(), Params{Query: "counil", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "crd_1", result.Hits[0].ID)
}

func TestDeleteDocument(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexDocument(&Document{
		ID: "crd_1", Kind: KindCard, Title: "Obsolete", BoardID: "brd_1",
	}))
	require.NoError(t, index.DeleteDocument("crd_1"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestEventDocumentTeamScope(t *testing.T) {
	event := &domain.Event{
		ID:        "evt_1",
		Title:     "Editorial meeting",
		Type:      domain.EventTypeMeeting,
		UpdatedAt: time.Now(),
	}
	doc := EventDocument(event)
	assert.Equal(t, TeamScope, doc.BoardID)

	event.BoardID = "brd_9"
	doc = EventDocument(event)
	assert.Equal(t, "brd_9", doc.BoardID)
}

type staticResolver struct {
	list *domain.List
}

func (r staticResolver) GetList(context.Context, string) (*domain.List, error) {
	return r.list, nil
}

func TestIndexerProcessesQueuedWork(t *testing.T) {
	index := setupTestIndex(t)

	resolver := staticResolver{list: &domain.List{ID: "lst_1", BoardID: "brd_1"}}
	indexer := NewIndexer(index, resolver, discardLogger())
	indexer.Start()

	indexer.IndexBoard(&domain.Board{ID: "brd_1", Title: "Newsroom"})
	indexer.IndexCard(&domain.Card{ID: "crd_1", ListID: "lst_1", Title: "Write lede"})
	indexer.IndexEvent(&domain.Event{ID: "evt_1", Title: "Standup"})
	indexer.Stop()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	result, err := index.Search(context.Background(), Params{Query: "lede", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "brd_1", result.Hits[0].BoardID)
}

func TestIndexerRemove(t *testing.T) {
	index := setupTestIndex(t)

	indexer := NewIndexer(index, staticResolver{}, discardLogger())
	indexer.Start()

	indexer.IndexBoard(&domain.Board{ID: "brd_1", Title: "Newsroom"})
	indexer.Remove("brd_1")
	indexer.Stop()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
