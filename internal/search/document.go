// Package search provides full-text search over boards, cards, and
// agenda events using Bleve. All entities share one index with kind
// discrimination so a single query covers the whole workspace.
package search

import (
	"github.com/quadroapp/quadro-server/internal/domain"
)

// Kind represents the type of document in the unified index.
type Kind string

// Document kinds for the search index.
const (
	KindBoard Kind = "board"
	KindCard  Kind = "card"
	KindEvent Kind = "event"
)

// TeamScope marks documents visible to every authenticated user,
// such as agenda events not tied to any board.
const TeamScope = "team"

// Document is the unified structure for the Bleve index.
//
// BoardID is denormalized onto every document so results can be
// filtered by board membership without extra lookups. Events not tied
// to a board carry BoardID = TeamScope and match every caller.
type Document struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Primary searchable text: board title, card title, event title.
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	BoardID string `json:"board_id,omitempty"`
	ListID  string `json:"list_id,omitempty"` // cards only

	// Event-specific fields.
	Location string `json:"location,omitempty"`
	Type     string `json:"type,omitempty"`

	// Unix millis, for recency sorting.
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve indexes Go struct field names as written (capitalized), but
// the index mapping uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"kind":       string(d.Kind),
		"title":      d.Title,
		"board_id":   d.BoardID,
		"updated_at": d.UpdatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.ListID != "" {
		m["list_id"] = d.ListID
	}
	if d.Location != "" {
		m["location"] = d.Location
	}
	if d.Type != "" {
		m["type"] = d.Type
	}
	return m
}

// BoardDocument builds the search document for a board.
func BoardDocument(board *domain.Board) *Document {
	return &Document{
		ID:          board.ID,
		Kind:        KindBoard,
		Title:       board.Title,
		Description: board.Description,
		BoardID:     board.ID,
		UpdatedAt:   board.UpdatedAt.UnixMilli(),
	}
}

// CardDocument builds the search document for a card. The board ID is
// resolved by the caller since cards reference boards through lists.
func CardDocument(card *domain.Card, boardID string) *Document {
	return &Document{
		ID:          card.ID,
		Kind:        KindCard,
		Title:       card.Title,
		Description: card.Description,
		BoardID:     boardID,
		ListID:      card.ListID,
		UpdatedAt:   card.UpdatedAt.UnixMilli(),
	}
}

// EventDocument builds the search document for an agenda event.
func EventDocument(event *domain.Event) *Document {
	boardID := event.BoardID
	if boardID == "" {
		boardID = TeamScope
	}
	return &Document{
		ID:          event.ID,
		Kind:        KindEvent,
		Title:       event.Title,
		Description: event.Description,
		BoardID:     boardID,
		Location:    event.Location,
		Type:        string(event.Type),
		UpdatedAt:   event.UpdatedAt.UnixMilli(),
	}
}
