// Package sse implements Server-Sent Events for real-time board and
// agenda updates.
package sse

import (
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventBoardCreated represents a board creation event.
	EventBoardCreated EventType = "board.created"
	// EventBoardUpdated represents a board update event.
	EventBoardUpdated EventType = "board.updated"
	// EventBoardDeleted represents a board deletion event.
	EventBoardDeleted EventType = "board.deleted"

	// EventListCreated represents a list creation event.
	EventListCreated EventType = "list.created"
	// EventListUpdated represents a list update event.
	EventListUpdated EventType = "list.updated"
	// EventListMoved represents a list reorder event.
	EventListMoved EventType = "list.moved"
	// EventListDeleted represents a list deletion event.
	EventListDeleted EventType = "list.deleted"

	// EventCardCreated represents a card creation event.
	EventCardCreated EventType = "card.created"
	// EventCardUpdated represents a card update event.
	EventCardUpdated EventType = "card.updated"
	// EventCardMoved represents a card move event.
	EventCardMoved EventType = "card.moved"
	// EventCardDeleted represents a card deletion event.
	EventCardDeleted EventType = "card.deleted"

	// EventCommentAdded represents a new card comment.
	EventCommentAdded EventType = "comment.added"
	// EventCommentDeleted represents a removed card comment.
	EventCommentDeleted EventType = "comment.deleted"

	// EventAgendaCreated represents an agenda event creation.
	EventAgendaCreated EventType = "event.created"
	// EventAgendaUpdated represents an agenda event update.
	EventAgendaUpdated EventType = "event.updated"
	// EventAgendaDeleted represents an agenda event deletion.
	EventAgendaDeleted EventType = "event.deleted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Filtering fields. When BoardID is set the event is only delivered
	// to clients who can view that board; when UserID is set only that
	// user receives it. Empty means broadcast to all.
	UserID  string `json:"-"`
	BoardID string `json:"-"`
}

// CardEventData is the data payload for card events.
type CardEventData struct {
	Card *domain.Card `json:"card"`
}

// CardMovedEventData is the data payload for card move events.
type CardMovedEventData struct {
	Card       *domain.Card `json:"card"`
	FromListID string       `json:"from_list_id"`
	ToListID   string       `json:"to_list_id"`
}

// ListEventData is the data payload for list events.
type ListEventData struct {
	List *domain.List `json:"list"`
}

// BoardEventData is the data payload for board events.
type BoardEventData struct {
	Board *domain.Board `json:"board"`
}

// DeletedEventData is the data payload for deletion events.
type DeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ID        string    `json:"id"`
}

// CommentEventData is the data payload for comment events.
type CommentEventData struct {
	Comment *domain.Comment `json:"comment"`
}

// AgendaEventData is the data payload for agenda events.
type AgendaEventData struct {
	Event *domain.Event `json:"event"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now().UTC()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}

// NewBoardEvent creates a board event scoped to the board's viewers.
func NewBoardEvent(eventType EventType, board *domain.Board) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      BoardEventData{Board: board},
		BoardID:   board.ID,
	}
}

// NewListEvent creates a list event scoped to the owning board.
func NewListEvent(eventType EventType, list *domain.List) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      ListEventData{List: list},
		BoardID:   list.BoardID,
	}
}

// NewCardEvent creates a card event scoped to the owning board.
func NewCardEvent(eventType EventType, boardID string, card *domain.Card) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      CardEventData{Card: card},
		BoardID:   boardID,
	}
}

// NewCardMovedEvent creates a card move event scoped to the owning board.
func NewCardMovedEvent(boardID string, card *domain.Card, fromListID string) Event {
	return Event{
		Type:      EventCardMoved,
		Timestamp: time.Now().UTC(),
		Data: CardMovedEventData{
			Card:       card,
			FromListID: fromListID,
			ToListID:   card.ListID,
		},
		BoardID: boardID,
	}
}

// NewDeletedEvent creates a deletion event scoped to a board (empty
// boardID broadcasts to all).
func NewDeletedEvent(eventType EventType, boardID, id string) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      DeletedEventData{DeletedAt: time.Now().UTC(), ID: id},
		BoardID:   boardID,
	}
}

// NewCommentEvent creates a comment event scoped to the owning board.
func NewCommentEvent(eventType EventType, boardID string, comment *domain.Comment) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      CommentEventData{Comment: comment},
		BoardID:   boardID,
	}
}

// NewAgendaEvent creates an agenda event notification. Agenda entries
// are team-wide, so no board filter applies.
func NewAgendaEvent(eventType EventType, event *domain.Event) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      AgendaEventData{Event: event},
	}
}
