package domain

import "time"

// ActivityType identifies what happened in an activity entry.
type ActivityType string

// Activity types recorded in the board activity feed.
const (
	ActivityBoardCreated   ActivityType = "board.created"
	ActivityBoardUpdated   ActivityType = "board.updated"
	ActivityBoardDeleted   ActivityType = "board.deleted"
	ActivityListCreated    ActivityType = "list.created"
	ActivityListUpdated    ActivityType = "list.updated"
	ActivityListMoved      ActivityType = "list.moved"
	ActivityListDeleted    ActivityType = "list.deleted"
	ActivityCardCreated    ActivityType = "card.created"
	ActivityCardUpdated    ActivityType = "card.updated"
	ActivityCardMoved      ActivityType = "card.moved"
	ActivityCardDeleted    ActivityType = "card.deleted"
	ActivityCommentAdded   ActivityType = "comment.added"
	ActivityCommentDeleted ActivityType = "comment.deleted"
	ActivityLabelAdded     ActivityType = "label.added"
	ActivityLabelRemoved   ActivityType = "label.removed"
	ActivityMemberAdded    ActivityType = "member.added"
	ActivityMemberRemoved  ActivityType = "member.removed"
)

// Activity is a single entry in a board's audit feed. Detail holds
// type-specific context (old/new list, label name, moved positions)
// as a flat string map.
type Activity struct {
	CreatedAt time.Time         `json:"created_at"`
	ID        string            `json:"id"`
	BoardID   string            `json:"board_id"`
	ActorID   string            `json:"actor_id"`
	CardID    string            `json:"card_id,omitempty"`
	Type      ActivityType      `json:"type"`
	Detail    map[string]string `json:"detail,omitempty"`
}
