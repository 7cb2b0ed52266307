package domain

import "time"

// Priority ranks a card's urgency.
type Priority string

// Card priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Card is a work item within a list. Position is dense (0..n-1) within
// its list; Version is the optimistic-concurrency token a client must
// echo back when moving or updating the card.
type Card struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	ID          string     `json:"id"`
	ListID      string     `json:"list_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CoverColor  string     `json:"cover_color,omitempty"`
	Priority    Priority   `json:"priority"`
	Position    int        `json:"position"`
	Version     int64      `json:"version"`
	Done        bool       `json:"done"`
	LabelIDs    []string   `json:"label_ids"`
	MemberIDs   []string   `json:"member_ids"`
}

// IsOverdue returns true if the card has a due date in the past and is
// not done.
func (c *Card) IsOverdue(now time.Time) bool {
	return c.DueAt != nil && !c.Done && now.After(*c.DueAt)
}
