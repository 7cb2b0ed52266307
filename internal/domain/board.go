package domain

import (
	"slices"
	"time"
)

// Visibility controls who can see a board.
type Visibility string

// Board visibilities.
const (
	// VisibilityPrivate boards are visible to members only.
	VisibilityPrivate Visibility = "private"
	// VisibilityTeam boards are visible to every authenticated user.
	VisibilityTeam Visibility = "team"
)

// Valid reports whether the visibility is a known value.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityTeam
}

// Board is the top of the kanban hierarchy: a board owns ordered lists,
// each list owns ordered cards.
type Board struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility"`
	MemberIDs   []string   `json:"member_ids"`
}

// IsMember checks whether a user belongs to the board.
// The owner is always a member.
func (b *Board) IsMember(userID string) bool {
	return userID == b.OwnerID || slices.Contains(b.MemberIDs, userID)
}

// CanView checks whether a user can read the board.
func (b *Board) CanView(userID string) bool {
	if b.Visibility == VisibilityTeam {
		return true
	}
	return b.IsMember(userID)
}

// List is an ordered column of cards within a board.
// Position is dense (0..n-1) within the board; Version is the
// optimistic-concurrency token bumped on every reorder.
type List struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Color     string    `json:"color,omitempty"`
	Position  int       `json:"position"`
	Version   int64     `json:"version"`
}

// Label is a board-scoped tag attachable to cards.
type Label struct {
	ID      string `json:"id"`
	BoardID string `json:"board_id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

// BoardDetail is a board with its full list/card tree, as served by
// the board-details endpoint for initial render.
type BoardDetail struct {
	Board  *Board            `json:"board"`
	Lists  []*List           `json:"lists"`
	Cards  map[string][]*Card `json:"cards"` // keyed by list ID, position order
	Labels []*Label          `json:"labels"`
}
