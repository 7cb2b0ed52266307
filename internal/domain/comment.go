package domain

import "time"

// Comment is a discussion entry on a card.
type Comment struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	CardID    string    `json:"card_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
}

// CanModify checks whether a user may edit or delete the comment.
// Authors can always touch their own comments; admins can moderate.
func (c *Comment) CanModify(user *User) bool {
	return c.AuthorID == user.ID || user.IsAdmin()
}
