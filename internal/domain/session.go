package domain

import "time"

// Session represents a refresh-token session for a logged-in device.
// The refresh token itself is never stored; only its hash.
type Session struct {
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	LastUsedAt       time.Time `json:"last_used_at"`
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	ClientName       string    `json:"client_name,omitempty"`
}

// IsExpired returns true if the session's refresh token can no longer
// be exchanged.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
