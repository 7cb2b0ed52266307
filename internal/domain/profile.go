package domain

import (
	"slices"
	"time"
)

// Feature scopes gate access to whole areas of the application.
// A profile with no scopes can still see boards it is a member of.
const (
	ScopeBoards    = "boards"
	ScopeAgenda    = "agenda"
	ScopeEquipment = "equipment"
	ScopeReports   = "reports"
)

// Profile holds directory information for a user. Its ID mirrors the
// auth identity (user ID); every user has exactly one profile.
type Profile struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     string    `json:"user_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	JobTitle   string    `json:"job_title,omitempty"`
	Sector     string    `json:"sector,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	AvatarPath string    `json:"-"`
	Scopes     []string  `json:"scopes"`
}

// FullName returns the profile's display name for the contact directory.
func (p *Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// HasScope checks whether the profile grants access to a feature area.
func (p *Profile) HasScope(scope string) bool {
	return slices.Contains(p.Scopes, scope)
}

// GrantScope adds a feature scope if not already present.
func (p *Profile) GrantScope(scope string) bool {
	if slices.Contains(p.Scopes, scope) {
		return false
	}
	p.Scopes = append(p.Scopes, scope)
	return true
}

// RevokeScope removes a feature scope.
func (p *Profile) RevokeScope(scope string) bool {
	for i, s := range p.Scopes {
		if s == scope {
			p.Scopes = append(p.Scopes[:i], p.Scopes[i+1:]...)
			return true
		}
	}
	return false
}
