package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listProfiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/profiles",
		Summary:     "List contact directory",
		Tags:        []string{"Directory"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListProfiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profiles/{userID}",
		Summary:     "Get profile",
		Tags:        []string{"Directory"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profiles/{userID}",
		Summary:     "Update profile",
		Description: "Users edit their own profile; admins can edit anyone's",
		Tags:        []string{"Directory"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "setProfileScopes",
		Method:      http.MethodPut,
		Path:        "/api/v1/profiles/{userID}/scopes",
		Summary:     "Set profile scopes",
		Description: "Replaces a user's feature scopes. Admin only.",
		Tags:        []string{"Directory"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetProfileScopes)
}

// === DTOs ===

// ProfileIDInput identifies a directory profile by user ID.
type ProfileIDInput struct {
	Authorization string `header:"Authorization"`
	UserID        string `path:"userID" doc:"User ID"`
}

// UpdateProfileInput wraps the profile update request for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization"`
	UserID        string `path:"userID" doc:"User ID"`
	Body          service.UpdateProfileRequest
}

// SetScopesInput wraps the scope replacement request for Huma.
type SetScopesInput struct {
	Authorization string `header:"Authorization"`
	UserID        string `path:"userID" doc:"User ID"`
	Body          struct {
		Scopes []string `json:"scopes" doc:"Feature scopes to grant"`
	}
}

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body *domain.Profile
}

// ProfilesOutput wraps the directory listing for Huma.
type ProfilesOutput struct {
	Body struct {
		Profiles []*domain.Profile `json:"profiles" doc:"Directory entries"`
	}
}

// === Handlers ===

func (s *Server) handleListProfiles(ctx context.Context, _ *AuthedInput) (*ProfilesOutput, error) {
	if _, err := GetUser(ctx); err != nil {
		return nil, err
	}

	profiles, err := s.services.Profile.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	out := &ProfilesOutput{}
	out.Body.Profiles = profiles
	return out, nil
}

func (s *Server) handleGetProfile(ctx context.Context, input *ProfileIDInput) (*ProfileOutput, error) {
	if _, err := GetUser(ctx); err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.GetProfile(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.UpdateProfile(ctx, user, input.UserID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}

func (s *Server) handleSetProfileScopes(ctx context.Context, input *SetScopesInput) (*ProfileOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.SetScopes(ctx, user, input.UserID, input.Body.Scopes)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}
