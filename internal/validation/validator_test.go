package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/validation"
)

type testRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Priority string `json:"priority" validate:"required,priority"`
}

func TestValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{
		Email:    "reporter@example.com",
		Password: "password123",
		Priority: "high",
	})
	assert.NoError(t, err)
}

func TestValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testRequest
		wantField string
	}{
		{
			name:      "missing email",
			req:       testRequest{Password: "password123", Priority: "low"},
			wantField: "email",
		},
		{
			name:      "short password",
			req:       testRequest{Email: "a@b.com", Password: "short", Priority: "low"},
			wantField: "password",
		},
		{
			name:      "unknown priority",
			req:       testRequest{Email: "a@b.com", Password: "password123", Priority: "blocker"},
			wantField: "priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CodeValidation, appErr.Code)

			details, ok := appErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}
