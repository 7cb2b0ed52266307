package service

import (
	"context"
	"encoding/hex"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadroapp/quadro-server/internal/auth"
	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
	"github.com/quadroapp/quadro-server/internal/store/sqlite"
	"github.com/quadroapp/quadro-server/internal/validation"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// setupAuthTest wires an auth service against a temporary database.
func setupAuthTest(t *testing.T) (*AuthService, store.Store) {
	t.Helper()

	dir := t.TempDir()
	logger := newTestLogger()

	s, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	return NewAuthService(s, tokens, validation.New(), logger), s
}

func TestAuthService_Register_FirstUserIsAdmin(t *testing.T) {
	authService, _ := setupAuthTest(t)
	ctx := context.Background()

	resp, err := authService.Register(ctx, RegisterRequest{
		Email:       "maria@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Maria",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAdmin, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.SessionID)
	assert.Greater(t, resp.ExpiresIn, int64(0))

	second, err := authService.Register(ctx, RegisterRequest{
		Email:       "joao@example.com",
		Password:    "another-long-password",
		DisplayName: "Joao",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, second.User.Role)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService, _ := setupAuthTest(t)
	ctx := context.Background()

	req := RegisterRequest{
		Email:       "maria@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Maria",
	}
	_, err := authService.Register(ctx, req)
	require.NoError(t, err)

	_, err = authService.Register(ctx, req)
	assert.Error(t, err)
}

func TestAuthService_Register_CreatesProfile(t *testing.T) {
	authService, s := setupAuthTest(t)
	ctx := context.Background()

	resp, err := authService.Register(ctx, RegisterRequest{
		Email:       "maria@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Maria",
	})
	require.NoError(t, err)

	profile, err := s.GetProfile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.True(t, profile.HasScope(domain.ScopeBoards))
	assert.True(t, profile.HasScope(domain.ScopeAgenda))
}

func TestAuthService_Login(t *testing.T) {
	authService, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{
		Email:       "maria@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Maria",
	})
	require.NoError(t, err)

	resp, err := authService.Login(ctx, LoginRequest{
		Email:      "maria@example.com",
		Password:   "correct-horse-battery",
		ClientName: "test-client",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)

	// Wrong password and unknown email look the same to the caller.
	_, wrongPass := authService.Login(ctx, LoginRequest{
		Email:    "maria@example.com",
		Password: "not-the-password",
	})
	_, unknownUser := authService.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-it-takes",
	})
	require.Error(t, wrongPass)
	require.Error(t, unknownUser)
	assert.Equal(t, wrongPass.Error(), unknownUser.Error())
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	authService, _ := setupAuthTest(t)
	ctx := context.Background()

	resp, err := authService.Register(ctx, RegisterRequest{
		Email:       "maria@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Maria",
	})
	require.NoError(t, err)

	refreshed, err := authService.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, resp.SessionID, refreshed.SessionID)

	// The old token no longer works.
	_, err = authService.Refresh(ctx, resp.RefreshToken)
	assert.Error(t, err)

	// The rotated one does.
	_, err = authService.Refresh(ctx, refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_Logout(t *testing.T) {
	authService, _ := setupAuthTest(t)
	ctx := context.Background()

	resp, err := authService.Register(ctx, RegisterRequest{
		Email:       "maria@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Maria",
	})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, resp.SessionID))

	_, err = authService.Refresh(ctx, resp.RefreshToken)
	assert.Error(t, err)

	// Logout is idempotent.
	assert.NoError(t, authService.Logout(ctx, resp.SessionID))
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	authService, _ := setupAuthTest(t)
	ctx := context.Background()

	resp, err := authService.Register(ctx, RegisterRequest{
		Email:       "maria@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Maria",
	})
	require.NoError(t, err)

	user, err := authService.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	_, err = authService.VerifyAccessToken(ctx, "v4.local.garbage")
	assert.Error(t, err)
}
