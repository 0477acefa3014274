package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/docflow/modules/core/services"
)

func TestAuthService_Authenticate(t *testing.T) {
	ctx, users := newUserService(t)
	auth := services.NewAuthService(users)

	registered, err := users.Register(ctx, services.RegisterParams{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "password123",
	})
	require.NoError(t, err)

	t.Run("valid credentials yield a token pair", func(t *testing.T) {
		u, pair, err := auth.Authenticate(ctx, "alice@example.com", "password123")
		require.NoError(t, err)
		require.Equal(t, registered.ID(), u.ID())
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)

		claims, err := auth.VerifyToken(pair.AccessToken, services.TokenTypeAccess)
		require.NoError(t, err)
		require.Equal(t, registered.ID(), claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := auth.Authenticate(ctx, "alice@example.com", "nope")
		requireCode(t, err, "AUTH_INVALID_CREDENTIALS")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := auth.Authenticate(ctx, "ghost@example.com", "password123")
		requireCode(t, err, "AUTH_INVALID_CREDENTIALS")
	})
}

func TestAuthService_Tokens(t *testing.T) {
	ctx, users := newUserService(t)
	auth := services.NewAuthService(users)
	u, err := users.Register(ctx, services.RegisterParams{
		Email:    "bob@example.com",
		Name:     "Bob",
		Password: "password123",
	})
	require.NoError(t, err)

	pair, err := auth.IssueTokens(u)
	require.NoError(t, err)

	t.Run("refresh token cannot be used as access token", func(t *testing.T) {
		_, err := auth.VerifyToken(pair.RefreshToken, services.TokenTypeAccess)
		requireCode(t, err, "AUTH_INVALID_TOKEN")
	})

	t.Run("refresh exchanges for a new access token", func(t *testing.T) {
		access, err := auth.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		claims, err := auth.VerifyToken(access, services.TokenTypeAccess)
		require.NoError(t, err)
		require.Equal(t, u.ID(), claims.UserID)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := auth.VerifyToken("not.a.jwt", services.TokenTypeAccess)
		requireCode(t, err, "AUTH_INVALID_TOKEN")
	})

	t.Run("access token cannot be refreshed", func(t *testing.T) {
		_, err := auth.Refresh(ctx, pair.AccessToken)
		requireCode(t, err, "AUTH_INVALID_TOKEN")
	})
}
