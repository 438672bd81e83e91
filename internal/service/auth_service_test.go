package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelviewer/internal/config"
	"modelviewer/internal/models"
	"modelviewer/internal/repository"
	"modelviewer/internal/security"
)

func newTestAuthService() (*AuthService, *fakeUsers) {
	users := newFakeUsers()
	cfg := &config.AppConfig{Security: config.SecurityConfig{
		JWTAccessSecret: "access-secret",
		JWTAccessTTL:    time.Hour,
	}}
	return NewAuthService(users, cfg, zerolog.Nop()), users
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{Email: " Admin@Example.com ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", first.User.Email)
	assert.Equal(t, models.UserRoleAdmin, first.User.Role)

	claims, err := security.ParseAccessToken(first.AccessToken, "access-secret")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, claims.UserID)
	assert.Equal(t, string(models.UserRoleAdmin), claims.Role)

	second, err := svc.Register(ctx, RegisterInput{Email: "author@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAuthor, second.User.Role)

	_, err = svc.Register(ctx, RegisterInput{Email: "author@example.com", Password: "other"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	login, err := svc.Login(ctx, LoginInput{Email: "AUTHOR@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, second.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "author@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_SuspendedUser(t *testing.T) {
	svc, users := newTestAuthService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	user := users.users[result.User.ID]
	user.Status = models.UserStatusSuspended
	users.users[user.ID] = user

	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "secret"})
	assert.ErrorIs(t, err, ErrUserSuspended)
	_, err = svc.Current(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserSuspended)
}

func TestAuth_RegisterRequiresCredentials(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
