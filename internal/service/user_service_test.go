package service

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(users ...model.User) (UserService, *memUserRepo, *memTokenRepo, *token.JWTManager) {
	userRepo := newMemUserRepo(users...)
	tokenRepo := newMemTokenRepo()
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	return NewUserService(userRepo, tokenRepo, jwtManager), userRepo, tokenRepo, jwtManager
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc, _, _, jwtManager := newTestUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", user.Password)
	assert.Equal(t, "USER", user.Role)

	access, refresh, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	claims, err := jwtManager.VerifyKind(access, token.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	_, err = jwtManager.VerifyKind(refresh, token.KindRefresh)
	require.NoError(t, err)
}

func TestUserService_RegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	svc, _, _, _ := newTestUserService(model.User{ID: 1, Username: "alice", Email: "a@example.com"})
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "", "secret1")
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.Register(ctx, "bob", "A@example.com", "secret1")
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.Register(ctx, "", "", "secret1")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Register(ctx, "carol", "not-an-email", "secret1")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Register(ctx, "dave", "", "123")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUserService_LoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newTestUserService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, _, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestUserService_RefreshRotatesToken(t *testing.T) {
	svc, _, _, _ := newTestUserService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "", "secret1")
	require.NoError(t, err)
	access, refresh, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	// access token 不能用来刷新
	_, _, err = svc.RefreshToken(ctx, access)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	newAccess, newRefresh, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEqual(t, refresh, newRefresh)

	_, _, err = svc.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestUserService_LogoutRevokesToken(t *testing.T) {
	svc, _, tokens, _ := newTestUserService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "", "secret1")
	require.NoError(t, err)
	access, _, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, access))
	revoked, err := svc.IsRevoked(ctx, access)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Greater(t, int64(tokens.blacklisted[access]), int64(0))

	assert.ErrorIs(t, svc.Logout(ctx, "garbage"), model.ErrUnauthorized)
}

func TestUserService_UpdateEmail(t *testing.T) {
	svc, repo, _, _ := newTestUserService(
		model.User{ID: 1, Username: "alice", Email: "alice@example.com"},
		model.User{ID: 2, Username: "bob", Email: "bob@example.com"},
	)
	ctx := context.Background()

	user, err := svc.UpdateEmail(ctx, 1, " alice@new.example.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example.com", user.Email)
	assert.Equal(t, "alice@new.example.com", repo.users[1].Email)

	_, err = svc.UpdateEmail(ctx, 1, "bob@example.com")
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.UpdateEmail(ctx, 1, "nope")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.UpdateEmail(ctx, 99, "x@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserService_ListCounterpartsExcludesSelf(t *testing.T) {
	svc, _, _, _ := newTestUserService(
		model.User{ID: 1, Username: "alice"},
		model.User{ID: 2, Username: "bob"},
		model.User{ID: 3, Username: "Bobby"},
	)

	users, err := svc.ListCounterparts(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, uint(1), u.ID)
	}

	users, err = svc.ListCounterparts(context.Background(), 2, "bob")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Bobby", users[0].Username)
}
