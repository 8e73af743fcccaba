package services

import (
	"context"
	"testing"
	"time"

	"livepoll/config"
	"livepoll/internal/domain/user"
	"livepoll/internal/repository/memory"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T) (*AuthService, *memory.Store) {
	t.Helper()
	store := memory.NewStore(time.Second)
	auth := NewAuthService(store.Users(), &config.Config{
		JWTSecret:    "test-secret",
		JWTExpiryMin: 5,
	})
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, auth.EnsureAdmin(context.Background(), "admin@poll.com", string(hash)))
	return auth, store
}

func TestLoginIssuesRoleToken(t *testing.T) {
	auth, store := newAuth(t)
	ctx := context.Background()

	resp, err := auth.Login(ctx, LoginInput{Email: "Admin@Poll.com ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, int64(300), resp.ExpiresIn)
	assert.Equal(t, "admin", resp.User.Role)

	claims, err := auth.ParseAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "admin@poll.com", claims.Email)
	admin, err := store.Users().GetByEmail(ctx, "admin@poll.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestRegisterCreatesUserRole(t *testing.T) {
	auth, store := newAuth(t)
	ctx := context.Background()

	resp, err := auth.Register(ctx, RegisterInput{Name: "Test User", Email: "User@Poll.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "user", resp.User.Role)
	assert.Equal(t, "user@poll.com", resp.User.Email)

	saved, err := store.Users().GetByEmail(ctx, "user@poll.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, saved.Role)
	assert.NotEqual(t, "password", saved.PasswordHash)

	claims, err := auth.ParseAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin())

	login, err := auth.Login(ctx, LoginInput{Email: "user@poll.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterRejects(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"missing name":   {Email: "a@poll.com", Password: "password"},
		"bad email":      {Name: "A", Email: "not-an-email", Password: "password"},
		"short password": {Name: "A", Email: "a@poll.com", Password: "short"},
	}
	for name, in := range cases {
		_, err := auth.Register(ctx, in)
		assert.ErrorIs(t, err, livepoll_errors.ErrInvalidInput, name)
	}

	_, err := auth.Register(ctx, RegisterInput{Name: "Dup", Email: "ADMIN@poll.com", Password: "password"})
	assert.ErrorIs(t, err, livepoll_errors.ErrAlreadyExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	_, err := auth.Login(ctx, LoginInput{Email: "admin@poll.com", Password: "wrong"})
	assert.ErrorIs(t, err, livepoll_errors.ErrUnauthorized)
	_, err = auth.Login(ctx, LoginInput{Email: "other@poll.com", Password: "s3cret"})
	assert.ErrorIs(t, err, livepoll_errors.ErrUnauthorized)
	_, err = auth.Login(ctx, LoginInput{})
	assert.ErrorIs(t, err, livepoll_errors.ErrInvalidInput)
}

func TestEnsureAdminKeepsExistingAccount(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	other, err := bcrypt.GenerateFromPassword([]byte("different"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, auth.EnsureAdmin(ctx, "admin@poll.com", string(other)))

	_, err = auth.Login(ctx, LoginInput{Email: "admin@poll.com", Password: "s3cret"})
	assert.NoError(t, err)
	assert.ErrorIs(t, auth.EnsureAdmin(ctx, "root@poll.com", "plaintext"), livepoll_errors.ErrInvalidInput)
}

func TestLogoutRevokesToken(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	resp, err := auth.Login(ctx, LoginInput{Email: "admin@poll.com", Password: "s3cret"})
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)

	assert.ErrorIs(t, auth.Logout(ctx), livepoll_errors.ErrUnauthorized)
	require.NoError(t, auth.Logout(WithClaimsContext(ctx, claims)))

	_, err = auth.ParseAccessToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, livepoll_errors.ErrUnauthorized)

	fresh, err := auth.Login(ctx, LoginInput{Email: "admin@poll.com", Password: "s3cret"})
	require.NoError(t, err)
	_, err = auth.ParseAccessToken(ctx, fresh.AccessToken)
	assert.NoError(t, err)
}

func TestParseAccessTokenRejects(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	_, err := auth.ParseAccessToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, livepoll_errors.ErrUnauthorized)

	resp, err := auth.Login(ctx, LoginInput{Email: "admin@poll.com", Password: "s3cret"})
	require.NoError(t, err)
	auth.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = auth.ParseAccessToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, livepoll_errors.ErrUnauthorized)
	auth.now = time.Now

	sign := func(claims AccessClaims) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return signed
	}
	expires := jwt.NewNumericDate(time.Now().Add(time.Hour))

	_, err = auth.ParseAccessToken(ctx, sign(AccessClaims{
		Role:             "viewer",
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString(), ExpiresAt: expires},
	}))
	assert.ErrorIs(t, err, livepoll_errors.ErrUnauthorized)

	_, err = auth.ParseAccessToken(ctx, sign(AccessClaims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin@poll.com", ExpiresAt: expires},
	}))
	assert.ErrorIs(t, err, livepoll_errors.ErrUnauthorized)
}

func TestUserIDFromContext(t *testing.T) {
	id := uuid.New()
	ctx := WithClaimsContext(context.Background(), AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()}})

	got, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = UserIDFromContext(context.Background())
	assert.False(t, ok)
}
