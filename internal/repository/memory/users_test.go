package memory

import (
	"context"
	"testing"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersUniqueEmail(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	u := user.User{ID: uuid.New(), Name: "Test User", Email: "user@poll.com", PasswordHash: "x", Role: user.RoleUser}
	require.NoError(t, s.Users().Create(ctx, &u))

	dup := user.User{ID: uuid.New(), Name: "Other", Email: "user@poll.com", PasswordHash: "y", Role: user.RoleUser}
	assert.ErrorIs(t, s.Users().Create(ctx, &dup), livepoll_errors.ErrAlreadyExists)

	got, err := s.Users().GetByEmail(ctx, "user@poll.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test User", got.Name)

	_, err = s.Users().GetByEmail(ctx, "nobody@poll.com")
	assert.ErrorIs(t, err, livepoll_errors.ErrNotFound)
}

func TestPollAuthorMustExist(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	author := user.User{ID: uuid.New(), Name: "Admin", Email: "admin@poll.com", PasswordHash: "x", Role: user.RoleAdmin}
	require.NoError(t, s.Users().Create(ctx, &author))

	p := poll.Poll{ID: uuid.New(), Question: "q", Status: poll.StatusActive, CreatedBy: uuid.NullUUID{UUID: uuid.New(), Valid: true}}
	err := s.Polls().Create(ctx, &p, []poll.Option{{ID: uuid.New(), Label: "A"}})
	assert.ErrorIs(t, err, livepoll_errors.ErrInvalidInput)

	p.CreatedBy = uuid.NullUUID{UUID: author.ID, Valid: true}
	require.NoError(t, s.Polls().Create(ctx, &p, []poll.Option{{ID: uuid.New(), Label: "A"}}))
	got, err := s.Polls().GetPollByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.CreatedBy.UUID)
}
