package vote

import (
	"errors"
	"testing"
	"time"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVoteIsActive(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	v := New(uuid.New(), uuid.New(), "10.0.0.1", at)

	assert.True(t, v.IsActive())
	_, released := v.ReleasedAt()
	assert.False(t, released)
	assert.Equal(t, at, v.CastAt)
	assert.Equal(t, uuid.Version(7), v.ID.Version())
}

func TestReleaseOnce(t *testing.T) {
	v := New(uuid.New(), uuid.New(), "10.0.0.1", time.Now())
	at := time.Now().Add(time.Minute)

	released, err := v.Release(at)
	require.NoError(t, err)
	assert.False(t, released.IsActive())
	got, ok := released.ReleasedAt()
	assert.True(t, ok)
	assert.True(t, got.Equal(at))
	assert.Equal(t, v.ID, released.ID)
	assert.Equal(t, v.CastAt, released.CastAt)
	assert.True(t, v.IsActive(), "original value is untouched")

	_, err = released.Release(at.Add(time.Second))
	assert.True(t, errors.Is(err, livepoll_errors.ErrNoActiveVote))
}

func TestIDsSortByCreation(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.Less(t, a.String(), b.String())
}
