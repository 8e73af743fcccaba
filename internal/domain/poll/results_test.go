package poll

import (
	"errors"
	"testing"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyNoVotes(t *testing.T) {
	pollID := uuid.New()
	a := Option{ID: uuid.New(), PollID: pollID, Label: "A", DisplayOrder: 1}
	b := Option{ID: uuid.New(), PollID: pollID, Label: "B", DisplayOrder: 2}

	res, err := Tally(pollID, []Option{b, a}, nil, 0)
	require.NoError(t, err)

	require.Len(t, res.Options, 2)
	assert.Equal(t, "A", res.Options[0].Label)
	assert.Equal(t, "B", res.Options[1].Label)
	for _, o := range res.Options {
		assert.Zero(t, o.Count)
		assert.Zero(t, o.Percentage)
	}
}

func TestTallyPercentages(t *testing.T) {
	pollID := uuid.New()
	a := Option{ID: uuid.New(), PollID: pollID, Label: "A", DisplayOrder: 1}
	b := Option{ID: uuid.New(), PollID: pollID, Label: "B", DisplayOrder: 2}
	c := Option{ID: uuid.New(), PollID: pollID, Label: "C", DisplayOrder: 3}

	res, err := Tally(pollID, []Option{a, b, c}, map[uuid.UUID]int64{a.ID: 1, b.ID: 2}, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 33.3, res.Options[0].Percentage)
	assert.Equal(t, 66.7, res.Options[1].Percentage)
	assert.Equal(t, 0.0, res.Options[2].Percentage)
}

func TestTallyDetectsSumMismatch(t *testing.T) {
	pollID := uuid.New()
	a := Option{ID: uuid.New(), PollID: pollID, Label: "A", DisplayOrder: 1}

	_, err := Tally(pollID, []Option{a}, map[uuid.UUID]int64{a.ID: 2}, 3)
	assert.True(t, errors.Is(err, livepoll_errors.ErrInvariantViolation))
}

func TestTallyDetectsForeignOption(t *testing.T) {
	pollID := uuid.New()
	a := Option{ID: uuid.New(), PollID: pollID, Label: "A", DisplayOrder: 1}

	_, err := Tally(pollID, []Option{a}, map[uuid.UUID]int64{uuid.New(): 1}, 1)
	assert.True(t, errors.Is(err, livepoll_errors.ErrInvariantViolation))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 100.0, Percentage(1, 1))
	assert.Equal(t, 50.0, Percentage(1, 2))
}
