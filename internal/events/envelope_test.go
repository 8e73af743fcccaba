package events

import (
	"testing"
	"time"

	"livepoll/internal/domain/poll"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeResultsCarriesPollAggregate(t *testing.T) {
	pollID := uuid.New()
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	res := poll.Results{PollID: pollID, Version: 6, Total: 4, Options: []poll.OptionTally{
		{OptionID: uuid.New(), Label: "A", DisplayOrder: 1, Count: 3, Percentage: 75},
		{OptionID: uuid.New(), Label: "B", DisplayOrder: 2, Count: 1, Percentage: 25},
	}}

	data, err := EncodeResults(EventTypeResultsUpdated, res, at)
	require.NoError(t, err)

	env, decoded, err := DecodeResults(data)
	require.NoError(t, err)
	assert.Equal(t, EventTypeResultsUpdated, env.EventType)
	assert.Equal(t, AggregateTypePoll, env.AggregateType)
	assert.Equal(t, pollID.String(), env.AggregateID)
	assert.Equal(t, int64(6), env.Version)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
	assert.True(t, env.OccurredAt.Equal(at))
	assert.Equal(t, res, decoded)
}

func TestDecodeResultsRejectsGarbage(t *testing.T) {
	_, _, err := DecodeResults([]byte("not json"))
	assert.Error(t, err)

	_, _, err = DecodeResults([]byte(`{"event_type":"results.updated","payload":"oops"}`))
	assert.Error(t, err)
}
