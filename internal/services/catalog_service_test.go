package services

import (
	"testing"

	"livepoll/internal/domain/poll"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePollValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]CreatePollInput{
		"no question":   {Question: " ", Options: []string{"A", "B"}},
		"one option":    {Question: "Q", Options: []string{"A"}},
		"blank option":  {Question: "Q", Options: []string{"A", " "}},
		"unknown state": {Question: "Q", Options: []string{"A", "B"}, Status: "paused"},
	}
	for name, in := range cases {
		_, err := f.catalog.CreatePoll(f.ctx, in)
		assert.ErrorIs(t, err, livepoll_errors.ErrInvalidInput, name)
	}
}

func TestCatalogLifecycle(t *testing.T) {
	f := newFixture(t)
	d := f.poll(t, "", " Yes ", "No")
	assert.Equal(t, poll.StatusActive, d.Poll.Status)
	assert.Equal(t, "Yes", d.Options[0].Label)

	got, err := f.catalog.GetPoll(f.ctx, d.Poll.ID)
	require.NoError(t, err)
	require.Len(t, got.Options, 2)
	assert.Equal(t, 1, got.Options[0].DisplayOrder)

	require.NoError(t, f.catalog.SetStatus(f.ctx, d.Poll.ID, poll.StatusInactive))
	active, err := f.catalog.ListPolls(f.ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := f.catalog.ListPolls(f.ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.catalog.GetPoll(f.ctx, uuid.New())
	assert.ErrorIs(t, err, livepoll_errors.ErrNotFound)
	assert.ErrorIs(t, f.catalog.SetStatus(f.ctx, d.Poll.ID, "paused"), livepoll_errors.ErrInvalidInput)
}
