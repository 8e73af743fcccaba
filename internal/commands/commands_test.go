package commands

import (
	"context"
	"errors"
	"testing"

	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVoteCommandValidate(t *testing.T) {
	valid := CastVoteCommand{PollID: uuid.New(), OptionID: uuid.New(), Address: "10.0.0.1"}
	require.NoError(t, valid.Validate())

	cases := map[string]CastVoteCommand{
		"empty address": {PollID: uuid.New(), OptionID: uuid.New()},
		"blank address": {PollID: uuid.New(), OptionID: uuid.New(), Address: "   "},
	}
	for name, cmd := range cases {
		err := cmd.Validate()
		assert.True(t, errors.Is(err, livepoll_errors.ErrInvalidInput), name)
	}
}

func TestCastVoteCommandLeavesIdsToTheLedger(t *testing.T) {
	assert.NoError(t, CastVoteCommand{OptionID: uuid.New(), Address: "10.0.0.1"}.Validate())
	assert.NoError(t, CastVoteCommand{PollID: uuid.New(), Address: "10.0.0.1"}.Validate())
	assert.NoError(t, ReleaseVoteCommand{Address: "10.0.0.1"}.Validate())
}

func TestReleaseVoteCommandValidate(t *testing.T) {
	require.NoError(t, ReleaseVoteCommand{PollID: uuid.New(), Address: "::1"}.Validate())
	assert.ErrorIs(t, ReleaseVoteCommand{PollID: uuid.New(), Address: " "}.Validate(), livepoll_errors.ErrInvalidInput)
}

func TestBusRoutesByType(t *testing.T) {
	bus := NewBus()
	var got CastVoteCommand
	bus.Register(TypeCastVote, HandlerFunc(func(ctx context.Context, cmd Command) (Result, error) {
		got = cmd.(CastVoteCommand)
		return Result{AggregateID: "vote-1"}, nil
	}))

	cmd := CastVoteCommand{PollID: uuid.New(), OptionID: uuid.New(), Address: "10.0.0.1"}
	res, err := bus.Execute(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "vote-1", res.AggregateID)
	assert.Equal(t, cmd, got)

	_, err = bus.Execute(context.Background(), ReleaseVoteCommand{PollID: uuid.New(), Address: "10.0.0.1"})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestBusRejectsInvalidBeforeDispatch(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Register(TypeCastVote, HandlerFunc(func(ctx context.Context, cmd Command) (Result, error) {
		called = true
		return Result{}, nil
	}))

	_, err := bus.Execute(context.Background(), CastVoteCommand{})
	assert.ErrorIs(t, err, livepoll_errors.ErrInvalidInput)
	assert.False(t, called)
}

func TestBusPanicsOnDuplicateRegistration(t *testing.T) {
	bus := NewBus()
	noop := HandlerFunc(func(ctx context.Context, cmd Command) (Result, error) { return Result{}, nil })
	bus.Register(TypeCastVote, noop)

	assert.Panics(t, func() { bus.Register(TypeCastVote, noop) })
}
