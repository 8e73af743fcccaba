package services

import (
	"context"
	"time"

	"livepoll/internal/commands"
	"livepoll/internal/domain/vote"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReleaseService struct {
	store       repository.Store
	invalidator Invalidator
	logger      *logger.Logger
	now         func() time.Time
}

func NewReleaseService(store repository.Store, invalidator Invalidator, l *logger.Logger) *ReleaseService {
	return &ReleaseService{
		store:       store,
		invalidator: invalidator,
		logger:      orNop(l),
		now:         time.Now,
	}
}

func (s *ReleaseService) WithClock(now func() time.Time) *ReleaseService {
	s.now = now
	return s
}

func (s *ReleaseService) RegisterHandlers(bus *commands.Bus) {
	bus.Register(commands.TypeReleaseVote, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		c, ok := cmd.(commands.ReleaseVoteCommand)
		if !ok {
			return commands.Result{}, livepoll_errors.ErrInvalidInput
		}
		id, err := s.Release(ctx, c)
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{AggregateID: id.String(), Payload: id}, nil
	}))
}

// Release moves the active vote of cmd.Address on cmd.PollID to Released. The
// vote record stays in the ledger and the address may vote again. Releasing
// works on closed polls too.
func (s *ReleaseService) Release(ctx context.Context, cmd commands.ReleaseVoteCommand) (uuid.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return uuid.Nil, err
	}
	at := cmd.At
	if at.IsZero() {
		at = s.now()
	}
	key := vote.Key{PollID: cmd.PollID, Address: cmd.Address}

	var released vote.Vote
	err := s.store.Atomic(ctx, key, func(repos repository.Repositories) error {
		if _, err := repos.Polls.GetPollByID(ctx, cmd.PollID); err != nil {
			return err
		}
		active, err := repos.Votes.FindActive(ctx, key)
		if err != nil {
			return err
		}
		if at.Before(active.CastAt) {
			at = active.CastAt
		}
		if err := repos.Votes.MarkReleased(ctx, active.ID, at); err != nil {
			return err
		}
		released = active
		return nil
	})
	if err != nil {
		report(ctx, s.logger, "vote_release", err,
			zap.String("poll_id", cmd.PollID.String()),
			zap.String("voter_address", cmd.Address),
		)
		return uuid.Nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, cmd.PollID)
	}
	s.logger.Info(ctx, "vote_released",
		zap.String("vote_id", released.ID.String()),
		zap.String("poll_id", released.PollID.String()),
		zap.String("voter_address", released.Address),
	)
	return released.ID, nil
}
