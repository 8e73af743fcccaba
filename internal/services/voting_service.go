package services

import (
	"context"
	"errors"
	"time"

	"livepoll/internal/commands"
	"livepoll/internal/domain/vote"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidator drops cached results of a poll after a ledger write.
type Invalidator interface {
	Invalidate(ctx context.Context, pollID uuid.UUID)
}

type VotingService struct {
	store       repository.Store
	invalidator Invalidator
	logger      *logger.Logger
	now         func() time.Time
}

func NewVotingService(store repository.Store, invalidator Invalidator, l *logger.Logger) *VotingService {
	return &VotingService{
		store:       store,
		invalidator: invalidator,
		logger:      orNop(l),
		now:         time.Now,
	}
}

// WithClock replaces the clock used for commands that carry no time.
func (s *VotingService) WithClock(now func() time.Time) *VotingService {
	s.now = now
	return s
}

func (s *VotingService) RegisterHandlers(bus *commands.Bus) {
	bus.Register(commands.TypeCastVote, commands.HandlerFunc(func(ctx context.Context, cmd commands.Command) (commands.Result, error) {
		c, ok := cmd.(commands.CastVoteCommand)
		if !ok {
			return commands.Result{}, livepoll_errors.ErrInvalidInput
		}
		id, err := s.CastVote(ctx, c)
		if err != nil {
			return commands.Result{}, err
		}
		return commands.Result{AggregateID: id.String(), Payload: id}, nil
	}))
}

// CastVote records a vote for cmd.OptionID on behalf of cmd.Address. The
// checks run in a fixed order inside one unit of work keyed by (poll,
// address): unknown poll, closed poll, option outside the poll, existing
// active vote. Nothing is written when any of them fails.
func (s *VotingService) CastVote(ctx context.Context, cmd commands.CastVoteCommand) (uuid.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return uuid.Nil, err
	}
	at := cmd.At
	if at.IsZero() {
		at = s.now()
	}
	key := vote.Key{PollID: cmd.PollID, Address: cmd.Address}

	var cast vote.Vote
	err := s.store.Atomic(ctx, key, func(repos repository.Repositories) error {
		p, err := repos.Polls.GetPollByID(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if !p.IsActive() {
			return livepoll_errors.ErrPollClosed
		}

		option, err := repos.Polls.GetOption(ctx, cmd.OptionID)
		if errors.Is(err, livepoll_errors.ErrNotFound) {
			return livepoll_errors.ErrInvalidOption
		}
		if err != nil {
			return err
		}
		if option.PollID != p.ID {
			return livepoll_errors.ErrInvalidOption
		}

		_, err = repos.Votes.FindActive(ctx, key)
		if err == nil {
			return livepoll_errors.ErrDuplicateVote
		}
		if !errors.Is(err, livepoll_errors.ErrNoActiveVote) {
			return err
		}

		cast = vote.New(p.ID, option.ID, cmd.Address, at)
		return repos.Votes.Insert(ctx, cast)
	})
	if err != nil {
		report(ctx, s.logger, "vote_cast", err,
			zap.String("poll_id", cmd.PollID.String()),
			zap.String("option_id", cmd.OptionID.String()),
			zap.String("voter_address", cmd.Address),
		)
		return uuid.Nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, cmd.PollID)
	}
	s.logger.Info(ctx, "vote_cast",
		zap.String("vote_id", cast.ID.String()),
		zap.String("poll_id", cast.PollID.String()),
		zap.String("option_id", cast.OptionID.String()),
		zap.String("voter_address", cast.Address),
	)
	return cast.ID, nil
}
