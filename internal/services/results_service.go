package services

import (
	"context"

	"livepoll/internal/domain/poll"
	"livepoll/internal/repository"
	"livepoll/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResultsCache stores computed tallies per poll generation. Bumping the
// generation makes every entry computed before the bump unreachable.
type ResultsCache interface {
	Generation(ctx context.Context, pollID uuid.UUID) (int64, error)
	Get(ctx context.Context, pollID uuid.UUID, generation int64) (*poll.Results, error)
	Set(ctx context.Context, results poll.Results, generation int64) error
	Bump(ctx context.Context, pollID uuid.UUID) error
}

type ResultsService struct {
	store  repository.Store
	cache  ResultsCache
	logger *logger.Logger
}

// NewResultsService builds the aggregator. cache may be nil.
func NewResultsService(store repository.Store, cache ResultsCache, l *logger.Logger) *ResultsService {
	return &ResultsService{store: store, cache: cache, logger: orNop(l)}
}

// Compute returns the tally of every option of the poll, in display order,
// from one consistent snapshot of the ledger.
func (s *ResultsService) Compute(ctx context.Context, pollID uuid.UUID) (poll.Results, error) {
	generation := int64(-1)
	if s.cache != nil {
		if g, err := s.cache.Generation(ctx, pollID); err != nil {
			s.logger.Warn(ctx, "results_cache_unavailable", zap.String("poll_id", pollID.String()), zap.Error(err))
		} else {
			generation = g
			cached, err := s.cache.Get(ctx, pollID, g)
			if err != nil {
				s.logger.Warn(ctx, "results_cache_read_failed", zap.String("poll_id", pollID.String()), zap.Error(err))
			} else if cached != nil {
				return *cached, nil
			}
		}
	}

	res, err := s.computeFromLedger(ctx, pollID)
	if err != nil {
		report(ctx, s.logger, "results_compute", err, zap.String("poll_id", pollID.String()))
		return poll.Results{}, err
	}

	if generation >= 0 {
		if err := s.cache.Set(ctx, res, generation); err != nil {
			s.logger.Warn(ctx, "results_cache_write_failed", zap.String("poll_id", pollID.String()), zap.Error(err))
		}
	}
	return res, nil
}

func (s *ResultsService) computeFromLedger(ctx context.Context, pollID uuid.UUID) (poll.Results, error) {
	var res poll.Results
	err := s.store.Snapshot(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Polls.GetPollByID(ctx, pollID); err != nil {
			return err
		}
		options, err := repos.Polls.ListOptions(ctx, pollID)
		if err != nil {
			return err
		}
		counts, err := repos.Votes.CountActiveByOption(ctx, pollID)
		if err != nil {
			return err
		}
		total, err := repos.Votes.CountActive(ctx, pollID)
		if err != nil {
			return err
		}
		version, err := repos.Votes.Version(ctx, pollID)
		if err != nil {
			return err
		}
		res, err = poll.Tally(pollID, options, counts, total)
		res.Version = version
		return err
	})
	return res, err
}

// Invalidate bumps the cache generation of the poll. A failure is logged; the
// stale entry then expires with its TTL.
func (s *ResultsService) Invalidate(ctx context.Context, pollID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, pollID); err != nil {
		s.logger.Error(ctx, "results_cache_invalidate_failed", zap.String("poll_id", pollID.String()), zap.Error(err))
	}
}
