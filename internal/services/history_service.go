package services

import (
	"context"

	"livepoll/internal/domain/vote"
	"livepoll/internal/repository"
	"livepoll/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HistoryService struct {
	store  repository.Store
	logger *logger.Logger
}

func NewHistoryService(store repository.Store, l *logger.Logger) *HistoryService {
	return &HistoryService{store: store, logger: orNop(l)}
}

// List returns every vote ever cast on the poll, active and released, in
// cast order.
func (s *HistoryService) List(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error) {
	var items []vote.Vote
	err := s.store.Snapshot(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Polls.GetPollByID(ctx, pollID); err != nil {
			return err
		}
		var err error
		items, err = repos.Votes.ListByPoll(ctx, pollID)
		return err
	})
	if err != nil {
		report(ctx, s.logger, "vote_history", err, zap.String("poll_id", pollID.String()))
		return nil, err
	}
	return items, nil
}

// ActiveVoters returns the votes currently counted for the poll.
func (s *HistoryService) ActiveVoters(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error) {
	var items []vote.Vote
	err := s.store.Snapshot(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Polls.GetPollByID(ctx, pollID); err != nil {
			return err
		}
		var err error
		items, err = repos.Votes.ListActiveByPoll(ctx, pollID)
		return err
	})
	if err != nil {
		report(ctx, s.logger, "active_voters", err, zap.String("poll_id", pollID.String()))
		return nil, err
	}
	return items, nil
}
