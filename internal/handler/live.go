package handler

import (
	"context"

	"livepoll/internal/commands"
	"livepoll/internal/domain/poll"
	"livepoll/internal/transport/httpdto"
	"livepoll/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CommandExecutor interface {
	Execute(ctx context.Context, cmd commands.Command) (commands.Result, error)
}

type ResultsComputer interface {
	Compute(ctx context.Context, pollID uuid.UUID) (poll.Results, error)
}

// ResultsNotifier pushes a fresh tally to live viewers.
type ResultsNotifier interface {
	PublishResults(ctx context.Context, res poll.Results) error
}

// liveResults recomputes a poll's tally after a write and pushes it to
// viewers. Both steps are best effort: the write has already committed.
type liveResults struct {
	results  ResultsComputer
	notifier ResultsNotifier
	logger   *logger.Logger
}

func (l liveResults) refresh(ctx context.Context, pollID uuid.UUID) *httpdto.ResultsResponse {
	res, err := l.results.Compute(ctx, pollID)
	if err != nil {
		l.logger.Warn(ctx, "results_refresh_failed", zap.String("poll_id", pollID.String()), zap.Error(err))
		return nil
	}
	if l.notifier != nil {
		if err := l.notifier.PublishResults(ctx, res); err != nil {
			l.logger.Warn(ctx, "results_publish_failed", zap.String("poll_id", pollID.String()), zap.Error(err))
		}
	}
	dto := httpdto.FromResults(res)
	return &dto
}
