package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"
	"livepoll/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CatalogService struct {
	store  repository.Store
	logger *logger.Logger
	now    func() time.Time
}

func NewCatalogService(store repository.Store, l *logger.Logger) *CatalogService {
	return &CatalogService{store: store, logger: orNop(l), now: time.Now}
}

type CreatePollInput struct {
	Question  string      `validate:"required,max=1000"`
	Options   []string    `validate:"min=2,max=20,dive,required,max=255"`
	Status    poll.Status `validate:"omitempty,oneof=active inactive"`
	CreatedBy uuid.NullUUID
}

func (s *CatalogService) CreatePoll(ctx context.Context, in CreatePollInput) (poll.Detail, error) {
	in.Question = strings.TrimSpace(in.Question)
	for i := range in.Options {
		in.Options[i] = strings.TrimSpace(in.Options[i])
	}
	if err := validate.Struct(in); err != nil {
		return poll.Detail{}, fmt.Errorf("%w: %s", livepoll_errors.ErrInvalidInput, err.Error())
	}
	if in.Status == "" {
		in.Status = poll.StatusActive
	}

	p := poll.Poll{
		ID:        uuid.New(),
		Question:  in.Question,
		Status:    in.Status,
		CreatedBy: in.CreatedBy,
		CreatedAt: s.now().UTC(),
	}
	options := make([]poll.Option, len(in.Options))
	for i, label := range in.Options {
		options[i] = poll.Option{ID: uuid.New(), Label: label, DisplayOrder: i + 1}
	}

	if err := s.store.Polls().Create(ctx, &p, options); err != nil {
		report(ctx, s.logger, "poll_create", err)
		return poll.Detail{}, err
	}
	s.logger.Info(ctx, "poll_created", zap.String("poll_id", p.ID.String()), zap.Int("options", len(options)))
	return poll.Detail{Poll: p, Options: options}, nil
}

func (s *CatalogService) GetPoll(ctx context.Context, id uuid.UUID) (poll.Detail, error) {
	var detail poll.Detail
	err := s.store.Snapshot(ctx, func(repos repository.Repositories) error {
		p, err := repos.Polls.GetPollByID(ctx, id)
		if err != nil {
			return err
		}
		options, err := repos.Polls.ListOptions(ctx, id)
		if err != nil {
			return err
		}
		detail = poll.Detail{Poll: p, Options: options}
		return nil
	})
	return detail, err
}

// ListPolls returns polls newest first. With activeOnly set, closed polls are
// left out.
func (s *CatalogService) ListPolls(ctx context.Context, activeOnly bool) ([]poll.Poll, error) {
	items, err := s.store.Polls().ListPolls(ctx)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return items, nil
	}
	out := make([]poll.Poll, 0, len(items))
	for _, p := range items {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

// SetStatus opens or closes a poll. Existing votes are kept either way.
func (s *CatalogService) SetStatus(ctx context.Context, id uuid.UUID, status poll.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", livepoll_errors.ErrInvalidInput, status)
	}
	if err := s.store.Polls().SetStatus(ctx, id, status); err != nil {
		report(ctx, s.logger, "poll_set_status", err, zap.String("poll_id", id.String()))
		return err
	}
	s.logger.Info(ctx, "poll_status_changed", zap.String("poll_id", id.String()), zap.String("status", string(status)))
	return nil
}
