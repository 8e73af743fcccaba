package repository

import (
	"context"
	"errors"
	"fmt"

	"livepoll/internal/domain/poll"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresPollRepository struct {
	db *gorm.DB
	// shareLock makes poll reads take FOR SHARE row locks. Set for repositories
	// bound to a Store.Atomic transaction.
	shareLock bool
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &PostgresPollRepository{db: db}
}

func (r *PostgresPollRepository) Create(ctx context.Context, p *poll.Poll, options []poll.Option) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			switch {
			case isUniqueViolation(err):
				return livepoll_errors.ErrAlreadyExists
			case isForeignKeyViolation(err):
				return fmt.Errorf("%w: unknown author", livepoll_errors.ErrInvalidInput)
			}
			return err
		}
		for i := range options {
			options[i].PollID = p.ID
		}
		if len(options) == 0 {
			return nil
		}
		if err := tx.Create(&options).Error; err != nil {
			if isUniqueViolation(err) {
				return livepoll_errors.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (r *PostgresPollRepository) GetPollByID(ctx context.Context, id uuid.UUID) (poll.Poll, error) {
	var p poll.Poll
	q := r.db.WithContext(ctx)
	if r.shareLock {
		q = q.Clauses(clause.Locking{Strength: "SHARE"})
	}
	err := q.Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll.Poll{}, livepoll_errors.ErrNotFound
		}
		return poll.Poll{}, err
	}
	return p, nil
}

func (r *PostgresPollRepository) ListPolls(ctx context.Context) ([]poll.Poll, error) {
	var polls []poll.Poll
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *PostgresPollRepository) SetStatus(ctx context.Context, id uuid.UUID, status poll.Status) error {
	if !status.Valid() {
		return livepoll_errors.ErrInvalidInput
	}
	res := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return livepoll_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresPollRepository) GetOption(ctx context.Context, id uuid.UUID) (poll.Option, error) {
	var o poll.Option
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll.Option{}, livepoll_errors.ErrNotFound
		}
		return poll.Option{}, err
	}
	return o, nil
}

func (r *PostgresPollRepository) ListOptions(ctx context.Context, pollID uuid.UUID) ([]poll.Option, error) {
	var options []poll.Option
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("display_order ASC, id ASC").
		Find(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}
