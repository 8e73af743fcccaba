package repository

import (
	"context"
	"time"

	"livepoll/internal/domain/vote"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// voteRow is the persisted shape of a vote. The schema enforces
// is_active = (released_at IS NULL).
type voteRow struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	PollID       uuid.UUID  `gorm:"column:poll_id;type:uuid"`
	OptionID     uuid.UUID  `gorm:"column:option_id;type:uuid"`
	VoterAddress string     `gorm:"column:voter_address"`
	CastAt       time.Time  `gorm:"column:cast_at"`
	ReleasedAt   *time.Time `gorm:"column:released_at"`
	IsActive     bool       `gorm:"column:is_active"`
}

func (voteRow) TableName() string {
	return "votes"
}

func voteRowFromEntity(v vote.Vote) voteRow {
	row := voteRow{
		ID:           v.ID,
		PollID:       v.PollID,
		OptionID:     v.OptionID,
		VoterAddress: v.Address,
		CastAt:       v.CastAt.UTC(),
		IsActive:     v.IsActive(),
	}
	if at, ok := v.ReleasedAt(); ok {
		at = at.UTC()
		row.ReleasedAt = &at
	}
	return row
}

func (m voteRow) toEntity() (vote.Vote, error) {
	v := vote.Vote{
		ID:       m.ID,
		PollID:   m.PollID,
		OptionID: m.OptionID,
		Address:  m.VoterAddress,
		CastAt:   m.CastAt.UTC(),
	}
	switch {
	case m.IsActive && m.ReleasedAt == nil:
		v.State = vote.Active{}
	case !m.IsActive && m.ReleasedAt != nil:
		v.State = vote.Released{At: m.ReleasedAt.UTC()}
	default:
		return vote.Vote{}, livepoll_errors.InvariantViolation("vote %s has is_active=%t with released_at set=%t", m.ID, m.IsActive, m.ReleasedAt != nil)
	}
	return v, nil
}

func toVoteEntities(rows []voteRow) ([]vote.Vote, error) {
	items := make([]vote.Vote, 0, len(rows))
	for _, row := range rows {
		v, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

type PostgresVoteRepository struct {
	db *gorm.DB
	// rowLock makes FindActive take FOR UPDATE row locks.
	rowLock bool
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &PostgresVoteRepository{db: db}
}

func (r *PostgresVoteRepository) Insert(ctx context.Context, v vote.Vote) error {
	if !v.IsActive() {
		return livepoll_errors.ErrInvalidInput
	}
	row := voteRowFromEntity(v)
	res := r.db.WithContext(ctx).Create(&row)
	if res.Error != nil {
		switch {
		case isUniqueViolation(res.Error):
			return livepoll_errors.ErrDuplicateVote
		case isForeignKeyViolation(res.Error):
			return livepoll_errors.ErrInvalidOption
		}
		return res.Error
	}
	return nil
}

func (r *PostgresVoteRepository) FindActive(ctx context.Context, key vote.Key) (vote.Vote, error) {
	q := r.db.WithContext(ctx)
	if r.rowLock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []voteRow
	err := q.Where("poll_id = ? AND voter_address = ? AND is_active", key.PollID, key.Address).
		Order("cast_at ASC").
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return vote.Vote{}, err
	}
	switch len(rows) {
	case 0:
		return vote.Vote{}, livepoll_errors.ErrNoActiveVote
	case 1:
		return rows[0].toEntity()
	default:
		return vote.Vote{}, livepoll_errors.InvariantViolation("poll %s has %d active votes for %q", key.PollID, len(rows), key.Address)
	}
}

func (r *PostgresVoteRepository) MarkReleased(ctx context.Context, voteID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&voteRow{}).
		Where("id = ? AND is_active", voteID).
		Updates(map[string]any{
			"is_active":   false,
			"released_at": at.UTC(),
		})
	if res.Error != nil {
		if isCheckViolation(res.Error) {
			return livepoll_errors.InvariantViolation("release of vote %s violates state check: %v", voteID, res.Error)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return livepoll_errors.ErrNoActiveVote
	}
	return nil
}

func (r *PostgresVoteRepository) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error) {
	var rows []voteRow
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("cast_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toVoteEntities(rows)
}

func (r *PostgresVoteRepository) ListActiveByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error) {
	var rows []voteRow
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND is_active", pollID).
		Order("cast_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toVoteEntities(rows)
}

func (r *PostgresVoteRepository) CountActiveByOption(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		OptionID uuid.UUID
		Votes    int64
	}
	err := r.db.WithContext(ctx).
		Model(&voteRow{}).
		Select("option_id, COUNT(*) AS votes").
		Where("poll_id = ? AND is_active", pollID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Votes
	}
	return counts, nil
}

func (r *PostgresVoteRepository) CountActive(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&voteRow{}).
		Where("poll_id = ? AND is_active", pollID).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresVoteRepository) Version(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&voteRow{}).
		Select("COUNT(*) + COUNT(released_at)").
		Where("poll_id = ?", pollID).
		Scan(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}
