package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"livepoll/internal/domain/vote"

	"gorm.io/gorm"
)

const defaultLockTimeout = 3 * time.Second

// PostgresStore runs units of work as Postgres transactions. Atomic takes a
// transaction-scoped advisory lock on the (poll, address) key, so casts and
// releases for one key run one at a time while other keys proceed in
// parallel. The partial unique index on active votes backs this up.
type PostgresStore struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func NewPostgresStore(db *gorm.DB, lockTimeout time.Duration) *PostgresStore {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &PostgresStore{db: db, lockTimeout: lockTimeout}
}

func (s *PostgresStore) Atomic(ctx context.Context, key vote.Key, fn func(Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SET LOCAL does not accept bind parameters; the value is an integer.
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())).Error; err != nil {
			return err
		}
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key.String()).Error; err != nil {
			return err
		}
		return fn(Repositories{
			Polls: &PostgresPollRepository{db: tx, shareLock: true},
			Votes: &PostgresVoteRepository{db: tx, rowLock: true},
		})
	})
	return classify(err)
}

func (s *PostgresStore) Snapshot(ctx context.Context, fn func(Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			Polls: NewPollRepository(tx),
			Votes: NewVoteRepository(tx),
		})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	return classify(err)
}

func (s *PostgresStore) Polls() PollRepository {
	return NewPollRepository(s.db)
}

func (s *PostgresStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return classify(sqlDB.PingContext(ctx))
}

var _ Store = (*PostgresStore)(nil)
