package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
	"livepoll/internal/domain/vote"
)

// UserRepository stores accounts. Lookups by email expect the normalized form.
type UserRepository interface {
	// Create fails with ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// PollRepository is the poll catalog. Inside Store.Atomic the poll row read by
// GetPollByID stays share-locked until the transaction ends, so its status
// cannot change between the check and the vote insert.
type PollRepository interface {
	Create(ctx context.Context, p *poll.Poll, options []poll.Option) error
	GetPollByID(ctx context.Context, id uuid.UUID) (poll.Poll, error)
	ListPolls(ctx context.Context) ([]poll.Poll, error)
	SetStatus(ctx context.Context, id uuid.UUID, status poll.Status) error

	GetOption(ctx context.Context, id uuid.UUID) (poll.Option, error)
	ListOptions(ctx context.Context, pollID uuid.UUID) ([]poll.Option, error)
}

// VoteRepository is the vote ledger. It has no delete operation.
type VoteRepository interface {
	// Insert appends an active vote. A concurrent active vote for the same
	// (poll, address) surfaces as ErrDuplicateVote.
	Insert(ctx context.Context, v vote.Vote) error
	// FindActive returns the single active vote of key, ErrNoActiveVote when
	// there is none, or ErrInvariantViolation when there are several.
	FindActive(ctx context.Context, key vote.Key) (vote.Vote, error)
	// MarkReleased moves an active vote to Released(at).
	MarkReleased(ctx context.Context, voteID uuid.UUID, at time.Time) error

	ListByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error)
	ListActiveByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error)
	CountActiveByOption(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int64, error)
	CountActive(ctx context.Context, pollID uuid.UUID) (int64, error)
	// Version counts the writes made to the poll's ledger: one per vote
	// inserted plus one per vote released.
	Version(ctx context.Context, pollID uuid.UUID) (int64, error)
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Polls PollRepository
	Votes VoteRepository
}

// Store hands out units of work over the ledger and the catalog.
type Store interface {
	// Atomic runs fn in a read-write transaction serialized against every
	// other Atomic call for the same key. Waiting longer than the configured
	// lock timeout fails with ErrTransient.
	Atomic(ctx context.Context, key vote.Key, fn func(Repositories) error) error
	// Snapshot runs fn against one consistent read-only view.
	Snapshot(ctx context.Context, fn func(Repositories) error) error
	// Polls returns the catalog outside of any transaction.
	Polls() PollRepository
	Users() UserRepository
	Ping(ctx context.Context) error
}
