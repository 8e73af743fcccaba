package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/vote"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

const defaultLockTimeout = 3 * time.Second

var errReadOnly = errors.New("memory store: write outside of a writable unit of work")

// Store is an in-process ledger for local development and tests. It follows
// the same unit-of-work rules as the Postgres store: Atomic serializes per
// (poll, address) key with a bounded wait and applies its writes at commit,
// Snapshot reads a frozen copy.
type Store struct {
	mu          sync.RWMutex
	state       *state
	users       *userBook
	locks       *keyLocks
	lockTimeout time.Duration
}

func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Store{
		state:       newState(),
		users:       newUserBook(),
		locks:       newKeyLocks(),
		lockTimeout: lockTimeout,
	}
}

func (s *Store) Atomic(ctx context.Context, key vote.Key, fn func(repository.Repositories) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	unlock, err := s.locks.acquire(lockCtx, key.String())
	if err != nil {
		return livepoll_errors.Transient(fmt.Errorf("acquire lock for %s: %w", key, err))
	}
	defer unlock()

	tx := &txn{key: key, releases: make(map[uuid.UUID]time.Time)}
	if err := fn(repository.Repositories{
		Polls: &pollRepo{read: s.read},
		Votes: &voteRepo{read: s.read, tx: tx},
	}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return livepoll_errors.Transient(err)
	}
	return s.commit(tx)
}

func (s *Store) Snapshot(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return livepoll_errors.Transient(err)
	}
	s.mu.RLock()
	frozen := s.state.clone()
	s.mu.RUnlock()

	read := func(f func(*state)) { f(frozen) }
	return fn(repository.Repositories{
		Polls: &pollRepo{read: read},
		Votes: &voteRepo{read: read},
	})
}

func (s *Store) Polls() repository.PollRepository {
	return &pollRepo{read: s.read, store: s}
}

func (s *Store) Users() repository.UserRepository {
	return s.users
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) read(f func(*state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f(s.state)
}

// commit re-checks every pending write against the live state before applying
// it, the way the database constraints would.
func (s *Store) commit(tx *txn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range tx.releases {
		i, ok := s.state.index[id]
		if !ok || !s.state.votes[i].IsActive() {
			return livepoll_errors.ErrNoActiveVote
		}
	}
	for _, v := range tx.inserts {
		p, err := s.state.pollByID(v.PollID)
		if err != nil {
			return err
		}
		if !p.IsActive() {
			return livepoll_errors.ErrPollClosed
		}
		o, err := s.state.option(v.OptionID)
		if err != nil || o.PollID != v.PollID {
			return livepoll_errors.ErrInvalidOption
		}
		for _, active := range s.state.activeFor(v.Key()) {
			if _, releasing := tx.releases[active.ID]; !releasing {
				return livepoll_errors.ErrDuplicateVote
			}
		}
	}

	for id, at := range tx.releases {
		i := s.state.index[id]
		released, err := s.state.votes[i].Release(at)
		if err != nil {
			return err
		}
		s.state.votes[i] = released
	}
	for _, v := range tx.inserts {
		s.state.append(v)
	}
	return nil
}

// txn buffers the writes of one Atomic call.
type txn struct {
	key      vote.Key
	inserts  []vote.Vote
	releases map[uuid.UUID]time.Time
}

// overlay applies the pending writes to votes read from the store.
func (t *txn) overlay(votes []vote.Vote, pollID uuid.UUID) []vote.Vote {
	out := make([]vote.Vote, 0, len(votes)+len(t.inserts))
	for _, v := range votes {
		if at, ok := t.releases[v.ID]; ok {
			if released, err := v.Release(at); err == nil {
				v = released
			}
		}
		out = append(out, v)
	}
	for _, v := range t.inserts {
		if v.PollID == pollID {
			out = append(out, v)
		}
	}
	sortVotes(out)
	return out
}

type pollRepo struct {
	read  func(func(*state))
	store *Store
}

func (r *pollRepo) Create(ctx context.Context, p *poll.Poll, options []poll.Option) error {
	if r.store == nil {
		return errReadOnly
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.state.polls[p.ID]; exists {
		return livepoll_errors.ErrAlreadyExists
	}
	if p.CreatedBy.Valid && !r.store.users.exists(p.CreatedBy.UUID) {
		return fmt.Errorf("%w: unknown author", livepoll_errors.ErrInvalidInput)
	}
	for i := range options {
		if _, exists := r.store.state.options[options[i].ID]; exists {
			return livepoll_errors.ErrAlreadyExists
		}
	}
	r.store.state.polls[p.ID] = *p
	for i := range options {
		options[i].PollID = p.ID
		r.store.state.options[options[i].ID] = options[i]
	}
	return nil
}

func (r *pollRepo) GetPollByID(ctx context.Context, id uuid.UUID) (poll.Poll, error) {
	var (
		p   poll.Poll
		err error
	)
	r.read(func(st *state) { p, err = st.pollByID(id) })
	return p, err
}

func (r *pollRepo) ListPolls(ctx context.Context) ([]poll.Poll, error) {
	var items []poll.Poll
	r.read(func(st *state) { items = st.listPolls() })
	return items, nil
}

func (r *pollRepo) SetStatus(ctx context.Context, id uuid.UUID, status poll.Status) error {
	if r.store == nil {
		return errReadOnly
	}
	if !status.Valid() {
		return livepoll_errors.ErrInvalidInput
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.state.polls[id]
	if !ok {
		return livepoll_errors.ErrNotFound
	}
	p.Status = status
	r.store.state.polls[id] = p
	return nil
}

func (r *pollRepo) GetOption(ctx context.Context, id uuid.UUID) (poll.Option, error) {
	var (
		o   poll.Option
		err error
	)
	r.read(func(st *state) { o, err = st.option(id) })
	return o, err
}

func (r *pollRepo) ListOptions(ctx context.Context, pollID uuid.UUID) ([]poll.Option, error) {
	var items []poll.Option
	r.read(func(st *state) { items = st.optionsOf(pollID) })
	return items, nil
}

type voteRepo struct {
	read func(func(*state))
	tx   *txn
}

func (r *voteRepo) votesOf(pollID uuid.UUID) []vote.Vote {
	var items []vote.Vote
	r.read(func(st *state) { items = st.votesOf(pollID) })
	if r.tx != nil {
		items = r.tx.overlay(items, pollID)
	}
	return items
}

func (r *voteRepo) Insert(ctx context.Context, v vote.Vote) error {
	if r.tx == nil {
		return errReadOnly
	}
	if !v.IsActive() {
		return livepoll_errors.ErrInvalidInput
	}
	if v.Key() != r.tx.key {
		return fmt.Errorf("memory store: insert for %s inside unit of work for %s", v.Key(), r.tx.key)
	}
	if _, err := r.FindActive(ctx, v.Key()); err == nil {
		return livepoll_errors.ErrDuplicateVote
	} else if !errors.Is(err, livepoll_errors.ErrNoActiveVote) {
		return err
	}
	r.tx.inserts = append(r.tx.inserts, v)
	return nil
}

func (r *voteRepo) FindActive(ctx context.Context, key vote.Key) (vote.Vote, error) {
	var active []vote.Vote
	for _, v := range r.votesOf(key.PollID) {
		if v.Address == key.Address && v.IsActive() {
			active = append(active, v)
		}
	}
	switch len(active) {
	case 0:
		return vote.Vote{}, livepoll_errors.ErrNoActiveVote
	case 1:
		return active[0], nil
	default:
		return vote.Vote{}, livepoll_errors.InvariantViolation("poll %s has %d active votes for %q", key.PollID, len(active), key.Address)
	}
}

func (r *voteRepo) MarkReleased(ctx context.Context, voteID uuid.UUID, at time.Time) error {
	if r.tx == nil {
		return errReadOnly
	}
	for _, v := range r.votesOf(r.tx.key.PollID) {
		if v.ID == voteID {
			if !v.IsActive() {
				return livepoll_errors.ErrNoActiveVote
			}
			r.tx.releases[voteID] = at.UTC()
			return nil
		}
	}
	return livepoll_errors.ErrNoActiveVote
}

func (r *voteRepo) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error) {
	return r.votesOf(pollID), nil
}

func (r *voteRepo) ListActiveByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error) {
	items := make([]vote.Vote, 0)
	for _, v := range r.votesOf(pollID) {
		if v.IsActive() {
			items = append(items, v)
		}
	}
	return items, nil
}

func (r *voteRepo) CountActiveByOption(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64)
	for _, v := range r.votesOf(pollID) {
		if v.IsActive() {
			counts[v.OptionID]++
		}
	}
	return counts, nil
}

func (r *voteRepo) CountActive(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var n int64
	for _, v := range r.votesOf(pollID) {
		if v.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *voteRepo) Version(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var n int64
	for _, v := range r.votesOf(pollID) {
		n++
		if !v.IsActive() {
			n++
		}
	}
	return n, nil
}

var _ repository.Store = (*Store)(nil)
