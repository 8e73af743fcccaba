package memory

import (
	"context"
	"sync"

	"livepoll/internal/domain/user"
	"livepoll/internal/repository"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

// userBook holds accounts apart from the ledger; snapshots never read it.
type userBook struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]user.User
	byEmail map[string]uuid.UUID
}

func newUserBook() *userBook {
	return &userBook{
		byID:    make(map[uuid.UUID]user.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (b *userBook) Create(ctx context.Context, u *user.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.byEmail[u.Email]; taken {
		return livepoll_errors.ErrAlreadyExists
	}
	if _, taken := b.byID[u.ID]; taken {
		return livepoll_errors.ErrAlreadyExists
	}
	b.byID[u.ID] = *u
	b.byEmail[u.Email] = u.ID
	return nil
}

func (b *userBook) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.byID[id]
	if !ok {
		return user.User{}, livepoll_errors.ErrNotFound
	}
	return u, nil
}

func (b *userBook) GetByEmail(ctx context.Context, email string) (user.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.byEmail[email]
	if !ok {
		return user.User{}, livepoll_errors.ErrNotFound
	}
	return b.byID[id], nil
}

func (b *userBook) exists(id uuid.UUID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.byID[id]
	return ok
}

var _ repository.UserRepository = (*userBook)(nil)
