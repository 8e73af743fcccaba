package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"livepoll/internal/domain/poll"
	livepoll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu      sync.Mutex
	gens    map[uuid.UUID]int64
	entries map[string]poll.Results
	hits    int
	failGet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{gens: make(map[uuid.UUID]int64), entries: make(map[string]poll.Results)}
}

func cacheKey(id uuid.UUID, gen int64) string {
	return fmt.Sprintf("%s/%d", id, gen)
}

func (c *fakeCache) Generation(ctx context.Context, pollID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[pollID], nil
}

func (c *fakeCache) Get(ctx context.Context, pollID uuid.UUID, gen int64) (*poll.Results, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, errors.New("cache down")
	}
	res, ok := c.entries[cacheKey(pollID, gen)]
	if !ok {
		return nil, nil
	}
	c.hits++
	return &res, nil
}

func (c *fakeCache) Set(ctx context.Context, res poll.Results, gen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(res.PollID, gen)] = res
	return nil
}

func (c *fakeCache) Bump(ctx context.Context, pollID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[pollID]++
	return nil
}

func TestResultsReadThroughCache(t *testing.T) {
	f := newFixture(t)
	cache := newFakeCache()
	f.results = NewResultsService(f.store, cache, nil)
	f.voting = NewVotingService(f.store, f.results, nil)
	f.release = NewReleaseService(f.store, f.results, nil)
	d := f.poll(t, poll.StatusActive, "A", "B")

	_, err := f.results.Compute(f.ctx, d.Poll.ID)
	require.NoError(t, err)
	_, err = f.results.Compute(f.ctx, d.Poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = f.cast(d.Poll.ID, d.Options[0].ID, "10.0.0.1")
	require.NoError(t, err)
	res, err := f.results.Compute(f.ctx, d.Poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, 1, cache.hits)

	_, err = f.releaseVote(d.Poll.ID, "10.0.0.1")
	require.NoError(t, err)
	res, err = f.results.Compute(f.ctx, d.Poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
}

func TestResultsFallBackWhenCacheFails(t *testing.T) {
	f := newFixture(t)
	cache := newFakeCache()
	cache.failGet = true
	f.results = NewResultsService(f.store, cache, nil)
	d := f.poll(t, poll.StatusActive, "A")

	res, err := f.results.Compute(f.ctx, d.Poll.ID)
	require.NoError(t, err)
	assert.Len(t, res.Options, 1)
}

func TestResultsVersionRisesWithEveryWrite(t *testing.T) {
	f := newFixture(t)
	d := f.poll(t, poll.StatusActive, "A", "B")
	version := func() int64 {
		res, err := f.results.Compute(f.ctx, d.Poll.ID)
		require.NoError(t, err)
		return res.Version
	}

	assert.Equal(t, int64(0), version())
	_, err := f.cast(d.Poll.ID, d.Options[0].ID, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version())

	_, err = f.releaseVote(d.Poll.ID, "10.0.0.1")
	require.NoError(t, err)
	released := version()
	assert.Equal(t, int64(2), released)

	// Same totals as before the first cast, still a newer version.
	_, err = f.cast(d.Poll.ID, d.Options[0].ID, "10.0.0.1")
	require.NoError(t, err)
	res, err := f.results.Compute(f.ctx, d.Poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Greater(t, res.Version, released)

	_, err = f.cast(d.Poll.ID, d.Options[1].ID, "10.0.0.1")
	require.ErrorIs(t, err, livepoll_errors.ErrDuplicateVote)
	assert.Equal(t, res.Version, version())
}
