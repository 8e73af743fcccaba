package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"livepoll/internal/domain/poll"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - poll:{poll_id}:results:gen - generation counter, no TTL
// - poll:{poll_id}:results:{gen} - JSON tally for that generation, ResultsTTL

type CacheConfig struct {
	ResultsTTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{ResultsTTL: 30 * time.Second}
}

// ResultsCache keeps computed tallies. Every ledger write for a poll bumps
// its generation, which orphans all tallies computed earlier.
type ResultsCache struct {
	client *goredis.Client
	config CacheConfig
}

func NewResultsCache(client *goredis.Client, config CacheConfig) *ResultsCache {
	if config.ResultsTTL <= 0 {
		config.ResultsTTL = DefaultCacheConfig().ResultsTTL
	}
	return &ResultsCache{client: client, config: config}
}

func generationKey(pollID uuid.UUID) string {
	return fmt.Sprintf("poll:%s:results:gen", pollID.String())
}

func resultsKey(pollID uuid.UUID, generation int64) string {
	return fmt.Sprintf("poll:%s:results:%d", pollID.String(), generation)
}

func (c *ResultsCache) Generation(ctx context.Context, pollID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(pollID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns nil on a cache miss.
func (c *ResultsCache) Get(ctx context.Context, pollID uuid.UUID, generation int64) (*poll.Results, error) {
	data, err := c.client.Get(ctx, resultsKey(pollID, generation)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res poll.Results
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *ResultsCache) Set(ctx context.Context, res poll.Results, generation int64) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultsKey(res.PollID, generation), data, c.config.ResultsTTL).Err()
}

func (c *ResultsCache) Bump(ctx context.Context, pollID uuid.UUID) error {
	return c.client.Incr(ctx, generationKey(pollID)).Err()
}
