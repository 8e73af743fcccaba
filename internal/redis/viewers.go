package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ViewerStore tracks websocket clients watching a poll's live results across
// instances. Each viewer is a member of poll:{poll_id}:viewers scored by its
// last heartbeat; members older than ttl are pruned on read.
type ViewerStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewViewerStore(client *goredis.Client, ttl time.Duration) *ViewerStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ViewerStore{client: client, ttl: ttl}
}

func viewersKey(pollID uuid.UUID) string {
	return fmt.Sprintf("poll:%s:viewers", pollID.String())
}

// Touch registers viewerID or refreshes its heartbeat.
func (v *ViewerStore) Touch(ctx context.Context, pollID uuid.UUID, viewerID string) error {
	key := viewersKey(pollID)
	pipe := v.client.TxPipeline()
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(time.Now().Unix()), Member: viewerID})
	pipe.Expire(ctx, key, 2*v.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (v *ViewerStore) Leave(ctx context.Context, pollID uuid.UUID, viewerID string) error {
	return v.client.ZRem(ctx, viewersKey(pollID), viewerID).Err()
}

func (v *ViewerStore) Count(ctx context.Context, pollID uuid.UUID) (int64, error) {
	key := viewersKey(pollID)
	cutoff := strconv.FormatInt(time.Now().Add(-v.ttl).Unix(), 10)
	if err := v.client.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff).Err(); err != nil {
		return 0, err
	}
	return v.client.ZCard(ctx, key).Result()
}
