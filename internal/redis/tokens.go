package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TokenDenylist shares revoked access tokens between instances. Each entry is
// auth:revoked:{token_id} and expires together with the token.
type TokenDenylist struct {
	client *goredis.Client
}

func NewTokenDenylist(client *goredis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("auth:revoked:%s", tokenID)
}

func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
