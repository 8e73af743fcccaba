package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

var (
	client     *redis.Client
	clientOnce sync.Once
)

// Initialize creates the process-wide client. Only the first call has an
// effect.
func Initialize(cfg Config) {
	clientOnce.Do(func() {
		client = NewClient(cfg)
	})
}

// GetClient returns the client created by Initialize. Panics when Initialize
// has not been called.
func GetClient() *redis.Client {
	if client == nil {
		panic("redis client not initialized. Call Initialize() first")
	}
	return client
}

func IsInitialized() bool {
	return client != nil
}

// NewClient creates a standalone client, for tests or a second connection.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func Ping(ctx context.Context, c *redis.Client) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
