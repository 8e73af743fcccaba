package redis

import (
	"context"
	"fmt"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ResultsChannelPattern matches every per-poll results channel.
const ResultsChannelPattern = "poll:*:results"

func ResultsChannel(pollID uuid.UUID) string {
	return fmt.Sprintf("poll:%s:results", pollID.String())
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// PublishResults broadcasts a fresh tally to every instance.
func (p *Publisher) PublishResults(ctx context.Context, res poll.Results) error {
	payload, err := events.EncodeResults(events.EventTypeResultsUpdated, res, time.Now())
	if err != nil {
		return err
	}
	return p.Publish(ctx, ResultsChannel(res.PollID), payload)
}
