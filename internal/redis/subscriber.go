package redis

import (
	"context"

	"livepoll/internal/events"

	"github.com/redis/go-redis/v9"
)

type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe delivers messages of every channel matching patterns until ctx is
// done or the connection fails.
func (s *Subscriber) Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error {
	sub := s.client.PSubscribe(ctx, patterns...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}

var _ events.Subscriber = (*Subscriber)(nil)
