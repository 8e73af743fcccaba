package websocket

import (
	"context"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/events"
	"livepoll/internal/redis"
	"livepoll/pkg/logger"

	"go.uber.org/zap"
)

// RedisBridge fans results published by any instance out to the viewers
// connected to this one.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
	logger     *logger.Logger
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub, l *logger.Logger) *RedisBridge {
	if l == nil {
		l = logger.NewNop()
	}
	return &RedisBridge{subscriber: subscriber, hub: hub, logger: l}
}

func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{redis.ResultsChannelPattern}, func(channel string, payload []byte) {
		env, _, err := events.DecodeResults(payload)
		if err != nil {
			b.logger.Warn(ctx, "results_message_dropped", zap.String("channel", channel), zap.Error(err))
			return
		}
		b.hub.Broadcast(channel, env.Version, payload)
	})
}

// LocalPublisher delivers results straight to this instance's hub. Used when
// no Redis is configured.
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) PublishResults(ctx context.Context, res poll.Results) error {
	payload, err := events.EncodeResults(events.EventTypeResultsUpdated, res, time.Now())
	if err != nil {
		return err
	}
	p.hub.Broadcast(redis.ResultsChannel(res.PollID), res.Version, payload)
	return nil
}
