package events

import "context"

// Subscriber delivers pub/sub messages by channel pattern until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error
}
