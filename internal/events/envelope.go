package events

import (
	"encoding/json"
	"fmt"
	"time"

	"livepoll/internal/domain/poll"
)

type Envelope struct {
	EventType     string `json:"event_type"`
	AggregateType string `json:"aggregate_type"`
	AggregateID   string `json:"aggregate_id"`
	// Version orders envelopes of one aggregate. Consumers drop an envelope
	// whose Version is not above the last one they delivered.
	Version    int64           `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EncodeResults wraps a tally in an envelope of the given event type.
func EncodeResults(eventType string, res poll.Results, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results: %w", err)
	}
	return json.Marshal(Envelope{
		EventType:     eventType,
		AggregateType: AggregateTypePoll,
		AggregateID:   res.PollID.String(),
		Version:       res.Version,
		OccurredAt:    at.UTC(),
		Payload:       payload,
	})
}

// DecodeResults is the inverse of EncodeResults.
func DecodeResults(data []byte) (Envelope, poll.Results, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, poll.Results{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	var res poll.Results
	if err := json.Unmarshal(env.Payload, &res); err != nil {
		return env, poll.Results{}, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	return env, res, nil
}
