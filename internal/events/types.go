package events

// Event types follow the format: domain.action

// Results events
const (
	// EventTypeResultsSnapshot is the first message a live viewer receives.
	EventTypeResultsSnapshot = "results.snapshot"
	// EventTypeResultsUpdated is pushed after a vote is cast or released.
	EventTypeResultsUpdated = "results.updated"
)

const AggregateTypePoll = "poll"
