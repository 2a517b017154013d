package ports

import (
	"time"

	"voteaudit/domain/core"
)

// Run lifecycle event types.
const (
	EventRunStarted   = "run_started"
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"
)

// RunEvent reports progress of one analysis run.
type RunEvent struct {
	RunID     core.RunID             `json:"run_id"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventPublisher receives run events. Publish must not block.
type EventPublisher interface {
	Publish(event RunEvent)
}
