package nats

import (
	"fmt"
	"time"
)

// LandedEvent reports that a watched transaction reached the confirmed
// commitment level. It is published to the subject "landed.{signature}".
type LandedEvent struct {
	Signature  string    `json:"signature"`
	WorkflowID string    `json:"workflow_id,omitempty"`
	Attempt    int       `json:"attempt"` // poll round in which the landing was observed, starting at 1
	ObservedAt time.Time `json:"observed_at"`

	PublishedAt time.Time `json:"published_at"`
}

// Subject returns the JetStream subject for the event.
func (e *LandedEvent) Subject() string {
	return fmt.Sprintf("landed.%s", e.Signature)
}

// NewLandedEvents builds one event per signature.
func NewLandedEvents(signatures []string, workflowID string, attempt int, observedAt time.Time) []*LandedEvent {
	events := make([]*LandedEvent, 0, len(signatures))
	for _, sig := range signatures {
		events = append(events, &LandedEvent{
			Signature:  sig,
			WorkflowID: workflowID,
			Attempt:    attempt,
			ObservedAt: observedAt,
		})
	}
	return events
}
