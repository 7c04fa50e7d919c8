package publishers

import (
	"time"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

// Event is the envelope published downstream for every crawl stream event.
type Event struct {
	RunID     string             `json:"run_id"`
	Entry     string             `json:"entry"`
	Event     domain.StreamEvent `json:"event"`
	EmittedAt time.Time          `json:"emitted_at"`
}

// NewEvent wraps a stream event of the given run.
func NewEvent(runID, entry string, evt domain.StreamEvent) Event {
	return Event{
		RunID:     runID,
		Entry:     entry,
		Event:     evt,
		EmittedAt: time.Now().UTC(),
	}
}

// Type is the stream event type, used as a message attribute by queue sinks.
func (e Event) Type() string { return string(e.Event.Type) }
