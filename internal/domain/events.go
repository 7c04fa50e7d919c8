package domain

import (
	"encoding/json"
	"fmt"
)

// EventType tags a StreamEvent.
type EventType string

const (
	EventResults    EventType = "results"
	EventState      EventType = "state"
	EventInProgress EventType = "in_progress"
	EventInfo       EventType = "info"
)

// Progress announces that a page is about to be processed.
type Progress struct {
	Href string `json:"href"`
}

// Info carries a human readable note for live viewers.
type Info struct {
	Description string `json:"description"`
}

// StreamEvent is one unit of the crawl output sequence. Exactly one of the
// payload fields is set, matching Type.
type StreamEvent struct {
	Type     EventType
	Results  *PageResult
	State    *RunState
	Progress *Progress
	Info     *Info
}

// ResultsEvent wraps a page result.
func ResultsEvent(r PageResult) StreamEvent {
	return StreamEvent{Type: EventResults, Results: &r}
}

// StateEvent wraps the terminal run state.
func StateEvent(s RunState) StreamEvent {
	return StreamEvent{Type: EventState, State: &s}
}

// InProgressEvent announces a page visit.
func InProgressEvent(href string) StreamEvent {
	return StreamEvent{Type: EventInProgress, Progress: &Progress{Href: href}}
}

// InfoEvent wraps a display note.
func InfoEvent(description string) StreamEvent {
	return StreamEvent{Type: EventInfo, Info: &Info{Description: description}}
}

type wireEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the event as {"type": ..., "data": ...}.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	var data any
	switch e.Type {
	case EventResults:
		data = e.Results
	case EventState:
		data = e.State
	case EventInProgress:
		data = e.Progress
	case EventInfo:
		data = e.Info
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return json.Marshal(wireEvent{Type: e.Type, Data: raw})
}

// UnmarshalJSON decodes the {"type": ..., "data": ...} form.
func (e *StreamEvent) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	out := StreamEvent{Type: w.Type}
	var target any
	switch w.Type {
	case EventResults:
		out.Results = &PageResult{}
		target = out.Results
	case EventState:
		out.State = &RunState{}
		target = out.State
	case EventInProgress:
		out.Progress = &Progress{}
		target = out.Progress
	case EventInfo:
		out.Info = &Info{}
		target = out.Info
	default:
		return fmt.Errorf("unknown event type %q", w.Type)
	}
	if len(w.Data) == 0 || string(w.Data) == "null" {
		return fmt.Errorf("%s event has no data", w.Type)
	}
	if err := json.Unmarshal(w.Data, target); err != nil {
		return fmt.Errorf("decode %s event: %w", w.Type, err)
	}
	*e = out
	return nil
}
