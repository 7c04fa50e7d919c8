package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samvad-hq/accessible-pipeline/internal/domain"
)

// StreamWriter writes events as newline-delimited JSON. It is safe for
// concurrent use.
type StreamWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStreamWriter encodes events onto w, one per line.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{enc: json.NewEncoder(w)}
}

// Write emits one event line.
func (s *StreamWriter) Write(evt domain.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(evt); err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	return nil
}

// View is what a live viewer shows: finished pages, pages being processed
// and informational notes.
type View struct {
	Results    []domain.PageResult
	InProgress []string
	Info       []string
	State      *domain.RunState
}

// Apply folds one event into the view.
func (v *View) Apply(evt domain.StreamEvent) {
	switch evt.Type {
	case domain.EventInProgress:
		v.InProgress = append(v.InProgress, evt.Progress.Href)
	case domain.EventResults:
		v.InProgress = removeHref(v.InProgress, evt.Results.URL)
		v.Results = append(v.Results, *evt.Results)
	case domain.EventInfo:
		v.Info = append(v.Info, evt.Info.Description)
	case domain.EventState:
		state := *evt.State
		v.State = &state
	}
}

func removeHref(list []string, href string) []string {
	out := list[:0]
	for _, h := range list {
		if h != href {
			out = append(out, h)
		}
	}
	return out
}

const maxLineBytes = 16 << 20

// ReadStream consumes NDJSON events from r, folding each into a view and
// calling onUpdate after every accepted event. Lines that are not valid
// events are skipped. It returns the final view.
func ReadStream(r io.Reader, onUpdate func(*View)) (*View, error) {
	view := &View{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var evt domain.StreamEvent
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			continue
		}
		view.Apply(evt)
		if onUpdate != nil {
			onUpdate(view)
		}
	}
	if err := scanner.Err(); err != nil {
		return view, fmt.Errorf("read stream: %w", err)
	}
	return view, nil
}
