package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout dispatches events to all configured publishers.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher that fans out events across publishers.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp}
}

// Publish forwards the event to every publisher subscribed to its type.
// It returns the number of publishers that successfully handled the event.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	successful := 0
	for _, p := range f.publishers {
		if sub, ok := p.(subscriber); ok && !sub.accepts(evt) {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
		} else {
			successful++
		}
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// subscriber is implemented by publishers restricted to some event types.
type subscriber interface {
	accepts(evt Event) bool
}

// filtered limits a publisher to the event types listed in its config.
type filtered struct {
	Publisher
	types map[string]struct{}
}

func withEventFilter(p Publisher, events []string) Publisher {
	if len(events) == 0 {
		return p
	}
	types := make(map[string]struct{}, len(events))
	for _, e := range events {
		types[e] = struct{}{}
	}
	return &filtered{Publisher: p, types: types}
}

func (f *filtered) accepts(evt Event) bool {
	_, ok := f.types[evt.Type()]
	return ok
}
