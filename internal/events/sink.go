package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebundle/internal/logfields"
)

// Sink receives build events. Implementations must be safe for concurrent use;
// minify tasks emit from their own goroutines.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// Emit sends e to sink, stamping the time when unset. A sink failure is logged and
// otherwise ignored: observers never change the outcome of a build.
func Emit(ctx context.Context, sink Sink, e Event) {
	if sink == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if err := sink.Emit(ctx, e); err != nil {
		slog.WarnContext(ctx, "Event sink failed", logfields.Kind(string(e.Type)), logfields.Error(err))
	}
}

// Multi fans an event out to several sinks.
type Multi []Sink

// Emit delivers e to every sink and joins their errors.
func (m Multi) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Collector keeps events in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (c *Collector) Emit(_ context.Context, e Event) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// OfType returns the recorded events of type t.
func (c *Collector) OfType(t Type) []Event {
	var out []Event
	for _, e := range c.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
