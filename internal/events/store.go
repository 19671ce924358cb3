package events

import (
	"context"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/sitebundle/internal/eventstore"
)

// StoreSink appends events to an event store.
type StoreSink struct {
	store eventstore.Store
}

// NewStoreSink wraps store.
func NewStoreSink(store eventstore.Store) *StoreSink {
	return &StoreSink{store: store}
}

// Emit appends e as a record with its JSON encoding as payload.
func (s *StoreSink) Emit(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.store.Append(ctx, eventstore.Record{
		BuildID:   e.BuildID,
		Type:      string(e.Type),
		Timestamp: e.Time,
		Path:      e.Path,
		Payload:   payload,
	})
}

// Close closes the underlying store.
func (s *StoreSink) Close() error {
	return s.store.Close()
}
