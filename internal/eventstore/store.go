// Package eventstore persists build events to SQLite so past builds can be inspected
// after the process exits.
package eventstore

import (
	"context"
	"time"
)

// Record is one stored build event.
type Record struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Path      string
	Payload   []byte // JSON
}

// BuildSummary aggregates the records of one build.
type BuildSummary struct {
	BuildID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Events     int
	Failures   int
}

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new record to the store. ID is assigned by the store.
	Append(ctx context.Context, rec Record) error

	// GetByBuildID retrieves all records for a specific build in insertion order.
	GetByBuildID(ctx context.Context, buildID string) ([]Record, error)

	// Builds lists the most recent builds, newest first.
	Builds(ctx context.Context, limit int) ([]BuildSummary, error)

	// Close closes the store and releases resources.
	Close() error
}
