// Package events carries build progress to observers: the console log, the SQLite
// event store and NATS subscribers.
package events

import (
	"time"
)

// Type names a build event.
type Type string

const (
	BuildStarted      Type = "build_started"
	FileMinified      Type = "file_minified"
	FileFailed        Type = "file_failed"
	AssetsCopied      Type = "assets_copied"
	StaticCopied      Type = "static_copied"
	LinkBroken        Type = "link_broken"
	FilePrecompressed Type = "file_precompressed"
	BuildCompleted    Type = "build_completed"
	BuildFailed       Type = "build_failed"
)

// Event is one observable step of a build.
type Event struct {
	Type     Type      `json:"type"`
	BuildID  string    `json:"build_id"`
	Time     time.Time `json:"time"`
	Stage    string    `json:"stage,omitempty"`
	Path     string    `json:"path,omitempty"`
	Category string    `json:"category,omitempty"`
	BytesIn  int64     `json:"bytes_in,omitempty"`
	BytesOut int64     `json:"bytes_out,omitempty"`
	Count    int       `json:"count,omitempty"`
	Message  string    `json:"message,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Failed reports whether the event describes a failure.
func (e Event) Failed() bool {
	return e.Type == FileFailed || e.Type == BuildFailed
}
