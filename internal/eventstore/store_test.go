package eventstore

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

const testBuildID = "build-123"

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	payload := []byte(`{"bytes_in":120,"bytes_out":80}`)
	if err := store.Append(ctx, Record{BuildID: testBuildID, Type: "file_minified", Path: "script.js", Payload: payload}); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}
	if err := store.Append(ctx, Record{BuildID: "other", Type: "build_started"}); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	records, err := store.GetByBuildID(ctx, testBuildID)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 event, got %d", len(records))
	}

	rec := records[0]
	if rec.Type != "file_minified" {
		t.Errorf("expected event_type file_minified, got %s", rec.Type)
	}
	if rec.Path != "script.js" {
		t.Errorf("expected path script.js, got %s", rec.Path)
	}
	if !bytes.Equal(rec.Payload, payload) {
		t.Errorf("expected payload %s, got %s", payload, rec.Payload)
	}
	if rec.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestEventStoreBuilds(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	appendAt := func(buildID, typ string, offset time.Duration) {
		t.Helper()
		if err := store.Append(ctx, Record{BuildID: buildID, Type: typ, Timestamp: base.Add(offset)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	appendAt("first", "build_started", 0)
	appendAt("first", "file_minified", time.Second)
	appendAt("first", "build_completed", 2*time.Second)
	appendAt("second", "build_started", time.Minute)
	appendAt("second", "file_failed", time.Minute+time.Second)
	appendAt("second", "build_failed", time.Minute+2*time.Second)

	builds, err := store.Builds(ctx, 0)
	if err != nil {
		t.Fatalf("builds: %v", err)
	}
	if len(builds) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(builds))
	}
	if builds[0].BuildID != "second" || builds[0].Failures != 2 || builds[0].Events != 3 {
		t.Errorf("unexpected newest build: %+v", builds[0])
	}
	if builds[1].BuildID != "first" || builds[1].Failures != 0 {
		t.Errorf("unexpected oldest build: %+v", builds[1])
	}
	if got := builds[1].FinishedAt.Sub(builds[1].StartedAt); got != 2*time.Second {
		t.Errorf("expected 2s span, got %v", got)
	}

	limited, err := store.Builds(ctx, 1)
	if err != nil {
		t.Fatalf("builds: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 build, got %d", len(limited))
	}
}

func TestEventStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Append(t.Context(), Record{BuildID: testBuildID, Type: "build_started"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	records, err := reopened.GetByBuildID(t.Context(), testBuildID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", len(records))
	}
}
