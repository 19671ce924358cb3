package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDebouncer_Validation(t *testing.T) {
	_, err := NewDebouncer(DebounceConfig{MaxDelay: time.Second})
	require.Error(t, err)
	_, err = NewDebouncer(DebounceConfig{QuietWindow: time.Second})
	require.Error(t, err)
	_, err = NewDebouncer(DefaultDebounce)
	require.NoError(t, err)
}

func runDebouncer(t *testing.T, d *Debouncer) <-chan Batch {
	t.Helper()
	out := make(chan Batch, 10)
	go d.Run(t.Context(), func(_ context.Context, b Batch) { out <- b })
	return out
}

func TestDebouncer_BurstCoalescesToSingleBatch(t *testing.T) {
	d, err := NewDebouncer(DebounceConfig{QuietWindow: 25 * time.Millisecond, MaxDelay: time.Second})
	require.NoError(t, err)
	out := runDebouncer(t, d)

	for _, p := range []string{"styles.css", "index.html", "styles.css", "script.js", "index.html"} {
		d.Trigger(p)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case b := <-out:
		require.Equal(t, []string{"index.html", "script.js", "styles.css"}, b.Paths)
		require.Equal(t, 5, b.Count)
		require.Equal(t, "quiet", b.Cause)
		require.False(t, b.Last.Before(b.First))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for batch")
	}

	select {
	case <-out:
		t.Fatal("expected one batch for the burst")
	case <-time.After(75 * time.Millisecond):
	}
}

func TestDebouncer_MaxDelayForcesBatch(t *testing.T) {
	d, err := NewDebouncer(DebounceConfig{QuietWindow: 200 * time.Millisecond, MaxDelay: 60 * time.Millisecond})
	require.NoError(t, err)
	out := runDebouncer(t, d)

	stop := time.After(400 * time.Millisecond)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case b := <-out:
			require.Equal(t, "max_delay", b.Cause)
			return
		case <-tick.C:
			d.Trigger("styles.css")
		case <-stop:
			t.Fatal("max delay did not force a batch")
		}
	}
}

func TestDebouncer_ChangesDuringHandlerFormOneFollowUp(t *testing.T) {
	d, err := NewDebouncer(DebounceConfig{QuietWindow: 10 * time.Millisecond, MaxDelay: time.Second})
	require.NoError(t, err)

	release := make(chan struct{})
	out := make(chan Batch, 10)
	go d.Run(t.Context(), func(_ context.Context, b Batch) {
		out <- b
		if len(out) == 1 {
			<-release
		}
	})

	d.Trigger("index.html")
	first := <-out
	require.Equal(t, []string{"index.html"}, first.Paths)

	d.Trigger("terms.html")
	d.Trigger("privacy.html")
	close(release)

	select {
	case b := <-out:
		require.Equal(t, []string{"privacy.html", "terms.html"}, b.Paths)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for follow-up batch")
	}
}

func TestWatcher_DetectsChangesAndIgnoresOutput(t *testing.T) {
	root := t.TempDir()
	dist := filepath.Join(root, "dist")
	require.NoError(t, os.MkdirAll(dist, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "styles.css"), []byte("a{}"), 0o644))

	w, err := New(root, []string{dist}, DebounceConfig{QuietWindow: 50 * time.Millisecond, MaxDelay: time.Second})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.False(t, w.relevant(filepath.Join(dist, "styles.css")))
	require.False(t, w.relevant(filepath.Join(root, ".styles.css.swp")))
	require.True(t, w.relevant(filepath.Join(root, "styles.css")))

	out := make(chan Batch, 10)
	go func() {
		_ = w.Run(t.Context(), func(_ context.Context, b Batch) { out <- b })
	}()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dist, "styles.css"), []byte("a{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "styles.css"), []byte("a { }"), 0o644))

	select {
	case b := <-out:
		require.Equal(t, []string{"styles.css"}, b.Paths)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}
