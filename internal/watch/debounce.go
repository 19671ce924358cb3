package watch

import (
	"context"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/util/sets"
)

// DebounceConfig controls how bursts of change notifications are coalesced.
type DebounceConfig struct {
	// QuietWindow is how long the tree must stay unchanged before a rebuild fires.
	QuietWindow time.Duration
	// MaxDelay bounds how long a steady stream of changes can postpone a rebuild.
	MaxDelay time.Duration
}

// DefaultDebounce is tuned for editors that write a file in several steps.
var DefaultDebounce = DebounceConfig{QuietWindow: 300 * time.Millisecond, MaxDelay: 3 * time.Second}

// Batch is one coalesced group of changes.
type Batch struct {
	Paths []string // sorted, unique
	Count int      // notifications received
	First time.Time
	Last  time.Time
	Cause string // "quiet" or "max_delay"
}

// Debouncer coalesces change notifications into batches and hands each batch to a
// handler. The handler runs on the Run goroutine, so a rebuild always finishes before
// the next batch is delivered; changes arriving meanwhile form exactly one follow-up.
type Debouncer struct {
	cfg DebounceConfig
	in  chan string

	mu      sync.Mutex
	pending sets.Set[string]
	count   int
	first   time.Time
	last    time.Time
}

// NewDebouncer validates cfg and returns an idle debouncer.
func NewDebouncer(cfg DebounceConfig) (*Debouncer, error) {
	if cfg.QuietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		return nil, ferrors.ValidationError("max delay must be > 0").Build()
	}
	return &Debouncer{cfg: cfg, in: make(chan string, 64), pending: sets.New[string]()}, nil
}

// Trigger records a change to path. It never blocks; when the queue is full the path
// is merged directly into the pending batch.
func (d *Debouncer) Trigger(path string) {
	select {
	case d.in <- path:
	default:
		d.record(path)
	}
}

func (d *Debouncer) record(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	firstOfBatch := d.count == 0
	if firstOfBatch {
		d.first = now
	}
	d.last = now
	d.count++
	d.pending.Add(path)
	return firstOfBatch
}

func (d *Debouncer) take(cause string) (Batch, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.count == 0 {
		return Batch{}, false
	}
	b := Batch{Paths: sets.Sorted(d.pending), Count: d.count, First: d.first, Last: d.last, Cause: cause}
	d.pending = sets.New[string]()
	d.count = 0
	return b, true
}

// Run delivers batches to fn until ctx is done.
func (d *Debouncer) Run(ctx context.Context, fn func(context.Context, Batch)) {
	quiet := time.NewTimer(d.cfg.QuietWindow)
	quiet.Stop()
	maxDelay := time.NewTimer(d.cfg.MaxDelay)
	maxDelay.Stop()
	defer quiet.Stop()
	defer maxDelay.Stop()

	var quietC, maxC <-chan time.Time
	fire := func(cause string) {
		quiet.Stop()
		maxDelay.Stop()
		quietC, maxC = nil, nil
		if b, ok := d.take(cause); ok {
			fn(ctx, b)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case p := <-d.in:
			first := d.record(p)
			quiet.Reset(d.cfg.QuietWindow)
			quietC = quiet.C
			if first || maxC == nil {
				maxDelay.Reset(d.cfg.MaxDelay)
				maxC = maxDelay.C
			}
		case <-quietC:
			fire("quiet")
		case <-maxC:
			fire("max_delay")
		}
	}
}
