package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	ferrors "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != BackoffLinear {
		t.Fatalf("expected linear default mode got %s", p.Mode)
	}
	if p.Initial != time.Second || p.Max != 30*time.Second || p.MaxRetries != 2 {
		t.Fatalf("unexpected default policy %+v", p)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != BackoffFixed || p.MaxRetries != 5 {
		t.Fatalf("unexpected policy %+v", p)
	}

	p = NewPolicy("bogus", 0, 0, -1)
	if p != DefaultPolicy() {
		t.Fatalf("invalid fields should fall back to defaults, got %+v", p)
	}
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	cases := []struct {
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{NewPolicy(BackoffFixed, 100*ms, 500*ms, 3), 3, 100 * ms},
		{NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 2, 200 * ms},
		{NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 3, 250 * ms},
		{NewPolicy(BackoffExponential, 100*ms, time.Second, 5), 3, 400 * ms},
		{NewPolicy(BackoffExponential, 100*ms, time.Second, 5), 5, time.Second},
		{NewPolicy(BackoffExponential, 100*ms, time.Second, 5), 0, 0},
	}
	for _, c := range cases {
		if got := c.policy.Delay(c.attempt); got != c.want {
			t.Fatalf("%s attempt %d: expected %v got %v", c.policy.Mode, c.attempt, c.want, got)
		}
	}
}

func TestDoRetriesNetworkErrors(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), "upload", func() error {
		calls++
		if calls < 3 {
			return ferrors.NetworkError("connection reset").Build()
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got err=%v calls=%d", err, calls)
	}
}

func TestDoStopsOnPermanentErrorsAndExhaustion(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 2)

	calls := 0
	permanent := errors.New("access denied")
	if err := p.Do(context.Background(), "upload", func() error { calls++; return permanent }); !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected one call for permanent error, got err=%v calls=%d", err, calls)
	}

	calls = 0
	err := p.Do(context.Background(), "upload", func() error {
		calls++
		return ferrors.NetworkError("timeout").Build()
	})
	if err == nil || calls != 3 {
		t.Fatalf("expected 3 calls before giving up, got err=%v calls=%d", err, calls)
	}
}
