package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock drives the breaker without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(maxFailures int, reset time.Duration) (*CircuitBreaker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(maxFailures, reset)
	cb.now = clk.now
	return cb, clk
}

var errFail = errors.New("fail")

func failCall(context.Context) error { return errFail }
func okCall(context.Context) error   { return nil }

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Second)
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Do(ctx, failCall); !errors.Is(err, errFail) {
			t.Fatalf("expected errFail, got %v", err)
		}
	}
	if cb.State() != StateOpen {
		t.Errorf("expected open after 3 failures, got %v", cb.State())
	}

	called := false
	err := cb.Do(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
}

func TestCircuitBreaker_TrialClosesOnSuccess(t *testing.T) {
	cb, clk := newTestBreaker(2, time.Second)
	ctx := context.Background()
	_ = cb.Do(ctx, failCall)
	_ = cb.Do(ctx, failCall)

	clk.advance(999 * time.Millisecond)
	if err := cb.Do(ctx, okCall); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("still inside reset timeout, got %v", err)
	}

	clk.advance(time.Millisecond)
	if err := cb.Do(ctx, okCall); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after trial, got %v", cb.State())
	}
}

func TestCircuitBreaker_TrialFailureReopens(t *testing.T) {
	cb, clk := newTestBreaker(2, time.Second)
	ctx := context.Background()
	_ = cb.Do(ctx, failCall)
	_ = cb.Do(ctx, failCall)
	clk.advance(2 * time.Second)

	_ = cb.Do(ctx, failCall)
	if cb.State() != StateOpen {
		t.Fatalf("expected open after failed trial, got %v", cb.State())
	}
	if err := cb.Do(ctx, okCall); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("reset timeout restarts after a failed trial, got %v", err)
	}
}

func TestCircuitBreaker_OneTrialAtATime(t *testing.T) {
	cb, clk := newTestBreaker(1, time.Second)
	ctx := context.Background()
	_ = cb.Do(ctx, failCall)
	clk.advance(2 * time.Second)

	var inner error
	err := cb.Do(ctx, func(ctx context.Context) error {
		inner = cb.Do(ctx, okCall)
		return nil
	})
	if err != nil {
		t.Fatalf("trial: %v", err)
	}
	if !errors.Is(inner, ErrCircuitOpen) {
		t.Errorf("second call during trial: got %v, want ErrCircuitOpen", inner)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_CancelledCallerNotCounted(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("cancellation must not open the breaker, got %v", cb.State())
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Second)
	ctx := context.Background()

	_ = cb.Do(ctx, failCall)
	_ = cb.Do(ctx, failCall)
	_ = cb.Do(ctx, okCall)
	_ = cb.Do(ctx, failCall)
	_ = cb.Do(ctx, failCall)

	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, clk := newTestBreaker(1, time.Second)
	ctx := context.Background()
	var transitions []State
	cb.OnStateChange = func(_, to State) { transitions = append(transitions, to) }

	_ = cb.Do(ctx, failCall)
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Fatalf("expected [open], got %v", transitions)
	}

	clk.advance(2 * time.Second)
	_ = cb.Do(ctx, okCall)

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("expected %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: got %v, want %v", i, transitions[i], want[i])
		}
	}
}
