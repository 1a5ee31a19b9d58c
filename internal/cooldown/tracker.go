// Package cooldown gates repeat alerts per instrument.
//
// A Tracker is owned by one screening invocation. Its in-memory map is the
// source of truth for the run; an optional model.CooldownStore mirrors it so
// a restarted job can pick up alerts from a previous run.
package cooldown

import (
	"context"
	"log/slog"
	"time"

	"market-screener/internal/model"
)

// Tracker implements allow/record over a cooldown window.
type Tracker struct {
	window  time.Duration
	mem     *MemoryStore
	backing model.CooldownStore // nil for process-local state
	log     *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStore mirrors alerts into a persistent store.
func WithStore(s model.CooldownStore) Option {
	return func(t *Tracker) { t.backing = s }
}

// WithLogger sets the logger used for backing-store failures.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// NewTracker returns a tracker with an empty in-memory state.
func NewTracker(window time.Duration, opts ...Option) *Tracker {
	t := &Tracker{
		window: window,
		mem:    NewMemoryStore(),
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Window returns the cooldown interval.
func (t *Tracker) Window() time.Duration { return t.window }

// Allow reports whether instID may alert at now: true when no alert is recorded
// or now - last >= window.
//
// The backing store is consulted only when memory has no entry. A store error
// is logged and treated as "no entry".
func (t *Tracker) Allow(ctx context.Context, instID string, now time.Time) bool {
	last, ok, _ := t.mem.LastAlert(ctx, instID)
	if !ok && t.backing != nil {
		var err error
		last, ok, err = t.backing.LastAlert(ctx, instID)
		if err != nil {
			t.log.Warn("cooldown store read failed", "inst", instID, "err", err)
			ok = false
		}
		if ok {
			_ = t.mem.SaveAlert(ctx, instID, last)
		}
	}
	if !ok {
		return true
	}
	return now.Sub(last) >= t.window
}

// Record stores now as the last alert for instID, overwriting any prior value.
func (t *Tracker) Record(ctx context.Context, instID string, now time.Time) {
	_ = t.mem.SaveAlert(ctx, instID, now)
	if t.backing == nil {
		return
	}
	if err := t.backing.SaveAlert(ctx, instID, now); err != nil {
		t.log.Warn("cooldown store write failed", "inst", instID, "err", err)
	}
}

// Close releases the backing store, if any.
func (t *Tracker) Close() error {
	if t.backing == nil {
		return nil
	}
	return t.backing.Close()
}
