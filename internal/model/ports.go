package model

import (
	"context"
	"time"
)

// ── Port Interfaces ──
// These interfaces decouple the screening pipeline from the concrete venue
// clients and storage backends. Each implementation satisfies one of them.

// SeriesProvider fetches candle history for an instrument.
type SeriesProvider interface {
	// Candles returns up to limit bars of the given size, ordered oldest first.
	// A non-nil error means the data is missing for this pass.
	Candles(ctx context.Context, instID, bar string, limit int) ([]Bar, error)
}

// TradeProvider fetches recent public trades for an instrument.
type TradeProvider interface {
	// Trades returns up to limit of the most recent trades, newest first.
	Trades(ctx context.Context, instID string, limit int) ([]Trade, error)
}

// CooldownStore persists the last alert time per instrument.
type CooldownStore interface {
	// LastAlert returns the stored alert time. ok is false when none is stored.
	LastAlert(ctx context.Context, instID string) (last time.Time, ok bool, err error)

	// SaveAlert stores t as the last alert time, overwriting any prior value.
	SaveAlert(ctx context.Context, instID string, t time.Time) error

	// Close releases underlying resources.
	Close() error
}
