// Package universe maps a market-cap ranking of base assets to tradable OKX
// spot instruments.
package universe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"market-screener/internal/model"
	"market-screener/pkg/okx"
)

// ErrEmpty is returned when no ranked base has a spot listing.
var ErrEmpty = errors.New("universe: no instruments resolved")

// BaseRanker returns base symbols in rank order.
type BaseRanker interface {
	TopBases(ctx context.Context, n int) ([]string, error)
}

// TickerSource lists venue tickers.
type TickerSource interface {
	Tickers(ctx context.Context, instType string) ([]okx.Ticker, error)
}

// Resolver combines a ranking with the venue's spot listings.
type Resolver struct {
	Ranker  BaseRanker
	Tickers TickerSource
	TopN    int
	Quotes  []string // quote priority, e.g. USDT then USD
	Log     *slog.Logger
}

// Resolve returns the instruments to scan, in rank order.
func (r *Resolver) Resolve(ctx context.Context) ([]model.Instrument, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	bases, err := r.Ranker.TopBases(ctx, r.TopN)
	if err != nil {
		return nil, fmt.Errorf("universe: ranking: %w", err)
	}
	tickers, err := r.Tickers.Tickers(ctx, "SPOT")
	if err != nil {
		return nil, fmt.Errorf("universe: tickers: %w", err)
	}

	out := Select(bases, Listings(tickers), r.Quotes)
	log.Info("universe resolved", "ranked", len(bases), "listings", len(tickers), "selected", len(out))
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Listings converts tickers to instruments, dropping ids without a BASE-QUOTE shape.
func Listings(tickers []okx.Ticker) []model.Instrument {
	out := make([]model.Instrument, 0, len(tickers))
	for _, t := range tickers {
		base, quote, ok := model.ParseInstID(t.InstID)
		if !ok || base == "" || quote == "" {
			continue
		}
		out = append(out, model.Instrument{InstID: t.InstID, Base: base, Quote: quote, VolCcy24h: t.VolCcy24h})
	}
	return out
}

// Select picks one listing per ranked base. Among a base's listings the first
// quote in quotes wins; within a quote, and as the fallback when no preferred
// quote is listed, the highest 24h volume wins. Bases without listings are
// skipped and duplicate bases are kept once.
func Select(bases []string, listings []model.Instrument, quotes []string) []model.Instrument {
	byBase := make(map[string][]model.Instrument)
	for _, l := range listings {
		byBase[l.Base] = append(byBase[l.Base], l)
	}
	for _, li := range byBase {
		sort.SliceStable(li, func(i, j int) bool { return li[i].VolCcy24h > li[j].VolCcy24h })
	}

	seen := make(map[string]bool, len(bases))
	var out []model.Instrument
	for _, b := range bases {
		b = strings.ToUpper(strings.TrimSpace(b))
		if seen[b] {
			continue
		}
		seen[b] = true
		li := byBase[b]
		if len(li) == 0 {
			continue
		}
		out = append(out, pick(li, quotes))
	}
	return out
}

// pick expects li sorted by volume descending.
func pick(li []model.Instrument, quotes []string) model.Instrument {
	for _, q := range quotes {
		q = strings.ToUpper(strings.TrimSpace(q))
		for _, l := range li {
			if l.Quote == q {
				return l
			}
		}
	}
	return li[0]
}
