package strategy

import (
	"sort"

	"market-screener/internal/model"
)

// TierFlow is the aggregated buy/sell notional for trades at or above Threshold
// (and below the next tier).
type TierFlow struct {
	Threshold float64 `json:"threshold"`
	Buy       float64 `json:"buy"`
	Sell      float64 `json:"sell"`
}

// FlowSummary aggregates large trades by size tier.
type FlowSummary struct {
	Tiers []TierFlow `json:"tiers"`
	Net   float64    `json:"net"`  // tier-weighted buy minus sell notional
	Bias  float64    `json:"bias"` // Net / tier-weighted gross, in [-1,1]
}

// AggregateFlow buckets trades by notional into tiers (quote-currency
// thresholds). Trades below the smallest tier are ignored. A trade in tier k
// (0-based) carries weight k+1, so the largest prints dominate the bias.
func AggregateFlow(trades []model.Trade, thresholds []float64) FlowSummary {
	tiers := append([]float64(nil), thresholds...)
	sort.Float64s(tiers)

	sum := FlowSummary{Tiers: make([]TierFlow, len(tiers))}
	for i, th := range tiers {
		sum.Tiers[i].Threshold = th
	}
	if len(tiers) == 0 {
		return sum
	}

	var gross float64
	for i := range trades {
		tr := &trades[i]
		notional := tr.Notional()
		k := tierOf(notional, tiers)
		if k < 0 {
			continue
		}
		w := float64(k + 1)
		switch tr.Side {
		case model.SideBuy:
			sum.Tiers[k].Buy += notional
			sum.Net += w * notional
		case model.SideSell:
			sum.Tiers[k].Sell += notional
			sum.Net -= w * notional
		default:
			continue
		}
		gross += w * notional
	}
	if gross > 0 {
		sum.Bias = sum.Net / gross
	}
	return sum
}

// tierOf returns the highest tier index whose threshold notional reaches, or -1.
func tierOf(notional float64, tiers []float64) int {
	k := -1
	for i, th := range tiers {
		if notional >= th {
			k = i
		}
	}
	return k
}
