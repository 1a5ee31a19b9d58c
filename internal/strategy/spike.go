package strategy

import (
	"market-screener/internal/indicator"
	"market-screener/internal/model"
)

// SpikeEvent tags a bar whose turnover jumped above its lagged baseline.
type SpikeEvent struct {
	Index int     `json:"index"`
	Ratio float64 `json:"ratio"` // turnover / EMA baseline of the previous bar
}

// SpikeDetector scans the last Lookback bars for a turnover spike.
//
// ratio[i] = turnover[i] / baseline[i-1], where baseline is EMA(turnover, Window).
// The baseline is lagged one bar so a spike never dilutes its own reference.
// A bar qualifies when turnover >= Floor and ratio >= MinRatio. The most recent
// bar must also pass the volatility brake: (H-L)/C <= VolatMax.
type SpikeDetector struct {
	Window   int
	Lookback int
	Floor    float64
	MinRatio float64
	VolatMax float64 // <= 0 disables the brake
	Anchor   AnchorPolicy
}

// Ratios returns ratio[i] for every bar, aligned to turnover.
// ratio[0] has no lagged baseline and is 0.
func (d SpikeDetector) Ratios(turnover []float64) []float64 {
	out := make([]float64, len(turnover))
	if len(turnover) == 0 {
		return out
	}
	base := indicator.EMASeries(turnover, d.Window)
	for i := 1; i < len(turnover); i++ {
		out[i] = turnover[i] / (base[i-1] + indicator.Epsilon)
	}
	return out
}

// Brake reports whether the latest bar is too erratic to trust.
func (d SpikeDetector) Brake(s *model.Series) bool {
	if d.VolatMax <= 0 || s.Len() == 0 {
		return false
	}
	last := s.Last()
	return last.Range() > d.VolatMax
}

// Detect returns the anchor spike, or ok=false when no bar qualifies,
// the series is too short or the volatility brake trips.
func (d SpikeDetector) Detect(s *model.Series) (ev SpikeEvent, ok bool) {
	n := s.Len()
	lookback := d.Lookback
	if lookback < 1 {
		lookback = 1
	}
	if n < lookback+1 {
		return SpikeEvent{}, false
	}
	if d.Brake(s) {
		return SpikeEvent{}, false
	}

	turnover := s.Turnovers()
	ratios := d.Ratios(turnover)

	for i := n - lookback; i < n; i++ {
		if turnover[i] < d.Floor || ratios[i] < d.MinRatio {
			continue
		}
		cand := SpikeEvent{Index: i, Ratio: ratios[i]}
		if !ok || d.Anchor == AnchorLatest {
			ev, ok = cand, true
		}
	}
	return ev, ok
}
