package strategy

import "market-screener/internal/indicator"

// Pullback confirms the spike → retracement → breakout structure.
//
// Given an anchor spike, "since" is every close strictly after the anchor and
// strictly before the current bar. The retracement pull = min(since)/spikeClose - 1
// must satisfy Min <= -pull <= Max (both bounds inclusive), and the current
// close must break above max(since).
type Pullback struct {
	Min float64 // shallowest accepted retracement, as a positive fraction
	Max float64 // deepest accepted retracement
}

// PullbackResult describes the measured retracement.
type PullbackResult struct {
	Pull     float64 `json:"pull"` // negative for a dip
	SinceMin float64 `json:"since_min"`
	SinceMax float64 `json:"since_max"`
	InBand   bool    `json:"in_band"`
	Breakout bool    `json:"breakout"`
}

// Measure computes the retracement after the anchor without applying the gates.
// ok is false when there are no bars between the anchor and the current bar.
func (p Pullback) Measure(closes []float64, spike SpikeEvent) (res PullbackResult, ok bool) {
	n := len(closes)
	if spike.Index < 0 || spike.Index >= n-1 {
		return res, false
	}
	since := closes[spike.Index+1 : n-1]
	if len(since) == 0 {
		return res, false
	}
	spikeClose := closes[spike.Index]
	if spikeClose <= 0 {
		return res, false
	}

	res.SinceMin = indicator.Min(since)
	res.SinceMax = indicator.Max(since)
	res.Pull = res.SinceMin/spikeClose - 1.0
	depth := -res.Pull
	res.InBand = p.Min <= depth && depth <= p.Max
	res.Breakout = closes[n-1] > res.SinceMax
	return res, true
}

// Confirm reports whether the retracement is in band and followed by a breakout.
func (p Pullback) Confirm(closes []float64, spike SpikeEvent) (PullbackResult, bool) {
	res, ok := p.Measure(closes, spike)
	if !ok {
		return res, false
	}
	return res, res.InBand && res.Breakout
}
