// Package strategy implements the signal-confirmation pipeline of the screener.
//
// A pass over one instrument runs up to three detectors on pre-fetched series:
// an early volume/momentum anomaly (advisory, unscored), a pullback-breakout
// buy confirmation and a trend-breakdown sell. Confirmed directions are
// scored by Weights and gated by the EMA trend filter. Everything here is
// pure: no I/O, no clocks, no shared state.
package strategy

import (
	"errors"
	"time"
)

// ErrInsufficientData is returned when a series is shorter than the minimum
// window a detector needs. Callers treat it as "no evaluation possible".
var ErrInsufficientData = errors.New("strategy: insufficient data")

// Kind classifies a signal.
type Kind string

const (
	KindEarly Kind = "EARLY"
	KindBuy   Kind = "BUY"
	KindSell  Kind = "SELL"
)

// Confirmed reports whether the kind is a CONFIRMED direction (BUY or SELL).
func (k Kind) Confirmed() bool {
	return k == KindBuy || k == KindSell
}

// Metrics holds the supporting values behind a signal.
type Metrics struct {
	VolumeRatio float64 `json:"volume_ratio"`
	Momentum    float64 `json:"momentum"` // 1-bar return on the fast series
	Pullback    float64 `json:"pullback"` // negative fraction, buys only
	RSI         float64 `json:"rsi"`      // RSI on the slow series
	Drop        float64 `json:"drop"`     // 2-bar return, sells only
	FlowBias    float64 `json:"flow_bias"`
	SpikeIndex  int     `json:"spike_index"`
}

// Signal is a screening outcome for one instrument in one pass.
type Signal struct {
	InstID     string    `json:"inst_id"`
	Kind       Kind      `json:"kind"`
	Confidence int       `json:"confidence"` // 0..100, zero when unscored
	Scored     bool      `json:"scored"`
	Metrics    Metrics   `json:"metrics"`
	TS         time.Time `json:"ts"` // open time of the latest fast bar
}
