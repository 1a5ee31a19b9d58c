package model

import "time"

// Bar is one OHLCV candle for a single instrument.
// Turnover is the traded value in quote currency over the bar.
type Bar struct {
	TS       time.Time `json:"ts"` // bar open time (UTC)
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`   // base quantity
	Turnover float64   `json:"turnover"` // quote value
}

// Range returns (high-low)/close, guarded against a zero close.
func (b *Bar) Range() float64 {
	c := b.Close
	if c < 1e-12 {
		c = 1e-12
	}
	return (b.High - b.Low) / c
}

// Bullish reports whether the bar closed above its open.
func (b *Bar) Bullish() bool {
	return b.Close > b.Open
}

// Series is an ordered (oldest first) run of bars for one instrument at one bar size.
// It is fetched once per screening pass and never mutated afterwards.
type Series struct {
	InstID  string `json:"inst_id"`
	BarSize string `json:"bar_size"` // e.g. "1m", "5m"
	Bars    []Bar  `json:"bars"`
}

// Len returns the number of bars. A nil series has length 0.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar. Callers must check Len first.
func (s *Series) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}

// Closes returns the close prices in bar order.
func (s *Series) Closes() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.Bars[i].Close
	}
	return out
}

// Turnovers returns the quote turnover values in bar order.
func (s *Series) Turnovers() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.Bars[i].Turnover
	}
	return out
}

// Ordered reports whether timestamps are strictly increasing.
func (s *Series) Ordered() bool {
	for i := 1; i < s.Len(); i++ {
		if !s.Bars[i].TS.After(s.Bars[i-1].TS) {
			return false
		}
	}
	return true
}
