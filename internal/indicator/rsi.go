package indicator

import "strconv"

// RSI calculates the Relative Strength Index using Wilder's smoothing,
// expressed as an exponential average with alpha = 1/period over gains and
// losses. The averages are seeded by the first price change.
// Update is O(1) per value, no history scans.
type RSI struct {
	period  int
	count   int
	prev    float64
	gain    *EMA
	loss    *EMA
	current float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	if period < 1 {
		period = 1
	}
	alpha := 1.0 / float64(period)
	return &RSI{
		period:  period,
		gain:    NewEMAAlpha(alpha),
		loss:    NewEMAAlpha(alpha),
		current: 50,
	}
}

func (r *RSI) Name() string { return "RSI_" + strconv.Itoa(r.period) }

func (r *RSI) Update(v float64) {
	r.count++
	if r.count == 1 {
		// First value: no delta yet
		r.prev = v
		r.current = 50
		return
	}

	up, dn := split(v - r.prev)
	r.prev = v
	r.gain.Update(up)
	r.loss.Update(dn)
	r.current = rsiValue(r.gain.Value(), r.loss.Value())
}

func (r *RSI) Value() float64 { return r.current }
func (r *RSI) Ready() bool    { return r.count > r.period }

// Peek computes what RSI would be with v fed next, without mutating state.
func (r *RSI) Peek(v float64) float64 {
	if r.count == 0 {
		return 50
	}
	up, dn := split(v - r.prev)
	return rsiValue(r.gain.Peek(up), r.loss.Peek(dn))
}

// RSISeries returns the RSI of x for the given period, aligned to x.
func RSISeries(x []float64, period int) []float64 {
	return Apply(NewRSI(period), x)
}

func split(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

// rsiValue maps smoothed gain/loss to [0,100]. With no movement at all
// (both averages zero) RSI is neutral.
func rsiValue(gain, loss float64) float64 {
	if gain == 0 && loss == 0 {
		return 50
	}
	rs := gain / (loss + Epsilon)
	return 100.0 - (100.0 / (1.0 + rs))
}
