package indicator

import "strconv"

// EMA calculates an Exponential Moving Average with weight 2/(span+1).
// The first value seeds the average directly (no SMA warmup), so the output
// has the same length as the input from the very first bar.
// O(1) per update.
type EMA struct {
	span    int
	alpha   float64
	current float64
	count   int
}

// NewEMA creates a new EMA indicator with the given span.
func NewEMA(span int) *EMA {
	if span < 1 {
		span = 1
	}
	return &EMA{
		span:  span,
		alpha: 2.0 / float64(span+1),
	}
}

// NewEMAAlpha creates an EMA with an explicit smoothing weight.
// Used by RSI for Wilder smoothing (alpha = 1/period).
func NewEMAAlpha(alpha float64) *EMA {
	return &EMA{span: 0, alpha: alpha}
}

func (e *EMA) Name() string { return "EMA_" + strconv.Itoa(e.span) }

func (e *EMA) Update(v float64) {
	e.count++
	if e.count == 1 {
		e.current = v
		return
	}
	// EMA = (v * alpha) + (EMA_prev * (1 - alpha))
	e.current = e.alpha*v + (1-e.alpha)*e.current
}

func (e *EMA) Value() float64 { return e.current }
func (e *EMA) Ready() bool    { return e.count >= e.span }

// Peek computes what Value() would be with v fed next, without mutating state.
func (e *EMA) Peek(v float64) float64 {
	if e.count == 0 {
		return v
	}
	return e.alpha*v + (1-e.alpha)*e.current
}

// EMASeries returns the EMA of x for the given span, aligned to x.
func EMASeries(x []float64, span int) []float64 {
	return Apply(NewEMA(span), x)
}
