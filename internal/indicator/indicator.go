// Package indicator provides technical indicator calculations over numeric series.
//
// Each indicator exists in two forms: a streaming struct fed one value at a
// time (Update/Value/Ready/Peek) and a slice function that returns a series
// aligned to its input. The slice functions are built on the streaming forms,
// so both agree exactly. Nothing here returns an error; degenerate inputs are
// guarded with Epsilon.
package indicator

// Epsilon guards divisions against zero denominators.
const Epsilon = 1e-12

// Indicator is the interface for streaming indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "EMA_20", "RSI_14").
	Name() string

	// Update feeds the next value and recalculates.
	Update(v float64)

	// Value returns the current calculated value.
	Value() float64

	// Ready returns true once at least one full period has been observed.
	Ready() bool

	// Peek computes what Value() would be if v were fed next,
	// WITHOUT mutating internal state.
	Peek(v float64) float64
}

// Apply feeds every value of x through ind and collects Value() after each step.
func Apply(ind Indicator, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		ind.Update(v)
		out[i] = ind.Value()
	}
	return out
}

// Last returns the final element of x, or 0 when x is empty.
func Last(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return x[len(x)-1]
}

// At returns x[len(x)+k] for negative k (At(x, -1) is the last element),
// mirroring offset-from-end access. Out of range yields 0.
func At(x []float64, k int) float64 {
	i := len(x) + k
	if i < 0 || i >= len(x) {
		return 0
	}
	return x[i]
}
