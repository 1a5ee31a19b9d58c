package strategy

import (
	"math"

	"market-screener/internal/model"
)

// Levels returns the support (lowest low) and resistance (highest high) of the
// lookback bars preceding the current one.
func Levels(s *model.Series, lookback int) (support, resistance float64, ok bool) {
	n := s.Len()
	if lookback < 1 || n < lookback+1 {
		return 0, 0, false
	}
	support = math.Inf(1)
	resistance = math.Inf(-1)
	for _, b := range s.Bars[n-1-lookback : n-1] {
		support = math.Min(support, b.Low)
		resistance = math.Max(resistance, b.High)
	}
	return support, resistance, true
}

// Proximity reports whether the latest close sits within tol (fraction of
// price) of the support or resistance level.
func Proximity(s *model.Series, lookback int, tol float64) (nearSupport, nearResistance bool) {
	support, resistance, ok := Levels(s, lookback)
	if !ok || tol <= 0 {
		return false, false
	}
	c := s.Last().Close
	if support > 0 {
		nearSupport = math.Abs(c/support-1) <= tol
	}
	if resistance > 0 {
		nearResistance = math.Abs(c/resistance-1) <= tol
	}
	return nearSupport, nearResistance
}
