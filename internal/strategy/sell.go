package strategy

// sell is the trend-breakdown setup: weak slow-series RSI and a sharp 2-bar
// drop on the fast series. The EMA gate is applied by Decide.
func (e *Evaluator) sell(in Inputs) bool {
	if in.RSI > e.p.RSISellMax {
		return false
	}
	return in.Drop <= e.p.Drop2SellMax
}
