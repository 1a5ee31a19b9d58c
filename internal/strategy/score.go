package strategy

import "math"

// Weights are the point contributions of the confidence score.
// Buy:  BuyBase + BuyVolRatio*vratio + BuyMomentum*mom + BuyRSI*(rsi-BuyRSINeutral)
// Sell: SellBase + SellDrop*|drop| + SellRSI*(SellRSINeutral-rsi)
// Both add Flow*bias (sign-adjusted) and Level when price sits on the
// favourable support/resistance level. The result is clamped to [0,100].
type Weights struct {
	BuyBase       float64
	BuyVolRatio   float64
	BuyMomentum   float64
	BuyRSI        float64
	BuyRSINeutral float64

	SellBase       float64
	SellDrop       float64
	SellRSI        float64
	SellRSINeutral float64

	Flow  float64 // points per unit of flow bias in [-1,1]
	Level float64 // points for sitting at support (buy) / resistance (sell)
}

// DefaultWeights returns the default score shape.
func DefaultWeights() Weights {
	return Weights{
		BuyBase:       15,
		BuyVolRatio:   16,
		BuyMomentum:   100,
		BuyRSI:        3,
		BuyRSINeutral: 50,

		SellBase:       15,
		SellDrop:       120,
		SellRSI:        2,
		SellRSINeutral: 45,

		Flow:  10,
		Level: 5,
	}
}

// Inputs is the metric set available at confirmation time.
type Inputs struct {
	VolumeRatio float64
	Momentum    float64
	Drop        float64
	RSI         float64

	FastEMA float64
	SlowEMA float64

	FlowBias       float64 // net large-trade flow in [-1,1], positive = buyers
	NearSupport    bool
	NearResistance bool
}

// TrendUp reports whether the fast EMA is above the slow EMA.
func (in Inputs) TrendUp() bool { return in.FastEMA > in.SlowEMA }

// TrendDown reports whether the fast EMA is below the slow EMA.
func (in Inputs) TrendDown() bool { return in.FastEMA < in.SlowEMA }

// BuyScore returns the buy-leaning confidence.
func (w Weights) BuyScore(in Inputs) int {
	raw := w.BuyBase +
		w.BuyVolRatio*in.VolumeRatio +
		w.BuyMomentum*in.Momentum +
		w.BuyRSI*(in.RSI-w.BuyRSINeutral) +
		w.Flow*in.FlowBias
	if in.NearSupport {
		raw += w.Level
	}
	return Clamp(raw)
}

// SellScore returns the sell-leaning confidence.
func (w Weights) SellScore(in Inputs) int {
	raw := w.SellBase +
		w.SellDrop*math.Abs(in.Drop) +
		w.SellRSI*(w.SellRSINeutral-in.RSI) -
		w.Flow*in.FlowBias
	if in.NearResistance {
		raw += w.Level
	}
	return Clamp(raw)
}

// Decide picks a direction among the setups that fired.
//
// The trend filter is a veto, not a score term: a buy needs TrendUp and a
// sell needs TrendDown regardless of the scores. When both survive, the
// higher score wins and ties go to the buy side.
func (w Weights) Decide(in Inputs, buySetup, sellSetup bool) (kind Kind, score int, ok bool) {
	buyOK := buySetup && in.TrendUp()
	sellOK := sellSetup && in.TrendDown()

	switch {
	case buyOK && sellOK:
		b, s := w.BuyScore(in), w.SellScore(in)
		if s > b {
			return KindSell, s, true
		}
		return KindBuy, b, true
	case buyOK:
		return KindBuy, w.BuyScore(in), true
	case sellOK:
		return KindSell, w.SellScore(in), true
	}
	return "", 0, false
}

// Clamp truncates raw to an integer in [0,100].
func Clamp(raw float64) int {
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	if raw >= 100 {
		return 100
	}
	return int(raw)
}
