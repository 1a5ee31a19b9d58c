package strategy

import (
	"market-screener/internal/indicator"
	"market-screener/internal/model"
)

// buySetup is the pullback-breakout entry on the fast series.
type buySetup struct {
	spike    SpikeEvent
	pull     PullbackResult
	ratioNow float64
}

// Confirm evaluates the buy confirmation and the sell breakdown on the fast
// (s1) and slow (s5) series and lets the scorer pick a direction.
// flowBias is the net large-trade flow in [-1,1]; pass 0 when unknown.
//
// It returns (nil, nil) when neither direction survives and
// ErrInsufficientData when either series is below its minimum length.
func (e *Evaluator) Confirm(s1, s5 *model.Series, flowBias float64) (*Signal, error) {
	if s1.Len() < e.p.MinBarsConfirm || s5.Len() < e.p.MinBarsSlow {
		return nil, ErrInsufficientData
	}
	if s1.Len() < 3 || s5.Len() < 2 {
		return nil, ErrInsufficientData
	}

	closes := s1.Closes()
	in := e.trend(closes)
	in.RSI = indicator.Last(indicator.RSISeries(s5.Closes(), e.p.RSIPeriod))
	in.Momentum = indicator.Return(closes, 1)
	in.Drop = indicator.Return(closes, 2)
	in.FlowBias = flowBias
	in.NearSupport, in.NearResistance = Proximity(s1, e.p.LevelLookback, e.p.LevelTolerance)

	buy, buyOK := e.buy(s1, closes, in.RSI)
	if buyOK {
		in.VolumeRatio = buy.ratioNow
	}
	sellOK := e.sell(in)

	kind, score, ok := e.weights.Decide(in, buyOK, sellOK)
	if !ok {
		return nil, nil
	}

	sig := &Signal{
		InstID:     s1.InstID,
		Kind:       kind,
		Confidence: score,
		Scored:     true,
		Metrics: Metrics{
			RSI:      in.RSI,
			Momentum: in.Momentum,
			FlowBias: flowBias,
		},
		TS: s1.Last().TS,
	}
	switch kind {
	case KindBuy:
		sig.Metrics.VolumeRatio = buy.ratioNow
		sig.Metrics.Pullback = buy.pull.Pull
		sig.Metrics.SpikeIndex = buy.spike.Index
	case KindSell:
		sig.Metrics.Drop = in.Drop
	}
	return sig, nil
}

// buy runs the spike → pullback → breakout chain plus the volume and RSI gates.
// The trend gate is left to Decide.
func (e *Evaluator) buy(s1 *model.Series, closes []float64, rsi float64) (buySetup, bool) {
	var b buySetup
	spike, ok := e.anchor.Detect(s1)
	if !ok {
		return b, false
	}
	b.spike = spike

	res, ok := e.pull.Confirm(closes, spike)
	b.pull = res
	if !ok {
		return b, false
	}

	n := s1.Len()
	b.ratioNow = e.anchor.Ratios(s1.Turnovers())[n-1]
	if b.ratioNow < e.p.VRatioConf || s1.Last().Turnover < e.p.VolMinConf {
		return b, false
	}
	if rsi < e.p.RSIConfMin {
		return b, false
	}
	return b, true
}
