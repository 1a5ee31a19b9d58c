package strategy

import (
	"market-screener/internal/indicator"
	"market-screener/internal/model"
)

// Evaluator runs the detectors with one parameter set. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	p       Params
	early   SpikeDetector
	anchor  SpikeDetector
	pull    Pullback
	weights Weights
}

// NewEvaluator builds an evaluator from p.
func NewEvaluator(p Params) *Evaluator {
	return &Evaluator{
		p: p,
		early: SpikeDetector{
			Window:   p.BaselineSpan,
			Lookback: 1,
			Floor:    p.VolMinEarly,
			MinRatio: p.VRatioEarly,
			VolatMax: p.VolatMax,
			Anchor:   AnchorLatest,
		},
		anchor: SpikeDetector{
			Window:   p.BaselineSpan,
			Lookback: p.SpikeLookback,
			Floor:    p.SpikeFloor,
			MinRatio: p.VRatioEarly,
			VolatMax: p.VolatMax,
			Anchor:   p.Anchor,
		},
		pull:    Pullback{Min: p.PullbackMin, Max: p.PullbackMax},
		weights: p.Weights,
	}
}

// Params returns the thresholds the evaluator was built with.
func (e *Evaluator) Params() Params { return e.p }

// Early checks the fast series for the advisory volume/momentum anomaly:
// a turnover spike on the latest bar, 1-bar momentum above Mom1mMin, a bullish
// candle and fast EMA above slow EMA.
//
// It returns (nil, nil) when nothing fires and ErrInsufficientData when the
// series is shorter than MinBarsEarly.
func (e *Evaluator) Early(s1 *model.Series) (*Signal, error) {
	if s1.Len() < e.p.MinBarsEarly || s1.Len() < 2 {
		return nil, ErrInsufficientData
	}
	spike, ok := e.early.Detect(s1)
	if !ok {
		return nil, nil
	}

	closes := s1.Closes()
	mom := indicator.Return(closes, 1)
	if mom < e.p.Mom1mMin {
		return nil, nil
	}
	last := s1.Last()
	if !last.Bullish() {
		return nil, nil
	}
	if !e.trend(closes).TrendUp() {
		return nil, nil
	}

	return &Signal{
		InstID: s1.InstID,
		Kind:   KindEarly,
		Metrics: Metrics{
			VolumeRatio: spike.Ratio,
			Momentum:    mom,
			SpikeIndex:  spike.Index,
		},
		TS: last.TS,
	}, nil
}

// trend returns Inputs with only the EMA pair filled in.
func (e *Evaluator) trend(closes []float64) Inputs {
	return Inputs{
		FastEMA: indicator.Last(indicator.EMASeries(closes, e.p.FastEMA)),
		SlowEMA: indicator.Last(indicator.EMASeries(closes, e.p.SlowEMA)),
	}
}
