package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-screener/internal/model"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// flatBar returns a zero-range bar.
func flatBar(i int, px, turnover float64) model.Bar {
	return model.Bar{
		TS:       t0.Add(time.Duration(i) * time.Minute),
		Open:     px,
		High:     px,
		Low:      px,
		Close:    px,
		Volume:   turnover / px,
		Turnover: turnover,
	}
}

func seriesOf(id, bar string, bars []model.Bar) *model.Series {
	return &model.Series{InstID: id, BarSize: bar, Bars: bars}
}

func trendSeries(id, bar string, n int, start, step, turnover float64) *model.Series {
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = flatBar(i, start+step*float64(i), turnover)
	}
	return seriesOf(id, bar, bars)
}

// buySeries builds a 50-bar uptrend with a spike at index 47, a 0.40% dip on
// bar 48 and a high-turnover breakout on bar 49.
func buySeries() *model.Series {
	s := trendSeries("BTC-USDT", "1m", 47, 100, 0.02, 100_000)
	spike := flatBar(47, 101.5, 500_000)
	dip := flatBar(48, 101.5*(1-0.004), 100_000)
	brk := model.Bar{
		TS:       t0.Add(49 * time.Minute),
		Open:     dip.Close,
		High:     101.6,
		Low:      dip.Close,
		Close:    101.6,
		Turnover: 1_000_000,
	}
	s.Bars = append(s.Bars, spike, dip, brk)
	return s
}

// ── Spike detector ──

func TestSpike_ConstantTurnoverRatioIsOne(t *testing.T) {
	s := trendSeries("ETH-USDT", "1m", 40, 100, 0, 250_000)
	d := SpikeDetector{Window: 15, Lookback: 3, MinRatio: 2.6}

	ratios := d.Ratios(s.Turnovers())
	for i := 1; i < len(ratios); i++ {
		assert.InDelta(t, 1.0, ratios[i], 1e-9, "ratio[%d]", i)
	}
	_, ok := d.Detect(s)
	assert.False(t, ok, "flat turnover must not spike")
}

func TestSpike_AnchorPolicy(t *testing.T) {
	s := trendSeries("SOL-USDT", "1m", 20, 100, 0, 1000)
	n := s.Len()
	s.Bars[n-3].Turnover = 5000
	s.Bars[n-1].Turnover = 5000

	d := SpikeDetector{Window: 15, Lookback: 3, MinRatio: 2.6, Anchor: AnchorEarliest}
	ev, ok := d.Detect(s)
	require.True(t, ok)
	assert.Equal(t, n-3, ev.Index)
	assert.InDelta(t, 5.0, ev.Ratio, 1e-9)

	// alpha = 2/16; base[n-3] = 1500, base[n-2] = 1437.5
	d.Anchor = AnchorLatest
	ev, ok = d.Detect(s)
	require.True(t, ok)
	assert.Equal(t, n-1, ev.Index)
	assert.InDelta(t, 5000/1437.5, ev.Ratio, 1e-9)
}

func TestSpike_FloorAndBrake(t *testing.T) {
	s := trendSeries("XRP-USDT", "1m", 20, 1, 0, 1000)
	s.Bars[19].Turnover = 5000

	d := SpikeDetector{Window: 15, Lookback: 1, MinRatio: 2.6, Floor: 10_000}
	_, ok := d.Detect(s)
	assert.False(t, ok, "below floor")

	d.Floor = 0
	_, ok = d.Detect(s)
	assert.True(t, ok)

	s.Bars[19].High = 1.01
	s.Bars[19].Low = 0.99
	d.VolatMax = 0.007
	assert.True(t, d.Brake(s))
	_, ok = d.Detect(s)
	assert.False(t, ok, "volatility brake")
}

func TestSpike_ShortSeries(t *testing.T) {
	d := SpikeDetector{Window: 15, Lookback: 3, MinRatio: 2.6}
	for n := 0; n <= 3; n++ {
		s := trendSeries("ADA-USDT", "1m", n, 1, 0, 1000)
		_, ok := d.Detect(s)
		assert.False(t, ok, "n=%d", n)
	}
	var nilSeries *model.Series
	_, ok := d.Detect(nilSeries)
	assert.False(t, ok)
}

// ── Pullback confirmer ──

func TestPullback_DeepDipRejected(t *testing.T) {
	closes := []float64{100, 100.5, 101, 100.3, 100.1, 100.6}
	p := Pullback{Min: 0.0020, Max: 0.0075}

	res, ok := p.Confirm(closes, SpikeEvent{Index: 2, Ratio: 3.0})
	assert.False(t, ok)
	assert.InDelta(t, 100.1/101-1, res.Pull, 1e-12)
	assert.InDelta(t, -0.0089, res.Pull, 1e-4)
	assert.False(t, res.InBand)
}

func TestPullback_ShallowDipConfirmed(t *testing.T) {
	closes := []float64{100, 100.5, 101, 100.6, 100.9}
	p := Pullback{Min: 0.0020, Max: 0.0075}

	res, ok := p.Confirm(closes, SpikeEvent{Index: 2, Ratio: 3.0})
	require.True(t, ok)
	assert.InDelta(t, -0.00396, res.Pull, 1e-5)
	assert.True(t, res.InBand)
	assert.True(t, res.Breakout)
	assert.Equal(t, 100.6, res.SinceMax)
}

func TestPullback_BandInclusive(t *testing.T) {
	closes := []float64{100, 101, 100.5, 101.2}
	spike := SpikeEvent{Index: 1}
	// float64 arithmetic, as Measure does it
	spikeClose, minClose := closes[1], closes[2]
	pull := minClose/spikeClose - 1
	eps := 1e-9

	cases := []struct {
		name string
		p    Pullback
		want bool
	}{
		{"min boundary", Pullback{Min: -pull, Max: 0.01}, true},
		{"max boundary", Pullback{Min: 0.001, Max: -pull}, true},
		{"below min", Pullback{Min: -pull + eps, Max: 0.01}, false},
		{"above max", Pullback{Min: 0.001, Max: -pull - eps}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := tc.p.Confirm(closes, spike)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestPullback_DetectedAnchor(t *testing.T) {
	cases := []struct {
		name   string
		closes []float64
		want   bool
	}{
		{"deep dip", []float64{100, 100.5, 101, 100.3, 100.1, 100.6}, false},
		{"shallow dip", []float64{100, 100.5, 101, 100.6, 100.9}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// turnover triples on bar 2 against a flat 1000 baseline
			bars := make([]model.Bar, len(tc.closes))
			for i, c := range tc.closes {
				bars[i] = flatBar(i, c, 1000)
			}
			bars[2].Turnover = 3000
			s := seriesOf("BTC-USDT", "1m", bars)

			d := SpikeDetector{Window: 15, Lookback: len(bars) - 2, MinRatio: 2.6}
			ev, ok := d.Detect(s)
			require.True(t, ok)
			assert.Equal(t, 2, ev.Index)
			assert.InDelta(t, 3.0, ev.Ratio, 1e-9)

			_, ok = Pullback{Min: 0.0020, Max: 0.0075}.Confirm(s.Closes(), ev)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestPullback_NoBarsSinceSpike(t *testing.T) {
	p := Pullback{Min: 0.002, Max: 0.0075}
	closes := []float64{100, 101, 100.8}

	_, ok := p.Confirm(closes, SpikeEvent{Index: 1})
	assert.False(t, ok, "spike on the previous bar leaves nothing to measure")
	_, ok = p.Confirm(closes, SpikeEvent{Index: 2})
	assert.False(t, ok, "spike on the current bar")
	_, ok = p.Confirm(closes, SpikeEvent{Index: -1})
	assert.False(t, ok)
}

func TestPullback_NoBreakout(t *testing.T) {
	closes := []float64{100, 101, 100.6, 100.7, 100.65}
	_, ok := Pullback{Min: 0.002, Max: 0.0075}.Confirm(closes, SpikeEvent{Index: 1})
	assert.False(t, ok)
}

// ── Scorer ──

func TestScore_DefaultShape(t *testing.T) {
	w := DefaultWeights()

	// 15 + 16*3.3 + 100*0.005 + 3*(56-50) = 86.3
	assert.Equal(t, 86, w.BuyScore(Inputs{VolumeRatio: 3.3, Momentum: 0.005, RSI: 56}))
	// 15 + 120*0.015 + 2*(45-40) = 26.8
	assert.Equal(t, 26, w.SellScore(Inputs{Drop: -0.015, RSI: 40}))
}

func TestScore_Clamped(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 100, w.BuyScore(Inputs{VolumeRatio: 12, Momentum: 0.02, RSI: 80}))
	assert.Equal(t, 0, w.SellScore(Inputs{Drop: 0, RSI: 95}))
	assert.Equal(t, 0, w.BuyScore(Inputs{RSI: 0}))

	assert.Equal(t, 0, Clamp(-3))
	assert.Equal(t, 100, Clamp(250))
	assert.Equal(t, 42, Clamp(42.99))
}

func TestScore_FlowAndLevelTerms(t *testing.T) {
	w := DefaultWeights()
	w.Level = 5
	base := Inputs{VolumeRatio: 3, Momentum: 0, RSI: 50}

	assert.Equal(t, 63, w.BuyScore(base))
	withFlow := base
	withFlow.FlowBias = 0.5
	assert.Equal(t, 68, w.BuyScore(withFlow))
	withFlow.NearSupport = true
	assert.Equal(t, 73, w.BuyScore(withFlow))

	sell := Inputs{Drop: -0.02, RSI: 40, FlowBias: -1, NearResistance: true}
	// 15 + 2.4 + 10 + 10 + 5
	assert.Equal(t, 42, w.SellScore(sell))
}

func TestDecide_TrendVeto(t *testing.T) {
	w := DefaultWeights()
	up := Inputs{FastEMA: 101, SlowEMA: 100, VolumeRatio: 3, RSI: 60}
	down := Inputs{FastEMA: 99, SlowEMA: 100, Drop: -0.02, RSI: 30}

	kind, score, ok := w.Decide(up, true, false)
	require.True(t, ok)
	assert.Equal(t, KindBuy, kind)
	assert.Equal(t, w.BuyScore(up), score)

	_, _, ok = w.Decide(down, true, false)
	assert.False(t, ok, "buy vetoed in a downtrend")

	_, _, ok = w.Decide(up, false, true)
	assert.False(t, ok, "sell vetoed in an uptrend")

	kind, _, ok = w.Decide(down, false, true)
	require.True(t, ok)
	assert.Equal(t, KindSell, kind)

	flat := Inputs{FastEMA: 100, SlowEMA: 100}
	_, _, ok = w.Decide(flat, true, true)
	assert.False(t, ok, "equal EMAs veto both sides")
}

// ── Flow and levels ──

func TestAggregateFlow(t *testing.T) {
	trades := []model.Trade{
		{Side: model.SideBuy, Price: 100, Size: 1000},  // 100k, tier 0
		{Side: model.SideSell, Price: 100, Size: 3000}, // 300k, tier 1
		{Side: model.SideBuy, Price: 100, Size: 100},   // 10k, ignored
	}
	sum := AggregateFlow(trades, []float64{250_000, 50_000})

	require.Len(t, sum.Tiers, 2)
	assert.Equal(t, 50_000.0, sum.Tiers[0].Threshold)
	assert.Equal(t, 100_000.0, sum.Tiers[0].Buy)
	assert.Equal(t, 300_000.0, sum.Tiers[1].Sell)
	assert.InDelta(t, -500_000, sum.Net, 1e-6)
	assert.InDelta(t, -5.0/7.0, sum.Bias, 1e-9)

	empty := AggregateFlow(nil, []float64{50_000})
	assert.Zero(t, empty.Bias)
	assert.Zero(t, AggregateFlow(trades, nil).Bias)
}

func TestLevels(t *testing.T) {
	s := trendSeries("BTC-USDT", "1m", 10, 100, 0, 1000)
	s.Bars[3].Low = 99
	s.Bars[6].High = 102
	s.Bars[9].Close = 99.05

	sup, res, ok := Levels(s, 9)
	require.True(t, ok)
	assert.Equal(t, 99.0, sup)
	assert.Equal(t, 102.0, res)

	nearSup, nearRes := Proximity(s, 9, 0.001)
	assert.True(t, nearSup)
	assert.False(t, nearRes)

	_, _, ok = Levels(s, 10)
	assert.False(t, ok)
}

// ── Evaluator ──

func earlySeries() *model.Series {
	s := trendSeries("BTC-USDT", "1m", 59, 100, 0.05, 100_000)
	prev := s.Bars[58].Close
	s.Bars = append(s.Bars, model.Bar{
		TS:       t0.Add(59 * time.Minute),
		Open:     prev,
		High:     prev * 1.005,
		Low:      prev,
		Close:    prev * 1.005,
		Turnover: 1_000_000,
	})
	return s
}

func TestEvaluator_Early(t *testing.T) {
	e := NewEvaluator(DefaultParams())

	sig, err := e.Early(earlySeries())
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, KindEarly, sig.Kind)
	assert.False(t, sig.Scored)
	assert.Zero(t, sig.Confidence)
	assert.InDelta(t, 10.0, sig.Metrics.VolumeRatio, 1e-9)
	assert.InDelta(t, 0.005, sig.Metrics.Momentum, 1e-9)
}

func TestEvaluator_EarlyRejects(t *testing.T) {
	e := NewEvaluator(DefaultParams())

	bearish := earlySeries()
	last := &bearish.Bars[len(bearish.Bars)-1]
	last.Open = last.Close + 0.01
	last.High = last.Open
	sig, err := e.Early(bearish)
	require.NoError(t, err)
	assert.Nil(t, sig)

	thin := earlySeries()
	thin.Bars[len(thin.Bars)-1].Turnover = 400_000
	sig, err = e.Early(thin)
	require.NoError(t, err)
	assert.Nil(t, sig, "turnover below the early floor")

	_, err = e.Early(trendSeries("BTC-USDT", "1m", 39, 100, 0.05, 100_000))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEvaluator_ConfirmBuy(t *testing.T) {
	e := NewEvaluator(DefaultParams())
	s5 := trendSeries("BTC-USDT", "5m", 30, 100, 0.1, 1_000_000)

	sig, err := e.Confirm(buySeries(), s5, 0)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, KindBuy, sig.Kind)
	assert.True(t, sig.Scored)
	assert.Equal(t, 47, sig.Metrics.SpikeIndex)
	assert.InDelta(t, -0.004, sig.Metrics.Pullback, 1e-9)
	// base[48] = 150k - 0.125*50k
	assert.InDelta(t, 1_000_000/143_750.0, sig.Metrics.VolumeRatio, 1e-6)
	assert.InDelta(t, 100, sig.Metrics.RSI, 1e-6)
	assert.Equal(t, 100, sig.Confidence)
}

func TestEvaluator_ConfirmBuyNearSupport(t *testing.T) {
	s5 := trendSeries("BTC-USDT", "5m", 30, 100, 0.1, 1_000_000)
	p := DefaultParams()
	p.Weights = Weights{BuyBase: 15, BuyMomentum: 100, Level: 8}
	// support over bars 47..48 is the dip low 101.094, 0.50% under the breakout close
	p.LevelLookback = 2

	p.LevelTolerance = 0.001
	far, err := NewEvaluator(p).Confirm(buySeries(), s5, 0)
	require.NoError(t, err)
	require.NotNil(t, far)

	p.LevelTolerance = 0.006
	near, err := NewEvaluator(p).Confirm(buySeries(), s5, 0)
	require.NoError(t, err)
	require.NotNil(t, near)

	// 15 + 100*0.005 (+8 at support)
	assert.Equal(t, 15, far.Confidence)
	assert.Equal(t, 23, near.Confidence)
}

func TestEvaluator_ConfirmBuyGates(t *testing.T) {
	e := NewEvaluator(DefaultParams())
	s5 := trendSeries("BTC-USDT", "5m", 30, 100, 0.1, 1_000_000)

	weak := buySeries()
	weak.Bars[49].Turnover = 700_000
	sig, err := e.Confirm(weak, s5, 0)
	require.NoError(t, err)
	assert.Nil(t, sig, "turnover below confirmation floor")

	falling := trendSeries("BTC-USDT", "5m", 30, 100, -0.1, 1_000_000)
	sig, err = e.Confirm(buySeries(), falling, 0)
	require.NoError(t, err)
	assert.Nil(t, sig, "slow RSI below confirmation minimum")

	_, err = e.Confirm(buySeries(), trendSeries("BTC-USDT", "5m", 19, 100, 0.1, 1), 0)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = e.Confirm(trendSeries("BTC-USDT", "1m", 49, 100, 0.1, 1), s5, 0)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEvaluator_ConfirmSell(t *testing.T) {
	e := NewEvaluator(DefaultParams())
	s1 := trendSeries("DOGE-USDT", "1m", 48, 200, -0.1, 100_000)
	c := s1.Bars[47].Close
	s1.Bars = append(s1.Bars, flatBar(48, c*0.995, 100_000), flatBar(49, c*0.985, 100_000))
	s5 := trendSeries("DOGE-USDT", "5m", 30, 200, -0.5, 1_000_000)

	sig, err := e.Confirm(s1, s5, 0)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, KindSell, sig.Kind)
	assert.InDelta(t, -0.015, sig.Metrics.Drop, 1e-9)
	assert.InDelta(t, 0, sig.Metrics.RSI, 1e-6)
	assert.Equal(t, 100, sig.Confidence)
}

func TestEvaluator_SellNeedsDrop(t *testing.T) {
	e := NewEvaluator(DefaultParams())
	s1 := trendSeries("DOGE-USDT", "1m", 50, 200, -0.1, 100_000)
	s5 := trendSeries("DOGE-USDT", "5m", 30, 200, -0.5, 1_000_000)

	sig, err := e.Confirm(s1, s5, 0)
	require.NoError(t, err)
	assert.Nil(t, sig)
}
