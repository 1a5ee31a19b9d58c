// Package screener runs one sequential pass of the signal pipeline over an
// instrument universe.
//
// Per instrument: fetch the fast series, check the early anomaly, fetch the
// slow series, check the cooldown, then run the buy/sell confirmation. Any
// failure stays local to its instrument and is reported as a Result.
package screener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"market-screener/internal/cooldown"
	"market-screener/internal/logger"
	"market-screener/internal/metrics"
	"market-screener/internal/model"
	"market-screener/internal/strategy"
)

// Config controls fetch sizes and pacing.
type Config struct {
	FastBar   string
	FastLimit int
	SlowBar   string
	SlowLimit int

	ThrottleEvery int           // pause after every N instruments, 0 disables
	ThrottlePause time.Duration // pause length

	FlowEnabled bool
	FlowTiers   []float64
	TradeLimit  int

	PublishTimeout time.Duration // report delivery budget, independent of the pass context
}

// DefaultConfig returns 1m×60 / 5m×50 with a 250ms pause every 12 instruments.
func DefaultConfig() Config {
	return Config{
		FastBar:       "1m",
		FastLimit:     60,
		SlowBar:       "5m",
		SlowLimit:     50,
		ThrottleEvery: 12,
		ThrottlePause: 250 * time.Millisecond,
		FlowTiers:     []float64{50_000, 250_000},
		TradeLimit:    100,

		PublishTimeout: 30 * time.Second,
	}
}

// Screener wires the pipeline. It is not safe for concurrent Run calls.
type Screener struct {
	cfg      Config
	series   model.SeriesProvider
	trades   model.TradeProvider
	eval     *strategy.Evaluator
	cooldown *cooldown.Tracker
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Screener.
type Option func(*Screener)

// WithTrades enables the large-trade flow input when cfg.FlowEnabled is set.
func WithTrades(p model.TradeProvider) Option { return func(s *Screener) { s.trades = p } }

// WithMetrics records counters and fetch latencies.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Screener) { s.metrics = m } }

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option { return func(s *Screener) { s.log = l } }

// WithClock overrides the wall clock used for cooldowns and report times.
func WithClock(now func() time.Time) Option { return func(s *Screener) { s.now = now } }

// WithSleep overrides the throttle pause.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(s *Screener) { s.sleep = fn }
}

// New returns a screener. tracker owns the cooldown state for this invocation.
func New(cfg Config, series model.SeriesProvider, eval *strategy.Evaluator, tracker *cooldown.Tracker, opts ...Option) *Screener {
	s := &Screener{
		cfg:      cfg,
		series:   series,
		eval:     eval,
		cooldown: tracker,
		log:      slog.Default(),
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run evaluates every instrument once, in order. It stops early only when ctx
// is cancelled; the returned report covers the instruments already scanned.
func (s *Screener) Run(ctx context.Context, universe []model.Instrument) *Report {
	passID := logger.PassID(ctx)
	if passID == "" {
		passID = logger.NewPassID()
		ctx = logger.WithPassID(ctx, passID)
	}
	log := logger.FromContext(ctx, s.log)

	rep := &Report{PassID: passID, Started: s.now()}
	log.Info("pass started", "instruments", len(universe))

	for i, inst := range universe {
		if ctx.Err() != nil {
			log.Warn("pass cancelled", "scanned", rep.Scanned)
			break
		}

		res := s.evaluate(ctx, inst.InstID)
		rep.Scanned++
		rep.add(res)
		s.observe(log, res)

		if s.cfg.ThrottleEvery > 0 && (i+1)%s.cfg.ThrottleEvery == 0 && i+1 < len(universe) {
			if err := s.sleep(ctx, s.cfg.ThrottlePause); err != nil {
				log.Warn("pass cancelled", "scanned", rep.Scanned)
				break
			}
		}
	}

	rep.rank()
	rep.Finished = s.now()
	log.Info("pass finished",
		"scanned", rep.Scanned,
		"early", len(rep.Early),
		"buys", len(rep.Buys),
		"sells", len(rep.Sells),
		"skipped", rep.Count(StateSkipped),
		"failed", rep.Count(StateFailed),
		"duration", rep.Finished.Sub(rep.Started).String(),
	)
	return rep
}

// evaluate runs the pipeline for one instrument. Panics become FAILED results.
func (s *Screener) evaluate(ctx context.Context, instID string) (res Result) {
	res.InstID = instID
	defer func() {
		if r := recover(); r != nil {
			res = Result{InstID: instID, State: StateFailed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	s1, err := s.fetch(ctx, instID, s.cfg.FastBar, s.cfg.FastLimit)
	if err != nil {
		return Result{InstID: instID, State: StateSkipped, Skip: SkipFetch, Err: err}
	}

	early, err := s.eval.Early(s1)
	if err != nil && !errors.Is(err, strategy.ErrInsufficientData) {
		return Result{InstID: instID, State: StateFailed, Err: err}
	}

	// advisory outcome if confirmation cannot proceed
	fallback := func(reason SkipReason, cause error) Result {
		if early != nil {
			return Result{InstID: instID, State: StateEarly, Signal: early}
		}
		if reason == "" {
			return Result{InstID: instID, State: StateNoSignal}
		}
		return Result{InstID: instID, State: StateSkipped, Skip: reason, Err: cause}
	}

	if s1.Len() < s.eval.Params().MinBarsConfirm {
		return fallback(SkipInsufficient, strategy.ErrInsufficientData)
	}

	s5, err := s.fetch(ctx, instID, s.cfg.SlowBar, s.cfg.SlowLimit)
	if err != nil {
		return fallback(SkipFetch, err)
	}

	now := s.now()
	if !s.cooldown.Allow(ctx, instID, now) {
		return fallback(SkipCooldown, nil)
	}

	sig, err := s.eval.Confirm(s1, s5, s.flowBias(ctx, instID))
	switch {
	case errors.Is(err, strategy.ErrInsufficientData):
		return fallback(SkipInsufficient, err)
	case err != nil:
		return Result{InstID: instID, State: StateFailed, Err: err}
	case sig == nil:
		return fallback("", nil)
	}

	s.cooldown.Record(ctx, instID, now)
	return Result{InstID: instID, State: StateConfirmed, Signal: sig}
}

func (s *Screener) fetch(ctx context.Context, instID, bar string, limit int) (*model.Series, error) {
	start := time.Now()
	bars, err := s.series.Candles(ctx, instID, bar, limit)
	if s.metrics != nil {
		s.metrics.FetchDur.WithLabelValues(bar).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %s: no bars", instID, bar)
	}
	series := &model.Series{InstID: instID, BarSize: bar, Bars: bars}
	if !series.Ordered() {
		return nil, fmt.Errorf("%s %s: bar timestamps not strictly increasing", instID, bar)
	}
	return series, nil
}

// flowBias returns the tier-weighted trade imbalance, or 0 when disabled or
// unavailable.
func (s *Screener) flowBias(ctx context.Context, instID string) float64 {
	if !s.cfg.FlowEnabled || s.trades == nil {
		return 0
	}
	trades, err := s.trades.Trades(ctx, instID, s.cfg.TradeLimit)
	if err != nil {
		logger.FromContext(ctx, s.log).Debug("trades unavailable", "inst", instID, "err", err)
		return 0
	}
	return strategy.AggregateFlow(trades, s.cfg.FlowTiers).Bias
}

func (s *Screener) observe(log *slog.Logger, res Result) {
	switch res.State {
	case StateSkipped:
		log.Debug("instrument skipped", "inst", res.InstID, "reason", res.Skip, "err", res.Err)
	case StateFailed:
		log.Error("instrument failed", "inst", res.InstID, "err", res.Err)
	case StateEarly, StateConfirmed:
		log.Info("signal", "inst", res.InstID, "kind", res.Signal.Kind, "confidence", res.Signal.Confidence)
	}

	if s.metrics == nil {
		return
	}
	s.metrics.InstrumentsScanned.Inc()
	switch res.State {
	case StateSkipped:
		s.metrics.Skips.WithLabelValues(string(res.Skip)).Inc()
	case StateFailed:
		s.metrics.Failures.Inc()
	case StateEarly, StateConfirmed:
		s.metrics.Signals.WithLabelValues(string(res.Signal.Kind)).Inc()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
