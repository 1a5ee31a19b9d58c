// Package metrics holds the screener's Prometheus instruments.
//
// The job is run-once, so nothing is scraped: instruments live in a private
// registry that is pushed to a Pushgateway at the end of the run.
package metrics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "screener"

// Metrics holds all Prometheus metrics for one screener process.
type Metrics struct {
	reg *prometheus.Registry

	InstrumentsScanned prometheus.Counter
	Signals            *prometheus.CounterVec // labels: kind
	Skips              *prometheus.CounterVec // labels: reason
	Failures           prometheus.Counter
	FetchDur           *prometheus.HistogramVec // labels: bar
	NotifyFailures     prometheus.Counter

	PassDuration prometheus.Gauge
	LastSuccess  prometheus.Gauge

	CooldownBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
}

// NewMetrics creates and registers every instrument on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		InstrumentsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instruments_scanned_total",
			Help:      "Instruments evaluated by the screening loop",
		}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Signals emitted, by kind",
		}, []string{"kind"}),
		Skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Instruments skipped, by reason",
		}, []string{"reason"}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Instruments whose evaluation failed unexpectedly",
		}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Candle fetch latency including retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"bar"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Failed report deliveries",
		}),
		PassDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of the last screening pass",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed pass",
		}),
		CooldownBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cooldown_breaker_state",
			Help:      "Redis cooldown store circuit breaker state",
		}),
	}

	m.reg.MustRegister(
		m.InstrumentsScanned,
		m.Signals,
		m.Skips,
		m.Failures,
		m.FetchDur,
		m.NotifyFailures,
		m.PassDuration,
		m.LastSuccess,
		m.CooldownBreakerState,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObservePass records a completed pass.
func (m *Metrics) ObservePass(d time.Duration, at time.Time) {
	m.PassDuration.Set(d.Seconds())
	m.LastSuccess.Set(float64(at.Unix()))
}

// Push sends the registry to a Pushgateway under job, grouped by instance.
// An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url, job, instance string) error {
	if url == "" {
		return nil
	}
	p := push.New(url, job).Gatherer(m.reg)
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("metrics push: %w", err)
	}
	log.Printf("[metrics] pushed to %s (job=%s)", url, job)
	return nil
}
