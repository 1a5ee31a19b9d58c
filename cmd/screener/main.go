package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-screener/config"
	"market-screener/internal/cooldown"
	"market-screener/internal/logger"
	"market-screener/internal/metrics"
	"market-screener/internal/model"
	"market-screener/internal/notification"
	"market-screener/internal/screener"
	"market-screener/internal/store/redis"
	"market-screener/internal/store/sqlite"
	"market-screener/internal/strategy"
	"market-screener/internal/universe"
	"market-screener/pkg/coingecko"
	"market-screener/pkg/okx"
)

func main() {
	os.Exit(run())
}

// run executes one screening pass. Silence is success; only setup failures
// and an empty universe return non-zero.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("[screener] config: %v", err)
		return 1
	}
	lg := logger.Init("screener", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	passID := logger.NewPassID()
	ctx = logger.WithPassID(ctx, passID)
	lg = logger.FromContext(ctx, lg)

	m := metrics.NewMetrics()
	defer func() {
		pushCtx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pcancel()
		hostname, _ := os.Hostname()
		if err := m.Push(pushCtx, cfg.PushgatewayURL, "screener", hostname); err != nil {
			lg.Warn("metrics push failed", "err", err)
		}
	}()

	notifier := buildNotifier(cfg)
	okxClient := okx.New(okx.Config{BaseURL: cfg.OKXBase})

	resolver := &universe.Resolver{
		Ranker:  coingecko.New(cfg.CoinGeckoBase, nil),
		Tickers: okxClient,
		TopN:    cfg.TopN,
		Quotes:  cfg.Quotes,
		Log:     lg,
	}
	insts, err := resolver.Resolve(ctx)
	if err != nil {
		lg.Error("universe resolution failed", "err", err)
		msg := fmt.Sprintf("⛔ %s: no OKX match for the TOP%d ranking.", time.Now().UTC().Format("2006-01-02 15:04 UTC"), cfg.TopN)
		if !errors.Is(err, universe.ErrEmpty) {
			msg = fmt.Sprintf("⛔ %s: universe unavailable (%v).", time.Now().UTC().Format("2006-01-02 15:04 UTC"), err)
		}
		if nerr := notifier.Send(ctx, notification.Alert{Level: notification.AlertCritical, Message: msg, PassID: passID}); nerr != nil {
			lg.Warn("notify failed", "err", nerr)
		}
		return 1
	}

	tracker, err := buildTracker(ctx, cfg, m, lg)
	if err != nil {
		lg.Error("cooldown store init failed", "backend", cfg.CooldownBackend, "err", err)
		return 1
	}
	defer tracker.Close()

	scfg := screener.DefaultConfig()
	scfg.ThrottleEvery = cfg.ThrottleEvery
	scfg.ThrottlePause = cfg.ThrottlePause
	scfg.FlowEnabled = cfg.FlowEnabled
	scfg.FlowTiers = cfg.FlowTiers

	sc := screener.New(scfg, okxClient, strategy.NewEvaluator(cfg.StrategyParams()), tracker,
		screener.WithTrades(okxClient),
		screener.WithMetrics(m),
		screener.WithLogger(lg),
	)

	rep := sc.Run(ctx, insts)
	m.ObservePass(rep.Finished.Sub(rep.Started), rep.Finished)

	if err := sc.Publish(ctx, notifier, rep, cfg.MaxMsgCoins); err != nil {
		lg.Warn("report delivery failed", "err", err)
	}
	return 0
}

func buildNotifier(cfg *config.Config) notification.Notifier {
	var out notification.Multi
	if cfg.TelegramToken != "" && cfg.ChatID != "" {
		out = append(out, notification.NewTelegramNotifier(cfg.TelegramToken, cfg.ChatID))
	}
	if cfg.WebhookURL != "" {
		out = append(out, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if len(out) == 0 {
		return notification.NewLogNotifier()
	}
	return out
}

func buildTracker(ctx context.Context, cfg *config.Config, m *metrics.Metrics, lg *slog.Logger) (*cooldown.Tracker, error) {
	var store model.CooldownStore
	switch cfg.CooldownBackend {
	case "", "memory":
	case "redis":
		st, err := redis.Dial(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			TTL:      cfg.Cooldown,
		})
		if err != nil {
			return nil, err
		}
		prev := st.Breaker().OnStateChange
		st.Breaker().OnStateChange = func(from, to redis.State) {
			if prev != nil {
				prev(from, to)
			}
			m.CooldownBreakerState.Set(float64(to))
		}
		store = st
	case "sqlite":
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if n, err := st.Prune(ctx, time.Now().Add(-cfg.Cooldown)); err != nil {
			lg.Warn("cooldown prune failed", "err", err)
		} else if n > 0 {
			lg.Debug("cooldown entries pruned", "count", n)
		}
		store = st
	default:
		return nil, fmt.Errorf("unknown COOLDOWN_BACKEND %q", cfg.CooldownBackend)
	}

	opts := []cooldown.Option{cooldown.WithLogger(lg)}
	if store != nil {
		opts = append(opts, cooldown.WithStore(store))
	}
	return cooldown.NewTracker(cfg.Cooldown, opts...), nil
}
