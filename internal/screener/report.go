package screener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"market-screener/internal/logger"
	"market-screener/internal/notification"
	"market-screener/internal/strategy"
)

const timeLayout = "2006-01-02 15:04 UTC"

// Format renders the report as Telegram Markdown. Each section keeps at most
// maxCoins lines; maxCoins <= 0 means no limit.
func Format(r *Report, maxCoins int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧭 *OKX Spot 1m/5m Scan*\n⏱ %s\nScanned: %d coins", r.Started.UTC().Format(timeLayout), r.Scanned)

	if len(r.Early) > 0 {
		b.WriteString("\n\n⏳ *Early warnings* (not trade signals)")
		for _, s := range limit(r.Early, maxCoins) {
			fmt.Fprintf(&b, "\n- %s | ⚠️ Early | vRatio:%.2f | Δ1m:%.2f%%",
				notification.EscapeMarkdown(s.InstID), s.Metrics.VolumeRatio, s.Metrics.Momentum*100)
		}
	}
	if len(r.Buys) > 0 {
		b.WriteString("\n\n📈 *Confirmed BUY signals*")
		for _, s := range limit(r.Buys, maxCoins) {
			fmt.Fprintf(&b, "\n- %s | 🟢 BUY | vRatio:%.2f | Pull:%.2f%% | RSI5:%.1f | Conf:%d%s",
				notification.EscapeMarkdown(s.InstID), s.Metrics.VolumeRatio, s.Metrics.Pullback*100,
				s.Metrics.RSI, s.Confidence, flowSuffix(s))
		}
	}
	if len(r.Sells) > 0 {
		b.WriteString("\n\n📉 *SELL signals* (cautious)")
		for _, s := range limit(r.Sells, maxCoins) {
			fmt.Fprintf(&b, "\n- %s | 🔴 SELL | Δ2m:%.2f%% | RSI5:%.1f | Conf:%d%s",
				notification.EscapeMarkdown(s.InstID), s.Metrics.Drop*100, s.Metrics.RSI, s.Confidence, flowSuffix(s))
		}
	}
	return b.String()
}

func flowSuffix(s strategy.Signal) string {
	if s.Metrics.FlowBias == 0 {
		return ""
	}
	return fmt.Sprintf(" | Flow:%+.2f", s.Metrics.FlowBias)
}

func limit(s []strategy.Signal, n int) []strategy.Signal {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// Publish sends the formatted report. An empty report is logged and nothing
// is sent. Delivery errors are returned for the caller to log.
//
// A cancelled ctx does not stop delivery: an interrupted pass still reports
// what it scanned, bounded by Config.PublishTimeout.
func (s *Screener) Publish(ctx context.Context, n notification.Notifier, r *Report, maxCoins int) error {
	log := logger.FromContext(ctx, s.log)
	if r.Empty() {
		log.Info("no signal (silent)", "scanned", r.Scanned)
		return nil
	}

	alert := notification.Alert{
		Level:   notification.AlertInfo,
		Message: Format(r, maxCoins),
		PassID:  r.PassID,
		Fields: map[string]any{
			"scanned": r.Scanned,
			"early":   len(r.Early),
			"buys":    len(r.Buys),
			"sells":   len(r.Sells),
		},
	}
	timeout := s.cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := n.Send(sendCtx, alert); err != nil {
		if s.metrics != nil {
			s.metrics.NotifyFailures.Inc()
		}
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}
