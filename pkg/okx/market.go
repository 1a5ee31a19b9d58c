package okx

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"market-screener/internal/model"
)

// Candles returns up to limit bars of size bar ("1m", "5m", ...), oldest first.
// OKX rows are [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm], newest
// first. Turnover is taken from volCcy.
func (c *Client) Candles(ctx context.Context, instID, bar string, limit int) ([]model.Bar, error) {
	params := url.Values{}
	params.Set("instId", instID)
	params.Set("bar", bar)
	params.Set("limit", strconv.Itoa(limit))

	data, err := c.get(ctx, "/api/v5/market/candles", params)
	if err != nil {
		return nil, fmt.Errorf("okx: candles %s %s: %w", instID, bar, err)
	}

	rows := data.Array()
	bars := make([]model.Bar, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		f := rows[i].Array()
		if len(f) < 7 {
			return nil, fmt.Errorf("okx: candles %s: %w: row has %d fields", instID, ErrDecode, len(f))
		}
		ms := f[0].Int()
		if ms <= 0 {
			return nil, fmt.Errorf("okx: candles %s: %w: bad ts %q", instID, ErrDecode, f[0].String())
		}
		bars = append(bars, model.Bar{
			TS:       time.UnixMilli(ms).UTC(),
			Open:     f[1].Float(),
			High:     f[2].Float(),
			Low:      f[3].Float(),
			Close:    f[4].Float(),
			Volume:   f[5].Float(),
			Turnover: f[6].Float(),
		})
	}
	return bars, nil
}

// Ticker is the 24h summary of one instrument.
type Ticker struct {
	InstID    string
	Last      float64
	Vol24h    float64 // base
	VolCcy24h float64 // quote
}

// Tickers returns every ticker of instType ("SPOT", "SWAP", ...).
func (c *Client) Tickers(ctx context.Context, instType string) ([]Ticker, error) {
	params := url.Values{}
	params.Set("instType", instType)

	data, err := c.get(ctx, "/api/v5/market/tickers", params)
	if err != nil {
		return nil, fmt.Errorf("okx: tickers %s: %w", instType, err)
	}

	out := make([]Ticker, 0, len(data.Array()))
	data.ForEach(func(_, t gjson.Result) bool {
		id := t.Get("instId").String()
		if id == "" {
			return true
		}
		out = append(out, Ticker{
			InstID:    id,
			Last:      t.Get("last").Float(),
			Vol24h:    t.Get("vol24h").Float(),
			VolCcy24h: t.Get("volCcy24h").Float(),
		})
		return true
	})
	return out, nil
}

// Trades returns up to limit of the most recent public trades, newest first.
func (c *Client) Trades(ctx context.Context, instID string, limit int) ([]model.Trade, error) {
	params := url.Values{}
	params.Set("instId", instID)
	params.Set("limit", strconv.Itoa(limit))

	data, err := c.get(ctx, "/api/v5/market/trades", params)
	if err != nil {
		return nil, fmt.Errorf("okx: trades %s: %w", instID, err)
	}

	var out []model.Trade
	data.ForEach(func(_, t gjson.Result) bool {
		out = append(out, model.Trade{
			InstID: instID,
			Side:   model.Side(t.Get("side").String()),
			Price:  t.Get("px").Float(),
			Size:   t.Get("sz").Float(),
			TS:     time.UnixMilli(t.Get("ts").Int()).UTC(),
		})
		return true
	})
	return out, nil
}
