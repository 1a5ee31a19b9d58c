// Package okx is a small client for the public OKX v5 market-data REST API.
//
// Only unauthenticated endpoints are used: candles, tickers and trades.
// Every response is an envelope {"code":"0","msg":"","data":[...]}; any other
// code is an API error. Requests are retried with a short constant backoff.
package okx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://www.okx.com"

var (
	// ErrAPI is returned when the envelope code is not "0".
	ErrAPI = errors.New("okx: api error")
	// ErrDecode is returned when a response body is not the expected JSON.
	ErrDecode = errors.New("okx: decode")
)

// Config configures the client.
type Config struct {
	BaseURL    string        // default https://www.okx.com
	Timeout    time.Duration // per request, default 12s
	Attempts   int           // total tries per request, default 3
	RetryDelay time.Duration // pause between tries, default 250ms
	HTTPClient *http.Client  // optional, overrides Timeout
}

// Client talks to the OKX public REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	delay      time.Duration
}

// New returns a client with defaults filled in.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 250 * time.Millisecond
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
		attempts:   cfg.Attempts,
		delay:      cfg.RetryDelay,
	}
}

// get fetches path and returns the envelope's data array.
func (c *Client) get(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var data gjson.Result
	op := func() error {
		body, err := c.do(ctx, u)
		if err != nil {
			return err
		}
		if !gjson.ValidBytes(body) {
			return backoff.Permanent(fmt.Errorf("%w: invalid json", ErrDecode))
		}
		env := gjson.ParseBytes(body)
		if code := env.Get("code").String(); code != "0" {
			return fmt.Errorf("%w: code=%s msg=%s", ErrAPI, code, env.Get("msg").String())
		}
		data = env.Get("data")
		if !data.IsArray() {
			return backoff.Permanent(fmt.Errorf("%w: data is not an array", ErrDecode))
		}
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.delay), uint64(c.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		return gjson.Result{}, err
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("okx: build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("okx: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("okx: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("okx: status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
