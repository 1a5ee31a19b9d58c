// Package coingecko fetches the market-cap ranking used to build the universe.
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// ErrDecode is returned when /coins/markets does not return a JSON array.
var ErrDecode = errors.New("coingecko: decode")

// Client is a minimal CoinGecko REST client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	delay      time.Duration
}

// New returns a client for baseURL (DefaultBaseURL when empty).
// hc may be nil.
func New(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 12 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		attempts:   3,
		delay:      250 * time.Millisecond,
	}
}

// TopBases returns the upper-cased symbols of the top n coins by market cap,
// in rank order. CoinGecko caps per_page at 250.
func (c *Client) TopBases(ctx context.Context, n int) ([]string, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(n))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	u := c.baseURL + "/coins/markets?" + params.Encode()

	var body []byte
	op := func() error {
		b, err := c.do(ctx, u)
		if err != nil {
			return err
		}
		body = b
		return nil
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.delay), uint64(c.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("coingecko: markets: %w", err)
	}

	res := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !res.IsArray() {
		return nil, fmt.Errorf("coingecko: markets: %w", ErrDecode)
	}
	var bases []string
	res.ForEach(func(_, row gjson.Result) bool {
		if sym := strings.ToUpper(row.Get("symbol").String()); sym != "" {
			bases = append(bases, sym)
		}
		return true
	})
	return bases, nil
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}
