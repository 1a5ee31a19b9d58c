// Package config loads the screener's flat set of named thresholds.
//
// Precedence: environment > YAML overlay (SCREENER_CONFIG) > default.
// A .env file in the working directory is loaded into the environment first
// without overriding variables that are already set.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"market-screener/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	// Notification
	TelegramToken string
	ChatID        string
	WebhookURL    string

	// Upstreams
	OKXBase       string
	CoinGeckoBase string

	// Universe
	TopN   int
	Quotes []string

	// Thresholds
	VolMinEarly  float64
	VRatioEarly  float64
	Mom1mMin     float64
	VolMinConf   float64
	VRatioConf   float64
	SpikeVolMin  float64
	PullbackMin  float64
	PullbackMax  float64
	RSI5ConfMin  float64
	RSI5SellMax  float64
	Drop2SellMax float64
	VolatMax     float64
	AnchorPolicy string

	// Support/resistance proximity
	LevelWeight   float64
	LevelLookback int
	LevelTol      float64

	// Cooldown
	Cooldown        time.Duration
	CooldownBackend string // memory | redis | sqlite
	RedisAddr       string
	RedisPassword   string
	SQLitePath      string

	// Loop
	MaxMsgCoins   int
	ThrottleEvery int
	ThrottlePause time.Duration

	// Large-trade flow
	FlowEnabled bool
	FlowTiers   []float64

	PushgatewayURL string
	LogLevel       string
}

// Load reads .env, the optional YAML overlay and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	overlay, err := readOverlay(os.Getenv("SCREENER_CONFIG"))
	if err != nil {
		return nil, err
	}
	return build(source{overlay: overlay, lookup: os.LookupEnv}), nil
}

func build(s source) *Config {
	return &Config{
		TelegramToken: s.getString("TELEGRAM_TOKEN", ""),
		ChatID:        s.getString("CHAT_ID", ""),
		WebhookURL:    s.getString("WEBHOOK_URL", ""),

		OKXBase:       s.getString("OKX_BASE", "https://www.okx.com"),
		CoinGeckoBase: s.getString("COINGECKO_BASE", "https://api.coingecko.com/api/v3"),

		TopN:   s.getInt("TOP_N_COINS", 100),
		Quotes: s.getList("QUOTES", "USDT,USD"),

		VolMinEarly:  s.getFloat("VOL_MIN_EARLY", 500_000),
		VRatioEarly:  s.getFloat("VRATIO_EARLY", 2.6),
		Mom1mMin:     s.getFloat("MOM_1M_MIN", 0.0040),
		VolMinConf:   s.getFloat("VOL_MIN_CONF", 800_000),
		VRatioConf:   s.getFloat("VRATIO_CONF", 3.2),
		SpikeVolMin:  s.getFloat("SPIKE_VOL_MIN", 0),
		PullbackMin:  s.getFloat("PULLBACK_MIN", 0.0020),
		PullbackMax:  s.getFloat("PULLBACK_MAX", 0.0075),
		RSI5ConfMin:  s.getFloat("RSI5_CONF_MIN", 54),
		RSI5SellMax:  s.getFloat("RSI5_SELL_MAX", 45),
		Drop2SellMax: s.getFloat("DROP2_SELL_MAX", -0.012),
		VolatMax:     s.getFloat("VOLAT_MAX", 0.0070),
		AnchorPolicy: s.getString("ANCHOR_POLICY", string(strategy.AnchorEarliest)),

		LevelWeight:   s.getFloat("LEVEL_WEIGHT", 5),
		LevelLookback: s.getInt("LEVEL_LOOKBACK", 30),
		LevelTol:      s.getFloat("LEVEL_TOL", 0.0015),

		Cooldown:        time.Duration(s.getInt("COOLDOWN_MIN", 15)) * time.Minute,
		CooldownBackend: strings.ToLower(s.getString("COOLDOWN_BACKEND", "memory")),
		RedisAddr:       s.getString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   s.getString("REDIS_PASSWORD", ""),
		SQLitePath:      s.getString("SQLITE_PATH", "data/screener.db"),

		MaxMsgCoins:   s.getInt("MAX_MSG_COINS", 12),
		ThrottleEvery: s.getInt("THROTTLE_EVERY", 12),
		ThrottlePause: time.Duration(s.getInt("THROTTLE_PAUSE_MS", 250)) * time.Millisecond,

		FlowEnabled: s.getBool("FLOW_ENABLED", false),
		FlowTiers:   s.getFloats("FLOW_TIERS", "50000,250000"),

		PushgatewayURL: s.getString("PUSHGATEWAY_URL", ""),
		LogLevel:       s.getString("LOG_LEVEL", "info"),
	}
}

// StrategyParams maps the thresholds onto detector parameters. Fields that
// are not configurable keep their defaults.
func (c *Config) StrategyParams() strategy.Params {
	p := strategy.DefaultParams()
	p.VolMinEarly = c.VolMinEarly
	p.VRatioEarly = c.VRatioEarly
	p.Mom1mMin = c.Mom1mMin
	p.VolMinConf = c.VolMinConf
	p.VRatioConf = c.VRatioConf
	p.SpikeFloor = c.SpikeVolMin
	p.PullbackMin = c.PullbackMin
	p.PullbackMax = c.PullbackMax
	p.RSIConfMin = c.RSI5ConfMin
	p.RSISellMax = c.RSI5SellMax
	p.Drop2SellMax = c.Drop2SellMax
	p.VolatMax = c.VolatMax
	p.Anchor = strategy.ParseAnchorPolicy(c.AnchorPolicy)
	p.Weights.Level = c.LevelWeight
	p.LevelLookback = c.LevelLookback
	p.LevelTolerance = c.LevelTol
	return p
}

// readOverlay parses a flat YAML map keyed by the environment variable names.
func readOverlay(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		switch t := v.(type) {
		case nil:
		case []any:
			parts := make([]string, len(t))
			for i, p := range t {
				parts[i] = fmt.Sprint(p)
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(t)
		}
	}
	return out, nil
}

type source struct {
	overlay map[string]string
	lookup  func(string) (string, bool)
}

func (s source) raw(key string) (string, bool) {
	if s.lookup != nil {
		if v, ok := s.lookup(key); ok && v != "" {
			return v, true
		}
	}
	v, ok := s.overlay[key]
	return v, ok && v != ""
}

func (s source) getString(key, fallback string) string {
	if v, ok := s.raw(key); ok {
		return v
	}
	return fallback
}

func (s source) getInt(key string, fallback int) int {
	v, ok := s.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func (s source) getFloat(key string, fallback float64) float64 {
	v, ok := s.raw(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func (s source) getBool(key string, fallback bool) bool {
	v, ok := s.raw(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func (s source) getList(key, fallback string) []string {
	parts := strings.Split(s.getString(key, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s source) getFloats(key, fallback string) []float64 {
	parts := strings.Split(s.getString(key, fallback), ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f <= 0 {
			log.Printf("[config] skipping invalid %s value: %q", key, p)
			continue
		}
		out = append(out, f)
	}
	return out
}
