package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const keyPrefix = "screener:cooldown:"

// Config configures the Redis cooldown store.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // key expiry, normally the cooldown window

	MaxFailures  int           // breaker threshold, default 3
	ResetTimeout time.Duration // breaker reset, default 30s
}

// CooldownStore keeps the last alert time per instrument as unix seconds under
// screener:cooldown:<instID>. Keys expire after TTL, so an expired key and a
// never-alerted instrument look the same. Every call goes through a
// CircuitBreaker.
type CooldownStore struct {
	client  *goredis.Client
	ttl     time.Duration
	breaker *CircuitBreaker
}

// Dial connects and pings the server.
func Dial(ctx context.Context, cfg Config) (*CooldownStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return NewCooldownStore(client, cfg), nil
}

// NewCooldownStore wraps an existing client without pinging it.
func NewCooldownStore(client *goredis.Client, cfg Config) *CooldownStore {
	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 3
	}
	reset := cfg.ResetTimeout
	if reset <= 0 {
		reset = 30 * time.Second
	}
	cb := NewCircuitBreaker(maxFailures, reset)
	cb.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
	}
	return &CooldownStore{client: client, ttl: cfg.TTL, breaker: cb}
}

// Key returns the Redis key for instID.
func Key(instID string) string { return keyPrefix + instID }

// Breaker exposes the circuit breaker for health reporting.
func (s *CooldownStore) Breaker() *CircuitBreaker { return s.breaker }

func (s *CooldownStore) LastAlert(ctx context.Context, instID string) (time.Time, bool, error) {
	var raw string
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		v, err := s.client.Get(ctx, Key(instID)).Result()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		raw = v
		return err
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get cooldown %s: %w", instID, err)
	}
	if raw == "" {
		return time.Time{}, false, nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis parse cooldown %s: %w", instID, err)
	}
	return time.Unix(sec, 0).UTC(), true, nil
}

func (s *CooldownStore) SaveAlert(ctx context.Context, instID string, t time.Time) error {
	err := s.breaker.Do(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, Key(instID), t.Unix(), s.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set cooldown %s: %w", instID, err)
	}
	return nil
}

func (s *CooldownStore) Close() error { return s.client.Close() }
