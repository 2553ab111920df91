// Package redis caches the latest bars and analysis results so API reads
// and restarts do not hammer the market data provider. Every write also
// publishes on a pub/sub channel for live subscribers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"stock-advisor/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultBarsTTL   = 30 * time.Minute
	defaultResultTTL = 30 * time.Minute
)

// Config configures the Redis cache.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Cache is a thin latest-value cache over Redis.
type Cache struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// New creates a Cache and pings the server.
func New(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Cache{client: client}, nil
}

func barsKey(symbol string) string   { return "bars:latest:" + symbol }
func resultKey(symbol string) string { return "signal:latest:" + symbol }

// ResultChannel is the pub/sub channel carrying analysis results for a symbol.
func ResultChannel(symbol string) string { return "pub:signal:" + symbol }

// SetBars caches the latest bar window for a symbol.
func (c *Cache) SetBars(ctx context.Context, symbol string, bars []model.Bar) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("marshal bars: %w", err)
	}
	if err := c.client.Set(ctx, barsKey(symbol), data, defaultBarsTTL).Err(); err != nil {
		return fmt.Errorf("redis set bars: %w", err)
	}
	return nil
}

// Bars returns the cached bar window for a symbol, or nil on a cache miss.
func (c *Cache) Bars(ctx context.Context, symbol string) ([]model.Bar, error) {
	data, err := c.client.Get(ctx, barsKey(symbol)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get bars: %w", err)
	}
	var bars []model.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("unmarshal bars: %w", err)
	}
	return bars, nil
}

// SetResult caches the latest analysis result for a symbol and publishes it
// on the symbol's channel in the same pipeline.
func (c *Cache) SetResult(ctx context.Context, symbol string, res *model.AggregatedResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, resultKey(symbol), data, defaultResultTTL)
	pipe.Publish(ctx, ResultChannel(symbol), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set result: %w", err)
	}
	return nil
}

// Result returns the cached analysis result for a symbol, or nil on a miss.
func (c *Cache) Result(ctx context.Context, symbol string) (*model.AggregatedResult, error) {
	data, err := c.client.Get(ctx, resultKey(symbol)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get result: %w", err)
	}
	var res model.AggregatedResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &res, nil
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
