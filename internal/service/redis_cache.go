package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quantfolio/internal/marketdata"
	"quantfolio/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CachedProvider serves recent quotes from Redis. Cache faults fall through
// to the wrapped provider; failed fetches are never cached.
type CachedProvider struct {
	inner  marketdata.Provider
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func NewCachedProvider(inner marketdata.Provider, client *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedProvider {
	return &CachedProvider{inner: inner, client: client, ttl: ttl, log: log}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

func quoteKey(provider, symbol string) string {
	return fmt.Sprintf("quote:%s:%s", provider, symbol)
}

func (c *CachedProvider) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	key := quoteKey(c.inner.Name(), symbol)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var q models.Quote
		if err := json.Unmarshal(data, &q); err == nil {
			return q, nil
		}
		c.log.Warnf("corrupt cached quote %s, refetching", key)
	case err != redis.Nil:
		c.log.Warnf("quote cache read %s failed: %v", key, err)
	}

	q, err := c.inner.FetchQuote(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}
	if data, err := json.Marshal(q); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warnf("quote cache write %s failed: %v", key, err)
		}
	}
	return q, nil
}

// RedisSink publishes alert events as JSON on a pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Notify(ctx context.Context, ev models.AlertEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("json marshal error: %v", err)
	}
	return s.client.Publish(ctx, s.channel, data).Err()
}
