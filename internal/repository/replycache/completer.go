// Package replycache caches language model replies in a key-value store.
package replycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tplsearch/internal/db"
)

const keyPrefix = "tplsearch:reply:"

// completer is the decorated model client.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
	Model() string
}

// store is the consumer interface for the reply cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCompleter returns stored replies for prompts it has already seen.
type CachedCompleter struct {
	inner      completer
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner completer,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedCompleter {
	return &CachedCompleter{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Configured reports whether the inner client has credentials.
func (c *CachedCompleter) Configured() bool {
	return c.inner.Configured()
}

// Complete returns a cached reply or calls the inner client.
// Cache failures are logged and never fail the call; errors from the inner
// client are never cached.
func (c *CachedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(c.inner.Model(), prompt)

	if reply, ok := c.get(ctx, key); ok {
		c.incCache("hit")
		return reply, nil
	}
	c.incCache("miss")

	reply, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete prompt: %w", err)
	}

	if reply != "" {
		c.put(ctx, key, reply)
	}
	return reply, nil
}

func (c *CachedCompleter) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey scopes the prompt hash to the model so a model change never serves
// another model's replies.
func cacheKey(model, prompt string) string {
	h := sha256.Sum256([]byte(model + "\x00" + prompt))
	return keyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedCompleter) get(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached reply", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedCompleter) put(ctx context.Context, key, reply string) {
	if err := c.store.SetWithTTL(ctx, key, []byte(reply), c.ttl); err != nil {
		c.logger.Warn("Failed to cache reply", zap.String("key", key), zap.Error(err))
	}
}
