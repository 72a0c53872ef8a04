package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kanko-labs/tabisearch/internal/domain"
)

// keySeparator joins the ordered key parts of a cache fingerprint.
const keySeparator = "|"

// ResultCache is a keyed, TTL-based store for serialized chunk lists. It is
// advisory: a miss, a backend failure, or a malformed payload never fails the
// caller — the caller falls through to live computation.
type ResultCache struct {
	store      Store
	ttl        time.Duration
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache over the given store.
// cacheTotal is a counter vec with labels ("namespace", "result"), passed explicitly.
func New(
	store Store,
	ttl time.Duration,
	prefix string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *ResultCache {
	return &ResultCache{
		store:      store,
		ttl:        ttl,
		prefix:     prefix,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Key builds a deterministic cache key from the namespace and ordered parts.
func (c *ResultCache) Key(namespace string, parts ...string) string {
	return c.prefix + ":" + namespace + ":" + strings.Join(parts, keySeparator)
}

// GetChunks returns the cached chunk list for key, if present and well-formed.
func (c *ResultCache) GetChunks(ctx context.Context, key string) ([]domain.DocumentChunk, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			c.logger.Warn("Result cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.incCache(key, "miss")
		return nil, false
	}

	var chunks []domain.DocumentChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		// Malformed payloads are treated as misses.
		c.logger.Warn("Malformed result cache payload", zap.String("key", key), zap.Error(err))
		c.incCache(key, "miss")
		return nil, false
	}

	c.incCache(key, "hit")
	return chunks, true
}

// PutChunks serializes and stores a chunk list under key with the configured TTL.
// Write failures are logged and swallowed.
func (c *ResultCache) PutChunks(ctx context.Context, key string, chunks []domain.DocumentChunk) {
	data, err := json.Marshal(chunks)
	if err != nil {
		c.logger.Warn("Failed to serialize cache payload", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Result cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *ResultCache) incCache(key, result string) {
	if c.cacheTotal == nil {
		return
	}
	c.cacheTotal.WithLabelValues(c.namespaceOf(key), result).Inc()
}

// namespaceOf extracts the namespace segment from a key built by Key.
func (c *ResultCache) namespaceOf(key string) string {
	rest := strings.TrimPrefix(key, c.prefix+":")
	if ns, _, ok := strings.Cut(rest, ":"); ok {
		return ns
	}
	return "unknown"
}
