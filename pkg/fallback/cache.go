// Package fallback caches produced fallback artifacts keyed by
// (platformTag, contentId). Artifacts never expire; only Clear removes them.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/metrics"
	"network-orchestrator-be/pkg/store"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

var ErrProduction = errors.New("fallback production failed")

// DefaultProduceTimeout bounds a shared production independently of the
// callers waiting on it.
const DefaultProduceTimeout = 60 * time.Second

// Producer is the generative content pipeline.
type Producer interface {
	Produce(ctx context.Context, platformTag, contentID string, positionSeconds float64) (json.RawMessage, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, platformTag, contentID string, positionSeconds float64) (json.RawMessage, error)

func (f ProducerFunc) Produce(ctx context.Context, platformTag, contentID string, positionSeconds float64) (json.RawMessage, error) {
	return f(ctx, platformTag, contentID, positionSeconds)
}

// Archive is a secondary, shared copy of artifacts consulted on a memory
// miss. Load returns store.ErrNotFound for unknown keys.
type Archive interface {
	Load(ctx context.Context, platformTag, contentID string) (entity.FallbackArtifact, error)
	Save(ctx context.Context, artifact entity.FallbackArtifact) error
}

type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

type Cache struct {
	mem      *cache.Cache
	kv       store.Store
	archive  Archive
	producer Producer
	group    singleflight.Group
	logger   logger.ILogger
	metrics  *metrics.Metrics
	now      func() time.Time

	produceTimeout time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache wires the cache. archive may be nil.
func NewCache(kv store.Store, archive Archive, producer Producer, log logger.ILogger, m *metrics.Metrics) *Cache {
	return &Cache{
		mem:      cache.New(cache.NoExpiration, 0),
		kv:       kv,
		archive:  archive,
		producer: producer,
		logger:   log,
		metrics:  m,
		now:      time.Now,

		produceTimeout: DefaultProduceTimeout,
	}
}

func memKey(platformTag, contentID string) string {
	return platformTag + ":" + contentID
}

func (c *Cache) Get(platformTag, contentID string) (entity.FallbackArtifact, bool) {
	if x, found := c.mem.Get(memKey(platformTag, contentID)); found {
		return x.(entity.FallbackArtifact), true
	}
	return entity.FallbackArtifact{}, false
}

// Put stores payload as the artifact for the key, replacing any previous one.
func (c *Cache) Put(ctx context.Context, platformTag, contentID string, payload json.RawMessage) (entity.FallbackArtifact, error) {
	artifact := entity.FallbackArtifact{
		PlatformTag: platformTag,
		ContentID:   contentID,
		Payload:     payload,
		CachedAt:    c.now(),
	}
	return artifact, c.store(ctx, artifact)
}

// GetOrProduce is cache-first. On a miss it consults the archive, then the
// producer. Concurrent misses for one key share a single production, which
// runs detached from every caller; each caller stops waiting when its own
// ctx is done.
func (c *Cache) GetOrProduce(ctx context.Context, platformTag, contentID string, positionSeconds float64) (entity.FallbackArtifact, error) {
	if a, ok := c.Get(platformTag, contentID); ok {
		c.hits.Add(1)
		c.metrics.ObserveCacheLookup("hit")
		return a, nil
	}
	if err := ctx.Err(); err != nil {
		return entity.FallbackArtifact{}, err
	}

	ch := c.group.DoChan(memKey(platformTag, contentID), func() (interface{}, error) {
		if a, ok := c.Get(platformTag, contentID); ok {
			return a, nil
		}
		c.misses.Add(1)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.produceTimeout)
		defer cancel()

		if a, ok := c.loadArchived(ctx, platformTag, contentID); ok {
			c.metrics.ObserveCacheLookup("archive")
			c.remember(ctx, a)
			return a, nil
		}
		c.metrics.ObserveCacheLookup("miss")

		payload, err := c.producer.Produce(ctx, platformTag, contentID, positionSeconds)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %v", ErrProduction, platformTag, contentID, err)
		}

		a := entity.FallbackArtifact{
			PlatformTag:     platformTag,
			ContentID:       contentID,
			PositionSeconds: positionSeconds,
			Payload:         payload,
			CachedAt:        c.now(),
		}
		if err := c.store(ctx, a); err != nil {
			c.logger.Warn("FallbackCache", "Artifact cached in memory only", map[string]interface{}{
				"platform_tag": platformTag,
				"content_id":   contentID,
				"error":        err.Error(),
			})
		}
		return a, nil
	})

	select {
	case <-ctx.Done():
		return entity.FallbackArtifact{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return entity.FallbackArtifact{}, res.Err
		}
		return res.Val.(entity.FallbackArtifact), nil
	}
}

// Clear drops every artifact from memory and the key/value store. The archive
// is left alone.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	n := c.mem.ItemCount()
	c.mem.Flush()

	keys, err := c.kv.Keys(ctx, store.FallbackPrefix)
	if err != nil {
		return n, fmt.Errorf("list cached artifacts: %w", err)
	}
	for _, key := range keys {
		if err := c.kv.Delete(ctx, key); err != nil {
			return n, fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return n, nil
}

// Rehydrate loads persisted artifacts into memory.
func (c *Cache) Rehydrate(ctx context.Context) (int, error) {
	keys, err := c.kv.Keys(ctx, store.FallbackPrefix)
	if err != nil {
		return 0, fmt.Errorf("list cached artifacts: %w", err)
	}

	restored := 0
	for _, key := range keys {
		var a entity.FallbackArtifact
		if err := store.GetJSON(ctx, c.kv, key, &a); err != nil {
			c.logger.Warn("FallbackCache", "Skipping unreadable artifact", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		if a.PlatformTag == "" || a.ContentID == "" {
			parts := strings.SplitN(strings.TrimPrefix(key, store.FallbackPrefix), ":", 2)
			if len(parts) != 2 {
				continue
			}
			a.PlatformTag, a.ContentID = parts[0], parts[1]
		}
		c.mem.Set(memKey(a.PlatformTag, a.ContentID), a, cache.NoExpiration)
		restored++
	}
	return restored, nil
}

func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.mem.ItemCount(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// store writes memory, then the key/value store, then the archive. Archive
// failures are logged only.
func (c *Cache) store(ctx context.Context, a entity.FallbackArtifact) error {
	c.mem.Set(memKey(a.PlatformTag, a.ContentID), a, cache.NoExpiration)

	if c.archive != nil {
		if err := c.archive.Save(ctx, a); err != nil {
			c.logger.Warn("FallbackCache", "Archive upload failed", map[string]interface{}{
				"platform_tag": a.PlatformTag,
				"content_id":   a.ContentID,
				"error":        err.Error(),
			})
		}
	}

	return store.SetJSON(ctx, c.kv, store.FallbackKey(a.PlatformTag, a.ContentID), a)
}

// remember caches an archived artifact locally without re-uploading it.
func (c *Cache) remember(ctx context.Context, a entity.FallbackArtifact) {
	c.mem.Set(memKey(a.PlatformTag, a.ContentID), a, cache.NoExpiration)
	if err := store.SetJSON(ctx, c.kv, store.FallbackKey(a.PlatformTag, a.ContentID), a); err != nil {
		c.logger.Warn("FallbackCache", "Archived artifact cached in memory only", map[string]interface{}{
			"platform_tag": a.PlatformTag,
			"content_id":   a.ContentID,
			"error":        err.Error(),
		})
	}
}

func (c *Cache) loadArchived(ctx context.Context, platformTag, contentID string) (entity.FallbackArtifact, bool) {
	if c.archive == nil {
		return entity.FallbackArtifact{}, false
	}
	a, err := c.archive.Load(ctx, platformTag, contentID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("FallbackCache", "Archive lookup failed", map[string]interface{}{
				"platform_tag": platformTag,
				"content_id":   contentID,
				"error":        err.Error(),
			})
		}
		return entity.FallbackArtifact{}, false
	}
	return a, true
}
