// Package cache implements the three-tier coherent cache described by the
// engine: an in-memory LRU (T1), an on-disk embedded relational store (T2),
// and an optional remote network store (T3). Reads promote lower-tier hits
// upward; writes go through all configured tiers.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Namespaces recognized by the cache. Callers are not restricted to this
// set, but the components in this engine only ever use these.
const (
	NamespaceScan       = "scan"
	NamespaceFrameworks = "frameworks"
	NamespaceFeatures   = "features"
	NamespaceFile       = "file"
	NamespaceAnalysis   = "analysis"
	NamespaceResource   = "resource"
	NamespaceSession    = "session"
)

// Cache is the coherent three-tier key/value store.
type Cache struct {
	t1  *memTier
	t2  *diskTier
	t3  *remoteTier
	log *logrus.Entry
}

// Config configures tier construction.
type Config struct {
	MaxMemoryBytes int64
	T2Path         string
	T3URL          string
}

// New constructs the cache. T2 open failure is fatal; T3 failures degrade
// the tier silently.
func New(cfg Config, log *logrus.Entry) (*Cache, error) {
	t2, err := newDiskTier(cfg.T2Path)
	if err != nil {
		return nil, err
	}

	return &Cache{
		t1:  newMemTier(cfg.MaxMemoryBytes),
		t2:  t2,
		t3:  newRemoteTier(cfg.T3URL, log),
		log: log,
	}, nil
}

// Close releases tier resources.
func (c *Cache) Close() error {
	c.t3.close()
	return c.t2.close()
}

// Get looks up namespace:key, promoting any lower-tier hit to the higher
// tiers before returning.
func (c *Cache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	if v, ok := c.t1.get(fqKey(namespace, key)); ok {
		return v, true, nil
	}

	v, ok, err := c.t2.get(namespace, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		c.t1.set(fqKey(namespace, key), v, 0)
		return v, true, nil
	}

	if v, ok := c.t3.get(ctx, namespace, key); ok {
		c.t1.set(fqKey(namespace, key), v, 0)
		if setErr := c.t2.set(namespace, key, v, 0); setErr != nil {
			c.log.WithError(setErr).Debug("t2 promotion write failed")
		}
		return v, true, nil
	}

	return nil, false, nil
}

// Set writes value through to every configured tier. T1 failure (entry too
// large) does not fail the call; T2 failure is surfaced.
func (c *Cache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	c.t1.set(fqKey(namespace, key), value, ttl)

	if err := c.t2.set(namespace, key, value, ttl); err != nil {
		c.log.WithError(err).Warn("t2 write failed during set")
		return err
	}

	c.t3.set(ctx, namespace, key, value, ttl)
	return nil
}

// InvalidateCodebase removes every cache entry tagged with codebaseID
// across all tiers.
func (c *Cache) InvalidateCodebase(ctx context.Context, codebaseID string) error {
	c.t1.removeMatching(func(k string) bool { return containsID(k, codebaseID) })

	if err := c.t2.invalidateCodebase(codebaseID); err != nil {
		return err
	}

	c.t3.invalidateCodebase(ctx, codebaseID)
	return nil
}

// Stats returns a point-in-time snapshot of per-tier counters.
func (c *Cache) Stats() Stats {
	t1 := c.t1.stats.snapshot()
	t2 := c.t2.stats.snapshot()
	t3 := c.t3.stats.snapshot()
	return Stats{
		T1:        t1,
		T2:        t2,
		T3:        t3,
		T3Enabled: c.t3.enabled,
		HitRate:   computeHitRate(t1, t2, t3),
	}
}

func containsID(key, id string) bool {
	return len(id) > 0 && strings.Contains(key, id)
}
