package cache

import "sync/atomic"

// TierStats holds atomic hit/miss/eviction counters for a single tier.
type TierStats struct {
	Hits      atomic.Int64
	Misses    atomic.Int64
	Evictions atomic.Int64
}

func (t *TierStats) snapshot() TierStatsSnapshot {
	return TierStatsSnapshot{
		Hits:      t.Hits.Load(),
		Misses:    t.Misses.Load(),
		Evictions: t.Evictions.Load(),
	}
}

// TierStatsSnapshot is an immutable copy of TierStats for reporting.
type TierStatsSnapshot struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Stats is a point-in-time snapshot of cache performance across all tiers.
type Stats struct {
	T1        TierStatsSnapshot `json:"t1"`
	T2        TierStatsSnapshot `json:"t2"`
	T3        TierStatsSnapshot `json:"t3"`
	T3Enabled bool              `json:"t3_enabled"`
	HitRate   float64           `json:"hit_rate"`
}

func computeHitRate(tiers ...TierStatsSnapshot) float64 {
	var hits, total int64
	for _, t := range tiers {
		hits += t.Hits
		total += t.Hits + t.Misses
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
