package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// remoteTier is the optional T3 remote network store. It degrades silently:
// construction failures or errors at call time disable the tier without
// failing the caller.
type remoteTier struct {
	client  *redis.Client
	enabled bool
	stats   TierStats
	log     *logrus.Entry
}

func newRemoteTier(url string, log *logrus.Entry) *remoteTier {
	if url == "" {
		return &remoteTier{enabled: false, log: log}
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.WithError(err).Warn("t3 url could not be parsed, disabling remote tier")
		return &remoteTier{enabled: false, log: log}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("t3 ping failed, disabling remote tier")
		return &remoteTier{enabled: false, log: log}
	}

	return &remoteTier{client: client, enabled: true, log: log}
}

func (r *remoteTier) get(ctx context.Context, namespace, key string) ([]byte, bool) {
	if !r.enabled {
		return nil, false
	}
	val, err := r.client.Get(ctx, fqKey(namespace, key)).Bytes()
	if err == redis.Nil {
		r.stats.Misses.Add(1)
		return nil, false
	}
	if err != nil {
		r.log.WithError(err).Debug("t3 get failed")
		r.stats.Misses.Add(1)
		return nil, false
	}
	r.stats.Hits.Add(1)
	return val, true
}

func (r *remoteTier) set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) {
	if !r.enabled {
		return
	}
	if err := r.client.Set(ctx, fqKey(namespace, key), value, ttl).Err(); err != nil {
		r.log.WithError(err).Debug("t3 set failed")
	}
}

func (r *remoteTier) invalidateCodebase(ctx context.Context, codebaseID string) {
	if !r.enabled {
		return
	}
	iter := r.client.Scan(ctx, 0, "*"+codebaseID+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			r.log.WithError(err).Debug("t3 invalidation failed")
		}
	}
}

func (r *remoteTier) close() {
	if r.enabled && r.client != nil {
		r.client.Close()
	}
}
