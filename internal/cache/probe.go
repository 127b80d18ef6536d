package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	probeKeyPrefix = "probe:"

	// DefaultProbeTTL is how long a probe verdict is trusted.
	DefaultProbeTTL = 10 * time.Minute
)

// ProbeCache remembers panorama URL probe verdicts so repeated projections
// of the same tour do not re-check every image.
type ProbeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProbeCache creates a probe cache; a zero ttl uses DefaultProbeTTL.
func NewProbeCache(client *redis.Client, ttl time.Duration) *ProbeCache {
	if ttl <= 0 {
		ttl = DefaultProbeTTL
	}
	return &ProbeCache{client: client, ttl: ttl}
}

// Lookup returns the stored verdict for url.
func (pc *ProbeCache) Lookup(ctx context.Context, url string) (ok, found bool) {
	val, err := pc.client.Get(ctx, probeKey(url)).Result()
	if err == redis.Nil {
		return false, false
	}
	if err != nil {
		slog.Warn("probe cache get error", "url", url, "error", err)
		return false, false
	}
	return val == "1", true
}

// Store saves a verdict. Failures are kept for a fifth of the TTL so a
// re-uploaded image is picked up sooner.
func (pc *ProbeCache) Store(ctx context.Context, url string, ok bool) {
	val, ttl := "1", pc.ttl
	if !ok {
		val, ttl = "0", pc.ttl/5
	}
	if err := pc.client.Set(ctx, probeKey(url), val, ttl).Err(); err != nil {
		slog.Warn("probe cache set error", "url", url, "error", err)
	}
}

// Forget drops the verdict for url.
func (pc *ProbeCache) Forget(ctx context.Context, url string) {
	if err := pc.client.Del(ctx, probeKey(url)).Err(); err != nil {
		slog.Warn("probe cache delete error", "url", url, "error", err)
	}
}

func probeKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return probeKeyPrefix + hex.EncodeToString(sum[:16])
}
