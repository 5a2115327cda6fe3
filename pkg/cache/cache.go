// Package cache provides a Redis-backed join-URL cache so repeated runs
// over overlapping date ranges skip the per-meeting lookup round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
)

const keyPrefix = "attendance:joinurl:"

// Options configures a Cache.
type Options struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a join-URL mapping is trusted. Meetings are
	// occasionally recreated under the same join link, so entries expire.
	TTL time.Duration

	// DialTimeout bounds the initial connection attempt. Zero means the
	// client default.
	DialTimeout time.Duration
}

// Cache satisfies the pipeline's resolver-cache contract. All backend
// errors degrade to cache misses; the resolver then falls through to
// the API, so a down Redis never fails a run.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log logging.Logger
}

// New creates a Cache. It does not dial eagerly; the first Get or Set
// establishes the connection.
func New(opts Options, log logging.Logger) *Cache {
	if log == nil {
		log = logging.NopLogger()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	return &Cache{rdb: rdb, ttl: opts.TTL, log: log}
}

// Get returns the cached meeting id for a join URL.
func (c *Cache) Get(ctx context.Context, joinURL string) (string, bool) {
	id, err := c.rdb.Get(ctx, cacheKey(joinURL)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Debug("cache get failed", logging.Err(err))
		return "", false
	}
	return id, true
}

// Set stores a join URL to meeting id mapping with the configured TTL.
func (c *Cache) Set(ctx context.Context, joinURL, meetingID string) {
	if err := c.rdb.Set(ctx, cacheKey(joinURL), meetingID, c.ttl).Err(); err != nil {
		c.log.Debug("cache set failed", logging.Err(err))
	}
}

// Ping verifies connectivity. Callers use it to decide whether to warn
// at startup; a failed ping does not disable the cache.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// cacheKey hashes the join URL: Teams join links are several hundred
// characters and carry embedded tokens that should not land in Redis
// key listings.
func cacheKey(joinURL string) string {
	sum := sha256.Sum256([]byte(joinURL))
	return keyPrefix + hex.EncodeToString(sum[:])
}
