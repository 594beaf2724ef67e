// Package publish writes monitor dashboard snapshots to Redis so external
// dashboards can read them without reaching into the process.
//
// Snapshots are write-only: each one replaces the previous value under the
// same key and expires after the configured TTL.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	careerrors "github.com/matzehuels/careflow/pkg/errors"
	"github.com/matzehuels/careflow/pkg/monitor"
)

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "careflow:dashboard"

// Setter is the subset of the Redis client the publisher needs.
// *redis.Client satisfies it.
type Setter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Publisher stores dashboard snapshots under one key.
type Publisher struct {
	rdb Setter
	key string
	ttl time.Duration
}

// New creates a Publisher writing to key with the given expiry.
func New(rdb Setter, key string, ttl time.Duration) *Publisher {
	if key == "" {
		key = DefaultKey
	}
	return &Publisher{rdb: rdb, key: key, ttl: ttl}
}

// Connect opens a Redis client from a redis:// URL or a host:port address.
func Connect(addr string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, careerrors.Wrap(careerrors.ErrCodeInvalidConfig, err, "parse redis url")
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// Key returns the Redis key snapshots are written to.
func (p *Publisher) Key() string { return p.key }

// Publish writes d as JSON with SET key value EX ttl.
func (p *Publisher) Publish(ctx context.Context, d monitor.Dashboard) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}
	if err := p.rdb.Set(ctx, p.key, data, p.ttl).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.key, err)
	}
	return nil
}
