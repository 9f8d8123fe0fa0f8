// Package rediscache is a read-through Redis cache in front of an
// analytics.Repository. Cache failures never fail a read; the inner
// repository is always the source of truth.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/dm-planner/internal/domain"
	"github.com/ignite/dm-planner/internal/pkg/distlock"
	"github.com/ignite/dm-planner/internal/pkg/logger"
	"github.com/ignite/dm-planner/internal/service/analytics"
)

const lockTTL = 30 * time.Second

// Repository decorates an analytics.Repository with Redis caching.
type Repository struct {
	inner  analytics.Repository
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

var _ analytics.Repository = (*Repository)(nil)

// New wraps inner. Keys are namespaced under prefix and expire after ttl.
func New(inner analytics.Repository, rdb *redis.Client, prefix string, ttl time.Duration) *Repository {
	if prefix == "" {
		prefix = "dmplanner"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Repository{inner: inner, rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Repository) key(parts ...string) string {
	k := r.prefix + ":analytics"
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (r *Repository) StorePerformance(ctx context.Context) ([]domain.StorePerformanceRecord, error) {
	return readThrough(ctx, r, r.key("stores"), r.inner.StorePerformance)
}

func (r *Repository) PeriodPerformance(ctx context.Context, groupBy analytics.GroupBy) ([]domain.PeriodAggregate, error) {
	return readThrough(ctx, r, r.key("period", string(groupBy)), func(ctx context.Context) ([]domain.PeriodAggregate, error) {
		return r.inner.PeriodPerformance(ctx, groupBy)
	})
}

func (r *Repository) Totals(ctx context.Context) (domain.Totals, error) {
	return readThrough(ctx, r, r.key("totals"), r.inner.Totals)
}

func (r *Repository) StoreDeployments(ctx context.Context, storeID string) ([]domain.DeploymentStat, error) {
	return readThrough(ctx, r, r.key("deployments", storeID), func(ctx context.Context) ([]domain.DeploymentStat, error) {
		return r.inner.StoreDeployments(ctx, storeID)
	})
}

// Invalidate drops every cached analytics key, e.g. after a seed run.
func (r *Repository) Invalidate(ctx context.Context) (int, error) {
	var n int
	iter := r.rdb.Scan(ctx, 0, r.key()+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return n, fmt.Errorf("invalidate %s: %w", iter.Val(), err)
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("scan analytics keys: %w", err)
	}
	return n, nil
}

// readThrough serves key from Redis, or loads it and, if this caller wins
// the refresh lock, writes it back. Losers of the lock read the inner
// repository directly rather than waiting.
func readThrough[T any](ctx context.Context, r *Repository, key string, load func(context.Context) (T, error)) (T, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			return v, nil
		}
		logger.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn("cache read failed", "key", key, "error", err.Error())
	}

	lock := distlock.NewRedisLock(r.rdb, key, lockTTL)
	won, lerr := lock.TryAcquire(ctx)
	if lerr != nil {
		logger.Warn("cache lock failed", "key", key, "error", lerr.Error())
	}

	v, err := load(ctx)
	if err != nil || !won {
		if won {
			_ = lock.Release(ctx)
		}
		return v, err
	}
	defer func() {
		if rerr := lock.Release(ctx); rerr != nil && !errors.Is(rerr, distlock.ErrNotHeld) {
			logger.Warn("cache unlock failed", "key", key, "error", rerr.Error())
		}
	}()

	data, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err.Error())
	}
	return v, nil
}
