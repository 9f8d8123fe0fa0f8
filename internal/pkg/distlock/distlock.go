// Package distlock provides best-effort mutual exclusion across planner
// processes. Redis is preferred; Postgres advisory locks are the fallback.
package distlock

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Release when the lock expired or was taken over.
var ErrNotHeld = errors.New("distlock: lock not held")

// Lock is a non-blocking mutual exclusion primitive. A Lock value is owned
// by one goroutine; create a separate Lock per concurrent caller.
type Lock interface {
	// TryAcquire reports whether the lock was obtained.
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// New picks a Redis lock when a client is available and a Postgres
// advisory lock otherwise.
func New(rdb redis.Cmdable, db *sql.DB, key string, ttl time.Duration) Lock {
	if rdb != nil {
		return NewRedisLock(rdb, key, ttl)
	}
	return NewAdvisoryLock(db, key)
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// RedisLock is SET NX PX with a random owner token.
type RedisLock struct {
	rdb   redis.Cmdable
	key   string
	token string
	ttl   time.Duration
}

func NewRedisLock(rdb redis.Cmdable, key string, ttl time.Duration) *RedisLock {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return &RedisLock{
		rdb:   rdb,
		key:   "lock:" + key,
		token: hex.EncodeToString(b),
		ttl:   ttl,
	}
}

// Key returns the Redis key backing the lock.
func (l *RedisLock) Key() string { return l.key }

func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Release deletes the key only if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// AdvisoryLock wraps pg_try_advisory_lock. The lock is session-scoped, so it
// is pinned to a single connection for its lifetime.
type AdvisoryLock struct {
	db   *sql.DB
	id   int64
	conn *sql.Conn
}

func NewAdvisoryLock(db *sql.DB, key string) *AdvisoryLock {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return &AdvisoryLock{db: db, id: int64(h.Sum64())}
}

// ID returns the advisory lock id derived from the key.
func (l *AdvisoryLock) ID() int64 { return l.id }

func (l *AdvisoryLock) TryAcquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("advisory lock conn: %w", err)
	}
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.id).Scan(&ok); err != nil {
		conn.Close()
		return false, fmt.Errorf("advisory lock %d: %w", l.id, err)
	}
	if !ok {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *AdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return ErrNotHeld
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
	}()
	var ok bool
	if err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.id).Scan(&ok); err != nil {
		return fmt.Errorf("advisory unlock %d: %w", l.id, err)
	}
	if !ok {
		return ErrNotHeld
	}
	return nil
}
