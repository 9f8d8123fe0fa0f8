package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisLockExclusive(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)

	a := NewRedisLock(client, "refresh:stores", time.Minute)
	b := NewRedisLock(client, "refresh:stores", time.Minute)

	ok, err := a.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lock:refresh:stores"))

	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, b.Release(ctx), ErrNotHeld)
	assert.True(t, mr.Exists("lock:refresh:stores"))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("lock:refresh:stores"))

	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)

	a := NewRedisLock(client, "k", time.Second)
	ok, err := a.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	b := NewRedisLock(client, "k", time.Second)
	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, a.Release(ctx), ErrNotHeld)
}

func TestNewPrefersRedis(t *testing.T) {
	_, client := setupRedis(t)
	assert.IsType(t, &RedisLock{}, New(client, nil, "k", time.Second))
	assert.IsType(t, &AdvisoryLock{}, New(nil, nil, "k", time.Second))
}

func TestAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewAdvisoryLock(db, "seed")
	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
		WithArgs(l.ID()).
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(true))
	mock.ExpectQuery(`SELECT pg_advisory_unlock\(\$1\)`).
		WithArgs(l.ID()).
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(true))

	ok, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLockBusy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewAdvisoryLock(db, "seed")
	mock.ExpectQuery(`pg_try_advisory_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(false))

	ok, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, l.Release(context.Background()), ErrNotHeld)
}

func TestAdvisoryLockIDStable(t *testing.T) {
	assert.Equal(t, NewAdvisoryLock(nil, "x").ID(), NewAdvisoryLock(nil, "x").ID())
	assert.NotEqual(t, NewAdvisoryLock(nil, "x").ID(), NewAdvisoryLock(nil, "y").ID())
}
