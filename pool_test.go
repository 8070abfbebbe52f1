package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/redis/internal/testutils"
)

var poolFactories = map[string]NewPoolFunc{
	"channel": NewChannelPool,
	"puddle":  NewPuddlePool,
}

func mockConstructor(created *atomic.Int32) ConnectionConstructor {
	return func(ctx context.Context) (*Connection, error) {
		if created != nil {
			created.Add(1)
		}
		return NewConnection(testutils.NewConnectionMock()), nil
	}
}

func forEachPool(t *testing.T, test func(t *testing.T, newPool NewPoolFunc)) {
	for name, newPool := range poolFactories {
		t.Run(name, func(t *testing.T) {
			test(t, newPool)
		})
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	forEachPool(t, func(t *testing.T, newPool NewPoolFunc) {
		var created atomic.Int32
		pool, err := newPool(mockConstructor(&created), 2)
		require.NoError(t, err)
		defer pool.Close()

		ctx := context.Background()

		res, err := pool.Acquire(ctx)
		require.NoError(t, err)
		conn := res.Value()
		require.NotNil(t, conn)
		assert.False(t, res.CreationTime().IsZero())

		stats := pool.Stats()
		assert.Equal(t, int32(1), stats.TotalConns)
		assert.Equal(t, int32(1), stats.ActiveConns)
		assert.Equal(t, int32(0), stats.IdleConns)

		res.Release()

		stats = pool.Stats()
		assert.Equal(t, int32(1), stats.TotalConns)
		assert.Equal(t, int32(0), stats.ActiveConns)
		assert.Equal(t, int32(1), stats.IdleConns)

		res, err = pool.Acquire(ctx)
		require.NoError(t, err)
		assert.Same(t, conn, res.Value(), "idle connection is reused")
		res.Release()

		assert.Equal(t, int32(1), created.Load())
		assert.Equal(t, uint64(1), pool.Stats().CreatedConns)
	})
}

func TestPool_MaxSize(t *testing.T) {
	forEachPool(t, func(t *testing.T, newPool NewPoolFunc) {
		pool, err := newPool(mockConstructor(nil), 2)
		require.NoError(t, err)
		defer pool.Close()

		res1, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		res2, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		defer res1.Release()
		defer res2.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		_, err = pool.Acquire(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, int32(2), pool.Stats().TotalConns)
	})
}

func TestPool_WaiterGetsReleasedConnection(t *testing.T) {
	forEachPool(t, func(t *testing.T, newPool NewPoolFunc) {
		pool, err := newPool(mockConstructor(nil), 1)
		require.NoError(t, err)
		defer pool.Close()

		res, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		conn := res.Value()

		time.AfterFunc(20*time.Millisecond, res.Release)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		res, err = pool.Acquire(ctx)
		require.NoError(t, err)
		assert.Same(t, conn, res.Value())
		res.Release()

		assert.GreaterOrEqual(t, pool.Stats().AcquireWaitCount, uint64(1))
	})
}

func TestPool_WaiterGetsDestroyedSlot(t *testing.T) {
	forEachPool(t, func(t *testing.T, newPool NewPoolFunc) {
		pool, err := newPool(mockConstructor(nil), 1)
		require.NoError(t, err)
		defer pool.Close()

		res, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		conn := res.Value()

		time.AfterFunc(20*time.Millisecond, res.Destroy)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		res, err = pool.Acquire(ctx)
		require.NoError(t, err)
		assert.NotSame(t, conn, res.Value(), "a new connection takes the freed slot")
		assert.True(t, conn.IsClosed())
		res.Release()
	})
}

func TestPool_Destroy(t *testing.T) {
	forEachPool(t, func(t *testing.T, newPool NewPoolFunc) {
		pool, err := newPool(mockConstructor(nil), 2)
		require.NoError(t, err)
		defer pool.Close()

		res, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		conn := res.Value()
		res.Destroy()

		// puddle destroys in the background
		require.Eventually(t, func() bool {
			stats := pool.Stats()
			return stats.TotalConns == 0 && stats.DestroyedConns == 1
		}, time.Second, 5*time.Millisecond)
		assert.True(t, conn.IsClosed())
	})
}

func TestPool_AcquireAllIdle(t *testing.T) {
	forEachPool(t, func(t *testing.T, newPool NewPoolFunc) {
		pool, err := newPool(mockConstructor(nil), 5)
		require.NoError(t, err)
		defer pool.Close()

		var held []Resource
		for range 3 {
			res, err := pool.Acquire(context.Background())
			require.NoError(t, err)
			held = append(held, res)
		}
		for _, res := range held[:2] {
			res.Release()
		}

		idle := pool.AcquireAllIdle()
		assert.Len(t, idle, 2)
		assert.Empty(t, pool.AcquireAllIdle())

		for _, res := range idle {
			res.ReleaseUnused()
		}
		held[2].Release()

		stats := pool.Stats()
		assert.Equal(t, int32(3), stats.IdleConns)
		assert.Equal(t, int32(0), stats.ActiveConns)
	})
}

func TestPool_Close(t *testing.T) {
	forEachPool(t, func(t *testing.T, newPool NewPoolFunc) {
		pool, err := newPool(mockConstructor(nil), 2)
		require.NoError(t, err)

		res, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		conn := res.Value()
		res.Release()

		pool.Close()
		assert.True(t, conn.IsClosed(), "idle connections are closed")

		_, err = pool.Acquire(context.Background())
		require.ErrorIs(t, err, ErrPoolClosed)
	})
}

func TestPool_ConstructorError(t *testing.T) {
	forEachPool(t, func(t *testing.T, newPool NewPoolFunc) {
		dialErr := errors.New("connection refused")
		pool, err := newPool(func(ctx context.Context) (*Connection, error) {
			return nil, dialErr
		}, 1)
		require.NoError(t, err)
		defer pool.Close()

		for range 3 {
			_, err = pool.Acquire(context.Background())
			require.ErrorIs(t, err, dialErr)
		}

		stats := pool.Stats()
		assert.Equal(t, int32(0), stats.TotalConns)
		assert.Equal(t, uint64(0), stats.CreatedConns)
		assert.Equal(t, uint64(3), stats.AcquireErrors)
	})
}

func TestChannelPool_ReleaseClosedConnection(t *testing.T) {
	pool, err := NewChannelPool(mockConstructor(nil), 1)
	require.NoError(t, err)
	defer pool.Close()

	res, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	_ = res.Value().Close()
	res.Release()

	stats := pool.Stats()
	assert.Equal(t, int32(0), stats.TotalConns)
	assert.Equal(t, int32(0), stats.IdleConns)
	assert.Equal(t, uint64(1), stats.DestroyedConns)
}

func TestChannelPool_Stats(t *testing.T) {
	pool, err := NewChannelPool(mockConstructor(nil), 5)
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()

	assert.Equal(t, PoolStats{}, pool.Stats())

	res1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	res2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	res1.Release()
	res2.Destroy()

	res3, err := pool.Acquire(ctx)
	require.NoError(t, err)
	res3.Release()

	stats := pool.Stats()
	assert.Equal(t, uint64(3), stats.AcquireCount)
	assert.Equal(t, uint64(2), stats.CreatedConns)
	assert.Equal(t, uint64(1), stats.DestroyedConns)
	assert.Equal(t, uint64(0), stats.AcquireErrors)
	assert.Equal(t, int32(1), stats.TotalConns)
	assert.Equal(t, int32(1), stats.IdleConns)
	assert.Equal(t, int32(0), stats.ActiveConns)
}
