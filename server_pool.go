package redis

import (
	"context"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/redis/resp"
)

// serverPool wraps a pool and a circuit breaker with its server address.
type serverPool struct {
	addr           string
	pool           Pool
	circuitBreaker CircuitBreaker // nil if not configured
}

// ServerPoolStats contains stats for a single server pool
type ServerPoolStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (sp *serverPool) stats() ServerPoolStats {
	stats := ServerPoolStats{
		Addr:      sp.addr,
		PoolStats: sp.pool.Stats(),
	}
	if sp.circuitBreaker != nil {
		stats.CircuitBreakerState = sp.circuitBreaker.State()
		stats.CircuitBreakerCounts = sp.circuitBreaker.Counts()
	}
	return stats
}

// execute runs one command on a pooled connection, through the circuit
// breaker when one is configured.
func (sp *serverPool) execute(ctx context.Context, cmd resp.Value) (resp.Value, error) {
	if sp.circuitBreaker == nil {
		return sp.executeDirect(ctx, cmd)
	}

	return sp.circuitBreaker.Execute(func() (resp.Value, error) {
		return sp.executeDirect(ctx, cmd)
	})
}

func (sp *serverPool) executeDirect(ctx context.Context, cmd resp.Value) (resp.Value, error) {
	var reply resp.Value
	err := sp.withConnection(ctx, func(conn *Connection) (err error) {
		reply, err = conn.Send(ctx, cmd)
		return err
	})
	return reply, err
}

// executeBatch pipelines cmds on a single pooled connection.
// The breaker sees the whole batch as one call, its replies packed in an array.
func (sp *serverPool) executeBatch(ctx context.Context, cmds []resp.Value) ([]resp.Value, error) {
	if sp.circuitBreaker == nil {
		return sp.executeBatchDirect(ctx, cmds)
	}

	packed, err := sp.circuitBreaker.Execute(func() (resp.Value, error) {
		replies, err := sp.executeBatchDirect(ctx, cmds)
		if err != nil {
			return resp.Value{}, err
		}
		return resp.NewArray(replies...), nil
	})
	if err != nil {
		return nil, err
	}
	return packed.Array, nil
}

func (sp *serverPool) executeBatchDirect(ctx context.Context, cmds []resp.Value) ([]resp.Value, error) {
	var replies []resp.Value
	err := sp.withConnection(ctx, func(conn *Connection) (err error) {
		replies, err = conn.SendBatch(ctx, cmds)
		return err
	})
	return replies, err
}

// withConnection acquires a connection, runs fn and gives the connection
// back. A connection closed by a transport or protocol error is destroyed.
func (sp *serverPool) withConnection(ctx context.Context, fn func(*Connection) error) error {
	resource, err := sp.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	err = fn(resource.Value())
	if resource.Value().IsClosed() {
		resource.Destroy()
	} else {
		resource.Release()
	}
	return err
}
