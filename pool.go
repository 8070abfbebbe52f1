package redis

import (
	"context"
	"errors"
	"time"
)

var ErrPoolClosed = errors.New("redis: pool closed")

// Resource is a connection checked out of a Pool.
// Exactly one of Release, ReleaseUnused or Destroy must be called.
type Resource interface {
	Value() *Connection

	// Release returns the connection to the pool and marks it as used
	Release()

	// ReleaseUnused returns the connection without touching its idle time
	ReleaseUnused()

	// Destroy closes the connection and frees its slot in the pool
	Destroy()

	CreationTime() time.Time
	IdleDuration() time.Duration
}

// Pool manages the connections to a single server.
type Pool interface {
	// Acquire returns an idle connection, creates one when the pool is not
	// full, or waits for a release until ctx is done.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle checks out every idle connection, for health checks.
	AcquireAllIdle() []Resource

	Close()
	Stats() PoolStats
}

// ConnectionConstructor opens a new connection to the pool's server.
type ConnectionConstructor func(ctx context.Context) (*Connection, error)

// NewPoolFunc creates a Pool holding at most maxSize connections.
// NewChannelPool and NewPuddlePool are the two implementations.
type NewPoolFunc func(constructor ConnectionConstructor, maxSize int32) (Pool, error)
