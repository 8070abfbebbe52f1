package redis

import (
	"sync/atomic"
	"time"
)

// PoolStats contains statistics about a connection pool.
//
// For Prometheus integration, expose these as:
//   - Gauges: TotalConns, IdleConns, ActiveConns
//   - Counters: AcquireCount, AcquireWaitCount, CreatedConns, DestroyedConns, AcquireErrors
//   - Histogram: AcquireWaitDuration (use AcquireWaitCount and AcquireWaitTimeNs to calculate)
type PoolStats struct {
	AcquireCount      uint64 // Total acquire attempts
	AcquireWaitCount  uint64 // Acquires that had to wait
	CreatedConns      uint64 // Total connections created
	DestroyedConns    uint64 // Total connections destroyed
	AcquireErrors     uint64 // Failed acquire attempts
	AcquireWaitTimeNs uint64 // Total nanoseconds spent waiting

	TotalConns  int32 // Total connections in pool (active + idle)
	IdleConns   int32 // Idle connections available
	ActiveConns int32 // Connections currently in use
}

// ClientStats contains statistics about client operations.
//
// For Prometheus integration, expose these as counters.
// Derive the remote error rate as RemoteErrors/Commands.
type ClientStats struct {
	Commands     uint64 // Commands sent, batched ones included
	Batches      uint64 // DoBatch calls
	RemoteErrors uint64 // Error replies sent by servers
	Errors       uint64 // Failed calls: connection, protocol or breaker errors
	HealthChecks uint64 // Idle connections checked
	Evictions    uint64 // Idle connections destroyed by health checks
}

// poolStatsCollector is updated by the pools. The zero value is ready to use.
type poolStatsCollector struct {
	acquireCount      atomic.Uint64
	acquireWaitCount  atomic.Uint64
	createdConns      atomic.Uint64
	destroyedConns    atomic.Uint64
	acquireErrors     atomic.Uint64
	acquireWaitTimeNs atomic.Uint64

	totalConns  atomic.Int32
	idleConns   atomic.Int32
	activeConns atomic.Int32
}

func (c *poolStatsCollector) recordAcquire() {
	c.acquireCount.Add(1)
}

func (c *poolStatsCollector) recordAcquireWait(duration time.Duration) {
	c.acquireWaitCount.Add(1)
	c.acquireWaitTimeNs.Add(uint64(duration.Nanoseconds()))
}

// recordCreate counts a new connection, handed out straight to a caller
func (c *poolStatsCollector) recordCreate() {
	c.createdConns.Add(1)
	c.totalConns.Add(1)
	c.activeConns.Add(1)
}

// recordDestroy counts an active connection leaving the pool
func (c *poolStatsCollector) recordDestroy() {
	c.destroyedConns.Add(1)
	c.totalConns.Add(-1)
	c.activeConns.Add(-1)
}

func (c *poolStatsCollector) recordAcquireError() {
	c.acquireErrors.Add(1)
}

func (c *poolStatsCollector) recordAcquireFromIdle() {
	c.idleConns.Add(-1)
	c.activeConns.Add(1)
}

func (c *poolStatsCollector) recordRelease() {
	c.idleConns.Add(1)
	c.activeConns.Add(-1)
}

func (c *poolStatsCollector) snapshot() PoolStats {
	return PoolStats{
		AcquireCount:      c.acquireCount.Load(),
		AcquireWaitCount:  c.acquireWaitCount.Load(),
		CreatedConns:      c.createdConns.Load(),
		DestroyedConns:    c.destroyedConns.Load(),
		AcquireErrors:     c.acquireErrors.Load(),
		AcquireWaitTimeNs: c.acquireWaitTimeNs.Load(),
		TotalConns:        c.totalConns.Load(),
		IdleConns:         c.idleConns.Load(),
		ActiveConns:       c.activeConns.Load(),
	}
}

// clientStatsCollector is updated by the client. The zero value is ready to use.
type clientStatsCollector struct {
	commands     atomic.Uint64
	batches      atomic.Uint64
	remoteErrors atomic.Uint64
	errors       atomic.Uint64
	healthChecks atomic.Uint64
	evictions    atomic.Uint64
}

func (c *clientStatsCollector) recordCommands(n int) {
	c.commands.Add(uint64(n))
}

func (c *clientStatsCollector) recordBatch() {
	c.batches.Add(1)
}

func (c *clientStatsCollector) recordRemoteError() {
	c.remoteErrors.Add(1)
}

func (c *clientStatsCollector) recordError() {
	c.errors.Add(1)
}

func (c *clientStatsCollector) recordHealthCheck(evicted bool) {
	c.healthChecks.Add(1)
	if evicted {
		c.evictions.Add(1)
	}
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Commands:     c.commands.Load(),
		Batches:      c.batches.Load(),
		RemoteErrors: c.remoteErrors.Load(),
		Errors:       c.errors.Load(),
		HealthChecks: c.healthChecks.Load(),
		Evictions:    c.evictions.Load(),
	}
}
