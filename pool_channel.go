package redis

import (
	"context"
	"sync"
	"time"

	"github.com/pior/redis/internal/coarsetime"
)

// NewChannelPool creates a channel-based connection pool.
// This is the default pool implementation.
func NewChannelPool(constructor ConnectionConstructor, maxSize int32) (Pool, error) {
	return &channelPool{
		constructor: constructor,
		maxSize:     maxSize,
		resources:   make(chan *channelResource, maxSize),
		freed:       make(chan struct{}, 1),
	}, nil
}

// channelResource implements Resource for channel pool.
type channelResource struct {
	conn         *Connection
	pool         *channelPool
	creationTime time.Time
	lastUsedTime time.Time
}

func (r *channelResource) Value() *Connection {
	return r.conn
}

func (r *channelResource) Release() {
	r.lastUsedTime = coarsetime.Now()
	r.pool.put(r)
}

func (r *channelResource) ReleaseUnused() {
	r.pool.put(r)
}

func (r *channelResource) Destroy() {
	_ = r.conn.Close()
	r.pool.removeResource()
}

func (r *channelResource) CreationTime() time.Time {
	return r.creationTime
}

func (r *channelResource) IdleDuration() time.Duration {
	return coarsetime.Since(r.lastUsedTime)
}

// channelPool keeps idle connections in a buffered channel.
type channelPool struct {
	constructor ConnectionConstructor
	maxSize     int32

	mu        sync.Mutex // guards size and closed, and sends on resources
	resources chan *channelResource
	freed     chan struct{} // signaled when a slot frees up
	size      int32
	closed    bool

	stats poolStatsCollector
}

func (p *channelPool) Acquire(ctx context.Context) (Resource, error) {
	p.stats.recordAcquire()

	var waitStart time.Time
	for {
		select {
		case res, ok := <-p.resources:
			return p.checkout(res, ok, waitStart)
		default:
		}

		res, created, err := p.tryCreate(ctx)
		if created || err != nil {
			return res, err
		}

		if waitStart.IsZero() {
			waitStart = coarsetime.Now()
		}

		// Pool is full: wait for a release or for a slot to free up
		select {
		case res, ok := <-p.resources:
			return p.checkout(res, ok, waitStart)
		case <-p.freed:
		case <-ctx.Done():
			p.stats.recordAcquireError()
			return nil, ctx.Err()
		}
	}
}

func (p *channelPool) checkout(res *channelResource, ok bool, waitStart time.Time) (Resource, error) {
	if !ok {
		p.stats.recordAcquireError()
		return nil, ErrPoolClosed
	}
	if !waitStart.IsZero() {
		p.stats.recordAcquireWait(coarsetime.Since(waitStart))
	}
	p.stats.recordAcquireFromIdle()
	return res, nil
}

// tryCreate opens a new connection when the pool is not full.
// created is false when no slot was available.
func (p *channelPool) tryCreate(ctx context.Context) (Resource, bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.stats.recordAcquireError()
		return nil, false, ErrPoolClosed
	}
	if p.size >= p.maxSize {
		p.mu.Unlock()
		return nil, false, nil
	}
	p.size++
	p.mu.Unlock()

	conn, err := p.constructor(ctx)
	if err != nil {
		p.release()
		p.stats.recordAcquireError()
		return nil, false, err
	}

	p.stats.recordCreate()

	now := coarsetime.Now()
	return &channelResource{
		conn:         conn,
		pool:         p,
		creationTime: now,
		lastUsedTime: now,
	}, true, nil
}

func (p *channelPool) put(res *channelResource) {
	if res.conn.IsClosed() {
		p.removeResource()
		return
	}

	p.mu.Lock()
	if !p.closed {
		select {
		case p.resources <- res:
			p.mu.Unlock()
			p.stats.recordRelease()
			return
		default:
		}
	}
	p.mu.Unlock()

	_ = res.conn.Close()
	p.removeResource()
}

func (p *channelPool) removeResource() {
	p.release()
	p.stats.recordDestroy()
}

// release frees a slot and wakes up one waiter
func (p *channelPool) release() {
	p.mu.Lock()
	p.size--
	p.mu.Unlock()

	select {
	case p.freed <- struct{}{}:
	default:
	}
}

func (p *channelPool) AcquireAllIdle() []Resource {
	var idle []Resource

	for {
		select {
		case res, ok := <-p.resources:
			if !ok {
				return idle
			}
			p.stats.recordAcquireFromIdle()
			idle = append(idle, res)
		default:
			return idle
		}
	}
}

func (p *channelPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.resources)
	p.mu.Unlock()

	for res := range p.resources {
		p.stats.recordAcquireFromIdle()
		res.Destroy()
	}
}

// Stats returns a snapshot of pool statistics.
func (p *channelPool) Stats() PoolStats {
	return p.stats.snapshot()
}
