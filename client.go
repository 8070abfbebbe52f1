package redis

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pior/redis/resp"
)

var ErrClientClosed = errors.New("redis: client closed")

// Config holds configuration for the client connection pools.
type Config struct {
	// MaxSize is the maximum number of connections per server.
	// Required: must be > 0.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a connection can be reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can be idle before being closed.
	// Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often idle connections are pinged.
	// Zero disables health checks.
	HealthCheckInterval time.Duration

	// Timeout bounds every call whose context has no deadline, and every
	// health check ping. Zero means no timeout for calls and one second
	// for pings.
	Timeout time.Duration

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Pool is the connection pool factory function.
	// If nil, uses NewChannelPool. NewPuddlePool is the alternative.
	Pool NewPoolFunc

	// SelectServer picks which server to use for a key.
	// Receives the key and current server list from Servers.List().
	// If nil, uses DefaultSelectServer.
	SelectServer SelectServerFunc

	// NewCircuitBreaker creates a circuit breaker for a server.
	// Called once per server address when its pool is created.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(serverAddr string) CircuitBreaker

	// Logger receives health check events. If nil, nothing is logged.
	Logger *zerolog.Logger

	// for testing purposes only
	constructor func(addr string) ConnectionConstructor
}

// Client sends commands to a set of servers, one connection pool per server.
// It is safe for concurrent use.
type Client struct {
	servers      Servers
	selectServer SelectServerFunc
	config       Config
	logger       zerolog.Logger

	mu     sync.RWMutex
	pools  map[string]*serverPool
	closed bool

	stopHealthCheck chan struct{}
	healthCheckDone chan struct{}

	stats clientStatsCollector
}

// NewClient creates a client for the given servers.
// For a single server, use: NewClient(NewStaticServers("host:port"), config)
func NewClient(servers Servers, config Config) (*Client, error) {
	if len(servers.List()) == 0 {
		return nil, ErrNoServers
	}
	if config.MaxSize <= 0 {
		return nil, errors.New("redis: MaxSize must be greater than zero")
	}

	if config.SelectServer == nil {
		config.SelectServer = DefaultSelectServer
	}
	if config.Dialer == nil {
		config.Dialer = &net.Dialer{}
	}
	if config.Pool == nil {
		config.Pool = NewChannelPool
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	client := &Client{
		servers:         servers,
		selectServer:    config.SelectServer,
		config:          config,
		logger:          logger,
		pools:           make(map[string]*serverPool),
		stopHealthCheck: make(chan struct{}),
		healthCheckDone: make(chan struct{}),
	}

	if config.HealthCheckInterval > 0 {
		go client.healthCheckLoop()
	} else {
		close(client.healthCheckDone)
	}

	return client, nil
}

// Close closes the client and destroys all connections in all pools.
// Calls made after Close return ErrClientClosed.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stopHealthCheck)
	<-c.healthCheckDone

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sp := range c.pools {
		sp.pool.Close()
	}
}

// Do sends cmd to the server owning key and returns its reply.
//
// An error reply from the server is not a Go error: it comes back as a value
// of resp.KindError, and the typed helpers (String, Count, OK, Values) turn
// it into a *resp.RemoteError. The returned error reports transport,
// protocol, pool and circuit breaker failures.
func (c *Client) Do(ctx context.Context, key string, cmd resp.Value) (resp.Value, error) {
	sp, err := c.getPoolForKey(key)
	if err != nil {
		c.stats.recordError()
		return resp.Value{}, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.stats.recordCommands(1)
	reply, err := sp.execute(ctx, cmd)
	if err != nil {
		c.stats.recordError()
		return resp.Value{}, err
	}

	if reply.IsError() {
		c.stats.recordRemoteError()
	}
	return reply, nil
}

// DoBatch pipelines cmds to the server owning key, on a single connection,
// and returns one reply per command in order.
func (c *Client) DoBatch(ctx context.Context, key string, cmds []resp.Value) ([]resp.Value, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	sp, err := c.getPoolForKey(key)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.stats.recordBatch()
	c.stats.recordCommands(len(cmds))
	replies, err := sp.executeBatch(ctx, cmds)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	for _, reply := range replies {
		if reply.IsError() {
			c.stats.recordRemoteError()
		}
	}
	return replies, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.Timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.config.Timeout)
}

// getPoolForKey returns the pool for the server that should handle this key.
// Creates pool lazily if it doesn't exist.
func (c *Client) getPoolForKey(key string) (*serverPool, error) {
	addr, err := c.selectServer(key, c.servers.List())
	if err != nil {
		return nil, err
	}
	return c.getOrCreatePool(addr)
}

// getOrCreatePool gets or creates a pool for the given server address.
func (c *Client) getOrCreatePool(addr string) (*serverPool, error) {
	c.mu.RLock()
	sp, exists := c.pools[addr]
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClientClosed
	}
	if exists {
		return sp, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if sp, exists := c.pools[addr]; exists {
		return sp, nil
	}

	sp, err := c.createPool(addr)
	if err != nil {
		return nil, err
	}
	c.pools[addr] = sp
	return sp, nil
}

// createPool creates a new connection pool for a server
func (c *Client) createPool(addr string) (*serverPool, error) {
	var constructor ConnectionConstructor
	if c.config.constructor != nil {
		constructor = c.config.constructor(addr)
	} else {
		constructor = func(ctx context.Context) (*Connection, error) {
			netConn, err := c.config.Dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return nil, &resp.ConnectionError{Op: "dial", Err: err}
			}
			return NewConnection(netConn), nil
		}
	}

	pool, err := c.config.Pool(constructor, c.config.MaxSize)
	if err != nil {
		return nil, err
	}

	sp := &serverPool{addr: addr, pool: pool}
	if c.config.NewCircuitBreaker != nil {
		sp.circuitBreaker = c.config.NewCircuitBreaker(addr)
	}
	return sp, nil
}

// healthCheckLoop periodically checks idle connections for health and lifecycle limits.
func (c *Client) healthCheckLoop() {
	defer close(c.healthCheckDone)

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkAllPools()
		}
	}
}

// checkAllPools runs health checks on all existing pools
func (c *Client) checkAllPools() {
	c.mu.RLock()
	pools := make([]*serverPool, 0, len(c.pools))
	for _, sp := range c.pools {
		pools = append(pools, sp)
	}
	c.mu.RUnlock()

	for _, sp := range pools {
		c.checkPoolConnections(sp)
	}
}

// checkPoolConnections checks all idle connections in a pool and destroys those that are stale or unhealthy.
func (c *Client) checkPoolConnections(sp *serverPool) {
	now := time.Now()

	for _, res := range sp.pool.AcquireAllIdle() {
		reason := ""
		switch {
		case c.config.MaxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.config.MaxConnLifetime:
			reason = "max lifetime reached"
		case c.config.MaxConnIdleTime > 0 && res.IdleDuration() > c.config.MaxConnIdleTime:
			reason = "max idle time reached"
		default:
			if err := c.ping(res.Value()); err != nil {
				reason = "ping failed: " + err.Error()
			}
		}

		c.stats.recordHealthCheck(reason != "")
		if reason == "" {
			res.ReleaseUnused()
			continue
		}

		c.logger.Debug().Str("server", sp.addr).Str("reason", reason).Msg("destroying idle connection")
		res.Destroy()
	}
}

func (c *Client) ping(conn *Connection) error {
	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return conn.Ping(ctx)
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// AllPoolStats returns stats for all server pools
func (c *Client) AllPoolStats() []ServerPoolStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]ServerPoolStats, 0, len(c.pools))
	for _, sp := range c.pools {
		stats = append(stats, sp.stats())
	}
	return stats
}
