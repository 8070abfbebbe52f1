package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pior/redis/internal/coarsetime"
	"github.com/pior/redis/resp"
)

var ErrConnectionClosed = errors.New("redis: connection closed")

// Initial capacity of the input buffer, grown on demand by the decoder
const readBufferSize = 4096

// Connection is a single connection to a server speaking RESP.
//
// Requests are serialized: one Send or SendBatch owns the connection until
// all its replies are read. Any transport or protocol error closes it.
type Connection struct {
	conn net.Conn
	dec  *resp.Decoder
	enc  resp.Encoder

	mu       sync.Mutex // held for a whole request/replies exchange
	inFlight atomic.Int32
	lastUsed atomic.Int64 // unix nanoseconds
	closed   atomic.Bool
}

// NewConnection wraps an established network connection.
func NewConnection(conn net.Conn) *Connection {
	c := &Connection{
		conn: conn,
		dec:  resp.NewDecoder(readBufferSize),
	}
	c.lastUsed.Store(coarsetime.Now().UnixNano())
	return c
}

// Send writes one command and reads its reply.
// Error replies from the server are returned as values of KindError.
func (c *Connection) Send(ctx context.Context, cmd resp.Value) (resp.Value, error) {
	var reply [1]resp.Value
	if err := c.exchange(ctx, []resp.Value{cmd}, reply[:]); err != nil {
		return resp.Value{}, err
	}
	return reply[0], nil
}

// SendBatch pipelines cmds: all commands are written with a single write,
// then one reply per command is read, in order.
func (c *Connection) SendBatch(ctx context.Context, cmds []resp.Value) ([]resp.Value, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	replies := make([]resp.Value, len(cmds))
	if err := c.exchange(ctx, cmds, replies); err != nil {
		return nil, err
	}
	return replies, nil
}

func (c *Connection) exchange(ctx context.Context, cmds, replies []resp.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrConnectionClosed
	}

	c.inFlight.Add(int32(len(cmds)))
	defer c.inFlight.Add(-int32(len(cmds)))

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.Close()
		return &resp.ConnectionError{Op: "set deadline", Err: err}
	}

	// Unblock the exchange when ctx is canceled before its deadline. A
	// callback already running must land before the next exchange sets its
	// own deadline.
	canceled := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(canceled)
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer func() {
		if !stop() {
			<-canceled
		}
	}()

	for _, cmd := range cmds {
		c.enc.Encode(cmd)
	}
	if _, err := c.enc.WriteTo(c.conn); err != nil {
		c.Close()
		return contextError(ctx, err)
	}

	for i := range replies {
		v, err := c.readReply()
		if err != nil {
			c.Close()
			return contextError(ctx, err)
		}
		replies[i] = v
	}

	c.lastUsed.Store(coarsetime.Now().UnixNano())
	return nil
}

// readReply decodes the next reply, reading from the socket for as long as
// the buffered bytes hold an incomplete frame.
func (c *Connection) readReply() (resp.Value, error) {
	for {
		v, ok, err := c.dec.Next()
		if err != nil {
			return resp.Value{}, err
		}
		if ok {
			return v, nil
		}

		if n, err := c.dec.Fill(c.conn); n == 0 && err != nil {
			return resp.Value{}, &resp.ConnectionError{Op: "read", Err: err}
		}
	}
}

// contextError reports the context error instead of the I/O timeout it caused.
func contextError(ctx context.Context, err error) error {
	var connErr *resp.ConnectionError
	if ctxErr := ctx.Err(); ctxErr != nil && errors.As(err, &connErr) {
		return &resp.ConnectionError{Op: connErr.Op, Err: ctxErr}
	}
	return err
}

// Ping checks that the server answers PING with PONG.
func (c *Connection) Ping(ctx context.Context) error {
	reply, err := c.Send(ctx, resp.Command("PING"))
	if err != nil {
		return err
	}

	pong, err := resp.AsString(reply)
	if err != nil {
		return err
	}
	if pong != resp.StatusPong {
		return fmt.Errorf("redis: unexpected ping reply %q", pong)
	}
	return nil
}

// InFlight returns the number of commands waiting for a reply
func (c *Connection) InFlight() int {
	return int(c.inFlight.Load())
}

// LastUsed returns when the last exchange completed
func (c *Connection) LastUsed() time.Time {
	return time.Unix(0, c.lastUsed.Load())
}

// IsClosed returns whether the connection is closed
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// RemoteAddr returns the address of the server
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection. A running exchange fails with a read or
// write error.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}
