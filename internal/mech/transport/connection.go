// Package transport owns the raw TCP stream to the specMech
// controller: dialing with a bounded timeout, byte-level read/write,
// and idempotent close. It knows nothing about the wire protocol.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// DialTimeout bounds how long Connect waits for the TCP handshake.
const DialTimeout = 3 * time.Second

// ErrNotConnected is returned by Read/Write when no stream is open.
var ErrNotConnected = errors.New("transport: not connected")

// Connection owns a single TCP stream to the controller. It is safe
// for concurrent Read and Write (each serialized independently); the
// Client above it is responsible for serializing whole command/reply
// interactions.
type Connection struct {
	address string
	port    int

	mu   sync.Mutex
	conn net.Conn

	closed int32 // atomic
}

// New returns a Connection targeting host:port. Connect must be called
// before Read/Write will succeed.
func New(address string, port int) *Connection {
	return &Connection{address: address, port: port}
}

// Connect dials the controller, bounded by DialTimeout.
func (c *Connection) Connect() error {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", c.address, c.port), DialTimeout)
	if err != nil {
		return fmt.Errorf("transport: dial %s:%d: %w", c.address, c.port, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	atomic.StoreInt32(&c.closed, 0)
	return nil
}

// Connected reports whether a live stream is held. It does not probe
// the socket; a peer-initiated close is only detected on the next
// Read or Write.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && atomic.LoadInt32(&c.closed) == 0
}

// Write sends p on the stream.
func (c *Connection) Write(p []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	_, err := conn.Write(p)
	if err != nil {
		c.markDisconnected()
	}
	return err
}

// ReadUntil reads repeatedly into an internal buffer until stop
// reports true on the accumulated bytes, ctx is done, or an I/O error
// occurs. It returns everything read so far on both success and
// error. Cancellation works the same way a read deadline would: a
// watcher goroutine forces a past read deadline on the underlying
// conn as soon as ctx is done, unblocking any pending Read.
func (c *Connection) ReadUntil(ctx context.Context, stop func([]byte) bool) ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	defer conn.SetReadDeadline(time.Time{})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	var acc []byte
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if stop(acc) {
				return acc, nil
			}
		}
		if err != nil {
			c.markDisconnected()
			if ctx.Err() != nil {
				return acc, ctx.Err()
			}
			return acc, err
		}
	}
}

func (c *Connection) markDisconnected() {
	atomic.StoreInt32(&c.closed, 1)
}

// Close idempotently closes the stream.
func (c *Connection) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	atomic.StoreInt32(&c.closed, 1)
	if conn == nil {
		return nil
	}
	return conn.Close()
}
