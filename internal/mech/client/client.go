// Package client implements the serialized command/reply interaction
// with the specMech controller: one command in flight at a time,
// sequence numbering, reply-terminator detection, and reboot tracking.
package client

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/stlalpha/specmech/internal/logging"
	"github.com/stlalpha/specmech/internal/mech/frame"
	"github.com/stlalpha/specmech/internal/mech/transport"
)

// DefaultSendTimeout bounds a Send call that specifies no explicit
// timeout.
const DefaultSendTimeout = 10 * time.Second

// Client serializes command/reply interactions with the controller
// over a transport.Connection.
type Client struct {
	address string
	port    int

	framer *frame.Framer
	conn   *transport.Connection

	mu            sync.Mutex // exclusive_lock: guards one send() at a time
	connected     bool
	commandNumber int
	rebootPending bool
}

// New returns a Client targeting host:port. sequenceWrap governs the
// Framer's sequence-id behavior (see frame.Framer).
func New(address string, port int, sequenceWrap bool) *Client {
	return &Client{
		address: address,
		port:    port,
		framer:  frame.New(sequenceWrap),
		conn:    transport.New(address, port),
	}
}

// Start opens the connection and resets sequencing/reboot state.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.Connect(); err != nil {
		c.connected = false
		return err
	}
	c.commandNumber = 0
	c.rebootPending = false
	c.connected = true
	return nil
}

// IsConnected reports whether the client currently holds a live
// stream.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.conn.Connected()
}

// RebootPending reports whether the controller reported a reboot that
// has not yet been acknowledged.
func (c *Client) RebootPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebootPending
}

// Send serializes behind the client's exclusive lock: frames command,
// writes it, reads until a reply terminator is observed, and decodes
// the result. A zero timeout uses DefaultSendTimeout. On I/O error or
// timeout the stream is dropped and the returned reply carries
// frame.ConnectionFailed; the caller must Start() again before the
// next Send.
func (c *Client) Send(ctx context.Context, command string, timeout time.Duration) frame.Reply {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return frame.Reply{Code: frame.ConnectionFailed}
	}

	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	seq := c.commandNumber
	if command != "!" {
		c.commandNumber++
		seq = c.commandNumber
	}
	wire := c.framer.Encode(command, seq)

	logging.Debug("sent to specMech: %q", wire)

	if err := c.conn.Write(wire); err != nil {
		c.connected = false
		return frame.Reply{Code: frame.ConnectionFailed}
	}

	raw, err := c.conn.ReadUntil(sendCtx, isCompleteReply)
	if err != nil {
		c.connected = false
		return frame.Reply{Code: frame.ConnectionFailed, Raw: raw}
	}

	logging.Debug("received from specMech: %q", raw)

	reply := c.framer.Decode(raw)

	switch reply.Code {
	case frame.ControllerRebooted:
		c.rebootPending = true
	case frame.RebootAcknowledged:
		c.rebootPending = false
	}

	return reply
}

// isCompleteReply reports whether acc contains a reply terminator: the
// end-of-message marker '>' or the bare reboot marker '!'.
func isCompleteReply(acc []byte) bool {
	return bytes.ContainsAny(acc, ">!")
}

// Close closes the stream. Reconnection is possible via a fresh Start.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return c.conn.Close()
}
