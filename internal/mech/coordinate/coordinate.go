// Package coordinate implements the high-level specMech operations:
// pneumatic moves with transition polling, collimator moves with
// precondition and convergence checks, time synchronization, and
// reboot acknowledgement. It sits above client.Client and status.
package coordinate

import (
	"context"
	"sync"
	"time"

	"github.com/stlalpha/specmech/internal/config"
	"github.com/stlalpha/specmech/internal/logging"
	"github.com/stlalpha/specmech/internal/mech/client"
	"github.com/stlalpha/specmech/internal/mech/errs"
	"github.com/stlalpha/specmech/internal/mech/frame"
	"github.com/stlalpha/specmech/internal/mech/status"
)

// Coordinator drives the specMech protocol client to implement the
// mechanism- and time-level operations the dispatcher exposes to
// operators.
type Coordinator struct {
	client *client.Client

	cfgMu                 sync.RWMutex
	cfg                   config.SpecMechConfig
	pneumaticPollInterval time.Duration
}

// New returns a Coordinator driving c, configured from cfg.
func New(c *client.Client, cfg config.SpecMechConfig) *Coordinator {
	co := &Coordinator{client: c}
	co.ApplyConfig(cfg)
	return co
}

// GetStat issues the report command for kind and returns its typed
// decode.
func (c *Coordinator) GetStat(ctx context.Context, kind status.Kind) (any, error) {
	wire, ok := status.Wire[kind]
	if !ok {
		return nil, errs.New(errs.KindConfig, "invalid specMech stat %q", kind)
	}
	reply := c.client.Send(ctx, wire, 0)
	if err := errs.CheckReply(reply); err != nil {
		return nil, err
	}
	return status.Decode(kind, reply)
}

// Talk sends a raw command string as-is and returns the decoded reply.
// Raw has any leading telnet subnegotiation block stripped, so callers
// see only the mechanism's actual reply bytes.
func (c *Coordinator) Talk(ctx context.Context, raw string) (frame.Reply, error) {
	reply := c.client.Send(ctx, raw, 0)
	reply.Raw = frame.StripTelnetPrefix(reply.Raw)
	if err := errs.CheckReply(reply); err != nil {
		return reply, err
	}
	return reply, nil
}

// SetTime sends an explicit "st<iso>" command, bypassing the
// background sync loop.
func (c *Coordinator) SetTime(ctx context.Context, iso string) error {
	reply := c.client.Send(ctx, "st"+iso, 0)
	return errs.CheckReply(reply)
}

// Fan turns the specMech chassis fan on or off.
func (c *Coordinator) Fan(ctx context.Context, on bool) error {
	cmd := "sf-"
	if on {
		cmd = "sf+"
	}
	reply := c.client.Send(ctx, cmd, 0)
	return errs.CheckReply(reply)
}

// Reboot requests a controller reboot. The controller reports
// CONTROLLER_REBOOTED on this or a subsequent interaction; callers
// must Ack before issuing further commands.
func (c *Coordinator) Reboot(ctx context.Context) error {
	reply := c.client.Send(ctx, "R", 0)
	if err := errs.CheckReply(reply); err != nil {
		var ae *errs.Error
		if errs.As(err, &ae) && ae.Kind == errs.KindControllerRebooted {
			return nil
		}
		return err
	}
	return nil
}

// Ack acknowledges a reported controller reboot.
func (c *Coordinator) Ack(ctx context.Context) error {
	reply := c.client.Send(ctx, "!", 0)
	if reply.Code != frame.RebootAcknowledged {
		return errs.New(errs.KindProtocol, "specMech did not acknowledge the reboot (code=%s)", reply.Code)
	}
	return nil
}

// RebootPending reports whether the controller has reported a reboot
// that has not yet been acknowledged.
func (c *Coordinator) RebootPending() bool {
	return c.client.RebootPending()
}

// CheckController is the sanity pre-check: the client must hold a
// live connection and respond to "rt" within 3 seconds.
func (c *Coordinator) CheckController(ctx context.Context) bool {
	if !c.client.IsConnected() {
		logging.Error("specMech is not connected")
		return false
	}
	reply := c.client.Send(ctx, "rt", 3*time.Second)
	if reply.Code == frame.ConnectionFailed {
		logging.Error("specMech did not respond to a sanity check within 3s")
		return false
	}
	return true
}

// Reconnect closes and reopens the underlying connection.
func (c *Coordinator) Reconnect() error {
	c.client.Close()
	return c.client.Start()
}

// Disconnect closes the underlying connection without reopening it.
func (c *Coordinator) Disconnect() error {
	return c.client.Close()
}

// ApplyConfig swaps in fresh motor/timeout/alert configuration
// without touching the live connection. Address and port changes in
// cfg are ignored here; those require reconnecting via Reconnect.
func (c *Coordinator) ApplyConfig(cfg config.SpecMechConfig) {
	interval := time.Duration(cfg.Timeouts.PneumaticsSec * float64(time.Second))
	if interval <= 0 {
		interval = 5 * time.Second
	}
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.cfg = cfg
	c.pneumaticPollInterval = interval
}

// config returns a snapshot of the current configuration.
func (c *Coordinator) config() config.SpecMechConfig {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.cfg
}

// pollInterval returns the currently configured pneumatic poll
// interval.
func (c *Coordinator) pollInterval() time.Duration {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.pneumaticPollInterval
}

// sleepCtx sleeps for d, returning early with ctx.Err() if ctx is
// cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
