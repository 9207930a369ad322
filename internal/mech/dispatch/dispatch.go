// Package dispatch wires bus-facing verbs to coordinate.Coordinator
// operations and translates their typed results into the keyword
// names the actor historically reported them under.
package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stlalpha/specmech/internal/bus"
	"github.com/stlalpha/specmech/internal/mech"
	"github.com/stlalpha/specmech/internal/mech/coordinate"
	"github.com/stlalpha/specmech/internal/mech/errs"
	"github.com/stlalpha/specmech/internal/mech/status"
)

// Dispatcher executes operator verbs against a Coordinator, reporting
// results and errors to a bus.Command.
type Dispatcher struct {
	coord *coordinate.Coordinator
}

// New returns a Dispatcher driving coord.
func New(coord *coordinate.Coordinator) *Dispatcher {
	return &Dispatcher{coord: coord}
}

// correlationID returns a fresh identifier for one dispatched
// operation, used only in log lines to associate a verb's messages.
func correlationID() string {
	return uuid.NewString()
}

// Status handles the "status[kind]" verb: with no kind it reports the
// specMech board status; with a kind it reports exactly that record.
func (d *Dispatcher) Status(ctx context.Context, cmd bus.Command, kind string) {
	id := correlationID()

	k := status.Kind(kind)
	if kind == "" {
		k = status.SpecMech
	}

	result, err := d.coord.GetStat(ctx, k)
	if err != nil {
		failWith(cmd, id, "status", err)
		return
	}

	publishStatus(cmd, k, result)
	cmd.Finish("status %s reported", kind)
}

func publishStatus(cmd bus.Command, kind status.Kind, result any) {
	switch v := result.(type) {
	case status.Time:
		cmd.Keyword(bus.SeverityInfo, "bootTime", v.BootTime)
		cmd.Keyword(bus.SeverityInfo, "clockTime", v.Clock)
		cmd.Keyword(bus.SeverityInfo, "setTime", v.SetTime)
	case status.Version:
		cmd.Keyword(bus.SeverityInfo, "specMechVersion", v.Version)
	case status.Environment:
		cmd.Keyword(bus.SeverityInfo, "temperature0", v.T0)
		cmd.Keyword(bus.SeverityInfo, "humidity0", v.H0)
		cmd.Keyword(bus.SeverityInfo, "temperature1", v.T1)
		cmd.Keyword(bus.SeverityInfo, "humidity1", v.H1)
		cmd.Keyword(bus.SeverityInfo, "temperature2", v.T2)
		cmd.Keyword(bus.SeverityInfo, "humidity2", v.H2)
		cmd.Keyword(bus.SeverityInfo, "specMechTemp", v.TMech)
	case status.Vacuum:
		cmd.Keyword(bus.SeverityInfo, "vacuumPumpRedDewar", v.RedLog10Pa)
		cmd.Keyword(bus.SeverityInfo, "vacuumPumpBlueDewar", v.BlueLog10Pa)
	case status.Orientation:
		cmd.Keyword(bus.SeverityInfo, "accelerometer", []float64{v.X, v.Y, v.Z})
	case status.Motor:
		cmd.Keyword(bus.SeverityInfo, "motor", []any{string(v.Axis), v.Position, v.Speed, v.Current})
	case map[mech.Axis]int:
		for _, axis := range mech.Axes {
			cmd.Keyword(bus.SeverityInfo, fmt.Sprintf("motor%s", string(axis)), v[axis])
		}
	case status.Pneumatics:
		cmd.Keyword(bus.SeverityInfo, "shutter", v.Shutter.String())
		cmd.Keyword(bus.SeverityInfo, "hartmannLeft", v.Left.String())
		cmd.Keyword(bus.SeverityInfo, "hartmannRight", v.Right.String())
		cmd.Keyword(bus.SeverityInfo, "airPressure", onOff(v.AirPressure))
	case status.SpecMechStatus:
		cmd.Keyword(bus.SeverityInfo, "fan", onOff(v.FanOn))
		cmd.Keyword(bus.SeverityInfo, "powerSupplyVolts", v.PowerSupplyVolts)
	case status.Nitrogen:
		cmd.Keyword(bus.SeverityInfo, "bufferDewarSupply", v.BufferDewarSupply.String())
		cmd.Keyword(bus.SeverityInfo, "bufferDewarVent", v.BufferDewarVent.String())
		cmd.Keyword(bus.SeverityInfo, "redDewarVent", v.RedDewarVent.String())
		cmd.Keyword(bus.SeverityInfo, "blueDewarVent", v.BlueDewarVent.String())
		cmd.Keyword(bus.SeverityInfo, "timeNextFillSec", v.TimeNextFillSec)
		cmd.Keyword(bus.SeverityInfo, "pressureMilliTorr", v.PressureMilliTorr)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Ack handles the "ack" verb.
func (d *Dispatcher) Ack(ctx context.Context, cmd bus.Command) {
	id := correlationID()
	if err := d.coord.Ack(ctx); err != nil {
		failWith(cmd, id, "ack", err)
		return
	}
	cmd.Finish("specMech has been acknowledged.")
}

// Talk handles the "talk(raw)" verb.
func (d *Dispatcher) Talk(ctx context.Context, cmd bus.Command, raw string) {
	id := correlationID()
	reply, err := d.coord.Talk(ctx, raw)
	if err != nil {
		failWith(cmd, id, "talk", err)
		return
	}
	cmd.Keyword(bus.SeverityInfo, "mechRawReply", string(reply.Raw))
	cmd.Finish("")
}

// SetTime handles the "set_time(iso)" verb.
func (d *Dispatcher) SetTime(ctx context.Context, cmd bus.Command, iso string) {
	id := correlationID()
	if err := d.coord.SetTime(ctx, iso); err != nil {
		failWith(cmd, id, "set_time", err)
		return
	}
	cmd.Finish("")
}

// Open handles the "open(mechanisms…)" verb.
func (d *Dispatcher) Open(ctx context.Context, cmd bus.Command, mechanisms []mech.Mechanism) {
	d.moveMechanisms(ctx, cmd, mechanisms, true)
}

// Close handles the "close(mechanisms…)" verb.
func (d *Dispatcher) Close(ctx context.Context, cmd bus.Command, mechanisms []mech.Mechanism) {
	d.moveMechanisms(ctx, cmd, mechanisms, false)
}

func (d *Dispatcher) moveMechanisms(ctx context.Context, cmd bus.Command, mechanisms []mech.Mechanism, open bool) {
	id := correlationID()
	for _, m := range mechanisms {
		state, err := d.coord.PneumaticMove(ctx, m, open)
		if err != nil {
			failWith(cmd, id, string(m), err)
			return
		}
		cmd.Keyword(bus.SeverityInfo, m.HartmannKeyword(), state.String())
	}
	cmd.Finish("")
}

// Move handles the "move(position, motor?, absolute, tolerance,
// center, center_position)" verb.
func (d *Dispatcher) Move(ctx context.Context, cmd bus.Command, req coordinate.MoveRequest) {
	id := correlationID()
	result, err := d.coord.CollimatorMove(ctx, req)
	if err != nil {
		failWith(cmd, id, "move", err)
		return
	}
	for _, axis := range mech.Axes {
		cmd.Keyword(bus.SeverityInfo, fmt.Sprintf("motor%s", string(axis)), result.Positions[axis])
	}
	cmd.Finish(fmt.Sprintf("collimator move converged in %s", result.MoveTime))
}

// Reboot, Reconnect, Disconnect, and Fan are thin passthroughs.

func (d *Dispatcher) Reboot(ctx context.Context, cmd bus.Command) {
	id := correlationID()
	if err := d.coord.Reboot(ctx); err != nil {
		failWith(cmd, id, "reboot", err)
		return
	}
	cmd.Finish("specMech is rebooting.")
}

func (d *Dispatcher) Reconnect(cmd bus.Command) {
	id := correlationID()
	if err := d.coord.Reconnect(); err != nil {
		failWith(cmd, id, "reconnect", err)
		return
	}
	cmd.Finish("reconnected to specMech.")
}

func (d *Dispatcher) Disconnect(cmd bus.Command) {
	id := correlationID()
	if err := d.coord.Disconnect(); err != nil {
		failWith(cmd, id, "disconnect", err)
		return
	}
	cmd.Finish("disconnected from specMech.")
}

func (d *Dispatcher) Fan(ctx context.Context, cmd bus.Command, on bool) {
	id := correlationID()
	if err := d.coord.Fan(ctx, on); err != nil {
		failWith(cmd, id, "fan", err)
		return
	}
	cmd.Finish("")
}

func failWith(cmd bus.Command, id, verb string, err error) {
	var ae *errs.Error
	if errs.As(err, &ae) {
		cmd.Fail("%s [%s]: %s", verb, id, ae.Error())
		return
	}
	cmd.Fail("%s [%s]: %v", verb, id, err)
}
