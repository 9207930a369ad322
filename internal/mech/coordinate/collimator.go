package coordinate

import (
	"context"
	"fmt"
	"time"

	"github.com/stlalpha/specmech/internal/config"
	"github.com/stlalpha/specmech/internal/mech"
	"github.com/stlalpha/specmech/internal/mech/errs"
	"github.com/stlalpha/specmech/internal/mech/status"
)

// MoveRequest describes one collimator move. Motor is empty for a
// move that drives all three axes together; Absolute and Center are
// mutually exclusive ways of requesting a non-relative move.
type MoveRequest struct {
	Position  int
	Motor     mech.Axis // zero value means "all axes"
	HasMotor  bool
	Absolute  bool
	Center    bool
	Tolerance int
}

// MoveResult reports the converged positions after a collimator move.
type MoveResult struct {
	Positions map[mech.Axis]int
	MoveTime  time.Duration
}

const (
	collimatorSettleAttempts = 2
	collimatorSettleGap      = 3 * time.Second
)

// CollimatorMove validates preconditions for all three axes, issues
// the appropriate wire command(s) for req, then polls for convergence.
func (c *Coordinator) CollimatorMove(ctx context.Context, req MoveRequest) (MoveResult, error) {
	currents := map[mech.Axis]status.Motor{}
	for _, axis := range mech.Axes {
		m, err := c.motorPrecheck(ctx, axis)
		if err != nil {
			return MoveResult{}, err
		}
		currents[axis] = m
	}

	targets, err := c.computeTargets(req, currents)
	if err != nil {
		return MoveResult{}, err
	}

	maxDelta := 0
	for axis, target := range targets {
		mc := c.motorConfig(axis)
		if target < mc.MinMicrons || target > mc.MaxMicrons {
			return MoveResult{}, errs.New(errs.KindOutOfRange,
				"axis %s target %d outside [%d,%d]", axis, target, mc.MinMicrons, mc.MaxMicrons)
		}
		if d := abs(target - currents[axis].Position); d > maxDelta {
			maxDelta = d
		}
	}

	for _, cmd := range c.moveCommands(req, targets) {
		reply := c.client.Send(ctx, cmd, 0)
		if err := errs.CheckReply(reply); err != nil {
			return MoveResult{}, err
		}
	}

	speed := c.motorConfig(mech.AxisA).SpeedMicronsPerSec
	if speed <= 0 {
		speed = 25
	}
	moveTime := time.Duration(float64(maxDelta) / speed * float64(time.Second))

	if err := sleepCtx(ctx, moveTime+2*time.Second); err != nil {
		return MoveResult{}, err
	}

	tolerance := req.Tolerance
	if tolerance <= 0 {
		tolerance = 2
	}

	var last map[mech.Axis]int
	for attempt := 0; attempt < collimatorSettleAttempts; attempt++ {
		raw, err := c.GetStat(ctx, status.Motors)
		if err != nil {
			return MoveResult{}, err
		}
		last = raw.(map[mech.Axis]int)
		if withinTolerance(last, targets, tolerance) {
			return MoveResult{Positions: last, MoveTime: moveTime}, nil
		}
		if attempt < collimatorSettleAttempts-1 {
			if err := sleepCtx(ctx, collimatorSettleGap); err != nil {
				return MoveResult{}, err
			}
		}
	}

	return MoveResult{Positions: last, MoveTime: moveTime}, errs.New(errs.KindMoveDidNotConverge,
		"collimator did not settle within %d microns of target within %d polls", tolerance, collimatorSettleAttempts)
}

// motorPrecheck fetches an axis's status and checks the busy,
// limit-switch, and encoder-bound preconditions.
func (c *Coordinator) motorPrecheck(ctx context.Context, axis mech.Axis) (status.Motor, error) {
	raw, err := c.GetStat(ctx, motorKind(axis))
	if err != nil {
		return status.Motor{}, err
	}
	m := raw.(status.Motor)
	if m.Speed != 0 {
		return m, errs.New(errs.KindMotorBusy, "motor %s is already moving (speed=%d)", axis, m.Speed)
	}
	if m.LimitTriggered {
		return m, errs.New(errs.KindLimitSwitch, "motor %s limit switch is triggered", axis)
	}
	mc := c.motorConfig(axis)
	if m.MinEncoder != 0 && m.MinEncoder != mc.MinEncoder || m.MaxEncoder != 0 && m.MaxEncoder != mc.MaxEncoder {
		return m, errs.New(errs.KindOutOfRange,
			"motor %s encoder bounds [%d,%d] do not match configured [%d,%d]",
			axis, m.MinEncoder, m.MaxEncoder, mc.MinEncoder, mc.MaxEncoder)
	}
	return m, nil
}

func (c *Coordinator) motorConfig(axis mech.Axis) config.MotorConfig {
	if mc, ok := c.config().SpecMech.Motors[string(axis)]; ok {
		return mc
	}
	return config.MotorConfig{MaxMicrons: 1 << 30, SpeedMicronsPerSec: 25}
}

func (c *Coordinator) computeTargets(req MoveRequest, currents map[mech.Axis]status.Motor) (map[mech.Axis]int, error) {
	targets := map[mech.Axis]int{}

	if !req.HasMotor {
		if req.Absolute || req.Center {
			pos := req.Position
			for _, axis := range mech.Axes {
				targets[axis] = pos
			}
			return targets, nil
		}
		for _, axis := range mech.Axes {
			targets[axis] = currents[axis].Position + req.Position
		}
		return targets, nil
	}

	if !req.Motor.Valid() {
		return nil, errs.New(errs.KindConfig, "unknown motor axis %q", req.Motor)
	}
	for _, axis := range mech.Axes {
		targets[axis] = currents[axis].Position
	}
	if req.Absolute {
		targets[req.Motor] = req.Position
	} else {
		targets[req.Motor] = currents[req.Motor].Position + req.Position
	}
	return targets, nil
}

func (c *Coordinator) moveCommands(req MoveRequest, targets map[mech.Axis]int) []string {
	if !req.HasMotor {
		if req.Absolute || req.Center {
			return []string{
				fmt.Sprintf("mA%d", targets[mech.AxisA]),
				fmt.Sprintf("mB%d", targets[mech.AxisB]),
				fmt.Sprintf("mC%d", targets[mech.AxisC]),
			}
		}
		return []string{fmt.Sprintf("md%d", req.Position)}
	}

	letter := upper1(string(req.Motor))
	if !req.Absolute {
		letter = lower1(string(req.Motor))
	}
	return []string{fmt.Sprintf("m%s%d", letter, req.Position)}
}

func motorKind(axis mech.Axis) status.Kind {
	switch axis {
	case mech.AxisB:
		return status.MotorB
	case mech.AxisC:
		return status.MotorC
	default:
		return status.MotorA
	}
}

func withinTolerance(got, want map[mech.Axis]int, tolerance int) bool {
	for axis, target := range want {
		if abs(got[axis]-target) > tolerance {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func upper1(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 32
	}
	return string(b[:1])
}

func lower1(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 32
	}
	return string(b[:1])
}
