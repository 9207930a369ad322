package coordinate

import (
	"context"

	"github.com/stlalpha/specmech/internal/logging"
	"github.com/stlalpha/specmech/internal/mech"
	"github.com/stlalpha/specmech/internal/mech/errs"
	"github.com/stlalpha/specmech/internal/mech/status"
)

// pneumaticCommand is the wire command for each mechanism/direction
// pair: os/cs open/close the shutter, ol/cl the left door, or/cr the
// right door.
var pneumaticCommand = map[mech.Mechanism]map[bool]string{
	mech.Shutter: {true: "os", false: "cs"},
	mech.Left:    {true: "ol", false: "cl"},
	mech.Right:   {true: "or", false: "cr"},
}

// pneumaticPollAttempts bounds how many times PneumaticMove polls for
// the mechanism to finish transitioning before giving up.
const pneumaticPollAttempts = 2

// PneumaticMove opens or closes the shutter or a Hartmann door and
// polls until the controller reports the destination state, or raises
// a mechanism-transition error after pneumaticPollAttempts failed
// polls.
func (c *Coordinator) PneumaticMove(ctx context.Context, m mech.Mechanism, open bool) (mech.PneumaticState, error) {
	if !m.Valid() {
		return mech.Transitioning, errs.New(errs.KindConfig, "unknown pneumatic mechanism %q", m)
	}
	cmd := pneumaticCommand[m][open]

	reply := c.client.Send(ctx, cmd, 0)
	if err := errs.CheckReply(reply); err != nil {
		return mech.Transitioning, err
	}

	want := mech.Closed
	if open {
		want = mech.Open
	}

	var last mech.PneumaticState
	for attempt := 0; attempt < pneumaticPollAttempts; attempt++ {
		if err := sleepCtx(ctx, c.pollInterval()); err != nil {
			return last, err
		}
		raw, err := c.GetStat(ctx, status.Pneumatics)
		if err != nil {
			return last, err
		}
		pneu := raw.(status.Pneumatics)
		last = pneumaticField(pneu, m)
		if last == want {
			return last, nil
		}
		if attempt < pneumaticPollAttempts-1 {
			logging.Warn("%s did not reach %s yet (state %s), waiting a bit longer", m, want, last)
		}
	}

	return last, errs.New(errs.KindMechanismTransition,
		"%s did not reach %s after %d polls (last state %s)", m, want, pneumaticPollAttempts, last)
}

func pneumaticField(p status.Pneumatics, m mech.Mechanism) mech.PneumaticState {
	switch m {
	case mech.Left:
		return p.Left
	case mech.Right:
		return p.Right
	default:
		return p.Shutter
	}
}
