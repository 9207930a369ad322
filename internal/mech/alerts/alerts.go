// Package alerts implements the AlertBot: a small set of periodic
// checks, each hysteresis-gated on two consecutive samples, reporting
// state transitions and positive readings to a bus.Command at the
// appropriate severity.
package alerts

import (
	"context"
	"fmt"

	"github.com/stlalpha/specmech/internal/bus"
)

// Alert is one periodic check. Check evaluates the underlying
// condition and returns the raw (pre-hysteresis) sample.
type Alert interface {
	Keyword() string
	IntervalSeconds() int
	Check(ctx context.Context) (bool, error)
}

// rollingState holds the last two raw samples for one alert and
// derives the hysteresis-gated public value from them: value flips
// from v to !v only once two consecutive samples both read !v.
type rollingState struct {
	value   bool
	samples []bool
}

func newRollingState() *rollingState {
	return &rollingState{}
}

// sample records a new raw reading and reports whether the public
// value changed as a result.
func (r *rollingState) sample(v bool) (changed bool) {
	r.samples = append(r.samples, v)
	if len(r.samples) > 2 {
		r.samples = r.samples[len(r.samples)-2:]
	}
	if len(r.samples) < 2 {
		return false
	}
	if r.samples[0] == r.samples[1] && r.samples[0] != r.value {
		r.value = r.samples[0]
		return true
	}
	return false
}

// emit reports v to cmd at the policy's asymmetric severity: a true
// reading is emitted on every check at warning severity; a false
// reading is emitted only when it is new (changed, or forced at
// construction) at info severity.
func emit(cmd bus.Command, keyword string, v bool, changed, forced bool) {
	if v {
		cmd.Keyword(bus.SeverityWarning, keyword, v)
		return
	}
	if changed || forced {
		cmd.Keyword(bus.SeverityInfo, keyword, v)
	}
}

// checkErr formats a per-check failure the way the bot reports it:
// a warning, not a fatal error, so the loop keeps running.
func checkErr(name string, err error) string {
	return fmt.Sprintf("alert %s check failed: %v", name, err)
}
