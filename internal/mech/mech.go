// Package mech holds the small set of domain types shared across the
// specMech client packages (status, coordinate, dispatch): the pneumatic
// state enum and the mechanism/axis name sets. Keeping these in one
// leaf package avoids an import cycle between status and coordinate.
package mech

// PneumaticState is the state of a pneumatic mechanism (shutter or a
// Hartmann door). It is a total function of the wire character: 'c'
// maps to Closed, 'o' to Open, anything else to Transitioning.
type PneumaticState int

const (
	Closed PneumaticState = iota
	Open
	Transitioning
)

func (s PneumaticState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	default:
		return "transitioning"
	}
}

// ParsePneumaticState maps a single specMech wire character to a
// PneumaticState. Per the wire protocol: c->closed, o->open, anything
// else (typically 't') ->transitioning.
func ParsePneumaticState(c string) PneumaticState {
	switch c {
	case "c":
		return Closed
	case "o":
		return Open
	default:
		return Transitioning
	}
}

// Mechanism is a pneumatically actuated mechanism.
type Mechanism string

const (
	Shutter Mechanism = "shutter"
	Left    Mechanism = "left"
	Right   Mechanism = "right"
)

// Valid reports whether m is one of the known mechanisms.
func (m Mechanism) Valid() bool {
	switch m {
	case Shutter, Left, Right:
		return true
	default:
		return false
	}
}

// HartmannKeyword returns the bus-facing keyword used to report this
// mechanism's state: the shutter reports as "shutter", the two
// Hartmann doors report as "hartmann_left"/"hartmann_right".
func (m Mechanism) HartmannKeyword() string {
	switch m {
	case Left:
		return "hartmann_left"
	case Right:
		return "hartmann_right"
	default:
		return string(m)
	}
}

// Axis is a collimator motor axis.
type Axis string

const (
	AxisA Axis = "a"
	AxisB Axis = "b"
	AxisC Axis = "c"
)

// Valid reports whether a is one of the three known axes (case-insensitive).
func (a Axis) Valid() bool {
	switch Axis(lower(string(a))) {
	case AxisA, AxisB, AxisC:
		return true
	default:
		return false
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

// Axes is the canonical, ordered list of collimator axes.
var Axes = []Axis{AxisA, AxisB, AxisC}

// ValveState is the state of an LN2 fill/vent valve.
type ValveState int

const (
	ValveUnknown ValveState = iota
	ValveClosed
	ValveOpen
	ValveTimeout
	ValveDisabled
)

func (v ValveState) String() string {
	switch v {
	case ValveClosed:
		return "closed"
	case ValveOpen:
		return "open"
	case ValveTimeout:
		return "timeout"
	case ValveDisabled:
		return "disabled"
	default:
		return "?"
	}
}

// ParseValveState maps a single LN2 valve status character (case
// insensitive) to a ValveState: C→closed, O→open, T→timeout, X→disabled,
// anything else is ValveUnknown.
func ParseValveState(c byte) ValveState {
	switch upperByte(c) {
	case 'C':
		return ValveClosed
	case 'O':
		return ValveOpen
	case 'T':
		return ValveTimeout
	case 'X':
		return ValveDisabled
	default:
		return ValveUnknown
	}
}

// ThermistorState is the state of an LN2 cold/warm thermistor.
type ThermistorState int

const (
	ThermistorUnknown ThermistorState = iota
	ThermistorCold
	ThermistorWarm
)

func (t ThermistorState) String() string {
	switch t {
	case ThermistorCold:
		return "cold"
	case ThermistorWarm:
		return "warm"
	default:
		return "?"
	}
}

// ParseThermistorState maps a single thermistor status character
// (case insensitive) to a ThermistorState: C→cold, H→warm, else unknown.
func ParseThermistorState(c byte) ThermistorState {
	switch upperByte(c) {
	case 'C':
		return ThermistorCold
	case 'H':
		return ThermistorWarm
	default:
		return ThermistorUnknown
	}
}

func upperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 32
	}
	return c
}
