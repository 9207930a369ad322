// Package status converts decoded reply sentences into the typed
// status records the rest of the mech packages operate on.
package status

import (
	"fmt"
	"strconv"

	"github.com/stlalpha/specmech/internal/mech"
	"github.com/stlalpha/specmech/internal/mech/frame"
)

// Kind identifies one of the report commands accepted by get_stat.
type Kind string

const (
	Time        Kind = "time"
	Version     Kind = "version"
	Environment Kind = "environment"
	Vacuum      Kind = "vacuum"
	Motors      Kind = "motors"
	MotorA      Kind = "motor-a"
	MotorB      Kind = "motor-b"
	MotorC      Kind = "motor-c"
	Orientation Kind = "orientation"
	Pneumatics  Kind = "pneumatics"
	SpecMech    Kind = "specmech"
	Nitrogen    Kind = "nitrogen"
)

// Wire is the outbound report command for each Kind.
var Wire = map[Kind]string{
	Time:        "rt",
	Version:     "rV",
	Environment: "re",
	Vacuum:      "rv",
	Motors:      "rd",
	MotorA:      "ra",
	MotorB:      "rb",
	MotorC:      "rc",
	Orientation: "ro",
	Pneumatics:  "rp",
	SpecMech:    "rs",
	Nitrogen:    "rn",
}

// expectedTag is the sentence tag a Kind's reply must carry, used to
// guard against decoding the wrong record.
var expectedTag = map[Kind]string{
	Time:        "TIM",
	Version:     "VER",
	Environment: "ENV",
	Vacuum:      "VAC",
	Motors:      "MTR",
	MotorA:      "MTR",
	MotorB:      "MTR",
	MotorC:      "MTR",
	Orientation: "ORI",
	Pneumatics:  "PNU",
	SpecMech:    "S2",
	Nitrogen:    "LN2",
}

// Time is the decoded "rt" reply.
type Time struct {
	BootTime string
	Clock    string
	SetTime  string
}

// Version is the decoded "rV" reply.
type Version struct {
	Version string
}

// Environment is the decoded "re" reply: three sensor pairs plus the
// specMech board's own temperature.
type Environment struct {
	T0, H0 float64
	T1, H1 float64
	T2, H2 float64
	TMech  float64
}

// Vacuum is the decoded "rv" reply.
type Vacuum struct {
	RedLog10Pa  float64
	BlueLog10Pa float64
}

// Motor is the decoded "ra"/"rb"/"rc" reply.
//
// MinEncoder and MaxEncoder are not carried by any sentence this
// controller actually emits; they are set only if a controller reply
// happens to carry trailing encoder-bound fields at indices 11/12, and
// are zero otherwise. The collimator precheck skips a bound that is
// zero (see coordinate.CollimatorMove).
type Motor struct {
	Axis           mech.Axis
	Position       int
	Speed          int
	Current        int
	Direction      string
	LimitTriggered bool
	MinEncoder     int
	MaxEncoder     int
}

// Orientation is the decoded "ro" reply.
type Orientation struct {
	X, Y, Z float64
}

// Pneumatics is the decoded "rp" reply.
type Pneumatics struct {
	Shutter     mech.PneumaticState
	Left        mech.PneumaticState
	Right       mech.PneumaticState
	AirPressure bool // true = on
}

// SpecMechStatus is the decoded "rs" reply.
type SpecMechStatus struct {
	FanOn            bool
	PowerSupplyVolts float64
}

// Nitrogen is the decoded "rn" reply: four valve states and three
// thermistor readings for the LN2 fill system.
type Nitrogen struct {
	BufferDewarSupply mech.ValveState
	BufferDewarVent   mech.ValveState
	RedDewarVent      mech.ValveState
	BlueDewarVent     mech.ValveState

	TimeNextFillSec   int
	MaxValveOpenSec   int
	FillIntervalSec   int
	PressureMilliTorr int

	BufferDewarThermistor mech.ThermistorState
	RedDewarThermistor    mech.ThermistorState
	BlueDewarThermistor   mech.ThermistorState
}

// Decode converts a decoded frame.Reply into the typed record for
// kind. The caller is responsible for having already checked the
// reply with errs.CheckReply.
func Decode(kind Kind, reply frame.Reply) (any, error) {
	tag, ok := expectedTag[kind]
	if !ok {
		return nil, fmt.Errorf("status: unknown stat kind %q", kind)
	}

	if kind == Motors {
		return decodeMotors(reply)
	}

	s, ok := reply.Sentence(tag)
	if !ok {
		return nil, fmt.Errorf("status: no %s sentence in reply for %q", tag, kind)
	}

	switch kind {
	case Time:
		return Time{BootTime: s.Field(3), Clock: s.Field(0), SetTime: s.Field(1)}, nil
	case Version:
		return Version{Version: s.Field(1)}, nil
	case Environment:
		return decodeEnvironment(s)
	case Vacuum:
		return decodeVacuum(s)
	case MotorA, MotorB, MotorC:
		return decodeMotor(s)
	case Orientation:
		return decodeOrientation(s)
	case Pneumatics:
		return decodePneumatics(s), nil
	case SpecMech:
		return decodeSpecMech(s)
	case Nitrogen:
		return decodeNitrogen(s)
	default:
		return nil, fmt.Errorf("status: unhandled stat kind %q", kind)
	}
}

func decodeEnvironment(s frame.Sentence) (Environment, error) {
	vals, err := parseFloats(s, 1, 3, 5, 7, 9, 11, 13)
	if err != nil {
		return Environment{}, err
	}
	return Environment{
		T0: vals[0], H0: vals[1],
		T1: vals[2], H1: vals[3],
		T2: vals[4], H2: vals[5],
		TMech: vals[6],
	}, nil
}

func decodeVacuum(s frame.Sentence) (Vacuum, error) {
	vals, err := parseFloats(s, 1, 3)
	if err != nil {
		return Vacuum{}, err
	}
	return Vacuum{RedLog10Pa: vals[0], BlueLog10Pa: vals[1]}, nil
}

func decodeOrientation(s frame.Sentence) (Orientation, error) {
	vals, err := parseFloats(s, 1, 2, 3)
	if err != nil {
		return Orientation{}, err
	}
	return Orientation{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func decodeMotor(s frame.Sentence) (Motor, error) {
	pos, err := strconv.Atoi(s.Field(2))
	if err != nil {
		return Motor{}, fmt.Errorf("status: motor position %q: %w", s.Field(2), err)
	}
	speed, err := strconv.Atoi(s.Field(4))
	if err != nil {
		return Motor{}, fmt.Errorf("status: motor speed %q: %w", s.Field(4), err)
	}
	current, err := strconv.Atoi(s.Field(6))
	if err != nil {
		return Motor{}, fmt.Errorf("status: motor current %q: %w", s.Field(6), err)
	}
	m := Motor{
		Axis:           mech.Axis(s.Field(1)),
		Position:       pos,
		Speed:          speed,
		Current:        current,
		Direction:      s.Field(8),
		LimitTriggered: s.Field(10) == "Y",
	}
	if lo, err := strconv.Atoi(s.Field(11)); err == nil {
		m.MinEncoder = lo
	}
	if hi, err := strconv.Atoi(s.Field(12)); err == nil {
		m.MaxEncoder = hi
	}
	return m, nil
}

// decodeMotors handles the "rd" multi-sentence reply: one MTR sentence
// per axis, each carrying only the position field.
func decodeMotors(reply frame.Reply) (map[mech.Axis]int, error) {
	out := map[mech.Axis]int{}
	for _, s := range reply.Sentences {
		if s.Tag != "MTR" {
			continue
		}
		pos, err := strconv.Atoi(s.Field(2))
		if err != nil {
			return nil, fmt.Errorf("status: motor position %q: %w", s.Field(2), err)
		}
		out[mech.Axis(s.Field(1))] = pos
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("status: no MTR sentences in motors reply")
	}
	return out, nil
}

func decodePneumatics(s frame.Sentence) Pneumatics {
	return Pneumatics{
		Shutter:     mech.ParsePneumaticState(s.Field(1)),
		Left:        mech.ParsePneumaticState(s.Field(3)),
		Right:       mech.ParsePneumaticState(s.Field(5)),
		AirPressure: s.Field(7) != "0",
	}
}

func decodeSpecMech(s frame.Sentence) (SpecMechStatus, error) {
	fanRaw, err := strconv.Atoi(s.Field(1))
	if err != nil {
		return SpecMechStatus{}, fmt.Errorf("status: specmech fan field %q: %w", s.Field(1), err)
	}
	volts, err := strconv.ParseFloat(s.Field(3), 64)
	if err != nil {
		return SpecMechStatus{}, fmt.Errorf("status: specmech volts field %q: %w", s.Field(3), err)
	}
	return SpecMechStatus{FanOn: fanRaw != 0, PowerSupplyVolts: volts}, nil
}

func decodeNitrogen(s frame.Sentence) (Nitrogen, error) {
	valveChars := s.Field(1)
	if len(valveChars) < 4 {
		return Nitrogen{}, fmt.Errorf("status: LN2 valve field too short: %q", valveChars)
	}
	valves := make([]mech.ValveState, 4)
	for i := 0; i < 4; i++ {
		valves[i] = mech.ParseValveState(valveChars[i])
	}

	nextFill, err := strconv.Atoi(s.Field(2))
	if err != nil {
		return Nitrogen{}, fmt.Errorf("status: LN2 next-fill field %q: %w", s.Field(2), err)
	}
	maxOpen, err := strconv.Atoi(s.Field(4))
	if err != nil {
		return Nitrogen{}, fmt.Errorf("status: LN2 max-open field %q: %w", s.Field(4), err)
	}
	interval, err := strconv.Atoi(s.Field(6))
	if err != nil {
		return Nitrogen{}, fmt.Errorf("status: LN2 interval field %q: %w", s.Field(6), err)
	}
	pressure, err := strconv.Atoi(s.Field(8))
	if err != nil {
		return Nitrogen{}, fmt.Errorf("status: LN2 pressure field %q: %w", s.Field(8), err)
	}

	return Nitrogen{
		BufferDewarSupply: valves[0],
		BufferDewarVent:   valves[1],
		RedDewarVent:      valves[2],
		BlueDewarVent:     valves[3],

		TimeNextFillSec:   nextFill,
		MaxValveOpenSec:   maxOpen,
		FillIntervalSec:   interval,
		PressureMilliTorr: pressure,

		BufferDewarThermistor: mech.ParseThermistorState(fieldByte(s, 10)),
		RedDewarThermistor:    mech.ParseThermistorState(fieldByte(s, 12)),
		BlueDewarThermistor:   mech.ParseThermistorState(fieldByte(s, 14)),
	}, nil
}

func fieldByte(s frame.Sentence, i int) byte {
	f := s.Field(i)
	if f == "" {
		return 0
	}
	return f[0]
}

func parseFloats(s frame.Sentence, indices ...int) ([]float64, error) {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		v, err := strconv.ParseFloat(s.Field(idx), 64)
		if err != nil {
			return nil, fmt.Errorf("status: field %d (%q): %w", idx, s.Field(idx), err)
		}
		out[i] = v
	}
	return out, nil
}
