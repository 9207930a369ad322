package status

import (
	"testing"

	"github.com/stlalpha/specmech/internal/mech"
	"github.com/stlalpha/specmech/internal/mech/frame"
)

func sentenceReply(tag string, fields ...string) frame.Reply {
	return frame.Reply{
		Code:      frame.Valid,
		Sentences: []frame.Sentence{{Tag: tag, Fields: fields}},
	}
}

func TestDecodePneumatics(t *testing.T) {
	reply := sentenceReply("PNU", "", "o", "", "c", "", "o", "", "1")
	got, err := Decode(Pneumatics, reply)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p := got.(Pneumatics)
	if p.Shutter != mech.Open || p.Left != mech.Closed || p.Right != mech.Open || !p.AirPressure {
		t.Errorf("Pneumatics = %+v, want open/closed/open/on", p)
	}
}

func TestDecodeMotor(t *testing.T) {
	reply := sentenceReply("MTR", "", "a", "1000", "microns", "500", "steps/s", "20", "mA", "fwd", "", "N")
	got, err := Decode(MotorA, reply)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m := got.(Motor)
	want := Motor{Axis: mech.AxisA, Position: 1000, Speed: 500, Current: 20, Direction: "fwd", LimitTriggered: false}
	if m != want {
		t.Errorf("Motor = %+v, want %+v", m, want)
	}
}

func TestDecodeMotors(t *testing.T) {
	reply := frame.Reply{
		Code: frame.Valid,
		Sentences: []frame.Sentence{
			{Tag: "MTR", Fields: []string{"", "a", "100"}},
			{Tag: "MTR", Fields: []string{"", "b", "200"}},
			{Tag: "MTR", Fields: []string{"", "c", "300"}},
		},
	}
	got, err := Decode(Motors, reply)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	positions := got.(map[mech.Axis]int)
	if positions[mech.AxisA] != 100 || positions[mech.AxisB] != 200 || positions[mech.AxisC] != 300 {
		t.Errorf("Motors = %+v, want a=100 b=200 c=300", positions)
	}
}

func TestDecodeEnvironment(t *testing.T) {
	reply := sentenceReply("ENV", "", "20.1", "", "45.0", "", "19.8", "", "44.0", "", "21.0", "", "40.0", "", "22.5")
	got, err := Decode(Environment, reply)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	e := got.(Environment)
	if e.T0 != 20.1 || e.H0 != 45.0 || e.TMech != 22.5 {
		t.Errorf("Environment = %+v", e)
	}
}

func TestDecodeTime(t *testing.T) {
	reply := sentenceReply("TIM", "12:00:00", "11:59:59", "", "2026-01-01T00:00:00")
	got, err := Decode(Time, reply)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tm := got.(Time)
	if tm.Clock != "12:00:00" || tm.SetTime != "11:59:59" || tm.BootTime != "2026-01-01T00:00:00" {
		t.Errorf("Time = %+v", tm)
	}
}

func TestDecodeSpecMech(t *testing.T) {
	reply := sentenceReply("S2", "", "1", "", "12.1")
	got, err := Decode(SpecMech, reply)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s := got.(SpecMechStatus)
	if !s.FanOn || s.PowerSupplyVolts != 12.1 {
		t.Errorf("SpecMechStatus = %+v", s)
	}
}

func TestDecodeNitrogen(t *testing.T) {
	reply := sentenceReply("LN2", "", "COOX", "3600", "", "30", "", "86400", "", "120", "", "C", "", "H", "", "C")
	got, err := Decode(Nitrogen, reply)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	n := got.(Nitrogen)
	if n.BufferDewarSupply != mech.ValveClosed || n.BufferDewarVent != mech.ValveOpen ||
		n.RedDewarVent != mech.ValveOpen || n.BlueDewarVent != mech.ValveDisabled {
		t.Errorf("Nitrogen valves = %+v", n)
	}
	if n.TimeNextFillSec != 3600 || n.MaxValveOpenSec != 30 || n.FillIntervalSec != 86400 || n.PressureMilliTorr != 120 {
		t.Errorf("Nitrogen intervals = %+v", n)
	}
	if n.BufferDewarThermistor != mech.ThermistorCold || n.RedDewarThermistor != mech.ThermistorWarm || n.BlueDewarThermistor != mech.ThermistorCold {
		t.Errorf("Nitrogen thermistors = %+v", n)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	if _, err := Decode(Kind("bogus"), frame.Reply{}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
