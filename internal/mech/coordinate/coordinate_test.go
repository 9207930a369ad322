package coordinate

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stlalpha/specmech/internal/config"
	"github.com/stlalpha/specmech/internal/mech"
	"github.com/stlalpha/specmech/internal/mech/client"
	"github.com/stlalpha/specmech/internal/mech/errs"
)

// scriptedServer replies to successive commands with the bytes in
// script, in order, regardless of what was sent. It exists to drive
// coordinate-level tests where the exact reply sequence matters more
// than matching on command text.
type scriptedServer struct {
	mu     sync.Mutex
	script [][]byte
	next   int
}

func startScriptedServer(t *testing.T, script [][]byte) (host string, port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &scriptedServer{script: script}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, func() { ln.Close() }
}

func (s *scriptedServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		if _, err := r.ReadString('\r'); err != nil {
			return
		}
		s.mu.Lock()
		if s.next >= len(s.script) {
			s.mu.Unlock()
			return
		}
		reply := s.script[s.next]
		s.next++
		s.mu.Unlock()
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

func newCoordinator(t *testing.T, script [][]byte) *Coordinator {
	t.Helper()
	cfg := config.Default()
	cfg.Timeouts.PneumaticsSec = 0.01
	return newCoordinatorWithConfig(t, script, cfg)
}

func newCoordinatorWithConfig(t *testing.T, script [][]byte, cfg config.SpecMechConfig) *Coordinator {
	t.Helper()
	host, port, stop := startScriptedServer(t, script)
	t.Cleanup(stop)

	c := client.New(host, port, false)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return New(c, cfg)
}

func TestPneumaticMoveSucceedsOnFirstPoll(t *testing.T) {
	co := newCoordinator(t, [][]byte{
		[]byte("$S2CMD,os;1*11\r\n>"),
		[]byte("$S2CMD,rp;2*0C\r\n$S2PNU,,o,,c,,o,,1*78\r\n>"),
	})

	state, err := co.PneumaticMove(context.Background(), mech.Shutter, true)
	if err != nil {
		t.Fatalf("PneumaticMove: %v", err)
	}
	if state != mech.Open {
		t.Errorf("state = %v, want open", state)
	}
}

func TestPneumaticMoveTimesOutAfterTwoPolls(t *testing.T) {
	co := newCoordinator(t, [][]byte{
		[]byte("$S2CMD,os;1*11\r\n>"),
		[]byte("$S2CMD,rp;2*0C\r\n$S2PNU,,t,,c,,o,,1*63\r\n>"),
		[]byte("$S2CMD,rp;3*0D\r\n$S2PNU,,t,,c,,o,,1*63\r\n>"),
	})

	_, err := co.PneumaticMove(context.Background(), mech.Shutter, true)
	if err == nil {
		t.Fatal("PneumaticMove: want MechanismTransitionError, got nil")
	}
	var ae *errs.Error
	if !errs.As(err, &ae) || ae.Kind != errs.KindMechanismTransition {
		t.Errorf("err = %v, want KindMechanismTransition", err)
	}
}

func TestCollimatorMoveOutOfRangeIssuesNoWireCommand(t *testing.T) {
	script := [][]byte{
		[]byte("$S2CMD,ra;1*1E\r\n$S2MTR,,a,1000,,0,,0,,N,,N*66\r\n>"),
		[]byte("$S2CMD,rb;2*1E\r\n$S2MTR,,b,1000,,0,,0,,N,,N*65\r\n>"),
		[]byte("$S2CMD,rc;3*1E\r\n$S2MTR,,c,1000,,0,,0,,N,,N*64\r\n>"),
	}

	cfg := config.Default()
	cfg.SpecMech.Motors["a"] = config.MotorConfig{MinMicrons: 100, MaxMicrons: 2900, SpeedMicronsPerSec: 25}
	cfg.SpecMech.Motors["b"] = config.MotorConfig{MinMicrons: 100, MaxMicrons: 2900, SpeedMicronsPerSec: 25}
	cfg.SpecMech.Motors["c"] = config.MotorConfig{MinMicrons: 100, MaxMicrons: 2900, SpeedMicronsPerSec: 25}
	co := newCoordinatorWithConfig(t, script, cfg)

	_, err := co.CollimatorMove(context.Background(), MoveRequest{
		Position: 3000,
		Motor:    mech.AxisA,
		HasMotor: true,
		Absolute: true,
	})
	if err == nil {
		t.Fatal("CollimatorMove: want OutOfRangeError, got nil")
	}
	var ae *errs.Error
	if !errs.As(err, &ae) || ae.Kind != errs.KindOutOfRange {
		t.Errorf("err = %v, want KindOutOfRange", err)
	}
}

func TestCollimatorMoveConverges(t *testing.T) {
	co := newCoordinator(t, [][]byte{
		[]byte("$S2CMD,ra;1*1E\r\n$S2MTR,,a,1000,,0,,0,,N,,N*66\r\n>"),
		[]byte("$S2CMD,rb;2*1E\r\n$S2MTR,,b,1000,,0,,0,,N,,N*65\r\n>"),
		[]byte("$S2CMD,rc;3*1E\r\n$S2MTR,,c,1000,,0,,0,,N,,N*64\r\n>"),
		[]byte("$S2CMD,md200;4*33\r\n>"),
		[]byte("$S2CMD,rd;5*1F\r\n$S2MTR,,a,1201,,0,,0,,N,,N*65\r\n$S2MTR,,b,1199,,0,,0,,N,,N*64\r\n$S2MTR,,c,1200,,0,,0,,N,,N*66\r\n>"),
	})

	result, err := co.CollimatorMove(context.Background(), MoveRequest{Position: 200, Tolerance: 2})
	if err != nil {
		t.Fatalf("CollimatorMove: %v", err)
	}
	if result.Positions[mech.AxisA] != 1201 || result.Positions[mech.AxisB] != 1199 || result.Positions[mech.AxisC] != 1200 {
		t.Errorf("Positions = %+v, want a=1201 b=1199 c=1200", result.Positions)
	}
	wantMoveTime := time.Duration(200.0 / 25.0 * float64(time.Second))
	if result.MoveTime != wantMoveTime {
		t.Errorf("MoveTime = %v, want %v", result.MoveTime, wantMoveTime)
	}
}
