package dispatch

import (
	"bufio"
	"context"
	"net"
	"testing"

	"github.com/stlalpha/specmech/internal/bus"
	"github.com/stlalpha/specmech/internal/config"
	"github.com/stlalpha/specmech/internal/mech/client"
	"github.com/stlalpha/specmech/internal/mech/coordinate"
)

type recordingCommand struct {
	keywords []string
	finished bool
	failed   string
}

func (r *recordingCommand) Debug(format string, args ...any)   {}
func (r *recordingCommand) Info(format string, args ...any)    {}
func (r *recordingCommand) Warning(format string, args ...any) {}
func (r *recordingCommand) Error(format string, args ...any)   {}
func (r *recordingCommand) Fail(format string, args ...any)    { r.failed = format }
func (r *recordingCommand) Finish(format string, args ...any)  { r.finished = true }
func (r *recordingCommand) Keyword(severity bus.Severity, key string, value any) {
	r.keywords = append(r.keywords, key)
}
func (r *recordingCommand) SendCommand(target, text string) error { return nil }

func newTestDispatcher(t *testing.T, script [][]byte) *Dispatcher {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		for _, reply := range script {
			if _, err := r.ReadString('\r'); err != nil {
				return
			}
			if _, err := conn.Write(reply); err != nil {
				return
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	c := client.New(addr.IP.String(), addr.Port, false)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return New(coordinate.New(c, config.Default()))
}

func TestDispatcherStatusPneumatics(t *testing.T) {
	d := newTestDispatcher(t, [][]byte{
		[]byte("$S2CMD,rp;1*0F\r\n$S2PNU,,o,,c,,o,,1*78\r\n>"),
	})

	cmd := &recordingCommand{}
	d.Status(context.Background(), cmd, "pneumatics")

	if !cmd.finished {
		t.Fatalf("Status did not finish; failed=%q", cmd.failed)
	}
	want := map[string]bool{"shutter": true, "hartmannLeft": true, "hartmannRight": true, "airPressure": true}
	for _, k := range cmd.keywords {
		delete(want, k)
	}
	if len(want) != 0 {
		t.Errorf("missing expected keywords: %v", want)
	}
}

func TestDispatcherAckSucceeds(t *testing.T) {
	d := newTestDispatcher(t, [][]byte{
		[]byte(">"),
	})

	cmd := &recordingCommand{}
	d.Ack(context.Background(), cmd)

	if !cmd.finished {
		t.Fatalf("Ack did not finish; failed=%q", cmd.failed)
	}
}

func TestDispatcherStatusFailsOnErrReply(t *testing.T) {
	d := newTestDispatcher(t, [][]byte{
		[]byte("$S2CMD,rs;1*0C\r\n$S2ERR,42,Bad arg*31\r\n>"),
	})

	cmd := &recordingCommand{}
	d.Status(context.Background(), cmd, "")

	if cmd.finished {
		t.Fatal("Status finished despite an ERR sentence in the reply")
	}
	if cmd.failed == "" {
		t.Fatal("Status did not call Fail on an ERR reply")
	}
}
