package alerts

import (
	"context"
	"testing"

	"github.com/stlalpha/specmech/internal/ccd"
	"github.com/stlalpha/specmech/internal/config"
)

type fakeController struct {
	status ccd.DeviceStatus
	err    error
}

func (f *fakeController) Reset(ctx context.Context) error                     { return nil }
func (f *fakeController) SetParam(ctx context.Context, name string, v float64) error { return nil }
func (f *fakeController) SendCommand(ctx context.Context, raw string) (string, error) {
	return "", nil
}
func (f *fakeController) DeviceStatus(ctx context.Context) (ccd.DeviceStatus, error) {
	return f.status, f.err
}
func (f *fakeController) Erase(ctx context.Context) error            { return nil }
func (f *fakeController) Purge(ctx context.Context) error            { return nil }
func (f *fakeController) Flush(ctx context.Context) error            { return nil }
func (f *fakeController) Expose(ctx context.Context, seconds float64) error { return nil }
func (f *fakeController) Readout(ctx context.Context) error           { return nil }

func TestTemperatureAlertFixedSetpoint(t *testing.T) {
	ctrl := &fakeController{status: ccd.DeviceStatus{Temperature: -100}}
	a := NewTemperatureAlert("ccd_temp_alert", ctrl, config.AlertConfig{
		Setpoint:    -105,
		MaxIncrease: 2,
	})

	got, err := a.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !got {
		t.Error("Check = false, want true: -100 > -105+2")
	}
}

func TestTemperatureAlertNamedSetpointParam(t *testing.T) {
	ctrl := &fakeController{status: ccd.DeviceStatus{
		Temperature: -100,
		Params:      map[string]float64{"ccdtemp": -110},
	}}
	a := NewTemperatureAlert("ccd_temp_alert", ctrl, config.AlertConfig{
		SetpointParam: "ccdtemp",
		MaxIncrease:   2,
	})

	got, err := a.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !got {
		t.Error("Check = false, want true: -100 > -110+2")
	}
}

func TestTemperatureAlertMissingSetpointParam(t *testing.T) {
	ctrl := &fakeController{status: ccd.DeviceStatus{Temperature: -100}}
	a := NewTemperatureAlert("ccd_temp_alert", ctrl, config.AlertConfig{SetpointParam: "missing"})

	if _, err := a.Check(context.Background()); err == nil {
		t.Fatal("Check: want error for missing setpoint parameter")
	}
}
