package alerts

import (
	"context"
	"fmt"

	"github.com/stlalpha/specmech/internal/ccd"
	"github.com/stlalpha/specmech/internal/config"
)

// TemperatureAlert fires when a CCD controller's reported temperature
// exceeds its setpoint plus a configured margin. Setpoint is either a
// fixed config value or the value of a named parameter read from the
// controller's own configuration/device status.
type TemperatureAlert struct {
	keyword      string
	interval     int
	controllerID string
	controller   ccd.Controller
	maxIncrease  float64

	setpoint      float64
	setpointParam string // when non-empty, overrides setpoint
}

// NewTemperatureAlert builds a TemperatureAlert for keyword, reading
// device status from controller and comparing against cfg.
func NewTemperatureAlert(keyword string, controller ccd.Controller, cfg config.AlertConfig) *TemperatureAlert {
	interval := cfg.IntervalSec
	if interval <= 0 {
		interval = 60
	}
	return &TemperatureAlert{
		keyword:       keyword,
		interval:      interval,
		controllerID:  cfg.ControllerID,
		controller:    controller,
		maxIncrease:   cfg.MaxIncrease,
		setpoint:      cfg.Setpoint,
		setpointParam: cfg.SetpointParam,
	}
}

func (a *TemperatureAlert) Keyword() string      { return a.keyword }
func (a *TemperatureAlert) IntervalSeconds() int { return a.interval }

func (a *TemperatureAlert) Check(ctx context.Context) (bool, error) {
	if a.controller == nil {
		return false, fmt.Errorf("no controller %q configured for alert %s", a.controllerID, a.keyword)
	}

	dev, err := a.controller.DeviceStatus(ctx)
	if err != nil {
		return false, fmt.Errorf("reading device status: %w", err)
	}

	setpoint := a.setpoint
	if a.setpointParam != "" {
		v, ok := dev.Params[a.setpointParam]
		if !ok {
			return false, fmt.Errorf("controller has no parameter %q", a.setpointParam)
		}
		setpoint = v
	}

	return dev.Temperature > setpoint+a.maxIncrease, nil
}
