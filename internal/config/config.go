// Package config loads the specMech daemon's configuration from a
// JSON file, applying defaults for anything the file omits.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/stlalpha/specmech/internal/logging"
)

// MotorConfig is the static, per-axis collimator configuration.
type MotorConfig struct {
	MinMicrons         int     `json:"minMicrons"`
	MaxMicrons         int     `json:"maxMicrons"`
	MinEncoder         int     `json:"minEncoder"`
	MaxEncoder         int     `json:"maxEncoder"`
	SpeedMicronsPerSec float64 `json:"speedMicronsPerSec"`
	HomePosition       int     `json:"homePosition"`
}

// AlertConfig configures one AlertBot temperature check.
type AlertConfig struct {
	Enabled       bool    `json:"enabled"`
	IntervalSec   int     `json:"intervalSec"`
	MaxIncrease   float64 `json:"maxIncrease"`
	Setpoint      float64 `json:"setpoint"`
	SetpointParam string  `json:"setpointParam"`
	ControllerID  string  `json:"controllerId"`
}

// SpecMechConfig is the top-level configuration consumed by the mech
// packages and cmd/specmechd.
type SpecMechConfig struct {
	SpecMech struct {
		Address  string `json:"address"`
		Port     int    `json:"port"`
		WriteLog bool   `json:"writeLog"`

		SequenceWrap bool                   `json:"sequenceWrap"`
		Motors       map[string]MotorConfig `json:"motors"`
	} `json:"specMech"`

	Timeouts struct {
		PneumaticsSec float64 `json:"pneumatics"`
	} `json:"timeouts"`

	Alerts struct {
		SP2 map[string]AlertConfig `json:"sp2"`
	} `json:"alerts"`
}

// Default returns a SpecMechConfig with conservative defaults for
// every field a caller might otherwise forget to set.
func Default() SpecMechConfig {
	var cfg SpecMechConfig
	cfg.SpecMech.Address = "127.0.0.1"
	cfg.SpecMech.Port = 23
	cfg.SpecMech.WriteLog = true
	cfg.SpecMech.SequenceWrap = true
	cfg.SpecMech.Motors = map[string]MotorConfig{
		"a": {MinMicrons: 0, MaxMicrons: 3000, MinEncoder: 0, MaxEncoder: 60000, SpeedMicronsPerSec: 25, HomePosition: 1500},
		"b": {MinMicrons: 0, MaxMicrons: 3000, MinEncoder: 0, MaxEncoder: 60000, SpeedMicronsPerSec: 25, HomePosition: 1500},
		"c": {MinMicrons: 0, MaxMicrons: 3000, MinEncoder: 0, MaxEncoder: 60000, SpeedMicronsPerSec: 25, HomePosition: 1500},
	}
	cfg.Timeouts.PneumaticsSec = 5
	cfg.Alerts.SP2 = map[string]AlertConfig{
		"ccd_temperature": {Enabled: true, IntervalSec: 60, MaxIncrease: 2.0, SetpointParam: "ccdtemp"},
		"heartbeat":       {Enabled: true, IntervalSec: 60},
	}
	return cfg
}

// Load reads and parses a SpecMechConfig from path, applying Default's
// values for any field the file omits entirely (the file is decoded
// on top of the defaults, not in isolation). A missing file is not an
// error: Load logs a warning and returns the defaults.
func Load(path string) (SpecMechConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn("config file %s not found, using defaults", path)
			return cfg, nil
		}
		return SpecMechConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return SpecMechConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	logging.Info("loaded specMech configuration from %s", path)
	return cfg, nil
}
