package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SpecMech.Port != 23 {
		t.Errorf("Port = %d, want default 23", cfg.SpecMech.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specmech.json")
	body := `{"specMech": {"address": "10.1.2.3", "port": 2323, "sequenceWrap": false}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SpecMech.Address != "10.1.2.3" || cfg.SpecMech.Port != 2323 || cfg.SpecMech.SequenceWrap {
		t.Errorf("Load did not apply overrides: %+v", cfg.SpecMech)
	}
	// Fields absent from the JSON body retain their defaults.
	if len(cfg.SpecMech.Motors) != 3 {
		t.Errorf("Motors = %+v, want defaults to survive partial override", cfg.SpecMech.Motors)
	}
}
