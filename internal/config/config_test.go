package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("FromEnv() = %+v, want %+v", cfg, Default())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OTC_GRID_MAX_X", "9")
	t.Setenv("OTC_GRID_MAX_Y", "4")
	t.Setenv("OTC_HISTORY_DEPTH", "5")
	t.Setenv("OTC_STORE_PATH", "/tmp/projects.db")
	t.Setenv("OTC_VERBOSE", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	b := cfg.Bounds()
	if b.Max != (circuit.Cell{X: 9, Y: 4}) || b.Width() != 10 || b.Height() != 5 {
		t.Errorf("bounds = %+v", b)
	}
	if cfg.HistoryDepth != 5 || cfg.StorePath != "/tmp/projects.db" || !cfg.Verbose {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestFromEnvParseError(t *testing.T) {
	t.Setenv("OTC_HISTORY_DEPTH", "lots")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"single cell grid", func(c *Config) { c.GridMaxX, c.GridMaxY = 0, 0 }, true},
		{"inverted grid", func(c *Config) { c.GridMinX = 50 }, false},
		{"zero depth", func(c *Config) { c.HistoryDepth = 0 }, false},
		{"no store", func(c *Config) { c.StorePath = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
