package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{
		Version: "v1",
		Window:  WindowConf{Start: "2026-03-01T06:00:00Z"},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing version",
			mutate:  func(c *Config) { c.Version = "" },
			wantSub: "version is required",
		},
		{
			name:    "bad mode",
			mutate:  func(c *Config) { c.Window.Mode = "realtime" },
			wantSub: "window.mode",
		},
		{
			name:    "zero duration",
			mutate:  func(c *Config) { c.Window.DurationMinutes = -5 },
			wantSub: "duration_minutes",
		},
		{
			name:    "bad start",
			mutate:  func(c *Config) { c.Window.Start = "yesterday" },
			wantSub: "window.start",
		},
		{
			name:    "curvature out of range",
			mutate:  func(c *Config) { c.Route.Curvature = 1.5 },
			wantSub: "route.curvature",
		},
		{
			name:    "loss too large",
			mutate:  func(c *Config) { c.Loss.ProcessingPct = 100 },
			wantSub: "loss.processing_pct",
		},
		{
			name: "unknown node type",
			mutate: func(c *Config) {
				c.Nodes = []NodeConf{{Type: "port", Name: "Pier 1", Lon: 0, Lat: 0}}
			},
			wantSub: "unknown type",
		},
		{
			name: "duplicate node name",
			mutate: func(c *Config) {
				c.Nodes = []NodeConf{
					{Type: "farm", Name: "Same", Lon: 0, Lat: 0},
					{Type: "ngo", Name: "Same", Lon: 1, Lat: 1},
				}
			},
			wantSub: "duplicate node name",
		},
		{
			name: "coordinates out of range",
			mutate: func(c *Config) {
				c.Nodes = []NodeConf{{Type: "farm", Name: "Far", Lon: 190, Lat: 95}}
			},
			wantSub: "out of range",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestApplyDefaults_DailyMode(t *testing.T) {
	cfg := &Config{Version: "v1", Window: WindowConf{Mode: "daily"}}
	ApplyDefaults(cfg)

	if cfg.Window.DurationMinutes != 3*24*60 {
		t.Errorf("daily duration default = %d, want %d", cfg.Window.DurationMinutes, 3*24*60)
	}
	if cfg.Snapshots.PerHour != 0.5 {
		t.Errorf("daily per_hour default = %g, want 0.5", cfg.Snapshots.PerHour)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
