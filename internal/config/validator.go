package config

import (
	"fmt"
	"strings"
	"time"
)

var nodeTypes = map[string]struct{}{
	"farm": {}, "processing": {}, "warehouse": {}, "ngo": {},
}

// Validate checks the config for:
//   - A usable time window (positive duration, parseable start)
//   - Policy knobs inside their legal ranges
//   - Roster entries with known types and in-range coordinates
//
// Role coverage is deliberately NOT validated here: a roster missing a
// role skips the affected lanes at generation time instead of failing.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if cfg.Window.Mode != "animation" && cfg.Window.Mode != "daily" {
		errs = append(errs, fmt.Sprintf("window.mode must be animation or daily, got %q", cfg.Window.Mode))
	}
	if cfg.Window.DurationMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("window.duration_minutes must be positive, got %d", cfg.Window.DurationMinutes))
	}
	if cfg.Window.Start != "" {
		if _, err := time.Parse(time.RFC3339, cfg.Window.Start); err != nil {
			errs = append(errs, fmt.Sprintf("window.start: %s", err))
		}
	}
	if cfg.Route.Curvature < 0 || cfg.Route.Curvature >= 1 {
		errs = append(errs, fmt.Sprintf("route.curvature must be in [0,1), got %g", cfg.Route.Curvature))
	}
	if cfg.Route.LongArcDeg <= 0 {
		errs = append(errs, fmt.Sprintf("route.long_arc_deg must be positive, got %g", cfg.Route.LongArcDeg))
	}
	if cfg.Snapshots.Min < 1 {
		errs = append(errs, fmt.Sprintf("snapshots.min must be at least 1, got %d", cfg.Snapshots.Min))
	}
	if cfg.Snapshots.PerHour < 0 {
		errs = append(errs, fmt.Sprintf("snapshots.per_hour must not be negative, got %g", cfg.Snapshots.PerHour))
	}
	if cfg.Loss.ProcessingPct < 0 || cfg.Loss.ProcessingPct >= 100 {
		errs = append(errs, fmt.Sprintf("loss.processing_pct must be in [0,100), got %g", cfg.Loss.ProcessingPct))
	}
	if cfg.Spoilage.ChancePct < 0 || cfg.Spoilage.ChancePct > 100 {
		errs = append(errs, fmt.Sprintf("spoilage.chance_pct must be in [0,100], got %g", cfg.Spoilage.ChancePct))
	}

	ids := make(map[string]string) // name → location
	for i, n := range cfg.Nodes {
		loc := fmt.Sprintf("nodes[%d]", i)
		if _, ok := nodeTypes[n.Type]; !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown type %q", loc, n.Type))
		}
		if n.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: name is required", loc))
		} else if prev, ok := ids[n.Name]; ok {
			errs = append(errs, fmt.Sprintf("duplicate node name %q (first seen at %s, again at %s)", n.Name, prev, loc))
		} else {
			ids[n.Name] = loc
		}
		if n.Lon < -180 || n.Lon > 180 {
			errs = append(errs, fmt.Sprintf("%s: lon %g out of range", loc, n.Lon))
		}
		if n.Lat < -90 || n.Lat > 90 {
			errs = append(errs, fmt.Sprintf("%s: lat %g out of range", loc, n.Lat))
		}
		if n.CapacityKg < 0 {
			errs = append(errs, fmt.Sprintf("%s: capacity_kg must not be negative", loc))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
