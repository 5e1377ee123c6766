package config

// Config is the top-level YAML structure for the generator service.
type Config struct {
	Version     string         `yaml:"version"`
	Window      WindowConf     `yaml:"window"`
	Seed        int64          `yaml:"seed"`
	Route       RouteConf      `yaml:"route"`
	Snapshots   SnapshotConf   `yaml:"snapshots"`
	Loss        LossConf       `yaml:"loss"`
	Spoilage    SpoilageConf   `yaml:"spoilage"`
	Predictions PredictionConf `yaml:"predictions"`
	Lanes       LanesConf      `yaml:"lanes"`
	Nodes       []NodeConf     `yaml:"nodes"` // empty = built-in demo roster
	Engine      EngineConf     `yaml:"engine"`
	Storage     StorageConf    `yaml:"storage"`
}

// WindowConf is the simulated time window.
// Mode "animation" is a minutes-scale window for live map demos;
// "daily" is a multi-day window for day-granularity datasets.
type WindowConf struct {
	Start           string `yaml:"start"` // RFC3339; empty = wall clock at generation time
	DurationMinutes int    `yaml:"duration_minutes"`
	Mode            string `yaml:"mode"` // "animation" | "daily"
}

// RouteConf tunes the cosmetic route curvature.
type RouteConf struct {
	Curvature  float64 `yaml:"curvature"`    // perpendicular offset as fraction of chord length
	LongArcDeg float64 `yaml:"long_arc_deg"` // chords longer than this get two offset waypoints
}

// SnapshotConf controls how many in-transit position samples each
// shipment gets: max(min, ceil(travel_hours × per_hour)) intermediates,
// plus the departure and arrival endpoint samples.
type SnapshotConf struct {
	Min     int     `yaml:"min"`
	PerHour float64 `yaml:"per_hour"`
}

// LossConf is the quantity shrink applied on arrival at a processing node.
type LossConf struct {
	ProcessingPct float64 `yaml:"processing_pct"`
}

// SpoilageConf is the per-delivered-batch chance of a spoilage write-off.
type SpoilageConf struct {
	ChancePct float64 `yaml:"chance_pct"`
}

// PredictionConf controls demand-forecast events emitted at warehouses.
type PredictionConf struct {
	PerWarehouse int `yaml:"per_warehouse"`
	HorizonHours int `yaml:"horizon_hours"`
}

// LanesConf is how many shipments to run per lane kind.
type LanesConf struct {
	FarmToProcessing      int `yaml:"farm_to_processing"`
	ProcessingToWarehouse int `yaml:"processing_to_warehouse"`
	WarehouseToNGO        int `yaml:"warehouse_to_ngo"`
}

// NodeConf is one roster entry.
type NodeConf struct {
	Type       string  `yaml:"type"` // farm | processing | warehouse | ngo
	Name       string  `yaml:"name"`
	Region     string  `yaml:"region"`
	Lon        float64 `yaml:"lon"`
	Lat        float64 `yaml:"lat"`
	CapacityKg float64 `yaml:"capacity_kg"`
}

// EngineConf holds tunable settings for the async job pool.
type EngineConf struct {
	Workers      int `yaml:"workers"`
	QueueDepth   int `yaml:"queue_depth"`
	JobTimeoutMs int `yaml:"job_timeout_ms"`
}

// StorageConf enables the Postgres sink when DSN is non-empty.
type StorageConf struct {
	DSN string `yaml:"dsn"`
}
