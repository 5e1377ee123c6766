package store

import "time"

// Row types mirror the five generated collections. Every table is keyed
// by (run_id, declared unique ID) so repeated runs with per-run
// sequential IDs never collide, and the declared uniqueness from the
// generator contract is enforced by the database.

// NodeRow is one supply-chain node.
type NodeRow struct {
	RunID      string    `gorm:"column:run_id;primaryKey;type:varchar(50)"`
	NodeID     string    `gorm:"column:node_id;primaryKey;type:varchar(50)"`
	Type       string    `gorm:"column:type;type:varchar(20);index;not null"`
	Name       string    `gorm:"column:name;type:varchar(100);not null"`
	RegionID   string    `gorm:"column:region_id;type:varchar(50)"`
	Lon        float64   `gorm:"column:lon;not null"`
	Lat        float64   `gorm:"column:lat;not null"`
	CapacityKg float64   `gorm:"column:capacity_kg"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (NodeRow) TableName() string { return "nodes" }

// BatchRow is one batch; the history sequence is stored as jsonb.
type BatchRow struct {
	RunID           string    `gorm:"column:run_id;primaryKey;type:varchar(50)"`
	BatchID         string    `gorm:"column:batch_id;primaryKey;type:varchar(50)"`
	ParentBatchID   string    `gorm:"column:parent_batch_id;type:varchar(50)"`
	FoodType        string    `gorm:"column:food_type;type:varchar(50);index;not null"`
	QuantityKg      float64   `gorm:"column:quantity_kg;not null"`
	OriginNode      string    `gorm:"column:origin_node;type:varchar(50);not null"`
	CurrentNode     string    `gorm:"column:current_node;type:varchar(50);index;not null"`
	Status          string    `gorm:"column:status;type:varchar(20);index;not null"`
	ManufactureDate time.Time `gorm:"column:manufacture_date;not null"`
	ExpiryAt        time.Time `gorm:"column:expiry_at;not null"`
	FreshnessPct    float64   `gorm:"column:freshness_pct"`
	History         string    `gorm:"column:history;type:jsonb"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (BatchRow) TableName() string { return "batches" }

// ShipmentRow is one shipment; carried batch IDs and the latest location
// stamp are stored as jsonb.
type ShipmentRow struct {
	RunID          string     `gorm:"column:run_id;primaryKey;type:varchar(50)"`
	ShipmentID     string     `gorm:"column:shipment_id;primaryKey;type:varchar(50)"`
	BatchIDs       string     `gorm:"column:batch_ids;type:jsonb"`
	FromNode       string     `gorm:"column:from_node;type:varchar(50);not null"`
	ToNode         string     `gorm:"column:to_node;type:varchar(50);not null"`
	StartAt        time.Time  `gorm:"column:start_at;not null"`
	ETA            time.Time  `gorm:"column:eta;not null"`
	ArrivedAt      *time.Time `gorm:"column:arrived_at"`
	Status         string     `gorm:"column:status;type:varchar(20);index;not null"`
	LatestLocation string     `gorm:"column:latest_location;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (ShipmentRow) TableName() string { return "shipments" }

// ShipmentLocationRow is one position sample.
type ShipmentLocationRow struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string     `gorm:"column:run_id;index;type:varchar(50);not null"`
	ShipmentID string     `gorm:"column:shipment_id;index;type:varchar(50);not null"`
	At         time.Time  `gorm:"column:at;index;not null"`
	Lon        float64    `gorm:"column:lon;not null"`
	Lat        float64    `gorm:"column:lat;not null"`
	SpeedKmh   float64    `gorm:"column:speed_kmh"`
	ETA        *time.Time `gorm:"column:eta"`
}

func (ShipmentLocationRow) TableName() string { return "shipment_locations" }

// EventRow is one audit event; the typed payload is stored as jsonb.
type EventRow struct {
	RunID   string    `gorm:"column:run_id;primaryKey;type:varchar(50)"`
	EventID int64     `gorm:"column:event_id;primaryKey"`
	Time    time.Time `gorm:"column:time;index;not null"`
	Type    string    `gorm:"column:type;type:varchar(40);index;not null"`
	Lon     float64   `gorm:"column:lon;not null"`
	Lat     float64   `gorm:"column:lat;not null"`
	Payload string    `gorm:"column:payload;type:jsonb"`
}

func (EventRow) TableName() string { return "events" }
