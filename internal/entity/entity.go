package entity

import (
	"time"

	"github.com/foodbridge/tracegen/internal/geo"
)

// NodeType discriminates the four kinds of supply-chain nodes.
type NodeType string

const (
	NodeFarm       NodeType = "farm"
	NodeProcessing NodeType = "processing"
	NodeWarehouse  NodeType = "warehouse"
	NodeNGO        NodeType = "ngo"
)

// Node is a fixed physical location in the supply chain.
// Nodes are created once per generation run and never mutated.
type Node struct {
	NodeID     string    `json:"nodeId"`
	Type       NodeType  `json:"type"`
	Name       string    `json:"name"`
	RegionID   string    `json:"regionId"`
	Location   geo.Point `json:"location"`
	CapacityKg float64   `json:"capacity_kg"`
}

// BatchStatus is the lifecycle state of a batch.
type BatchStatus string

const (
	BatchStatusStored    BatchStatus = "stored"
	BatchStatusInTransit BatchStatus = "in_transit"
	BatchStatusDelivered BatchStatus = "delivered"
	BatchStatusSpoiled   BatchStatus = "spoiled"
	BatchStatusReserved  BatchStatus = "reserved"
)

// Transition is one entry in a batch's append-only history.
type Transition struct {
	Time   time.Time `json:"time"`
	Action string    `json:"action"` // "produced", "departed", "arrived", "spoiled"
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Batch is a trackable quantity of a single food type, rooted at a farm.
//
// History is monotonically non-decreasing in time; whenever Status is not
// in_transit the last entry's To equals CurrentNode. All mutation goes
// through the timeline ledger.
type Batch struct {
	BatchID         string       `json:"batchId"`
	ParentBatchID   string       `json:"parentBatchId,omitempty"`
	FoodType        string       `json:"foodType"`
	QuantityKg      float64      `json:"quantity_kg"`
	OriginNode      string       `json:"originNode"`
	CurrentNode     string       `json:"currentNode"`
	Status          BatchStatus  `json:"status"`
	ManufactureDate time.Time    `json:"manufacture_date"`
	ExpiryAt        time.Time    `json:"expiry_iso"`
	FreshnessPct    float64      `json:"freshnessPct"`
	History         []Transition `json:"history"`
}

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusArrived   ShipmentStatus = "arrived"
	ShipmentStatusDelayed   ShipmentStatus = "delayed"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
)

// LocationStamp is a timestamped coordinate, used for a shipment's
// latest known position.
type LocationStamp struct {
	Point geo.Point `json:"point"`
	At    time.Time `json:"at"`
}

// Shipment is a scheduled movement of one or more batches between nodes.
//
// StartAt ≤ ETA always. ArrivedAt, once set, equals the time of the last
// location snapshot, and Status flips to arrived in the same operation.
type Shipment struct {
	ShipmentID     string         `json:"shipmentId"`
	BatchIDs       []string       `json:"batchIds"`
	FromNode       string         `json:"fromNode"`
	ToNode         string         `json:"toNode"`
	StartAt        time.Time      `json:"start_iso"`
	ETA            time.Time      `json:"eta_iso"`
	ArrivedAt      *time.Time     `json:"arrived_iso,omitempty"`
	Status         ShipmentStatus `json:"status"`
	LatestLocation *LocationStamp `json:"latest_location,omitempty"`
}

// ShipmentLocation is one position sample of a shipment in transit.
// Samples are append-only and ordered by time within a shipment.
type ShipmentLocation struct {
	ShipmentID string     `json:"shipmentId"`
	At         time.Time  `json:"time"`
	Point      geo.Point  `json:"point"`
	SpeedKmh   float64    `json:"speed_kmh"`
	ETA        *time.Time `json:"eta_iso,omitempty"`
}
