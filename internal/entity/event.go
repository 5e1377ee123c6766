package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/foodbridge/tracegen/internal/geo"
)

// EventType discriminates the audit-log event kinds.
type EventType string

const (
	EventFarmProduction         EventType = "farm_production"
	EventNGORequest             EventType = "ngo_request"
	EventShipmentCreated        EventType = "shipment_created"
	EventShipmentArrived        EventType = "shipment_arrived"
	EventShipmentLocationUpdate EventType = "shipment_location_update"
	EventBatchSpoiled           EventType = "batch_spoiled"
	EventPredictionMade         EventType = "prediction_made"
)

// Payload is the type-dependent body of an Event. Each variant carries
// the cross-references (shipment/batch/node IDs) needed to reconstruct
// causality from the event log alone.
type Payload interface {
	EventType() EventType
}

// FarmProduction records a batch being produced at a farm.
type FarmProduction struct {
	NodeID     string  `json:"nodeId"`
	BatchID    string  `json:"batchId"`
	FoodType   string  `json:"foodType"`
	QuantityKg float64 `json:"quantity_kg"`
}

func (FarmProduction) EventType() EventType { return EventFarmProduction }

// NGORequest records an NGO asking for food ahead of a delivery.
type NGORequest struct {
	NodeID     string  `json:"nodeId"`
	FoodType   string  `json:"foodType"`
	QuantityKg float64 `json:"quantity_kg"`
}

func (NGORequest) EventType() EventType { return EventNGORequest }

// ShipmentCreated records a shipment departing.
type ShipmentCreated struct {
	ShipmentID string    `json:"shipmentId"`
	FromNode   string    `json:"fromNode"`
	ToNode     string    `json:"toNode"`
	BatchIDs   []string  `json:"batchIds"`
	ETA        time.Time `json:"eta_iso"`
}

func (ShipmentCreated) EventType() EventType { return EventShipmentCreated }

// ShipmentArrived records a shipment reaching its destination.
type ShipmentArrived struct {
	ShipmentID string   `json:"shipmentId"`
	ToNode     string   `json:"toNode"`
	BatchIDs   []string `json:"batchIds"`
}

func (ShipmentArrived) EventType() EventType { return EventShipmentArrived }

// ShipmentLocationUpdate records one in-transit position sample.
type ShipmentLocationUpdate struct {
	ShipmentID  string    `json:"shipmentId"`
	Point       geo.Point `json:"point"`
	SpeedKmh    float64   `json:"speed_kmh"`
	ProgressPct float64   `json:"progressPct"`
}

func (ShipmentLocationUpdate) EventType() EventType { return EventShipmentLocationUpdate }

// BatchSpoiled records a batch written off at a node.
type BatchSpoiled struct {
	BatchID    string  `json:"batchId"`
	NodeID     string  `json:"nodeId"`
	QuantityKg float64 `json:"quantity_kg"`
}

func (BatchSpoiled) EventType() EventType { return EventBatchSpoiled }

// PredictionMade records a demand forecast for a node.
type PredictionMade struct {
	NodeID            string  `json:"nodeId"`
	FoodType          string  `json:"foodType"`
	PredictedDemandKg float64 `json:"predicted_demand_kg"`
	HorizonHours      int     `json:"horizon_hours"`
}

func (PredictionMade) EventType() EventType { return EventPredictionMade }

// Event is one immutable audit record. Events are the sole ordering
// authority across all entities: every batch/shipment mutation is paired
// with exactly one event at the same instant.
type Event struct {
	EventID  int64     `json:"eventId"`
	Time     time.Time `json:"time"`
	Type     EventType `json:"type"`
	Location geo.Point `json:"location"`
	Payload  Payload   `json:"payload"`
}

// eventJSON is the wire shape; payload stays raw until the type is known.
type eventJSON struct {
	EventID  int64           `json:"eventId"`
	Time     time.Time       `json:"time"`
	Type     EventType       `json:"type"`
	Location geo.Point       `json:"location"`
	Payload  json.RawMessage `json:"payload"`
}

// UnmarshalJSON decodes the payload into the variant matching Type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.EventID = raw.EventID
	e.Time = raw.Time
	e.Type = raw.Type
	e.Location = raw.Location

	var p Payload
	switch raw.Type {
	case EventFarmProduction:
		p = &FarmProduction{}
	case EventNGORequest:
		p = &NGORequest{}
	case EventShipmentCreated:
		p = &ShipmentCreated{}
	case EventShipmentArrived:
		p = &ShipmentArrived{}
	case EventShipmentLocationUpdate:
		p = &ShipmentLocationUpdate{}
	case EventBatchSpoiled:
		p = &BatchSpoiled{}
	case EventPredictionMade:
		p = &PredictionMade{}
	default:
		return fmt.Errorf("entity: unknown event type %q", raw.Type)
	}
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, p); err != nil {
			return fmt.Errorf("entity: decode %s payload: %w", raw.Type, err)
		}
	}
	e.Payload = p
	return nil
}
