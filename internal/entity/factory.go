package entity

import (
	"fmt"
	"time"

	"github.com/foodbridge/tracegen/internal/geo"
)

// Factory allocates identifiers and stamps default field values for new
// records. Counters are scoped to one generation run: each run constructs
// its own Factory, so concurrent runs never share ID sequences.
//
// Constructors are pure: they only return the new record. Inserting it
// into a collection is the caller's job.
type Factory struct {
	nodeSeq     int
	batchSeq    int
	shipmentSeq int
	eventSeq    int64
}

// NewFactory returns a Factory with all sequences at zero.
func NewFactory() *Factory {
	return &Factory{}
}

// NewNode stamps a node record.
func (f *Factory) NewNode(t NodeType, name, regionID string, loc geo.Point, capacityKg float64) *Node {
	f.nodeSeq++
	return &Node{
		NodeID:     fmt.Sprintf("node-%d", f.nodeSeq),
		Type:       t,
		Name:       name,
		RegionID:   regionID,
		Location:   loc,
		CapacityKg: capacityKg,
	}
}

// NewBatch stamps a fresh batch at its origin node: stored, 100% fresh,
// with a single "produced" history entry at the manufacture time.
func (f *Factory) NewBatch(foodType string, quantityKg float64, origin *Node, at time.Time, shelfLife time.Duration) *Batch {
	f.batchSeq++
	return &Batch{
		BatchID:         fmt.Sprintf("batch-%d", f.batchSeq),
		FoodType:        foodType,
		QuantityKg:      quantityKg,
		OriginNode:      origin.NodeID,
		CurrentNode:     origin.NodeID,
		Status:          BatchStatusStored,
		ManufactureDate: at,
		ExpiryAt:        at.Add(shelfLife),
		FreshnessPct:    100,
		History: []Transition{
			{Time: at, Action: "produced", To: origin.NodeID, Note: foodType},
		},
	}
}

// NewDerivedBatch stamps a batch produced from a parent batch at a
// processing node, keeping the parent's food type and expiry.
func (f *Factory) NewDerivedBatch(parent *Batch, origin *Node, quantityKg float64, at time.Time) *Batch {
	b := f.NewBatch(parent.FoodType, quantityKg, origin, at, parent.ExpiryAt.Sub(at))
	b.ParentBatchID = parent.BatchID
	return b
}

// NewShipment stamps an in-transit shipment.
func (f *Factory) NewShipment(batchIDs []string, from, to *Node, start, eta time.Time) *Shipment {
	f.shipmentSeq++
	ids := make([]string, len(batchIDs))
	copy(ids, batchIDs)
	return &Shipment{
		ShipmentID: fmt.Sprintf("shp-%d", f.shipmentSeq),
		BatchIDs:   ids,
		FromNode:   from.NodeID,
		ToNode:     to.NodeID,
		StartAt:    start,
		ETA:        eta,
		Status:     ShipmentStatusInTransit,
		LatestLocation: &LocationStamp{
			Point: from.Location,
			At:    start,
		},
	}
}

// NewEvent stamps an audit event with the next monotone event ID.
func (f *Factory) NewEvent(at time.Time, loc geo.Point, p Payload) *Event {
	f.eventSeq++
	return &Event{
		EventID:  f.eventSeq,
		Time:     at,
		Type:     p.EventType(),
		Location: loc,
		Payload:  p,
	}
}

// NewLocation stamps one shipment position sample.
func (f *Factory) NewLocation(shipmentID string, at time.Time, pt geo.Point, speedKmh float64, eta *time.Time) *ShipmentLocation {
	return &ShipmentLocation{
		ShipmentID: shipmentID,
		At:         at,
		Point:      pt,
		SpeedKmh:   speedKmh,
		ETA:        eta,
	}
}
