package timeline

import (
	"fmt"
	"time"

	"github.com/foodbridge/tracegen/internal/entity"
	"github.com/foodbridge/tracegen/internal/geo"
)

// Dataset is the result of one generation run: five mutually consistent
// collections. Events and Locations are sorted ascending by time before
// the dataset is returned; that is the only global ordering guarantee.
type Dataset struct {
	Nodes     []*entity.Node             `json:"nodes"`
	Batches   []*entity.Batch            `json:"batches"`
	Shipments []*entity.Shipment         `json:"shipments"`
	Locations []*entity.ShipmentLocation `json:"shipmentLocations"`
	Events    []*entity.Event            `json:"events"`
}

// ledger owns the five collections for the duration of one run and
// centralizes every record mutation. Each method applies a legal
// transition together with its history entries and audit event in one
// call, so a status change without its paired bookkeeping is
// unrepresentable. One ledger per run; never shared.
type ledger struct {
	f        *entity.Factory
	nodeByID map[string]*entity.Node

	nodes     []*entity.Node
	batches   []*entity.Batch
	shipments []*entity.Shipment
	locations []*entity.ShipmentLocation
	events    []*entity.Event
}

func newLedger() *ledger {
	return &ledger{
		f:        entity.NewFactory(),
		nodeByID: make(map[string]*entity.Node),
	}
}

func (l *ledger) addNode(t entity.NodeType, name, region string, loc geo.Point, capacityKg float64) *entity.Node {
	n := l.f.NewNode(t, name, region, loc, capacityKg)
	l.nodes = append(l.nodes, n)
	l.nodeByID[n.NodeID] = n
	return n
}

func (l *ledger) node(id string) *entity.Node { return l.nodeByID[id] }

// produce creates an in-window batch at a farm and emits the paired
// farm_production event at the same instant.
func (l *ledger) produce(farm *entity.Node, foodType string, quantityKg float64, at time.Time, shelfLife time.Duration) *entity.Batch {
	b := l.f.NewBatch(foodType, quantityKg, farm, at, shelfLife)
	l.batches = append(l.batches, b)
	l.events = append(l.events, l.f.NewEvent(at, farm.Location, entity.FarmProduction{
		NodeID:     farm.NodeID,
		BatchID:    b.BatchID,
		FoodType:   foodType,
		QuantityKg: quantityKg,
	}))
	return b
}

// stock creates pre-window inventory at a node. The batch's produced
// history entry predates the simulated window, so no in-window event is
// emitted for it.
func (l *ledger) stock(node *entity.Node, foodType string, quantityKg float64, at time.Time, shelfLife time.Duration) *entity.Batch {
	b := l.f.NewBatch(foodType, quantityKg, node, at, shelfLife)
	l.batches = append(l.batches, b)
	return b
}

// process consumes a stored source batch into a new derived batch at the
// same node and instant. The source flips to reserved; the derived batch
// departs immediately on a shipment created at the same instant, whose
// shipment_created event covers this transformation (its payload carries
// the derived batch ID, and parentBatchId links back to the source).
func (l *ledger) process(source *entity.Batch, node *entity.Node, at time.Time) *entity.Batch {
	d := l.f.NewDerivedBatch(source, node, source.QuantityKg, at)
	l.batches = append(l.batches, d)
	source.Status = entity.BatchStatusReserved
	source.History = append(source.History, entity.Transition{
		Time:   at,
		Action: "reserved",
		From:   node.NodeID,
		To:     node.NodeID,
		Note:   "processed into " + d.BatchID,
	})
	return d
}

// requestFood emits an NGO demand event ahead of a delivery.
func (l *ledger) requestFood(ngo *entity.Node, foodType string, quantityKg float64, at time.Time) {
	l.events = append(l.events, l.f.NewEvent(at, ngo.Location, entity.NGORequest{
		NodeID:     ngo.NodeID,
		FoodType:   foodType,
		QuantityKg: quantityKg,
	}))
}

// createShipment starts a shipment carrying the given batches and flips
// each batch to in_transit, all at the departure instant covered by the
// single shipment_created event.
func (l *ledger) createShipment(batches []*entity.Batch, from, to *entity.Node, start, eta time.Time) *entity.Shipment {
	ids := make([]string, len(batches))
	for i, b := range batches {
		ids[i] = b.BatchID
		b.Status = entity.BatchStatusInTransit
		b.History = append(b.History, entity.Transition{
			Time:   start,
			Action: "departed",
			From:   from.NodeID,
			To:     to.NodeID,
		})
	}
	s := l.f.NewShipment(ids, from, to, start, eta)
	l.shipments = append(l.shipments, s)
	l.events = append(l.events, l.f.NewEvent(start, from.Location, entity.ShipmentCreated{
		ShipmentID: s.ShipmentID,
		FromNode:   from.NodeID,
		ToNode:     to.NodeID,
		BatchIDs:   ids,
		ETA:        eta,
	}))
	return s
}

// recordLocation appends one position sample, updates the shipment's
// latest known location, and emits the paired shipment_location_update.
func (l *ledger) recordLocation(s *entity.Shipment, at time.Time, pt geo.Point, speedKmh, progressPct float64, eta *time.Time) {
	l.locations = append(l.locations, l.f.NewLocation(s.ShipmentID, at, pt, speedKmh, eta))
	s.LatestLocation = &entity.LocationStamp{Point: pt, At: at}
	l.events = append(l.events, l.f.NewEvent(at, pt, entity.ShipmentLocationUpdate{
		ShipmentID:  s.ShipmentID,
		Point:       pt,
		SpeedKmh:    speedKmh,
		ProgressPct: progressPct,
	}))
}

// arriveShipment completes a shipment: it records the terminal snapshot
// on the destination coordinates, sets arrived_iso to that snapshot's
// time, flips the shipment and every carried batch, and emits the single
// shipment_arrived event. The terminal snapshot is taken here so a
// shipment cannot reach arrived without one.
//
// lossPct is the quantity shrink applied when the destination is a
// processing node; other destinations are lossless. Batches land as
// delivered at NGOs and stored elsewhere.
func (l *ledger) arriveShipment(s *entity.Shipment, at time.Time, speedKmh, lossPct float64) error {
	if s.Status != entity.ShipmentStatusInTransit {
		return fmt.Errorf("shipment %s: arrive from status %s", s.ShipmentID, s.Status)
	}
	to := l.node(s.ToNode)

	l.recordLocation(s, at, to.Location, speedKmh, 100, nil)

	s.Status = entity.ShipmentStatusArrived
	arrived := at
	s.ArrivedAt = &arrived

	for _, id := range s.BatchIDs {
		b := l.batch(id)
		if b == nil {
			return fmt.Errorf("shipment %s: unknown batch %s", s.ShipmentID, id)
		}
		l.arriveBatch(b, to, at, lossPct)
	}

	l.events = append(l.events, l.f.NewEvent(at, to.Location, entity.ShipmentArrived{
		ShipmentID: s.ShipmentID,
		ToNode:     to.NodeID,
		BatchIDs:   s.BatchIDs,
	}))
	return nil
}

func (l *ledger) arriveBatch(b *entity.Batch, to *entity.Node, at time.Time, lossPct float64) {
	from := b.CurrentNode
	b.CurrentNode = to.NodeID

	note := ""
	if to.Type == entity.NodeProcessing && lossPct > 0 {
		b.QuantityKg = round2(b.QuantityKg * (1 - lossPct/100))
		note = fmt.Sprintf("handling loss %.0f%%", lossPct)
	}
	if to.Type == entity.NodeNGO {
		b.Status = entity.BatchStatusDelivered
	} else {
		b.Status = entity.BatchStatusStored
	}
	b.FreshnessPct = freshnessAt(b, at)
	b.History = append(b.History, entity.Transition{
		Time:   at,
		Action: "arrived",
		From:   from,
		To:     to.NodeID,
		Note:   note,
	})
}

// spoil writes off a batch at its current node.
func (l *ledger) spoil(b *entity.Batch, at time.Time) {
	node := l.node(b.CurrentNode)
	b.Status = entity.BatchStatusSpoiled
	b.FreshnessPct = 0
	b.History = append(b.History, entity.Transition{
		Time:   at,
		Action: "spoiled",
		From:   node.NodeID,
		To:     node.NodeID,
	})
	l.events = append(l.events, l.f.NewEvent(at, node.Location, entity.BatchSpoiled{
		BatchID:    b.BatchID,
		NodeID:     node.NodeID,
		QuantityKg: b.QuantityKg,
	}))
}

// predict emits a demand forecast event for a node.
func (l *ledger) predict(node *entity.Node, foodType string, demandKg float64, horizonHours int, at time.Time) {
	l.events = append(l.events, l.f.NewEvent(at, node.Location, entity.PredictionMade{
		NodeID:            node.NodeID,
		FoodType:          foodType,
		PredictedDemandKg: demandKg,
		HorizonHours:      horizonHours,
	}))
}

func (l *ledger) batch(id string) *entity.Batch {
	for _, b := range l.batches {
		if b.BatchID == id {
			return b
		}
	}
	return nil
}

// freshnessAt maps elapsed shelf life to a 0–100 score.
func freshnessAt(b *entity.Batch, at time.Time) float64 {
	life := b.ExpiryAt.Sub(b.ManufactureDate)
	if life <= 0 {
		return 0
	}
	used := float64(at.Sub(b.ManufactureDate)) / float64(life)
	if used >= 1 {
		return 0
	}
	if used < 0 {
		used = 0
	}
	return round2(100 * (1 - used))
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
