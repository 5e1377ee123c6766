package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/foodbridge/tracegen/internal/geo"
)

func TestFactory_SequentialIDs(t *testing.T) {
	f := NewFactory()
	loc := geo.Point{Lon: 35, Lat: 1}

	n1 := f.NewNode(NodeFarm, "A", "r1", loc, 100)
	n2 := f.NewNode(NodeNGO, "B", "r1", loc, 100)
	if n1.NodeID != "node-1" || n2.NodeID != "node-2" {
		t.Errorf("node IDs = %s, %s", n1.NodeID, n2.NodeID)
	}

	at := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	b := f.NewBatch("maize", 500, n1, at, 48*time.Hour)
	if b.BatchID != "batch-1" {
		t.Errorf("batch ID = %s", b.BatchID)
	}
	if b.Status != BatchStatusStored || b.FreshnessPct != 100 {
		t.Errorf("batch defaults wrong: %+v", b)
	}
	if len(b.History) != 1 || b.History[0].Action != "produced" {
		t.Errorf("batch history = %+v", b.History)
	}
	if !b.ExpiryAt.Equal(at.Add(48 * time.Hour)) {
		t.Errorf("expiry = %v", b.ExpiryAt)
	}

	e1 := f.NewEvent(at, loc, FarmProduction{NodeID: n1.NodeID, BatchID: b.BatchID})
	e2 := f.NewEvent(at, loc, NGORequest{NodeID: n2.NodeID})
	if e1.EventID != 1 || e2.EventID != 2 {
		t.Errorf("event IDs = %d, %d", e1.EventID, e2.EventID)
	}
	if e1.Type != EventFarmProduction || e2.Type != EventNGORequest {
		t.Errorf("event types = %s, %s", e1.Type, e2.Type)
	}
}

func TestFactory_IndependentRuns(t *testing.T) {
	loc := geo.Point{Lon: 0, Lat: 0}
	a := NewFactory().NewNode(NodeFarm, "A", "r", loc, 0)
	b := NewFactory().NewNode(NodeFarm, "B", "r", loc, 0)
	if a.NodeID != b.NodeID {
		t.Errorf("fresh factories must restart numbering: %s vs %s", a.NodeID, b.NodeID)
	}
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	f := NewFactory()
	at := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	ev := f.NewEvent(at, geo.Point{Lon: 36.8, Lat: -1.3}, ShipmentLocationUpdate{
		ShipmentID:  "shp-1",
		Point:       geo.Point{Lon: 36.5, Lat: -1.0},
		SpeedKmh:    62.5,
		ProgressPct: 40,
	})

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != EventShipmentLocationUpdate || got.EventID != ev.EventID {
		t.Errorf("header mismatch: %+v", got)
	}
	p, ok := got.Payload.(*ShipmentLocationUpdate)
	if !ok {
		t.Fatalf("payload decoded as %T", got.Payload)
	}
	if p.ShipmentID != "shp-1" || p.ProgressPct != 40 {
		t.Errorf("payload mismatch: %+v", p)
	}
}

func TestEvent_UnknownTypeRejected(t *testing.T) {
	raw := `{"eventId":1,"time":"2026-03-01T06:00:00Z","type":"teleport","location":{"lon":0,"lat":0},"payload":{}}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
