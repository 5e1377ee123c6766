package timeline_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodbridge/tracegen/internal/config"
	"github.com/foodbridge/tracegen/internal/entity"
	"github.com/foodbridge/tracegen/internal/timeline"
)

const coordTol = 1e-9

func testConfig(seed int64) *config.Config {
	cfg := &config.Config{
		Version: "v1",
		Seed:    seed,
		Window: config.WindowConf{
			Start:           "2026-03-01T06:00:00Z",
			DurationMinutes: 90,
			Mode:            "animation",
		},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func generate(t *testing.T, cfg *config.Config) *timeline.Dataset {
	t.Helper()
	ds, err := timeline.New(cfg, nil).Generate()
	require.NoError(t, err)
	return ds
}

func TestGenerate_Deterministic(t *testing.T) {
	a := generate(t, testConfig(7))
	b := generate(t, testConfig(7))
	require.Equal(t, a, b, "identical config and seed must reproduce identical output")
}

func TestGenerate_SeedsDiffer(t *testing.T) {
	a := generate(t, testConfig(1))
	b := generate(t, testConfig(2))
	assert.NotEqual(t, a, b, "distinct seeds should yield value-different output")
}

func TestGenerate_ShipmentInvariants(t *testing.T) {
	ds := generate(t, testConfig(42))
	require.NotEmpty(t, ds.Shipments)

	for _, s := range ds.Shipments {
		assert.False(t, s.ETA.Before(s.StartAt), "%s: start after eta", s.ShipmentID)
		if s.ArrivedAt != nil {
			assert.Equal(t, entity.ShipmentStatusArrived, s.Status, s.ShipmentID)
			assert.False(t, s.ArrivedAt.Before(s.StartAt), s.ShipmentID)
		}
	}
}

func TestGenerate_SnapshotsSpanRoute(t *testing.T) {
	ds := generate(t, testConfig(42))

	nodes := make(map[string]*entity.Node)
	for _, n := range ds.Nodes {
		nodes[n.NodeID] = n
	}

	byShipment := make(map[string][]*entity.ShipmentLocation)
	for _, loc := range ds.Locations {
		byShipment[loc.ShipmentID] = append(byShipment[loc.ShipmentID], loc)
	}

	for _, s := range ds.Shipments {
		locs := byShipment[s.ShipmentID]
		require.NotEmpty(t, locs, "%s has no snapshots", s.ShipmentID)

		for i := 1; i < len(locs); i++ {
			assert.False(t, locs[i].At.Before(locs[i-1].At),
				"%s: snapshots out of order", s.ShipmentID)
		}

		from := nodes[s.FromNode].Location
		to := nodes[s.ToNode].Location
		first, last := locs[0], locs[len(locs)-1]
		assert.InDelta(t, from.Lon, first.Point.Lon, coordTol)
		assert.InDelta(t, from.Lat, first.Point.Lat, coordTol)
		assert.InDelta(t, to.Lon, last.Point.Lon, coordTol)
		assert.InDelta(t, to.Lat, last.Point.Lat, coordTol)

		if s.ArrivedAt != nil {
			assert.True(t, s.ArrivedAt.Equal(last.At),
				"%s: arrived_iso must equal the terminal snapshot time", s.ShipmentID)
		}
	}
}

func TestGenerate_BatchHistoryConsistent(t *testing.T) {
	ds := generate(t, testConfig(42))
	require.NotEmpty(t, ds.Batches)

	for _, b := range ds.Batches {
		require.NotEmpty(t, b.History, b.BatchID)
		for i := 1; i < len(b.History); i++ {
			assert.False(t, b.History[i].Time.Before(b.History[i-1].Time),
				"%s: history out of order", b.BatchID)
		}
		if b.Status != entity.BatchStatusInTransit {
			last := b.History[len(b.History)-1]
			assert.Equal(t, b.CurrentNode, last.To,
				"%s: last history destination must match currentNode", b.BatchID)
		}
	}
}

func TestGenerate_EventOrderingAndReferences(t *testing.T) {
	ds := generate(t, testConfig(42))
	require.NotEmpty(t, ds.Events)

	shipments := make(map[string]int)
	for _, s := range ds.Shipments {
		shipments[s.ShipmentID]++
	}
	for id, n := range shipments {
		assert.Equal(t, 1, n, "shipment %s recorded more than once", id)
	}

	created := make(map[string]int)
	arrived := make(map[string]int)
	for i, ev := range ds.Events {
		if i > 0 {
			assert.False(t, ev.Time.Before(ds.Events[i-1].Time), "events not time-sorted")
		}
		switch p := ev.Payload.(type) {
		case entity.ShipmentCreated:
			assert.Contains(t, shipments, p.ShipmentID)
			created[p.ShipmentID]++
		case entity.ShipmentArrived:
			assert.Contains(t, shipments, p.ShipmentID)
			arrived[p.ShipmentID]++
		case entity.ShipmentLocationUpdate:
			assert.Contains(t, shipments, p.ShipmentID)
		}
	}
	for id := range shipments {
		assert.Equal(t, 1, created[id], "%s: want exactly one shipment_created", id)
		assert.Equal(t, 1, arrived[id], "%s: want exactly one shipment_arrived", id)
	}
}

func TestGenerate_ProcessingLoss(t *testing.T) {
	ds := generate(t, testConfig(42))

	produced := make(map[string]float64)
	for _, ev := range ds.Events {
		if p, ok := ev.Payload.(entity.FarmProduction); ok {
			produced[p.BatchID] = p.QuantityKg
		}
	}
	require.NotEmpty(t, produced)

	nodes := make(map[string]*entity.Node)
	for _, n := range ds.Nodes {
		nodes[n.NodeID] = n
	}

	checked := 0
	for _, b := range ds.Batches {
		origQty, ok := produced[b.BatchID]
		if !ok {
			continue
		}
		if nodes[b.CurrentNode] == nil || nodes[b.CurrentNode].Type != entity.NodeProcessing {
			continue
		}
		assert.InDelta(t, origQty*0.95, b.QuantityKg, 0.01,
			"%s: expected 5%% handling loss on arrival at processing", b.BatchID)
		checked++
	}
	assert.Greater(t, checked, 0, "no farm batch reached a processing node")
}

func TestGenerate_ZeroFarmsStillValid(t *testing.T) {
	cfg := testConfig(11)
	cfg.Nodes = []config.NodeConf{
		{Type: "processing", Name: "Plant A", Region: "r1", Lon: 36.0, Lat: -0.3, CapacityKg: 1000},
		{Type: "warehouse", Name: "Depot B", Region: "r1", Lon: 36.8, Lat: -1.3, CapacityKg: 5000},
		{Type: "ngo", Name: "Center C", Region: "r1", Lon: 36.78, Lat: -1.31, CapacityKg: 500},
	}

	ds := generate(t, cfg)
	for _, ev := range ds.Events {
		assert.NotEqual(t, entity.EventFarmProduction, ev.Type, "no farm lane should run")
	}
	// Downstream lanes still produce shipments from stock.
	assert.NotEmpty(t, ds.Shipments)
}

func TestGenerate_BadWindow(t *testing.T) {
	cfg := testConfig(1)
	cfg.Window.DurationMinutes = 0
	_, err := timeline.New(cfg, nil).Generate()
	require.Error(t, err)

	cfg = testConfig(1)
	cfg.Window.DurationMinutes = -30
	_, err = timeline.New(cfg, nil).Generate()
	require.Error(t, err)
}

func TestGenerate_DailyMode(t *testing.T) {
	cfg := testConfig(5)
	cfg.Window.Mode = "daily"
	cfg.Window.DurationMinutes = 3 * 24 * 60
	cfg.Snapshots.PerHour = 0.5

	ds := generate(t, cfg)
	require.NotEmpty(t, ds.Shipments)

	start, err := time.Parse(time.RFC3339, cfg.Window.Start)
	require.NoError(t, err)
	end := start.Add(time.Duration(cfg.Window.DurationMinutes) * time.Minute)
	for _, ev := range ds.Events {
		assert.False(t, ev.Time.Before(start), "event before window")
		assert.False(t, ev.Time.After(end), "event after window")
	}
}

func TestGenerate_FreshnessWithinRange(t *testing.T) {
	ds := generate(t, testConfig(42))
	for _, b := range ds.Batches {
		assert.False(t, math.IsNaN(b.FreshnessPct), b.BatchID)
		assert.GreaterOrEqual(t, b.FreshnessPct, 0.0, b.BatchID)
		assert.LessOrEqual(t, b.FreshnessPct, 100.0, b.BatchID)
	}
}
