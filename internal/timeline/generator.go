package timeline

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/foodbridge/tracegen/internal/config"
	"github.com/foodbridge/tracegen/internal/entity"
	"github.com/foodbridge/tracegen/internal/geo"
	"github.com/foodbridge/tracegen/internal/metrics"
)

// foodSpec is one entry of the illustrative food catalog.
type foodSpec struct {
	name      string
	shelfLife time.Duration
	minKg     float64
	maxKg     float64
}

var foodCatalog = []foodSpec{
	{"maize", 90 * 24 * time.Hour, 300, 1200},
	{"beans", 120 * 24 * time.Hour, 200, 800},
	{"rice", 180 * 24 * time.Hour, 400, 1500},
	{"wheat", 120 * 24 * time.Hour, 300, 1000},
	{"tomatoes", 7 * 24 * time.Hour, 100, 400},
	{"milk", 3 * 24 * time.Hour, 100, 300},
}

// Generator fabricates one internally consistent supply-chain timeline
// per Generate call. It is stateless between calls: every run gets its
// own ledger, factory and seeded RNG, so concurrent callers never share
// counters and identical config+seed reproduces identical output.
type Generator struct {
	cfg *config.Config
	log *slog.Logger
}

// New returns a Generator for cfg. A nil logger falls back to slog.Default.
func New(cfg *config.Config, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{cfg: cfg, log: log}
}

// Generate runs the full simulated window and returns the five
// collections. Configuration errors (non-positive duration, empty
// roster) fail fast; a roster merely missing one role skips the affected
// lanes and still returns a valid dataset.
func (g *Generator) Generate() (*Dataset, error) {
	cfg := g.cfg
	began := time.Now()

	if cfg.Window.DurationMinutes <= 0 {
		return nil, fmt.Errorf("timeline: window duration must be positive, got %dm", cfg.Window.DurationMinutes)
	}
	start, err := windowStart(cfg.Window.Start)
	if err != nil {
		return nil, err
	}
	dur := time.Duration(cfg.Window.DurationMinutes) * time.Minute
	end := start.Add(dur)

	rng := rand.New(rand.NewSource(cfg.Seed))
	l := newLedger()

	roster := cfg.Nodes
	if len(roster) == 0 {
		roster = defaultRoster()
	}
	byType := make(map[entity.NodeType][]*entity.Node)
	for _, nc := range roster {
		n := l.addNode(entity.NodeType(nc.Type), nc.Name, nc.Region, geo.Point{Lon: nc.Lon, Lat: nc.Lat}, nc.CapacityKg)
		byType[n.Type] = append(byType[n.Type], n)
	}
	if len(l.nodes) == 0 {
		return nil, fmt.Errorf("timeline: node roster is empty")
	}

	// The window is split into three phases so upstream arrivals precede
	// downstream departures: farm→processing, then processing→warehouse,
	// then warehouse→ngo.
	plen := dur / 3

	g.farmLanes(l, rng, byType, start, plen)
	g.processingLanes(l, rng, byType, start.Add(plen), plen)
	g.ngoLanes(l, rng, byType, start.Add(2*plen), plen)
	g.spoilage(l, rng, end)
	g.predictions(l, rng, byType[entity.NodeWarehouse], start, dur)

	sort.SliceStable(l.events, func(i, j int) bool { return l.events[i].Time.Before(l.events[j].Time) })
	sort.SliceStable(l.locations, func(i, j int) bool { return l.locations[i].At.Before(l.locations[j].At) })

	ds := &Dataset{
		Nodes:     l.nodes,
		Batches:   l.batches,
		Shipments: l.shipments,
		Locations: l.locations,
		Events:    l.events,
	}

	metrics.DatasetsGenerated.WithLabelValues(cfg.Window.Mode).Inc()
	metrics.GenerationDuration.Observe(float64(time.Since(began).Milliseconds()))
	metrics.EntitiesGenerated.WithLabelValues("nodes").Add(float64(len(ds.Nodes)))
	metrics.EntitiesGenerated.WithLabelValues("batches").Add(float64(len(ds.Batches)))
	metrics.EntitiesGenerated.WithLabelValues("shipments").Add(float64(len(ds.Shipments)))
	metrics.EntitiesGenerated.WithLabelValues("shipmentLocations").Add(float64(len(ds.Locations)))
	metrics.EntitiesGenerated.WithLabelValues("events").Add(float64(len(ds.Events)))

	g.log.Info("dataset generated",
		"mode", cfg.Window.Mode,
		"seed", cfg.Seed,
		"shipments", len(ds.Shipments),
		"events", len(ds.Events),
	)
	return ds, nil
}

// farmLanes produces a batch at a farm shortly before departure and
// ships it to a processing node.
func (g *Generator) farmLanes(l *ledger, rng *rand.Rand, byType map[entity.NodeType][]*entity.Node, p0 time.Time, plen time.Duration) {
	farms := byType[entity.NodeFarm]
	procs := byType[entity.NodeProcessing]
	if len(farms) == 0 || len(procs) == 0 {
		g.skipLane("farm_to_processing", len(farms) == 0, "farm", "processing")
		return
	}
	for i := 0; i < g.cfg.Lanes.FarmToProcessing; i++ {
		farm := farms[rng.Intn(len(farms))]
		proc := procs[rng.Intn(len(procs))]
		food := foodCatalog[rng.Intn(len(foodCatalog))]
		qty := round2(food.minKg + rng.Float64()*(food.maxKg-food.minKg))

		depart, travel := laneSchedule(rng, p0, plen)
		lead := time.Duration(float64(plen) * (0.02 + 0.05*rng.Float64()))
		b := l.produce(farm, food.name, qty, depart.Add(-lead), food.shelfLife)

		g.runShipment(l, []*entity.Batch{b}, farm, proc, depart, travel)
	}
}

// processingLanes ship processed batches onward to warehouses. A stored
// batch delivered earlier to the processing node is consumed into a
// derived batch; when none is on hand, pre-window stock stands in.
func (g *Generator) processingLanes(l *ledger, rng *rand.Rand, byType map[entity.NodeType][]*entity.Node, p0 time.Time, plen time.Duration) {
	procs := byType[entity.NodeProcessing]
	whs := byType[entity.NodeWarehouse]
	if len(procs) == 0 || len(whs) == 0 {
		g.skipLane("processing_to_warehouse", len(procs) == 0, "processing", "warehouse")
		return
	}
	for i := 0; i < g.cfg.Lanes.ProcessingToWarehouse; i++ {
		proc := procs[rng.Intn(len(procs))]
		wh := whs[rng.Intn(len(whs))]
		depart, travel := laneSchedule(rng, p0, plen)

		var b *entity.Batch
		if src := pickStored(l, proc.NodeID, depart); src != nil {
			b = l.process(src, proc, depart)
		} else {
			food := foodCatalog[rng.Intn(len(foodCatalog))]
			qty := round2(food.minKg + rng.Float64()*(food.maxKg-food.minKg))
			b = l.stock(proc, food.name, qty, p0.Add(-plen*2), food.shelfLife)
		}
		g.runShipment(l, []*entity.Batch{b}, proc, wh, depart, travel)
	}
}

// ngoLanes deliver stored warehouse batches to NGOs, each preceded by an
// ngo_request event strictly before departure.
func (g *Generator) ngoLanes(l *ledger, rng *rand.Rand, byType map[entity.NodeType][]*entity.Node, p0 time.Time, plen time.Duration) {
	whs := byType[entity.NodeWarehouse]
	ngos := byType[entity.NodeNGO]
	if len(whs) == 0 || len(ngos) == 0 {
		g.skipLane("warehouse_to_ngo", len(whs) == 0, "warehouse", "ngo")
		return
	}
	for i := 0; i < g.cfg.Lanes.WarehouseToNGO; i++ {
		wh := whs[rng.Intn(len(whs))]
		ngo := ngos[rng.Intn(len(ngos))]
		depart, travel := laneSchedule(rng, p0, plen)

		b := pickStored(l, wh.NodeID, depart)
		if b == nil {
			food := foodCatalog[rng.Intn(len(foodCatalog))]
			qty := round2(food.minKg + rng.Float64()*(food.maxKg-food.minKg))
			b = l.stock(wh, food.name, qty, p0.Add(-plen*4), food.shelfLife)
		}

		lead := time.Duration(float64(plen) * (0.02 + 0.05*rng.Float64()))
		l.requestFood(ngo, b.FoodType, b.QuantityKg, depart.Add(-lead))

		g.runShipment(l, []*entity.Batch{b}, wh, ngo, depart, travel)
	}
}

// runShipment realizes one shipment end to end: creation, evenly spaced
// in-transit snapshots along the curved route, and arrival with the
// terminal snapshot. Snapshot count is max(snapshots.min,
// ceil(travel_hours × snapshots.per_hour)) intermediates plus the two
// endpoint samples.
func (g *Generator) runShipment(l *ledger, batches []*entity.Batch, from, to *entity.Node, depart time.Time, travel time.Duration) {
	cfg := g.cfg
	eta := depart.Add(travel)
	route := geo.Waypoints(from.Location, to.Location, cfg.Route.Curvature, cfg.Route.LongArcDeg)

	s := l.createShipment(batches, from, to, depart, eta)

	travelHours := travel.Hours()
	nInt := int(math.Ceil(travelHours * cfg.Snapshots.PerHour))
	if nInt < cfg.Snapshots.Min {
		nInt = cfg.Snapshots.Min
	}
	segs := nInt + 1
	segHours := travelHours / float64(segs)
	avgSpeed := round2(geo.Haversine(from.Location, to.Location) / travelHours)

	prev := from.Location
	for k := 0; k <= nInt; k++ {
		p := float64(k) / float64(segs)
		pt, err := geo.Along(route, p)
		if err != nil {
			// Waypoints never returns an empty route.
			pt = from.Location
		}
		at := depart.Add(time.Duration(float64(travel) * float64(k) / float64(segs)))
		speed := avgSpeed
		if k > 0 && segHours > 0 {
			speed = round2(geo.Haversine(prev, pt) / segHours)
		}
		etaCopy := eta
		var etaPtr *time.Time
		if k > 0 {
			etaPtr = &etaCopy
		}
		l.recordLocation(s, at, pt, speed, round2(100*p), etaPtr)
		prev = pt
	}

	termSpeed := avgSpeed
	if segHours > 0 {
		termSpeed = round2(geo.Haversine(prev, to.Location) / segHours)
	}
	if err := l.arriveShipment(s, eta, termSpeed, cfg.Loss.ProcessingPct); err != nil {
		// Unreachable for shipments this function just created.
		g.log.Error("shipment arrival failed", "shipment", s.ShipmentID, "err", err)
	}
}

// spoilage writes off a seeded fraction of delivered batches at a random
// instant between delivery and window end.
func (g *Generator) spoilage(l *ledger, rng *rand.Rand, end time.Time) {
	for _, b := range l.batches {
		if b.Status != entity.BatchStatusDelivered {
			continue
		}
		if rng.Float64()*100 >= g.cfg.Spoilage.ChancePct {
			continue
		}
		deliveredAt := b.History[len(b.History)-1].Time
		if !deliveredAt.Before(end) {
			continue
		}
		at := deliveredAt.Add(time.Duration(rng.Float64() * float64(end.Sub(deliveredAt))))
		l.spoil(b, at)
	}
}

// predictions emits demand forecasts at each warehouse, spread across
// the window. Demand values are illustrative.
func (g *Generator) predictions(l *ledger, rng *rand.Rand, warehouses []*entity.Node, start time.Time, dur time.Duration) {
	for _, wh := range warehouses {
		for i := 0; i < g.cfg.Predictions.PerWarehouse; i++ {
			food := foodCatalog[rng.Intn(len(foodCatalog))]
			at := start.Add(time.Duration(rng.Float64() * float64(dur)))
			demand := round2(100 + rng.Float64()*900)
			l.predict(wh, food.name, demand, g.cfg.Predictions.HorizonHours, at)
		}
	}
}

func (g *Generator) skipLane(lane string, firstMissing bool, firstRole, secondRole string) {
	role := secondRole
	if firstMissing {
		role = firstRole
	}
	metrics.LanesSkipped.WithLabelValues(lane).Inc()
	g.log.Warn("lane skipped", "lane", lane, "missing_role", role)
}

// laneSchedule picks a departure in the early part of the phase and a
// travel duration that lands the arrival inside the same phase.
func laneSchedule(rng *rand.Rand, p0 time.Time, plen time.Duration) (depart time.Time, travel time.Duration) {
	depart = p0.Add(time.Duration(float64(plen) * (0.10 + 0.10*rng.Float64())))
	travel = time.Duration(float64(plen) * (0.35 + 0.35*rng.Float64()))
	return depart, travel
}

// pickStored returns the first batch stored at nodeID whose last
// transition is no later than by, or nil.
func pickStored(l *ledger, nodeID string, by time.Time) *entity.Batch {
	for _, b := range l.batches {
		if b.Status != entity.BatchStatusStored || b.CurrentNode != nodeID {
			continue
		}
		if last := b.History[len(b.History)-1].Time; !last.After(by) {
			return b
		}
	}
	return nil
}

func windowStart(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().Truncate(time.Second), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeline: window start: %w", err)
	}
	return t.UTC(), nil
}

// defaultRoster is the built-in demo map (Kenyan corridor) used when the
// config carries no roster.
func defaultRoster() []config.NodeConf {
	return []config.NodeConf{
		{Type: "farm", Name: "Eldoret Farm", Region: "rift-valley", Lon: 35.27, Lat: 0.52, CapacityKg: 50000},
		{Type: "farm", Name: "Kitale Farm", Region: "rift-valley", Lon: 35.00, Lat: 1.02, CapacityKg: 40000},
		{Type: "farm", Name: "Nakuru Farm", Region: "rift-valley", Lon: 36.07, Lat: -0.30, CapacityKg: 35000},
		{Type: "processing", Name: "Nakuru Processing Plant", Region: "rift-valley", Lon: 36.08, Lat: -0.28, CapacityKg: 80000},
		{Type: "processing", Name: "Thika Processing Plant", Region: "central", Lon: 37.07, Lat: -1.03, CapacityKg: 60000},
		{Type: "warehouse", Name: "Nairobi Central Warehouse", Region: "nairobi", Lon: 36.82, Lat: -1.29, CapacityKg: 200000},
		{Type: "warehouse", Name: "Mombasa Depot", Region: "coast", Lon: 39.67, Lat: -4.04, CapacityKg: 150000},
		{Type: "ngo", Name: "Kibera Relief Center", Region: "nairobi", Lon: 36.78, Lat: -1.31, CapacityKg: 20000},
		{Type: "ngo", Name: "Garissa Aid Post", Region: "north-eastern", Lon: 39.63, Lat: -0.45, CapacityKg: 15000},
		{Type: "ngo", Name: "Lodwar Outreach", Region: "turkana", Lon: 35.60, Lat: 3.12, CapacityKg: 10000},
	}
}
