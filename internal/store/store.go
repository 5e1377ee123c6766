package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/foodbridge/tracegen/internal/timeline"
)

const insertBatchSize = 500

// Store is the Postgres sink for generated datasets. The generator core
// never touches it; callers hand a finished Dataset to SaveDataset.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open connects to Postgres with a short retry loop and creates any
// missing tables.
func Open(dsn string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn))
		if err == nil {
			break
		}
		log.Warn("db connection failed", "attempt", attempt, "err", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrator := s.db.Migrator()
	for _, model := range []interface{}{
		&NodeRow{}, &BatchRow{}, &ShipmentRow{}, &ShipmentLocationRow{}, &EventRow{},
	} {
		if migrator.HasTable(model) {
			continue
		}
		if err := migrator.CreateTable(model); err != nil {
			return fmt.Errorf("store: create table for %T: %w", model, err)
		}
	}
	return nil
}

// Ping reports database reachability (used by the readiness probe).
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store: db handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// SaveDataset bulk-inserts the five collections under runID in one
// transaction: either the whole dataset lands or none of it does.
func (s *Store) SaveDataset(ctx context.Context, runID string, ds *timeline.Dataset) error {
	rows, err := datasetRows(runID, ds)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(rows.nodes, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert nodes: %w", err)
		}
		if err := tx.CreateInBatches(rows.batches, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert batches: %w", err)
		}
		if err := tx.CreateInBatches(rows.shipments, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert shipments: %w", err)
		}
		if err := tx.CreateInBatches(rows.locations, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert shipment locations: %w", err)
		}
		if err := tx.CreateInBatches(rows.events, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: save dataset %s: %w", runID, err)
	}

	s.log.Info("dataset persisted",
		"run_id", runID,
		"shipments", len(rows.shipments),
		"events", len(rows.events),
	)
	return nil
}

type datasetRowSet struct {
	nodes     []NodeRow
	batches   []BatchRow
	shipments []ShipmentRow
	locations []ShipmentLocationRow
	events    []EventRow
}

// datasetRows flattens a Dataset into row values. Exported indirectly
// through SaveDataset; split out so conversion is testable without a
// database.
func datasetRows(runID string, ds *timeline.Dataset) (*datasetRowSet, error) {
	out := &datasetRowSet{}

	for _, n := range ds.Nodes {
		out.nodes = append(out.nodes, NodeRow{
			RunID:      runID,
			NodeID:     n.NodeID,
			Type:       string(n.Type),
			Name:       n.Name,
			RegionID:   n.RegionID,
			Lon:        n.Location.Lon,
			Lat:        n.Location.Lat,
			CapacityKg: n.CapacityKg,
		})
	}
	for _, b := range ds.Batches {
		history, err := json.Marshal(b.History)
		if err != nil {
			return nil, fmt.Errorf("store: marshal history for %s: %w", b.BatchID, err)
		}
		out.batches = append(out.batches, BatchRow{
			RunID:           runID,
			BatchID:         b.BatchID,
			ParentBatchID:   b.ParentBatchID,
			FoodType:        b.FoodType,
			QuantityKg:      b.QuantityKg,
			OriginNode:      b.OriginNode,
			CurrentNode:     b.CurrentNode,
			Status:          string(b.Status),
			ManufactureDate: b.ManufactureDate,
			ExpiryAt:        b.ExpiryAt,
			FreshnessPct:    b.FreshnessPct,
			History:         string(history),
		})
	}
	for _, sh := range ds.Shipments {
		ids, err := json.Marshal(sh.BatchIDs)
		if err != nil {
			return nil, fmt.Errorf("store: marshal batch ids for %s: %w", sh.ShipmentID, err)
		}
		latest, err := json.Marshal(sh.LatestLocation)
		if err != nil {
			return nil, fmt.Errorf("store: marshal latest location for %s: %w", sh.ShipmentID, err)
		}
		out.shipments = append(out.shipments, ShipmentRow{
			RunID:          runID,
			ShipmentID:     sh.ShipmentID,
			BatchIDs:       string(ids),
			FromNode:       sh.FromNode,
			ToNode:         sh.ToNode,
			StartAt:        sh.StartAt,
			ETA:            sh.ETA,
			ArrivedAt:      sh.ArrivedAt,
			Status:         string(sh.Status),
			LatestLocation: string(latest),
		})
	}
	for _, loc := range ds.Locations {
		out.locations = append(out.locations, ShipmentLocationRow{
			RunID:      runID,
			ShipmentID: loc.ShipmentID,
			At:         loc.At,
			Lon:        loc.Point.Lon,
			Lat:        loc.Point.Lat,
			SpeedKmh:   loc.SpeedKmh,
			ETA:        loc.ETA,
		})
	}
	for _, ev := range ds.Events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return nil, fmt.Errorf("store: marshal payload for event %d: %w", ev.EventID, err)
		}
		out.events = append(out.events, EventRow{
			RunID:   runID,
			EventID: ev.EventID,
			Time:    ev.Time,
			Type:    string(ev.Type),
			Lon:     ev.Location.Lon,
			Lat:     ev.Location.Lat,
			Payload: string(payload),
		})
	}
	return out, nil
}
