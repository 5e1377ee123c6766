package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/foodbridge/tracegen/internal/config"
	"github.com/foodbridge/tracegen/internal/metrics"
	"github.com/foodbridge/tracegen/internal/store"
	"github.com/foodbridge/tracegen/internal/timeline"
)

// Sink persists a finished dataset. *store.Store implements it; the
// engine runs sinkless when no DSN is configured.
type Sink interface {
	SaveDataset(ctx context.Context, runID string, ds *timeline.Dataset) error
	Ping(ctx context.Context) error
}

var _ Sink = (*store.Store)(nil)

// genJob is one queued generate-and-persist unit of work. Each job
// carries its own config snapshot, so a hot reload mid-flight never
// mixes policies within a run.
type genJob struct {
	id  string
	cfg *config.Config
}

// Engine runs dataset generation: synchronously for interactive calls,
// or through a bounded worker pool for fire-and-forget jobs that land in
// storage.
type Engine struct {
	sink Sink // nil = generate only
	pool *workerPool[genJob]
	log  *slog.Logger
	conf config.EngineConf
}

// New creates an Engine and starts its worker pool.
func New(ctx context.Context, sink Sink, conf config.EngineConf, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{sink: sink, log: log, conf: conf}
	e.pool = newWorkerPool(ctx, conf.Workers, conf.QueueDepth, e.runJob)
	return e
}

// GenerateSync produces a dataset inline and, when a sink is configured,
// persists it under the returned run ID before returning.
func (e *Engine) GenerateSync(ctx context.Context, cfg *config.Config) (string, *timeline.Dataset, error) {
	runID := uuid.New().String()
	ds, err := timeline.New(cfg, e.log).Generate()
	if err != nil {
		return "", nil, err
	}
	if e.sink != nil {
		if err := e.sink.SaveDataset(ctx, runID, ds); err != nil {
			metrics.DatasetsPersisted.WithLabelValues("error").Inc()
			return "", nil, err
		}
		metrics.DatasetsPersisted.WithLabelValues("success").Inc()
	}
	return runID, ds, nil
}

// SubmitAsync enqueues a generation job. Returns the job's run ID, or
// false if the queue is full.
func (e *Engine) SubmitAsync(cfg *config.Config) (string, bool) {
	job := genJob{id: uuid.New().String(), cfg: cfg}
	if !e.pool.Submit(job) {
		metrics.JobsDropped.Inc()
		return "", false
	}
	metrics.JobsEnqueued.Inc()
	return job.id, true
}

func (e *Engine) runJob(ctx context.Context, job genJob) {
	timeout := time.Duration(e.conf.JobTimeoutMs) * time.Millisecond
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ds, err := timeline.New(job.cfg, e.log).Generate()
	if err != nil {
		e.log.Error("generation job failed", "run_id", job.id, "err", err)
		return
	}
	if e.sink == nil {
		e.log.Warn("generation job discarded: no storage configured", "run_id", job.id)
		return
	}
	if err := e.sink.SaveDataset(jobCtx, job.id, ds); err != nil {
		metrics.DatasetsPersisted.WithLabelValues("error").Inc()
		e.log.Error("persist failed", "run_id", job.id, "err", err)
		return
	}
	metrics.DatasetsPersisted.WithLabelValues("success").Inc()
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Ready reports whether the sink (if any) is reachable.
func (e *Engine) Ready(ctx context.Context) error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Ping(ctx)
}

// Shutdown drains the job pool.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
