package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "MarketHeat/internal/domain/repository"
	"MarketHeat/internal/engine"
	applogger "MarketHeat/pkg/logger"
)

// Recompute orchestrates one full pipeline run: fetch the raw series, persist
// them, run the engine over the whole history, replace the derived table, and
// refresh the serving snapshot. Serving never goes through this path.
type Recompute struct {
	source  domrepo.SeriesSource
	store   domrepo.TableStore
	cache   domrepo.SnapshotCache
	pub     domrepo.Publisher
	metrics domrepo.Metrics
	eng     *engine.Engine
	l       *applogger.Logger
}

func NewRecompute(
	source domrepo.SeriesSource,
	store domrepo.TableStore,
	eng *engine.Engine,
) *Recompute {
	return &Recompute{source: source, store: store, eng: eng}
}

// SetSnapshotCache wires the optional Redis snapshot.
func (r *Recompute) SetSnapshotCache(c domrepo.SnapshotCache) { r.cache = c }

// SetPublisher wires the optional Kafka publisher.
func (r *Recompute) SetPublisher(p domrepo.Publisher) { r.pub = p }

// SetMetrics wires the metrics recorder.
func (r *Recompute) SetMetrics(m domrepo.Metrics) { r.metrics = m }

// SetLogger injects a structured logger.
func (r *Recompute) SetLogger(l *applogger.Logger) { r.l = l }

// Run executes one recompute. Stage failures before the table replace abort
// the run and leave the previous table intact.
func (r *Recompute) Run(ctx context.Context) error {
	start := time.Now()

	fetchStart := time.Now()
	series, err := r.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch series: %w", err)
	}
	r.observe("fetch", fetchStart)

	if err := r.store.StoreObservations(ctx, series); err != nil {
		return fmt.Errorf("store observations: %w", err)
	}

	computeStart := time.Now()
	res, err := r.eng.Run(series)
	if err != nil {
		return fmt.Errorf("engine run: %w", err)
	}
	r.observe("compute", computeStart)

	rows := res.Rows()
	storeStart := time.Now()
	if err := r.store.ReplaceResults(ctx, rows); err != nil {
		return fmt.Errorf("replace results: %w", err)
	}
	r.observe("store", storeStart)

	if r.metrics != nil {
		r.metrics.RecordRowsComputed(len(rows))
	}

	// serving snapshot and downstream publish are best-effort; the table in
	// ClickHouse is already the source of truth at this point
	if r.cache != nil {
		if err := r.cache.PutTable(ctx, res.Payload()); err != nil && r.l != nil {
			r.l.Warn("snapshot table refresh failed", applogger.Error(err))
		}
	}

	if latest, ok := res.Latest(); ok {
		if r.metrics != nil {
			if latest.Index != nil {
				r.metrics.RecordLastIndex(*latest.Index)
			}
			if latest.Signal != nil {
				r.metrics.RecordSignal(*latest.Signal)
			}
		}
		if r.cache != nil {
			if err := r.cache.PutLatest(ctx, latest); err != nil && r.l != nil {
				r.l.Warn("snapshot latest refresh failed", applogger.Error(err))
			}
		}
		if r.pub != nil {
			if err := r.pub.PublishLatest(ctx, latest); err != nil && r.l != nil {
				r.l.Warn("latest record publish failed", applogger.Error(err))
			}
		}
	}

	r.observe("total", start)
	if r.l != nil {
		r.l.Info("recompute complete",
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Close releases downstream resources owned by the use case.
func (r *Recompute) Close() {
	if r.pub != nil {
		if err := r.pub.Close(); err != nil && r.l != nil {
			r.l.Warn("publisher close error", applogger.Error(err))
		}
	}
}

func (r *Recompute) observe(stage string, since time.Time) {
	if r.metrics != nil {
		r.metrics.RecordRunDuration(stage, time.Since(since).Seconds())
	}
}
