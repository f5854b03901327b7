package repository

import (
	"context"
	"time"

	"MarketHeat/internal/domain/models"
)

// SeriesSource supplies the raw per-series data the aligner consumes.
// Retrieval failures and staleness are the source's concern; the engine only
// ever sees missing dates or values.
type SeriesSource interface {
	FetchAll(ctx context.Context) ([]models.Series, error)
}

// TableStore persists raw observations and the derived result table. The
// derived table is replaced wholesale on every recompute.
type TableStore interface {
	Init(ctx context.Context) error // ensure tables exist
	StoreObservations(ctx context.Context, series []models.Series) error
	ReplaceResults(ctx context.Context, rows []models.ResultRow) error
	QueryResults(ctx context.Context, from, to time.Time, limit int) ([]models.ResultRow, error)
	Health(ctx context.Context) error
	Close() error
}

// SnapshotCache holds the latest serialized table payload for cheap serving.
type SnapshotCache interface {
	PutTable(ctx context.Context, p models.TablePayload) error
	GetTable(ctx context.Context) (models.TablePayload, bool, error)
	PutLatest(ctx context.Context, rec models.LatestRecord) error
	GetLatest(ctx context.Context) (models.LatestRecord, bool, error)
}

// Publisher announces the newest classified record after each recompute.
type Publisher interface {
	PublishLatest(ctx context.Context, rec models.LatestRecord) error
	Close() error
}

// Metrics records operational counters for the pipeline and its collaborators.
type Metrics interface {
	RecordRunDuration(stage string, seconds float64)
	RecordRowsComputed(n int)
	RecordFetchError(series string)
	RecordLastIndex(value float64)
	RecordSignal(active bool)
}
