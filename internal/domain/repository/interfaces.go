package repository

import (
	"context"
	"time"

	"QuoteVault/internal/domain/models"
)

// PriceStore is the range-indexed record store keyed by (symbol, date).
// Implementations are externally synchronized and safe for concurrent use;
// the caller performs no locking. Last write wins on concurrent writes to the
// same key.
type PriceStore interface {
	// RangeQuery returns non-expired records for [start, end] inclusive,
	// ascending by date. An empty result is not an error.
	RangeQuery(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceRecord, error)
	// BatchWrite upserts records, chunking to the store's batch-item limit
	// internally.
	BatchWrite(ctx context.Context, records []models.PriceRecord) error
	// PointGet returns a single record, or (nil, nil) when absent.
	PointGet(ctx context.Context, symbol, date string) (*models.PriceRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// SeriesProvider is the upstream daily-bar source. FetchSeries returns rows
// ascending by date, a *models.NotFoundError when the symbol/range has no
// data, or a *models.UpstreamError once internal retries are exhausted.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, symbol, startDate, endDate string) ([]models.RawBar, error)
	FetchMetadata(ctx context.Context, symbol string) (*models.SymbolMeta, error)
}

// RecordWriter hands normalized records off for cache repopulation. The
// direct implementation writes through to the PriceStore; the kafka one
// publishes and lets a consumer drain into the store.
type RecordWriter interface {
	WriteBack(ctx context.Context, records []models.PriceRecord) error
}

// EarningsStore caches earnings calendars per symbol. Get distinguishes a
// true miss (found false) from a cached-empty calendar (found true, zero
// events), so symbols confirmed to have no earnings are not re-fetched.
type EarningsStore interface {
	Get(ctx context.Context, symbol string) ([]models.EarningsEvent, bool)
	Put(ctx context.Context, symbol string, events []models.EarningsEvent) error
}

// EarningsSource is the upstream earnings-calendar source. A symbol with no
// calendar yields an empty slice, not an error.
type EarningsSource interface {
	FetchEarnings(ctx context.Context, symbol string) ([]models.EarningsEvent, error)
}

// SymbolSearcher resolves a free-text query to matching tickers.
type SymbolSearcher interface {
	SearchSymbols(ctx context.Context, query string) ([]models.SearchResult, error)
}

// Metrics records operational counters for the cache pipeline.
type Metrics interface {
	RecordCacheHit(symbol string)
	RecordCacheMiss(symbol string)
	RecordCoverage(ratio float64)
	RecordLatency(op string, seconds float64)
	RecordWriteback(backend string, count int)
	RecordError(kind string)
}
