package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"QuoteVault/internal/domain/models"
	applogger "QuoteVault/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type nopMetrics struct{}

func (nopMetrics) RecordCacheHit(string)         {}
func (nopMetrics) RecordCacheMiss(string)        {}
func (nopMetrics) RecordCoverage(float64)        {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) RecordWriteback(string, int)   {}
func (nopMetrics) RecordError(string)            {}

type fakeStore struct {
	mu       sync.Mutex
	records  map[string][]models.PriceRecord
	rangeErr error
	writes   []models.PriceRecord
	writeErr error
}

func (s *fakeStore) RangeQuery(_ context.Context, symbol string, _, _ time.Time) ([]models.PriceRecord, error) {
	if s.rangeErr != nil {
		return nil, s.rangeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[symbol], nil
}

func (s *fakeStore) BatchWrite(_ context.Context, records []models.PriceRecord) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, records...)
	return nil
}

func (s *fakeStore) PointGet(_ context.Context, _, _ string) (*models.PriceRecord, error) {
	return nil, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

type fakeProvider struct {
	mu    sync.Mutex
	bars  map[string][]models.RawBar
	errs  map[string]error
	calls map[string]int
}

func (p *fakeProvider) FetchSeries(_ context.Context, symbol, _, _ string) ([]models.RawBar, error) {
	p.mu.Lock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[symbol]++
	p.mu.Unlock()

	if err := p.errs[symbol]; err != nil {
		return nil, err
	}
	bars, ok := p.bars[symbol]
	if !ok {
		return nil, &models.NotFoundError{Symbol: symbol}
	}
	return bars, nil
}

func (p *fakeProvider) FetchMetadata(_ context.Context, symbol string) (*models.SymbolMeta, error) {
	return &models.SymbolMeta{Ticker: symbol}, nil
}

func (p *fakeProvider) callCount(symbol string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[symbol]
}

type fakeWriter struct {
	mu  sync.Mutex
	got []models.PriceRecord
	err error
}

func (w *fakeWriter) WriteBack(_ context.Context, records []models.PriceRecord) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.got = append(w.got, records...)
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.got)
}

func newTestPrices(t *testing.T, store *fakeStore, provider *fakeProvider, writer *fakeWriter, marker *RangeMarker) *PricesUseCase {
	t.Helper()
	l := testLogger(t)
	cov := NewCoverageEvaluator(store, DefaultCoverageThreshold, l, nopMetrics{})
	return NewPricesUseCase(store, provider, writer, marker, cov, DefaultTTLPolicy(), l, nopMetrics{})
}

type fakeEarningsStore struct {
	mu     sync.Mutex
	data   map[string][]models.EarningsEvent
	putErr error
	puts   int
}

func (s *fakeEarningsStore) Get(_ context.Context, symbol string) ([]models.EarningsEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, ok := s.data[symbol]
	return events, ok
}

func (s *fakeEarningsStore) Put(_ context.Context, symbol string, events []models.EarningsEvent) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string][]models.EarningsEvent)
	}
	s.data[symbol] = events
	s.puts++
	return nil
}

type fakeEarningsSource struct {
	mu     sync.Mutex
	events map[string][]models.EarningsEvent
	errs   map[string]error
	calls  map[string]int
}

func (s *fakeEarningsSource) FetchEarnings(_ context.Context, symbol string) ([]models.EarningsEvent, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[symbol]++
	s.mu.Unlock()

	if err := s.errs[symbol]; err != nil {
		return nil, err
	}
	return s.events[symbol], nil
}

func (s *fakeEarningsSource) callCount(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[symbol]
}

type fakeSearcher struct {
	results []models.SearchResult
	err     error
	queries []string
}

func (s *fakeSearcher) SearchSymbols(_ context.Context, query string) ([]models.SearchResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func cachedRecords(symbol string, dates ...string) []models.PriceRecord {
	records := make([]models.PriceRecord, 0, len(dates))
	for _, d := range dates {
		records = append(records, models.PriceRecord{Symbol: symbol, Date: d, Close: 100})
	}
	return records
}
