package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := New(baseURL, 2*time.Second, 2, time.Millisecond, testLogger(t))
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "exchangeName": "NMS", "shortName": "Apple Inc."},
      "timestamp": [1704153600, 1704240000, 1704326400],
      "indicators": {
        "quote": [{
          "open": [50, null, 52],
          "high": [102, null, 104],
          "low": [49, null, 51],
          "close": [100, null, 103],
          "volume": [1000, null, 1200]
        }],
        "adjclose": [{"adjclose": [95, null, 97.85]}]
      },
      "events": {
        "dividends": {"1704326400": {"amount": 0.24, "date": 1704326400}},
        "splits": {"1704153600": {"numerator": 4, "denominator": 1, "date": 1704153600}}
      }
    }],
    "error": null
  }
}`

func TestFetchSeriesParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval = %q, want 1d", got)
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	bars, err := c.FetchSeries(context.Background(), "AAPL", "2024-01-01", "2024-01-10")
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}

	// The middle timestamp is all nulls and must be dropped.
	if len(bars) != 2 {
		t.Fatalf("len(bars) = %d, want 2", len(bars))
	}
	if bars[0].Date != "2024-01-02" || bars[1].Date != "2024-01-04" {
		t.Errorf("dates = %s, %s; want 2024-01-02, 2024-01-04", bars[0].Date, bars[1].Date)
	}
	if bars[0].Close != 100 || bars[0].AdjClose != 95 {
		t.Errorf("bar[0] close/adjClose = %v/%v, want 100/95", bars[0].Close, bars[0].AdjClose)
	}
	if bars[0].SplitFactor != 4 {
		t.Errorf("bar[0] splitFactor = %v, want 4", bars[0].SplitFactor)
	}
	if bars[1].Dividend != 0.24 {
		t.Errorf("bar[1] dividend = %v, want 0.24", bars[1].Dividend)
	}
}

func TestFetchSeriesNotFoundIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchSeries(context.Background(), "NOPE", "2024-01-01", "2024-01-10")

	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if nf.Symbol != "NOPE" {
		t.Errorf("Symbol = %q, want NOPE", nf.Symbol)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1 (no retries on 404)", n)
	}
}

func TestFetchSeriesRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	bars, err := c.FetchSeries(context.Background(), "AAPL", "2024-01-01", "2024-01-10")
	if err != nil {
		t.Fatalf("FetchSeries after retries: %v", err)
	}
	if len(bars) != 2 {
		t.Errorf("len(bars) = %d, want 2", len(bars))
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestFetchSeriesExhaustedRetriesIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchSeries(context.Background(), "AAPL", "2024-01-01", "2024-01-10")

	var ue *models.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
}

func TestFetchSeriesEmptyResultIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart": {"result": [{"timestamp": [], "indicators": {"quote": []}}], "error": null}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchSeries(context.Background(), "EMPTY", "2024-01-01", "2024-01-10")

	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestFetchSeriesCancelledContextStopsBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second, 2, time.Hour, testLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	begin := time.Now()
	_, err := c.FetchSeries(ctx, "AAPL", "2024-01-01", "2024-01-10")
	elapsed := time.Since(begin)

	var ue *models.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	// Cancellation must interrupt the hour-long backoff wait.
	if elapsed > 5*time.Second {
		t.Fatalf("returned after %v, cancellation did not interrupt backoff", elapsed)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1 (no attempts after cancel)", n)
	}
}

func TestFetchMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	meta, err := c.FetchMetadata(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("FetchMetadata: %v", err)
	}
	if meta.Ticker != "AAPL" || meta.Name != "Apple Inc." || meta.ExchangeCode != "NMS" {
		t.Errorf("meta = %+v", meta)
	}
}

const summaryBody = `{
  "quoteSummary": {
    "result": [{
      "calendarEvents": {
        "earnings": {
          "earningsDate": [
            {"raw": 1706178600, "fmt": "2024-01-25"},
            {"raw": 1706745600, "fmt": "2024-02-01"}
          ],
          "earningsAverage": {"raw": 2.1},
          "earningsLow": {"raw": 1.8},
          "revenueAverage": {},
          "revenueLow": {"raw": 117000000000}
        }
      }
    }],
    "error": null
  }
}`

func TestFetchEarningsParsesCalendar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("modules"); got != "calendarEvents" {
			t.Errorf("modules = %q, want calendarEvents", got)
		}
		fmt.Fprint(w, summaryBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	events, err := c.FetchEarnings(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("FetchEarnings: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}

	// 1706178600 is 2024-01-25 10:30 UTC, a morning slot.
	ev := events[0]
	if ev.Ticker != "AAPL" {
		t.Errorf("Ticker = %q, want AAPL", ev.Ticker)
	}
	if ev.EarningsDate != "2024-01-25" {
		t.Errorf("EarningsDate = %q, want 2024-01-25", ev.EarningsDate)
	}
	if ev.EarningsHour != "BMO" {
		t.Errorf("EarningsHour = %q, want BMO", ev.EarningsHour)
	}
	if ev.EpsEstimate == nil || *ev.EpsEstimate != 2.1 {
		t.Errorf("EpsEstimate = %v, want 2.1", ev.EpsEstimate)
	}
	if ev.RevenueEstimate == nil || *ev.RevenueEstimate != 117000000000 {
		t.Errorf("RevenueEstimate = %v, want revenueLow fallback", ev.RevenueEstimate)
	}

	// 1706745600 is midnight UTC, meaning the session is unknown.
	if events[1].EarningsHour != "TNS" {
		t.Errorf("EarningsHour = %q, want TNS for midnight timestamp", events[1].EarningsHour)
	}
}

func TestFetchEarningsNotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	events, err := c.FetchEarnings(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("FetchEarnings: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("len(events) = %d, want 0", len(events))
	}
}

func TestSearchSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "apple" {
			t.Errorf("q = %q, want apple", got)
		}
		if got := q.Get("quotesCount"); got != "10" {
			t.Errorf("quotesCount = %q, want 10", got)
		}
		fmt.Fprint(w, `{
  "quotes": [
    {"symbol": "AAPL", "shortname": "Apple Inc.", "quoteType": "EQUITY", "exchange": "NMS"},
    {"symbol": "APLE", "longname": "Apple Hospitality REIT, Inc.", "quoteType": "EQUITY"},
    {"symbol": "QQQ", "shortname": "Invesco QQQ Trust", "quoteType": "ETF"},
    {"symbol": "", "shortname": "junk entry"}
  ]
}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	results, err := c.SearchSymbols(context.Background(), "apple")
	if err != nil {
		t.Fatalf("SearchSymbols: %v", err)
	}

	// The empty-symbol entry must be dropped.
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Ticker != "AAPL" || results[0].Name != "Apple Inc." || results[0].AssetType != "Stock" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if !results[0].IsActive {
		t.Errorf("results[0].IsActive = false, want true")
	}
	if results[1].Name != "Apple Hospitality REIT, Inc." {
		t.Errorf("results[1].Name = %q, want longname fallback", results[1].Name)
	}
	if results[2].AssetType != "ETF" {
		t.Errorf("results[2].AssetType = %q, want ETF", results[2].AssetType)
	}
}

func TestSearchSymbolsNotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	results, err := c.SearchSymbols(context.Background(), "zzzz")
	if err != nil {
		t.Fatalf("SearchSymbols: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}
