package repository

import (
	"context"
	"testing"
	"time"

	"QuoteVault/internal/domain/models"
	"QuoteVault/pkg/cache"
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

func newTestEarningsCache(t *testing.T) *EarningsCache {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	return NewEarningsCache(mc, time.Hour, testLogger(t))
}

func TestEarningsCacheRoundTrip(t *testing.T) {
	ec := newTestEarningsCache(t)
	ctx := context.Background()

	eps := 2.1
	events := []models.EarningsEvent{
		{Ticker: "AAPL", EarningsDate: "2024-04-25", EarningsHour: "AMC", EpsEstimate: &eps},
	}
	if err := ec.Put(ctx, "AAPL", events); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found := ec.Get(ctx, "AAPL")
	if !found {
		t.Fatal("Get: found = false after Put")
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[0].Ticker != "AAPL" || got[0].EarningsDate != "2024-04-25" || got[0].EarningsHour != "AMC" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[0].EpsEstimate == nil || *got[0].EpsEstimate != 2.1 {
		t.Errorf("EpsEstimate = %v, want 2.1", got[0].EpsEstimate)
	}
}

func TestEarningsCacheMissVersusCachedEmpty(t *testing.T) {
	ec := newTestEarningsCache(t)
	ctx := context.Background()

	// Never written: a true miss.
	if _, found := ec.Get(ctx, "SPY"); found {
		t.Fatal("Get: found = true for a symbol never written")
	}

	// Written empty: found with zero events.
	if err := ec.Put(ctx, "SPY", []models.EarningsEvent{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, found := ec.Get(ctx, "SPY")
	if !found {
		t.Fatal("Get: found = false for a cached empty calendar")
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got = %v, want empty non-nil slice", got)
	}
}

func TestEarningsCacheExpiry(t *testing.T) {
	ec := newTestEarningsCache(t)
	ctx := context.Background()

	if err := ec.Put(ctx, "AAPL", []models.EarningsEvent{{Ticker: "AAPL", EarningsDate: "2024-04-25"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Move the clock past the envelope's expiry. The stored item may still
	// exist but the read must treat it as a miss.
	ec.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, found := ec.Get(ctx, "AAPL"); found {
		t.Error("Get: found = true for an expired envelope")
	}
}

func TestEarningsCacheOverwrite(t *testing.T) {
	ec := newTestEarningsCache(t)
	ctx := context.Background()

	if err := ec.Put(ctx, "AAPL", []models.EarningsEvent{{Ticker: "AAPL", EarningsDate: "2024-04-25"}}); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := ec.Put(ctx, "AAPL", []models.EarningsEvent{{Ticker: "AAPL", EarningsDate: "2024-05-02"}}); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, found := ec.Get(ctx, "AAPL")
	if !found {
		t.Fatal("Get: found = false")
	}
	if len(got) != 1 || got[0].EarningsDate != "2024-05-02" {
		t.Errorf("got = %+v, want the later calendar only", got)
	}
}
