package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"QuoteVault/internal/domain/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestExpectedTradingDays(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
	}{
		{"2024-01-02", "2024-01-02", 1},  // 1 day * 5/7 floors to 0, clamped to 1
		{"2024-01-02", "2024-01-03", 1},  // 2 days -> 1
		{"2024-01-02", "2024-01-06", 3},  // 5 days -> 3
		{"2024-01-01", "2024-01-07", 5},  // 7 days -> 5
		{"2024-01-01", "2024-01-14", 10}, // 14 days -> 10
		{"2024-01-01", "2024-12-31", 261},
	}

	for _, tt := range tests {
		if got := ExpectedTradingDays(day(tt.start), day(tt.end)); got != tt.want {
			t.Errorf("ExpectedTradingDays(%s, %s) = %d, want %d", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestExpectedTradingDaysMonotonic(t *testing.T) {
	start := day("2024-01-01")
	prev := 0
	for i := 0; i < 90; i++ {
		got := ExpectedTradingDays(start, start.AddDate(0, 0, i))
		if got < prev {
			t.Fatalf("expected count decreased at span %d: %d < %d", i, got, prev)
		}
		prev = got
	}
}

func TestEvaluateSufficient(t *testing.T) {
	store := &fakeStore{records: map[string][]models.PriceRecord{
		"AAPL": cachedRecords("AAPL", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"),
	}}
	e := NewCoverageEvaluator(store, DefaultCoverageThreshold, testLogger(t), nopMetrics{})

	asm := e.Evaluate(context.Background(), "AAPL", day("2024-01-02"), day("2024-01-06"))

	if asm.Expected != 3 {
		t.Errorf("Expected = %d, want 3", asm.Expected)
	}
	if asm.Actual != 5 {
		t.Errorf("Actual = %d, want 5", asm.Actual)
	}
	if !asm.Sufficient {
		t.Errorf("Sufficient = false, want true (ratio %v)", asm.Ratio)
	}
	if asm.Ratio < 1.6 || asm.Ratio > 1.7 {
		t.Errorf("Ratio = %v, want ~1.67", asm.Ratio)
	}
}

func TestEvaluateEmptyStoreInsufficient(t *testing.T) {
	store := &fakeStore{}
	e := NewCoverageEvaluator(store, DefaultCoverageThreshold, testLogger(t), nopMetrics{})

	asm := e.Evaluate(context.Background(), "AAPL", day("2024-01-02"), day("2024-01-06"))

	if asm.Sufficient {
		t.Fatal("Sufficient = true for empty store")
	}
	if asm.Ratio != 0 {
		t.Errorf("Ratio = %v, want 0", asm.Ratio)
	}
}

func TestEvaluateThresholdIsStrict(t *testing.T) {
	// 4 of 5 expected is exactly the 0.8 threshold; strict comparison means
	// it still goes upstream.
	store := &fakeStore{records: map[string][]models.PriceRecord{
		"AAPL": cachedRecords("AAPL", "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"),
	}}
	e := NewCoverageEvaluator(store, DefaultCoverageThreshold, testLogger(t), nopMetrics{})

	asm := e.Evaluate(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-07"))

	if asm.Expected != 5 || asm.Actual != 4 {
		t.Fatalf("Expected/Actual = %d/%d, want 5/4", asm.Expected, asm.Actual)
	}
	if asm.Sufficient {
		t.Error("Sufficient = true at exactly the threshold, want false")
	}
}

func TestEvaluateStoreErrorDegrades(t *testing.T) {
	store := &fakeStore{rangeErr: &models.StoreError{Op: "range_query", Err: errors.New("connection refused")}}
	e := NewCoverageEvaluator(store, DefaultCoverageThreshold, testLogger(t), nopMetrics{})

	asm := e.Evaluate(context.Background(), "AAPL", day("2024-01-02"), day("2024-01-06"))

	if asm.Sufficient {
		t.Fatal("Sufficient = true after store failure")
	}
	if asm.Expected != 3 {
		t.Errorf("Expected = %d, want 3 even on failure", asm.Expected)
	}
	if asm.Actual != 0 || asm.Ratio != 0 {
		t.Errorf("Actual/Ratio = %d/%v, want 0/0", asm.Actual, asm.Ratio)
	}
}
