package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"QuoteVault/internal/domain/models"
)

func newTestBatch(t *testing.T, store *fakeStore, provider *fakeProvider) *BatchUseCase {
	t.Helper()
	prices := newTestPrices(t, store, provider, &fakeWriter{}, nil)
	return NewBatchUseCase(prices, DefaultMaxBatchSymbols, DefaultMaxBatchWorkers, testLogger(t))
}

func TestBatchIsolatesSymbolFailures(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]models.RawBar{
			"AAA": {{Date: "2024-01-02", Close: 10, AdjClose: 10}},
			"CCC": {{Date: "2024-01-02", Close: 30, AdjClose: 30}},
		},
		errs: map[string]error{
			"BBB": &models.UpstreamError{Symbol: "BBB", Err: errors.New("boom")},
		},
	}
	uc := newTestBatch(t, &fakeStore{}, provider)

	res, err := uc.GetPricesBatch(context.Background(), []string{"AAA", "BBB", "CCC"}, "2024-01-02", "2024-01-06")
	if err != nil {
		t.Fatalf("GetPricesBatch: %v", err)
	}

	if res.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", res.SuccessCount)
	}
	if res.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", res.ErrorCount)
	}
	if _, ok := res.Errors["BBB"]; !ok {
		t.Error("BBB missing from Errors")
	}
	for _, sym := range []string{"AAA", "CCC"} {
		if _, ok := res.Results[sym]; !ok {
			t.Errorf("%s missing from Results", sym)
		}
		if _, dup := res.Errors[sym]; dup {
			t.Errorf("%s present in both Results and Errors", sym)
		}
	}
}

func TestBatchRejectsTooManySymbols(t *testing.T) {
	uc := newTestBatch(t, &fakeStore{}, &fakeProvider{})

	symbols := make([]string, 11)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%d", i)
	}

	_, err := uc.GetPricesBatch(context.Background(), symbols, "2024-01-02", "2024-01-06")
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestBatchRejectsEmptyAndMalformed(t *testing.T) {
	uc := newTestBatch(t, &fakeStore{}, &fakeProvider{})
	ctx := context.Background()

	var ve *models.ValidationError

	if _, err := uc.GetPricesBatch(ctx, nil, "2024-01-02", ""); !errors.As(err, &ve) {
		t.Errorf("empty list: err = %v, want ValidationError", err)
	}
	if _, err := uc.GetPricesBatch(ctx, []string{"AAPL", "BAD SYMBOL"}, "2024-01-02", ""); !errors.As(err, &ve) {
		t.Errorf("malformed ticker: err = %v, want ValidationError", err)
	}
	if _, err := uc.GetPricesBatch(ctx, []string{"AAPL"}, "bogus", ""); !errors.As(err, &ve) {
		t.Errorf("bad start date: err = %v, want ValidationError", err)
	}
	if _, err := uc.GetPricesBatch(ctx, []string{"AAPL"}, "2024-01-06", "2024-01-02"); !errors.As(err, &ve) {
		t.Errorf("inverted range: err = %v, want ValidationError", err)
	}
}

func TestBatchFutureStartFailsBeforeDispatch(t *testing.T) {
	provider := &fakeProvider{}
	uc := newTestBatch(t, &fakeStore{}, provider)

	// No explicit end date, so the range ends today and a future start
	// inverts it.
	_, err := uc.GetPricesBatch(context.Background(), []string{"AAPL"}, "2124-01-02", "")
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if provider.callCount("AAPL") != 0 {
		t.Errorf("provider called %d times, want 0", provider.callCount("AAPL"))
	}
}

func TestBatchStructuralFailureDispatchesNothing(t *testing.T) {
	provider := &fakeProvider{}
	uc := newTestBatch(t, &fakeStore{}, provider)

	_, err := uc.GetPricesBatch(context.Background(), []string{"AAPL", "??"}, "2024-01-02", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if provider.callCount("AAPL") != 0 {
		t.Errorf("provider called %d times before validation completed", provider.callCount("AAPL"))
	}
}

func TestBatchMixedCacheStates(t *testing.T) {
	store := &fakeStore{records: map[string][]models.PriceRecord{
		"HIT": cachedRecords("HIT", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"),
	}}
	provider := &fakeProvider{bars: map[string][]models.RawBar{
		"MISS": {{Date: "2024-01-02", Close: 10, AdjClose: 10}},
	}}
	uc := newTestBatch(t, store, provider)

	res, err := uc.GetPricesBatch(context.Background(), []string{"HIT", "MISS"}, "2024-01-02", "2024-01-06")
	if err != nil {
		t.Fatalf("GetPricesBatch: %v", err)
	}

	if !res.Cached["HIT"] {
		t.Error("Cached[HIT] = false, want true")
	}
	if res.Cached["MISS"] {
		t.Error("Cached[MISS] = true, want false")
	}
	if provider.callCount("HIT") != 0 {
		t.Errorf("provider fetched HIT %d times", provider.callCount("HIT"))
	}
}
