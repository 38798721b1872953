package usecase

import (
	"testing"
	"time"

	"QuoteVault/internal/domain/models"
)

var transformNow = time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

func TestNormalizeBarAdjustmentDerivation(t *testing.T) {
	bar := models.RawBar{
		Date:     "2026-01-05",
		Open:     50,
		High:     102,
		Low:      49,
		Close:    100,
		AdjClose: 95,
		Volume:   1_000_000,
	}

	rec := NormalizeBar("aapl", bar, transformNow, DefaultTTLPolicy())

	if rec.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", rec.Symbol)
	}
	if rec.AdjOpen != 47.5 {
		t.Errorf("AdjOpen = %v, want 47.5", rec.AdjOpen)
	}
	if rec.AdjHigh != 96.9 {
		t.Errorf("AdjHigh = %v, want 96.9", rec.AdjHigh)
	}
	if rec.AdjLow != 46.55 {
		t.Errorf("AdjLow = %v, want 46.55", rec.AdjLow)
	}
	if rec.AdjClose != 95 {
		t.Errorf("AdjClose = %v, want 95", rec.AdjClose)
	}
	if rec.AdjVolume != rec.Volume {
		t.Errorf("AdjVolume = %d, want Volume %d", rec.AdjVolume, rec.Volume)
	}
}

func TestNormalizeBarZeroClose(t *testing.T) {
	bar := models.RawBar{Date: "2026-01-05", Open: 50, High: 51, Low: 49, Close: 0, AdjClose: 95}

	rec := NormalizeBar("AAPL", bar, transformNow, DefaultTTLPolicy())

	// Ratio falls back to 1.0, unadjusted values carry over.
	if rec.AdjOpen != 50 || rec.AdjHigh != 51 || rec.AdjLow != 49 {
		t.Errorf("adjusted OHL = %v/%v/%v, want raw values 50/51/49", rec.AdjOpen, rec.AdjHigh, rec.AdjLow)
	}
}

func TestNormalizeBarSplitFactorDefault(t *testing.T) {
	rec := NormalizeBar("AAPL", models.RawBar{Date: "2026-01-05", Close: 10, AdjClose: 10}, transformNow, DefaultTTLPolicy())
	if rec.SplitFactor != 1.0 {
		t.Errorf("SplitFactor = %v, want 1.0 when absent", rec.SplitFactor)
	}

	rec = NormalizeBar("AAPL", models.RawBar{Date: "2026-01-05", Close: 10, AdjClose: 10, SplitFactor: 4}, transformNow, DefaultTTLPolicy())
	if rec.SplitFactor != 4.0 {
		t.Errorf("SplitFactor = %v, want 4.0", rec.SplitFactor)
	}
}

func TestNormalizeBarRounding(t *testing.T) {
	bar := models.RawBar{Date: "2026-01-05", Open: 1.23456789, Close: 3, AdjClose: 3, Dividend: 0.00005}
	rec := NormalizeBar("AAPL", bar, transformNow, DefaultTTLPolicy())

	if rec.Open != 1.2346 {
		t.Errorf("Open = %v, want 1.2346", rec.Open)
	}
	if rec.DivCash != 0.0001 {
		t.Errorf("DivCash = %v, want 0.0001", rec.DivCash)
	}
}

func TestNormalizeBarExpiry(t *testing.T) {
	p := DefaultTTLPolicy()

	old := NormalizeBar("AAPL", models.RawBar{Date: "2026-01-05", Close: 10, AdjClose: 10}, transformNow, p)
	if want := transformNow.Add(TTLHistorical).Unix(); old.ExpiresAt != want {
		t.Errorf("historical ExpiresAt = %d, want %d", old.ExpiresAt, want)
	}

	recent := NormalizeBar("AAPL", models.RawBar{Date: "2026-08-27", Close: 10, AdjClose: 10}, transformNow, p)
	if want := transformNow.Add(TTLCurrent).Unix(); recent.ExpiresAt != want {
		t.Errorf("current ExpiresAt = %d, want %d", recent.ExpiresAt, want)
	}

	if old.FetchedAt != transformNow.UnixMilli() {
		t.Errorf("FetchedAt = %d, want %d", old.FetchedAt, transformNow.UnixMilli())
	}
}

func TestNormalizeSeriesPreservesOrder(t *testing.T) {
	bars := []models.RawBar{
		{Date: "2026-01-05", Close: 1, AdjClose: 1},
		{Date: "2026-01-06", Close: 2, AdjClose: 2},
		{Date: "2026-01-07", Close: 3, AdjClose: 3},
	}
	records := NormalizeSeries("AAPL", bars, transformNow, DefaultTTLPolicy())
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	for i, r := range records {
		if r.Date != bars[i].Date {
			t.Errorf("records[%d].Date = %s, want %s", i, r.Date, bars[i].Date)
		}
	}
}
