package usecase

import (
	"testing"
	"time"

	"QuoteVault/pkg/util"
)

func TestTTLForTiers(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	p := DefaultTTLPolicy()

	tests := []struct {
		name string
		date string
		want time.Duration
	}{
		{"today", "2026-08-28", TTLCurrent},
		{"yesterday", "2026-08-27", TTLCurrent},
		{"exactly seven days old", "2026-08-21", TTLCurrent},
		{"eight days old", "2026-08-20", TTLHistorical},
		{"months old", "2026-01-15", TTLHistorical},
		{"years old", "2020-03-02", TTLHistorical},
	}

	for _, tt := range tests {
		if got := p.TTLFor(tt.date, now); got != tt.want {
			t.Errorf("%s: TTLFor(%q) = %v, want %v", tt.name, tt.date, got, tt.want)
		}
	}
}

func TestTTLForUnparsableDate(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	p := DefaultTTLPolicy()

	for _, date := range []string{"", "not-a-date", "2026/08/28", "28-08-2026"} {
		if got := p.TTLFor(date, now); got != TTLCurrent {
			t.Errorf("TTLFor(%q) = %v, want short tier %v", date, got, TTLCurrent)
		}
	}
}

func TestTTLForIgnoresTimeOfDay(t *testing.T) {
	p := DefaultTTLPolicy()

	// Boundary must depend on the calendar distance, not the clock.
	early := time.Date(2026, 8, 28, 0, 1, 0, 0, time.UTC)
	late := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)

	if p.TTLFor("2026-08-21", early) != p.TTLFor("2026-08-21", late) {
		t.Fatalf("TTL tier changed with time of day")
	}
	if d := util.DaysBetween(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), late); d != 7 {
		t.Fatalf("DaysBetween = %d, want 7", d)
	}
}
