package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-01-15")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2024-01-15" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "2024-1-15", "15-01-2024", "not-a-date"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("expected %q to fail", s)
		}
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	got := ParseDateDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC)
	if d := DaysBetween(a, b); d != 4 {
		t.Fatalf("expected 4, got %d", d)
	}
	if d := DaysBetween(b, a); d != -4 {
		t.Fatalf("expected -4, got %d", d)
	}
	if d := DaysBetween(a, a); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
}

func TestEnumerateDates(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)
	got := EnumerateDates(start, end)
	want := []string{"2024-01-15", "2024-01-16", "2024-01-17"}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if EnumerateDates(end, start) != nil {
		t.Fatalf("expected nil for inverted range")
	}
}
