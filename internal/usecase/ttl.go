package usecase

import (
	"time"

	"QuoteVault/pkg/util"
)

// Default TTL tiers. Historical bars are settled and cached long-term;
// recent bars may still be revised by the provider (late dividend
// adjustments) and are re-validated daily.
const (
	TTLHistorical     = 90 * 24 * time.Hour
	TTLCurrent        = 24 * time.Hour
	HistoricalAgeDays = 7
)

// TTLPolicy maps a record's data date to an expiry horizon. The tier depends
// on how old the underlying date is, not when the record was cached.
type TTLPolicy struct {
	Historical        time.Duration
	Current           time.Duration
	HistoricalAgeDays int
}

// DefaultTTLPolicy returns the standard tiering.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Historical:        TTLHistorical,
		Current:           TTLCurrent,
		HistoricalAgeDays: HistoricalAgeDays,
	}
}

// TTLFor returns the expiry horizon for a bar dated date (YYYY-MM-DD).
// An unparsable date falls back to the short tier, forcing re-validation
// sooner rather than risking staleness.
func (p TTLPolicy) TTLFor(date string, now time.Time) time.Duration {
	d, ok := util.ParseDate(date)
	if !ok {
		return p.Current
	}
	if util.DaysBetween(d, now) > p.HistoricalAgeDays {
		return p.Historical
	}
	return p.Current
}
