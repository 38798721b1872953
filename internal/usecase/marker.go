package usecase

import (
	"context"
	"time"

	"QuoteVault/pkg/cache"
)

// rangeState is the stored shape of a known-empty marker. The state is
// explicit rather than inferred from a magic key, and carries its own expiry
// because this lookup reads independently of the store's native sweep.
type rangeState struct {
	State     string `json:"state"`
	ExpiresAt int64  `json:"expiresAt"`
}

const stateKnownEmpty = "empty"

// RangeMarker remembers (symbol, range) pairs the upstream confirmed have no
// data, so repeat requests don't re-fetch. A lookup resolves to known-empty
// or absent (never marked, marker expired, or cache unavailable).
type RangeMarker struct {
	cache cache.Service
	ttl   time.Duration
	now   func() time.Time
}

func NewRangeMarker(c cache.Service, ttl time.Duration) *RangeMarker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RangeMarker{cache: c, ttl: ttl, now: time.Now}
}

func markerKey(symbol, start, end string) string {
	return cache.GenerateKeyWithParams("empty", symbol, start, end)
}

// KnownEmpty reports whether the range was previously confirmed empty. The
// marker's expiresAt is checked client-side against current time; cache
// transport errors resolve to absent.
func (m *RangeMarker) KnownEmpty(ctx context.Context, symbol, start, end string) bool {
	var st rangeState
	if err := m.cache.Get(ctx, markerKey(symbol, start, end), &st); err != nil {
		return false
	}
	return st.State == stateKnownEmpty && st.ExpiresAt > m.now().Unix()
}

// MarkEmpty records a known-empty range. Best-effort; the caller only logs
// failures.
func (m *RangeMarker) MarkEmpty(ctx context.Context, symbol, start, end string) error {
	st := rangeState{
		State:     stateKnownEmpty,
		ExpiresAt: m.now().Add(m.ttl).Unix(),
	}
	return m.cache.Set(ctx, markerKey(symbol, start, end), st, m.ttl)
}
