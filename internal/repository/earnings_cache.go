package repository

import (
	"context"
	"time"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	"QuoteVault/pkg/cache"
	applogger "QuoteVault/pkg/logger"
)

// DefaultEarningsTTL bounds how long a cached calendar is trusted; earnings
// dates shift often enough that a day is the safe horizon.
const DefaultEarningsTTL = 24 * time.Hour

// earningsEnvelope is the stored shape of one symbol's calendar. It carries
// its own expiry checked client-side on read, since the cache service's
// native expiry is only eventual. An envelope with zero events is a cached
// empty calendar, distinct from a missing envelope.
type earningsEnvelope struct {
	Events    []models.EarningsEvent `json:"events"`
	ExpiresAt int64                  `json:"expiresAt"`
}

// EarningsCache implements EarningsStore with one envelope per symbol in
// the shared cache service.
type EarningsCache struct {
	cache  cache.Service
	ttl    time.Duration
	logger *applogger.Logger
	now    func() time.Time
}

func NewEarningsCache(c cache.Service, ttl time.Duration, l *applogger.Logger) *EarningsCache {
	if ttl <= 0 {
		ttl = DefaultEarningsTTL
	}
	return &EarningsCache{cache: c, ttl: ttl, logger: l, now: time.Now}
}

func earningsKey(symbol string) string {
	return cache.GenerateKeyWithParams("earnings", symbol)
}

// Get returns the cached calendar for a symbol. Expired envelopes and cache
// transport errors both resolve to a miss.
func (c *EarningsCache) Get(ctx context.Context, symbol string) ([]models.EarningsEvent, bool) {
	var env earningsEnvelope
	if err := c.cache.Get(ctx, earningsKey(symbol), &env); err != nil {
		return nil, false
	}
	if env.ExpiresAt <= c.now().Unix() {
		return nil, false
	}
	if env.Events == nil {
		return []models.EarningsEvent{}, true
	}
	return env.Events, true
}

// Put caches a symbol's calendar, including an empty one so that symbols
// with no earnings are not re-fetched until the envelope expires.
func (c *EarningsCache) Put(ctx context.Context, symbol string, events []models.EarningsEvent) error {
	env := earningsEnvelope{
		Events:    events,
		ExpiresAt: c.now().Add(c.ttl).Unix(),
	}
	if err := c.cache.Set(ctx, earningsKey(symbol), env, c.ttl); err != nil {
		return &models.StoreError{Op: "earnings_put", Err: err}
	}
	c.logger.Debug("cached earnings calendar",
		applogger.String("symbol", symbol),
		applogger.Int("events", len(events)),
	)
	return nil
}

var _ domrepo.EarningsStore = (*EarningsCache)(nil)
