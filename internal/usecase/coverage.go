package usecase

import (
	"context"
	"time"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	applogger "QuoteVault/pkg/logger"
	"QuoteVault/pkg/util"
)

// DefaultCoverageThreshold is the cache-hit ratio above which the upstream
// fetch is skipped.
const DefaultCoverageThreshold = 0.8

// CoverageAssessment is the per-request cache sufficiency verdict.
type CoverageAssessment struct {
	Expected   int
	Actual     int
	Ratio      float64
	Sufficient bool
	Records    []models.PriceRecord
}

// CoverageEvaluator decides whether cached coverage for a date range is good
// enough to skip the upstream fetch.
type CoverageEvaluator struct {
	store     domrepo.PriceStore
	threshold float64
	logger    *applogger.Logger
	metrics   domrepo.Metrics
}

func NewCoverageEvaluator(store domrepo.PriceStore, threshold float64, l *applogger.Logger, m domrepo.Metrics) *CoverageEvaluator {
	if threshold <= 0 {
		threshold = DefaultCoverageThreshold
	}
	return &CoverageEvaluator{store: store, threshold: threshold, logger: l, metrics: m}
}

// ExpectedTradingDays approximates trading sessions in [start, end] as 5/7 of
// calendar days, floored, never below 1. Deliberately approximate: holidays
// are not modeled, and changing this would change cache-hit behavior.
func ExpectedTradingDays(start, end time.Time) int {
	days := util.DaysBetween(start, end) + 1
	n := days * 5 / 7
	if n < 1 {
		n = 1
	}
	return n
}

// Evaluate queries the store for [start, end] and computes the coverage
// ratio. A store read failure degrades to insufficient coverage, so the
// caller falls back to the upstream fetch instead of erroring.
func (e *CoverageEvaluator) Evaluate(ctx context.Context, symbol string, start, end time.Time) CoverageAssessment {
	expected := ExpectedTradingDays(start, end)

	records, err := e.store.RangeQuery(ctx, symbol, start, end)
	if err != nil {
		e.logger.Warn("coverage query failed, treating as insufficient",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		e.metrics.RecordError("store_read")
		return CoverageAssessment{Expected: expected}
	}

	actual := len(records)
	ratio := 0.0
	if expected > 0 {
		ratio = float64(actual) / float64(expected)
	}

	return CoverageAssessment{
		Expected:   expected,
		Actual:     actual,
		Ratio:      ratio,
		Sufficient: ratio > e.threshold && actual > 0,
		Records:    records,
	}
}
