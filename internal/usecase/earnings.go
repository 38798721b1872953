package usecase

import (
	"context"
	"fmt"
	"time"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	applogger "QuoteVault/pkg/logger"
)

const DefaultMaxEarningsSymbols = 20

// EarningsUseCase serves earnings calendars cache-first. Unlike prices, a
// calendar has no range coverage to evaluate; the cache either has a fresh
// envelope for the symbol or the upstream is asked once and the result
// cached, empty calendars included.
type EarningsUseCase struct {
	store      domrepo.EarningsStore
	source     domrepo.EarningsSource
	maxSymbols int
	logger     *applogger.Logger
	metrics    domrepo.Metrics
}

func NewEarningsUseCase(
	store domrepo.EarningsStore,
	source domrepo.EarningsSource,
	maxSymbols int,
	l *applogger.Logger,
	m domrepo.Metrics,
) *EarningsUseCase {
	if maxSymbols <= 0 {
		maxSymbols = DefaultMaxEarningsSymbols
	}
	return &EarningsUseCase{store: store, source: source, maxSymbols: maxSymbols, logger: l, metrics: m}
}

// GetEarnings returns the earnings calendar for one symbol.
func (uc *EarningsUseCase) GetEarnings(ctx context.Context, symbol string) (*models.EarningsResult, error) {
	sym, ok := NormalizeSymbol(symbol)
	if !ok {
		return nil, &models.ValidationError{Field: "ticker", Message: "must contain only letters, numbers, dots, and hyphens"}
	}

	if events, found := uc.store.Get(ctx, sym); found {
		uc.metrics.RecordCacheHit(sym)
		uc.logger.Debug("earnings cache hit",
			applogger.String("symbol", sym),
			applogger.Int("events", len(events)),
		)
		return &models.EarningsResult{Events: events, Cached: true}, nil
	}

	uc.metrics.RecordCacheMiss(sym)

	fetchStart := time.Now()
	events, err := uc.source.FetchEarnings(ctx, sym)
	uc.metrics.RecordLatency("earnings_fetch_seconds", time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.EarningsEvent{}
	}

	// Empty calendars are cached too, so ETFs and funds do not hit the
	// upstream on every request.
	if werr := uc.store.Put(ctx, sym, events); werr != nil {
		uc.logger.Warn("earnings cache write failed", applogger.String("symbol", sym), applogger.Error(werr))
		uc.metrics.RecordError("earnings_writeback")
	}

	return &models.EarningsResult{Events: events, Cached: false}, nil
}

// GetEarningsBatch resolves calendars for up to maxSymbols tickers. Invalid
// tickers are skipped and failed fetches resolve to an empty calendar, so
// one bad symbol never fails the batch.
func (uc *EarningsUseCase) GetEarningsBatch(ctx context.Context, symbols []string) (*models.BatchEarningsResult, error) {
	if len(symbols) == 0 {
		return nil, &models.ValidationError{Field: "tickers", Message: "missing required field"}
	}
	if len(symbols) > uc.maxSymbols {
		return nil, &models.ValidationError{Field: "tickers", Message: fmt.Sprintf("too many tickers, maximum is %d", uc.maxSymbols)}
	}

	res := &models.BatchEarningsResult{
		Results: make(map[string][]models.EarningsEvent, len(symbols)),
	}

	for _, raw := range symbols {
		sym, ok := NormalizeSymbol(raw)
		if !ok {
			uc.logger.Warn("skipping invalid ticker in earnings batch", applogger.String("ticker", raw))
			continue
		}
		r, err := uc.GetEarnings(ctx, sym)
		if err != nil {
			uc.logger.Warn("earnings batch symbol failed", applogger.String("symbol", sym), applogger.Error(err))
			res.Results[sym] = []models.EarningsEvent{}
			continue
		}
		res.Results[sym] = r.Events
	}

	uc.logger.Info("earnings batch completed",
		applogger.Int("requested", len(symbols)),
		applogger.Int("resolved", len(res.Results)),
	)
	return res, nil
}
