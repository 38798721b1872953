package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"QuoteVault/internal/domain/models"
	applogger "QuoteVault/pkg/logger"
	"QuoteVault/pkg/util"
)

const (
	DefaultMaxBatchSymbols = 10
	DefaultMaxBatchWorkers = 5
)

// BatchUseCase fans a multi-symbol request out to the single-symbol pipeline
// with bounded concurrency. Symbol outcomes are isolated: one symbol's
// failure lands in the error map and never cancels its siblings.
type BatchUseCase struct {
	prices     *PricesUseCase
	maxSymbols int
	maxWorkers int
	logger     *applogger.Logger
}

func NewBatchUseCase(prices *PricesUseCase, maxSymbols, maxWorkers int, l *applogger.Logger) *BatchUseCase {
	if maxSymbols <= 0 {
		maxSymbols = DefaultMaxBatchSymbols
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxBatchWorkers
	}
	return &BatchUseCase{prices: prices, maxSymbols: maxSymbols, maxWorkers: maxWorkers, logger: l}
}

// GetPricesBatch validates the request structurally, then runs the pipeline
// per symbol. Structural errors fail the whole batch before any fetch is
// dispatched; everything after that is per-symbol.
func (uc *BatchUseCase) GetPricesBatch(ctx context.Context, symbols []string, startDate, endDate string) (*models.BatchPricesResult, error) {
	if len(symbols) == 0 {
		return nil, &models.ValidationError{Field: "tickers", Message: "missing required field"}
	}
	if len(symbols) > uc.maxSymbols {
		return nil, &models.ValidationError{Field: "tickers", Message: fmt.Sprintf("too many tickers, maximum is %d", uc.maxSymbols)}
	}

	normalized := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		sym, ok := NormalizeSymbol(raw)
		if !ok {
			return nil, &models.ValidationError{Field: "tickers", Message: fmt.Sprintf("invalid ticker format: %s", raw)}
		}
		normalized = append(normalized, sym)
	}

	start, ok := util.ParseDate(startDate)
	if !ok {
		return nil, &models.ValidationError{Field: "startDate", Message: "must be YYYY-MM-DD"}
	}
	end := time.Now()
	if endDate != "" {
		end, ok = util.ParseDate(endDate)
		if !ok {
			return nil, &models.ValidationError{Field: "endDate", Message: "must be YYYY-MM-DD"}
		}
	}
	// An inverted range, including a future start against today's implicit
	// end, fails the whole batch up front like any other structural error.
	if start.After(end) {
		return nil, &models.ValidationError{Field: "startDate", Message: "must be before or equal to endDate"}
	}

	uc.logger.Info("processing batch request",
		applogger.Int("symbols", len(normalized)),
		applogger.String("start", startDate),
		applogger.String("end", endDate),
	)

	res := &models.BatchPricesResult{
		Results: make(map[string][]models.PriceRecord, len(normalized)),
		Errors:  make(map[string]string),
		Cached:  make(map[string]bool, len(normalized)),
	}

	workers := uc.maxWorkers
	if len(normalized) < workers {
		workers = len(normalized)
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, sym := range normalized {
		g.Go(func() error {
			r, err := uc.prices.GetPrices(ctx, sym, startDate, endDate)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[sym] = err.Error()
				return nil
			}
			res.Results[sym] = r.Records
			res.Cached[sym] = r.Cached
			return nil
		})
	}
	_ = g.Wait()

	res.SuccessCount = len(res.Results)
	res.ErrorCount = len(res.Errors)

	uc.logger.Info("batch completed",
		applogger.Int("success", res.SuccessCount),
		applogger.Int("errors", res.ErrorCount),
	)
	return res, nil
}
