package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	applogger "QuoteVault/pkg/logger"
	"QuoteVault/pkg/util"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]+$`)

// NormalizeSymbol uppercases and trims a ticker; returns false when the
// result is not a valid symbol.
func NormalizeSymbol(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || !tickerPattern.MatchString(s) {
		return "", false
	}
	return s, true
}

// PricesUseCase runs the single-symbol pipeline: coverage check against the
// record store, upstream fetch on insufficient coverage, normalization, and
// best-effort write-back.
type PricesUseCase struct {
	store    domrepo.PriceStore
	provider domrepo.SeriesProvider
	writer   domrepo.RecordWriter
	marker   *RangeMarker
	coverage *CoverageEvaluator
	ttl      TTLPolicy
	logger   *applogger.Logger
	metrics  domrepo.Metrics
	now      func() time.Time
}

func NewPricesUseCase(
	store domrepo.PriceStore,
	provider domrepo.SeriesProvider,
	writer domrepo.RecordWriter,
	marker *RangeMarker,
	coverage *CoverageEvaluator,
	ttl TTLPolicy,
	l *applogger.Logger,
	m domrepo.Metrics,
) *PricesUseCase {
	return &PricesUseCase{
		store:    store,
		provider: provider,
		writer:   writer,
		marker:   marker,
		coverage: coverage,
		ttl:      ttl,
		logger:   l,
		metrics:  m,
		now:      time.Now,
	}
}

// GetPrices serves a (symbol, start, end) request from cache when coverage
// is sufficient, otherwise from the upstream provider with the cache
// repopulated as a side effect. End date defaults to today.
func (uc *PricesUseCase) GetPrices(ctx context.Context, symbol, startDate, endDate string) (*models.PriceSeriesResult, error) {
	sym, ok := NormalizeSymbol(symbol)
	if !ok {
		return nil, &models.ValidationError{Field: "ticker", Message: "must contain only letters, numbers, dots, and hyphens"}
	}

	start, ok := util.ParseDate(startDate)
	if !ok {
		return nil, &models.ValidationError{Field: "startDate", Message: "must be YYYY-MM-DD"}
	}

	end := uc.now()
	if endDate != "" {
		end, ok = util.ParseDate(endDate)
		if !ok {
			return nil, &models.ValidationError{Field: "endDate", Message: "must be YYYY-MM-DD"}
		}
	}
	effectiveEnd := util.FormatDate(end)

	if start.After(end) {
		return nil, &models.ValidationError{Field: "startDate", Message: "must be before or equal to endDate"}
	}

	if uc.marker != nil && uc.marker.KnownEmpty(ctx, sym, startDate, effectiveEnd) {
		uc.logger.Debug("known-empty range, skipping upstream",
			applogger.String("symbol", sym),
			applogger.String("start", startDate),
			applogger.String("end", effectiveEnd),
		)
		return nil, &models.NotFoundError{Symbol: sym}
	}

	asm := uc.coverage.Evaluate(ctx, sym, start, end)
	uc.metrics.RecordCoverage(asm.Ratio)

	if asm.Sufficient {
		uc.metrics.RecordCacheHit(sym)
		uc.logger.Info("cache hit",
			applogger.String("symbol", sym),
			applogger.Float64("ratio", asm.Ratio),
			applogger.Int("records", asm.Actual),
		)
		return &models.PriceSeriesResult{
			Records:       asm.Records,
			Cached:        true,
			CacheHitRatio: asm.Ratio,
		}, nil
	}

	uc.metrics.RecordCacheMiss(sym)
	uc.logger.Info("cache miss, fetching upstream",
		applogger.String("symbol", sym),
		applogger.Float64("ratio", asm.Ratio),
		applogger.Int("expected", asm.Expected),
		applogger.Int("actual", asm.Actual),
	)

	fetchStart := uc.now()
	bars, err := uc.provider.FetchSeries(ctx, sym, startDate, effectiveEnd)
	uc.metrics.RecordLatency("upstream_fetch_seconds", time.Since(fetchStart).Seconds())
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) && uc.marker != nil {
			if merr := uc.marker.MarkEmpty(ctx, sym, startDate, effectiveEnd); merr != nil {
				uc.logger.Warn("failed to mark empty range", applogger.String("symbol", sym), applogger.Error(merr))
			}
		}
		return nil, err
	}

	records := NormalizeSeries(sym, bars, uc.now(), uc.ttl)

	if len(records) > 0 {
		// Cache write is strictly a side effect; a failure never fails the read.
		if werr := uc.writer.WriteBack(ctx, records); werr != nil {
			uc.logger.Error("cache write-back failed",
				applogger.String("symbol", sym),
				applogger.Int("records", len(records)),
				applogger.Error(werr),
			)
			uc.metrics.RecordError("writeback")
		}
	}

	return &models.PriceSeriesResult{
		Records:       records,
		Cached:        false,
		CacheHitRatio: asm.Ratio,
	}, nil
}

// GetMetadata fetches company metadata for a symbol. Always upstream, never
// cached.
func (uc *PricesUseCase) GetMetadata(ctx context.Context, symbol string) (*models.SymbolMeta, error) {
	sym, ok := NormalizeSymbol(symbol)
	if !ok {
		return nil, &models.ValidationError{Field: "ticker", Message: "must contain only letters, numbers, dots, and hyphens"}
	}
	return uc.provider.FetchMetadata(ctx, sym)
}
