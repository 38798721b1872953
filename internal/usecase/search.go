package usecase

import (
	"context"
	"fmt"
	"strings"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	applogger "QuoteVault/pkg/logger"
)

// MaxSearchQueryLength bounds free-text queries before they reach the
// upstream.
const MaxSearchQueryLength = 100

// SearchUseCase resolves free-text ticker searches. Results come straight
// from the upstream; autocomplete answers are too volatile to cache.
type SearchUseCase struct {
	searcher domrepo.SymbolSearcher
	logger   *applogger.Logger
}

func NewSearchUseCase(searcher domrepo.SymbolSearcher, l *applogger.Logger) *SearchUseCase {
	return &SearchUseCase{searcher: searcher, logger: l}
}

// Search validates and forwards a ticker query.
func (uc *SearchUseCase) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, &models.ValidationError{Field: "query", Message: "missing required field"}
	}
	if len(q) > MaxSearchQueryLength {
		return nil, &models.ValidationError{Field: "query", Message: fmt.Sprintf("too long, maximum is %d characters", MaxSearchQueryLength)}
	}

	results, err := uc.searcher.SearchSymbols(ctx, q)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	uc.logger.Debug("ticker search",
		applogger.String("query", q),
		applogger.Int("results", len(results)),
	)
	return results, nil
}
