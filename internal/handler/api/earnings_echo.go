package api

import (
	"time"

	"QuoteVault/internal/domain/models"
	xhttp "QuoteVault/pkg/http"
	xlogger "QuoteVault/pkg/logger"

	"github.com/labstack/echo/v4"
)

type earningsResponse struct {
	Ticker string                 `json:"ticker"`
	Data   []models.EarningsEvent `json:"data"`
	Meta   responseMeta           `json:"_meta"`
}

type batchEarningsResponse struct {
	Results map[string][]models.EarningsEvent `json:"results"`
	Meta    struct {
		Timestamp string `json:"timestamp"`
	} `json:"_meta"`
}

type searchResultsResponse struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
}

func (h *PricesEchoHandler) Earnings(c echo.Context) error {
	req := &models.EarningsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.earnings.GetEarnings(c.Request().Context(), req.Ticker)
	if err != nil {
		h.logger.Error("earnings usecase error", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}

	return xhttp.SuccessResponse(c, &earningsResponse{
		Ticker: req.Ticker,
		Data:   res.Events,
		Meta: responseMeta{
			Cached:    res.Cached,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (h *PricesEchoHandler) BatchEarnings(c echo.Context) error {
	req := &models.BatchEarningsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.earnings.GetEarningsBatch(c.Request().Context(), req.Tickers)
	if err != nil {
		h.logger.Error("batch earnings usecase error", xlogger.Int("tickers", len(req.Tickers)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}

	resp := &batchEarningsResponse{Results: res.Results}
	resp.Meta.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return xhttp.SuccessResponse(c, resp)
}

func (h *PricesEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	results, err := h.search.Search(c.Request().Context(), req.Query)
	if err != nil {
		h.logger.Error("search usecase error", xlogger.String("query", req.Query), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}

	return xhttp.SuccessResponse(c, &searchResultsResponse{
		Query:   req.Query,
		Results: results,
	})
}
