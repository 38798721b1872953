package api

import (
	"errors"
	"net/http"
	"time"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	"QuoteVault/internal/usecase"
	xhttp "QuoteVault/pkg/http"
	xlogger "QuoteVault/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PricesEchoHandler exposes the price cache over HTTP.
type PricesEchoHandler struct {
	logger   *xlogger.Logger
	prices   *usecase.PricesUseCase
	batch    *usecase.BatchUseCase
	earnings *usecase.EarningsUseCase
	search   *usecase.SearchUseCase
	store    domrepo.PriceStore
}

func NewPricesEchoHandler(
	logger *xlogger.Logger,
	prices *usecase.PricesUseCase,
	batch *usecase.BatchUseCase,
	earnings *usecase.EarningsUseCase,
	search *usecase.SearchUseCase,
	store domrepo.PriceStore,
) *PricesEchoHandler {
	return &PricesEchoHandler{
		logger:   logger,
		prices:   prices,
		batch:    batch,
		earnings: earnings,
		search:   search,
		store:    store,
	}
}

func (h *PricesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/prices", h.Prices)
	g.POST("/batch/prices", h.BatchPrices)
	g.GET("/earnings", h.Earnings)
	g.POST("/batch/earnings", h.BatchEarnings)
	g.GET("/search", h.Search)
	e.GET("/healthz", h.Health)
}

// responseMeta mirrors the envelope the original API returned alongside data.
type responseMeta struct {
	Cached       bool    `json:"cached"`
	CacheHitRate float64 `json:"cacheHitRate"`
	Timestamp    string  `json:"timestamp"`
}

type pricesResponse struct {
	Ticker string               `json:"ticker"`
	Data   []models.PriceRecord `json:"data"`
	Meta   responseMeta         `json:"_meta"`
}

type metadataResponse struct {
	Ticker string             `json:"ticker"`
	Data   *models.SymbolMeta `json:"data"`
	Meta   responseMeta       `json:"_meta"`
}

type batchMeta struct {
	SuccessCount int             `json:"successCount"`
	ErrorCount   int             `json:"errorCount"`
	Cached       map[string]bool `json:"cached"`
	Timestamp    string          `json:"timestamp"`
}

type batchResponse struct {
	Results map[string][]models.PriceRecord `json:"results"`
	Errors  map[string]string               `json:"errors"`
	Meta    batchMeta                       `json:"_meta"`
}

func (h *PricesEchoHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()

	if req.Type == "metadata" {
		meta, err := h.prices.GetMetadata(ctx, req.Ticker)
		if err != nil {
			h.logger.Error("metadata usecase error", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, mapDomainError(err))
		}
		return xhttp.SuccessResponse(c, &metadataResponse{
			Ticker: meta.Ticker,
			Data:   meta,
			Meta:   responseMeta{Cached: false, Timestamp: time.Now().UTC().Format(time.RFC3339)},
		})
	}

	res, err := h.prices.GetPrices(ctx, req.Ticker, req.StartDate, req.EndDate)
	if err != nil {
		h.logger.Error("prices usecase error", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}

	return xhttp.SuccessResponse(c, &pricesResponse{
		Ticker: req.Ticker,
		Data:   res.Records,
		Meta: responseMeta{
			Cached:       res.Cached,
			CacheHitRate: res.CacheHitRatio,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (h *PricesEchoHandler) BatchPrices(c echo.Context) error {
	req := &models.BatchPricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.batch.GetPricesBatch(c.Request().Context(), req.Tickers, req.StartDate, req.EndDate)
	if err != nil {
		h.logger.Error("batch usecase error", xlogger.Int("tickers", len(req.Tickers)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}

	return xhttp.SuccessResponse(c, &batchResponse{
		Results: res.Results,
		Errors:  res.Errors,
		Meta: batchMeta{
			SuccessCount: res.SuccessCount,
			ErrorCount:   res.ErrorCount,
			Cached:       res.Cached,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (h *PricesEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("store health check failed", xlogger.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// mapDomainError converts domain errors into transport errors with an HTTP status.
func mapDomainError(err error) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return xhttp.NewAppError("ERR_BAD_REQUEST", ve.Field, ve.Message, http.StatusBadRequest)
	}
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return xhttp.NotFoundError(nf.Error())
	}
	var ue *models.UpstreamError
	if errors.As(err, &ue) {
		return xhttp.NewAppError("ERR_UPSTREAM", "", ue.Error(), http.StatusBadGateway)
	}
	var se *models.StoreError
	if errors.As(err, &se) {
		return xhttp.NewAppError("ERR_STORE", "", se.Error(), http.StatusServiceUnavailable)
	}
	return xhttp.InternalError("internal error")
}
