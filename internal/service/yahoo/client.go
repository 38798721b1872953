package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	"QuoteVault/internal/service/ratelimit"
	xhttp "QuoteVault/pkg/http"
	applogger "QuoteVault/pkg/logger"
	"QuoteVault/pkg/util"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Local token bucket kept below Yahoo's observed throttle ceiling.
const (
	limiterCapacity  = 8.0
	limiterRefillSec = 2.0
)

// Client implements SeriesProvider, EarningsSource, and SymbolSearcher
// against the Yahoo Finance API. Transient failures (network, 429, 5xx,
// timeout) are retried here with exponential backoff; not-found is terminal
// and surfaced immediately.
type Client struct {
	baseURL     string
	httpClient  *xhttp.Client
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	limiter     *ratelimit.Limiter
	logger      *applogger.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

func New(baseURL string, timeout time.Duration, maxRetries int, backoffBase time.Duration, l *applogger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if backoffBase <= 0 {
		backoffBase = 2 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		timeout:     timeout,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		limiter:     ratelimit.New(),
		logger:      l,
		sleep:       sleepContext,
	}
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol       string `json:"symbol"`
				ExchangeName string `json:"exchangeName"`
				LongName     string `json:"longName"`
				ShortName    string `json:"shortName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
				Splits map[string]struct {
					Numerator   float64 `json:"numerator"`
					Denominator float64 `json:"denominator"`
					Date        int64   `json:"date"`
				} `json:"splits"`
			} `json:"events"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			CalendarEvents struct {
				Earnings struct {
					EarningsDate []struct {
						Raw int64  `json:"raw"`
						Fmt string `json:"fmt"`
					} `json:"earningsDate"`
					EarningsAverage rawValue `json:"earningsAverage"`
					EarningsLow     rawValue `json:"earningsLow"`
					RevenueAverage  rawValue `json:"revenueAverage"`
					RevenueLow      rawValue `json:"revenueLow"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
	} `json:"quotes"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

// terminalError marks failures that must not be retried.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// FetchSeries returns daily bars for [startDate, endDate] ascending by date.
func (c *Client) FetchSeries(ctx context.Context, symbol, startDate, endDate string) ([]models.RawBar, error) {
	start, ok := util.ParseDate(startDate)
	if !ok {
		return nil, &models.ValidationError{Field: "startDate", Message: "must be YYYY-MM-DD"}
	}
	end := time.Now()
	if endDate != "" {
		if end, ok = util.ParseDate(endDate); !ok {
			return nil, &models.ValidationError{Field: "endDate", Message: "must be YYYY-MM-DD"}
		}
	}

	c.logger.Info("fetching prices upstream",
		applogger.String("symbol", symbol),
		applogger.String("start", startDate),
		applogger.String("end", endDate),
	)

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d&events=div%%7Csplit",
		c.baseURL, url.PathEscape(symbol),
		start.Unix(),
		end.AddDate(0, 0, 1).Unix(), // period2 is exclusive
	)

	var chart *chartResponse
	err := c.withRetries(ctx, symbol, func(actx context.Context) error {
		var ferr error
		chart, ferr = c.fetchChart(actx, u)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	bars := chartToBars(chart)
	if len(bars) == 0 {
		c.logger.Warn("no data for symbol", applogger.String("symbol", symbol))
		return nil, &models.NotFoundError{Symbol: symbol}
	}

	c.logger.Info("fetched price series",
		applogger.String("symbol", symbol),
		applogger.Int("bars", len(bars)),
	)
	return bars, nil
}

// FetchMetadata returns company metadata from the chart meta block.
func (c *Client) FetchMetadata(ctx context.Context, symbol string) (*models.SymbolMeta, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(symbol))

	var chart *chartResponse
	err := c.withRetries(ctx, symbol, func(actx context.Context) error {
		var ferr error
		chart, ferr = c.fetchChart(actx, u)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	if len(chart.Chart.Result) == 0 {
		return nil, &models.NotFoundError{Symbol: symbol}
	}
	meta := chart.Chart.Result[0].Meta
	name := meta.ShortName
	if name == "" {
		name = meta.LongName
	}
	if name == "" {
		name = symbol
	}
	return &models.SymbolMeta{
		Ticker:       strings.ToUpper(symbol),
		Name:         name,
		ExchangeCode: meta.ExchangeName,
	}, nil
}

// FetchEarnings returns upcoming earnings events for a symbol from the
// calendarEvents summary module. A symbol without a calendar (ETFs, index
// funds, unknown tickers) yields an empty slice, not an error.
func (c *Client) FetchEarnings(ctx context.Context, symbol string) ([]models.EarningsEvent, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=calendarEvents", c.baseURL, url.PathEscape(symbol))

	var qs quoteSummaryResponse
	err := c.withRetries(ctx, symbol, func(actx context.Context) error {
		return c.fetchSummary(actx, u, &qs)
	})
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			c.logger.Info("no earnings calendar for symbol", applogger.String("symbol", symbol))
			return []models.EarningsEvent{}, nil
		}
		return nil, err
	}

	events := summaryToEvents(symbol, &qs)
	c.logger.Info("fetched earnings calendar",
		applogger.String("symbol", symbol),
		applogger.Int("events", len(events)),
	)
	return events, nil
}

// SearchSymbols resolves a free-text query against the autocomplete API.
// No matches is an empty result, not an error.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=10&newsCount=0", c.baseURL, url.QueryEscape(query))

	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var res searchResponse
	if err := c.fetchJSON(actx, u, &res); err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			return []models.SearchResult{}, nil
		}
		var term *terminalError
		if errors.As(err, &term) {
			return nil, &models.UpstreamError{Symbol: query, Err: term.err}
		}
		return nil, &models.UpstreamError{Symbol: query, Err: err}
	}

	results := make([]models.SearchResult, 0, len(res.Quotes))
	for _, q := range res.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		results = append(results, models.SearchResult{
			Ticker:    q.Symbol,
			Name:      name,
			AssetType: assetTypeName(q.QuoteType),
			IsActive:  true,
		})
	}

	c.logger.Info("symbol search completed",
		applogger.String("query", query),
		applogger.Int("results", len(results)),
	)
	return results, nil
}

var assetTypeNames = map[string]string{
	"EQUITY":         "Stock",
	"ETF":            "ETF",
	"MUTUALFUND":     "Mutual Fund",
	"INDEX":          "Index",
	"CURRENCY":       "Currency",
	"CRYPTOCURRENCY": "Cryptocurrency",
	"FUTURE":         "Future",
	"OPTION":         "Option",
}

func assetTypeName(quoteType string) string {
	if name, ok := assetTypeNames[quoteType]; ok {
		return name
	}
	if quoteType == "" {
		return "Stock"
	}
	return quoteType
}

// withRetries runs fn with a per-attempt timeout and exponential backoff.
// Terminal classifications (not-found, non-429 4xx) break out immediately;
// cancelling ctx interrupts both the attempt and the backoff wait.
func (c *Client) withRetries(ctx context.Context, symbol string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		actx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(actx)
		cancel()

		if err == nil {
			return nil
		}

		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			return &models.NotFoundError{Symbol: symbol}
		}
		var term *terminalError
		if errors.As(err, &term) {
			return &models.UpstreamError{Symbol: symbol, Err: term.err}
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt < c.maxRetries {
			delay := c.backoffBase << attempt
			c.logger.Warn("upstream fetch failed, retrying",
				applogger.String("symbol", symbol),
				applogger.Int("attempt", attempt+1),
				applogger.Duration("delay", delay),
				applogger.Error(err),
			)
			if serr := c.sleep(ctx, delay); serr != nil {
				break
			}
		}
	}
	return &models.UpstreamError{Symbol: symbol, Err: lastErr}
}

func (c *Client) fetchChart(ctx context.Context, u string) (*chartResponse, error) {
	var chart chartResponse
	if err := c.fetchJSON(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, &models.NotFoundError{Symbol: u}
		}
		return nil, &terminalError{err: fmt.Errorf("chart api error: %s", chart.Chart.Error.Description)}
	}
	return &chart, nil
}

func (c *Client) fetchSummary(ctx context.Context, u string, qs *quoteSummaryResponse) error {
	if err := c.fetchJSON(ctx, u, qs); err != nil {
		return err
	}
	if qs.QuoteSummary.Error != nil {
		if qs.QuoteSummary.Error.Code == "Not Found" {
			return &models.NotFoundError{Symbol: u}
		}
		return &terminalError{err: fmt.Errorf("summary api error: %s", qs.QuoteSummary.Error.Description)}
	}
	return nil
}

// fetchJSON performs one throttled request and decodes the body. Status
// codes classify the error: 404 not-found, 429/5xx transient, other non-200
// terminal.
func (c *Client) fetchJSON(ctx context.Context, u string, dest interface{}) error {
	if !c.limiter.Allow("yahoo", limiterCapacity, limiterRefillSec) {
		return fmt.Errorf("request throttled locally")
	}

	resp, err := c.httpClient.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     u,
		Headers: map[string]string{"User-Agent": "Mozilla/5.0"},
	})
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &models.NotFoundError{Symbol: u}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return &terminalError{err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func summaryToEvents(symbol string, qs *quoteSummaryResponse) []models.EarningsEvent {
	if len(qs.QuoteSummary.Result) == 0 {
		return []models.EarningsEvent{}
	}
	earn := qs.QuoteSummary.Result[0].CalendarEvents.Earnings

	events := make([]models.EarningsEvent, 0, len(earn.EarningsDate))
	for _, d := range earn.EarningsDate {
		if d.Raw == 0 {
			continue
		}
		ts := time.Unix(d.Raw, 0).UTC()

		// Midnight means the upstream only knows the date, not the session.
		hour := "TNS"
		switch h := ts.Hour(); {
		case h == 0:
			hour = "TNS"
		case h < 12:
			hour = "BMO"
		default:
			hour = "AMC"
		}

		ev := models.EarningsEvent{
			Ticker:       strings.ToUpper(symbol),
			EarningsDate: ts.Format(util.DateLayout),
			EarningsHour: hour,
		}
		if v := firstRaw(earn.EarningsAverage, earn.EarningsLow); v != nil {
			ev.EpsEstimate = v
		}
		if v := firstRaw(earn.RevenueAverage, earn.RevenueLow); v != nil {
			ev.RevenueEstimate = v
		}
		events = append(events, ev)
	}
	return events
}

func firstRaw(vals ...rawValue) *float64 {
	for _, v := range vals {
		if v.Raw != nil {
			return v.Raw
		}
	}
	return nil
}

func chartToBars(chart *chartResponse) []models.RawBar {
	if len(chart.Chart.Result) == 0 {
		return nil
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]

	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	deref := func(vals []*float64, i int) float64 {
		if i >= len(vals) || vals[i] == nil {
			return 0
		}
		return *vals[i]
	}
	derefInt := func(vals []*int64, i int) int64 {
		if i >= len(vals) || vals[i] == nil {
			return 0
		}
		return *vals[i]
	}

	bars := make([]models.RawBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := deref(quote.Open, i)
		h := deref(quote.High, i)
		l := deref(quote.Low, i)
		cl := deref(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bars (holidays etc.)
		}

		ac := deref(adj, i)
		if ac == 0 {
			ac = cl
		}

		key := fmt.Sprintf("%d", ts)
		var dividend float64
		if d, ok := result.Events.Dividends[key]; ok {
			dividend = d.Amount
		}
		splitFactor := 0.0
		if sp, ok := result.Events.Splits[key]; ok && sp.Denominator != 0 {
			splitFactor = sp.Numerator / sp.Denominator
		}

		bars = append(bars, models.RawBar{
			Date:        time.Unix(ts, 0).UTC().Format(util.DateLayout),
			Open:        o,
			High:        h,
			Low:         l,
			Close:       cl,
			AdjClose:    ac,
			Volume:      derefInt(quote.Volume, i),
			Dividend:    dividend,
			SplitFactor: splitFactor,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars
}

var (
	_ domrepo.SeriesProvider = (*Client)(nil)
	_ domrepo.EarningsSource = (*Client)(nil)
	_ domrepo.SymbolSearcher = (*Client)(nil)
)
