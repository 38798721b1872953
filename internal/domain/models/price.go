package models

// PriceRecord is one cached daily bar for a symbol. Exactly one record exists
// per (symbol, date); writes overwrite.
type PriceRecord struct {
	Symbol      string  `json:"symbol"`
	Date        string  `json:"date"` // YYYY-MM-DD, primary time key
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      int64   `json:"volume"`
	AdjOpen     float64 `json:"adjOpen"`
	AdjHigh     float64 `json:"adjHigh"`
	AdjLow      float64 `json:"adjLow"`
	AdjClose    float64 `json:"adjClose"`
	AdjVolume   int64   `json:"adjVolume"`
	DivCash     float64 `json:"divCash"`
	SplitFactor float64 `json:"splitFactor"`
	FetchedAt   int64   `json:"fetchedAt"` // unix ms, observability only
	ExpiresAt   int64   `json:"expiresAt"` // unix seconds, absolute expiry
}

// RawBar is one daily row as returned by the upstream provider, before
// adjustment derivation.
type RawBar struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	AdjClose    float64 `json:"adjClose"`
	Volume      int64   `json:"volume"`
	Dividend    float64 `json:"dividend"`
	SplitFactor float64 `json:"splitFactor"`
}

// SymbolMeta is company metadata for a symbol. Never cached.
type SymbolMeta struct {
	Ticker       string `json:"ticker"`
	Name         string `json:"name"`
	ExchangeCode string `json:"exchangeCode"`
	Description  string `json:"description"`
}

// PriceSeriesResult is the outcome of a single-symbol price request.
type PriceSeriesResult struct {
	Records       []PriceRecord `json:"records"`
	Cached        bool          `json:"cached"`
	CacheHitRatio float64       `json:"cacheHitRatio"`
}

// BatchPricesResult aggregates per-symbol outcomes of a batch request.
// A symbol appears in exactly one of Results or Errors.
type BatchPricesResult struct {
	Results      map[string][]PriceRecord `json:"results"`
	Errors       map[string]string        `json:"errors"`
	Cached       map[string]bool          `json:"cached"`
	SuccessCount int                      `json:"successCount"`
	ErrorCount   int                      `json:"errorCount"`
}

// PricesRequest is the single-symbol query.
type PricesRequest struct {
	Ticker    string `query:"ticker" validate:"required,ticker"`
	StartDate string `query:"startDate" validate:"required,tradedate"`
	EndDate   string `query:"endDate" validate:"omitempty,tradedate"`
	Type      string `query:"type" default:"prices" validate:"oneof=prices metadata"`
}

// BatchPricesRequest is the multi-symbol query body.
type BatchPricesRequest struct {
	Tickers   []string `json:"tickers" validate:"required,min=1,max=10,dive,ticker"`
	StartDate string   `json:"startDate" validate:"required,tradedate"`
	EndDate   string   `json:"endDate" validate:"omitempty,tradedate"`
}
