package usecase

import (
	"math"
	"strings"
	"time"

	"QuoteVault/internal/domain/models"
)

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// NormalizeBar converts one raw provider row into a cacheable PriceRecord.
// The provider only supplies an adjusted close; adjusted open/high/low are
// derived by applying the adjClose/close ratio uniformly (ratio 1.0 when
// close is 0). No independent adjusted-volume signal exists upstream, so
// adjVolume equals volume.
func NormalizeBar(symbol string, bar models.RawBar, now time.Time, ttl TTLPolicy) models.PriceRecord {
	ratio := 1.0
	if bar.Close != 0 {
		ratio = bar.AdjClose / bar.Close
	}

	split := round4(bar.SplitFactor)
	if split == 0 {
		split = 1.0
	}

	return models.PriceRecord{
		Symbol:      strings.ToUpper(symbol),
		Date:        bar.Date,
		Open:        round4(bar.Open),
		High:        round4(bar.High),
		Low:         round4(bar.Low),
		Close:       round4(bar.Close),
		Volume:      bar.Volume,
		AdjOpen:     round4(bar.Open * ratio),
		AdjHigh:     round4(bar.High * ratio),
		AdjLow:      round4(bar.Low * ratio),
		AdjClose:    round4(bar.AdjClose),
		AdjVolume:   bar.Volume,
		DivCash:     round4(bar.Dividend),
		SplitFactor: split,
		FetchedAt:   now.UnixMilli(),
		ExpiresAt:   now.Add(ttl.TTLFor(bar.Date, now)).Unix(),
	}
}

// NormalizeSeries converts a fetched series, preserving order.
func NormalizeSeries(symbol string, bars []models.RawBar, now time.Time, ttl TTLPolicy) []models.PriceRecord {
	records := make([]models.PriceRecord, 0, len(bars))
	for _, bar := range bars {
		records = append(records, NormalizeBar(symbol, bar, now, ttl))
	}
	return records
}
