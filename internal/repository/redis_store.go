package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	applogger "QuoteVault/pkg/logger"
	"QuoteVault/pkg/util"
)

const (
	// Max records per pipelined write group.
	writeChunkSize = 25
	// Max keys per MGET round-trip.
	readChunkSize = 100
)

// RedisPriceStore implements PriceStore with one key per (symbol, date) and
// the record's TTL set natively on the key, so expiry is an exact delete by
// the server, not a filter on read.
type RedisPriceStore struct {
	client *redis.Client
	prefix string
	logger *applogger.Logger
	now    func() time.Time
}

func NewRedisPriceStore(client *redis.Client, prefix string, l *applogger.Logger) *RedisPriceStore {
	if prefix == "" {
		prefix = "quotevault"
	}
	return &RedisPriceStore{client: client, prefix: prefix, logger: l, now: time.Now}
}

func (s *RedisPriceStore) key(symbol, date string) string {
	return fmt.Sprintf("%s:prices:%s:%s", s.prefix, symbol, date)
}

// RangeQuery enumerates the calendar dates in [start, end] and multi-gets
// their keys. Expired keys are already gone server-side and simply come back
// nil. Results are ascending by date because the enumeration is.
func (s *RedisPriceStore) RangeQuery(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceRecord, error) {
	dates := util.EnumerateDates(start, end)
	if len(dates) == 0 {
		return nil, nil
	}

	records := make([]models.PriceRecord, 0, len(dates)*5/7+1)
	for i := 0; i < len(dates); i += readChunkSize {
		chunk := dates[i:min(i+readChunkSize, len(dates))]
		keys := make([]string, len(chunk))
		for j, d := range chunk {
			keys[j] = s.key(symbol, d)
		}

		vals, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, &models.StoreError{Op: "range_query", Err: err}
		}
		for _, v := range vals {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var rec models.PriceRecord
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				s.logger.Warn("skipping undecodable cached record",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
				continue
			}
			records = append(records, rec)
		}
	}

	return records, nil
}

// BatchWrite upserts records via pipelined SETs, chunked to the write group
// limit. The per-key expiration is derived from the record's ExpiresAt;
// records already past expiry are not written.
func (s *RedisPriceStore) BatchWrite(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := s.now()
	for i := 0; i < len(records); i += writeChunkSize {
		chunk := records[i:min(i+writeChunkSize, len(records))]

		pipe := s.client.Pipeline()
		queued := 0
		for _, rec := range chunk {
			ttl := time.Unix(rec.ExpiresAt, 0).Sub(now)
			if ttl <= 0 {
				continue
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return &models.StoreError{Op: "batch_write", Err: err}
			}
			pipe.Set(ctx, s.key(rec.Symbol, rec.Date), data, ttl)
			queued++
		}
		if queued == 0 {
			continue
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return &models.StoreError{Op: "batch_write", Err: err}
		}
	}

	s.logger.Debug("batch wrote price records", applogger.Int("count", len(records)))
	return nil
}

// PointGet returns one record or (nil, nil) when absent.
func (s *RedisPriceStore) PointGet(ctx context.Context, symbol, date string) (*models.PriceRecord, error) {
	data, err := s.client.Get(ctx, s.key(symbol, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, &models.StoreError{Op: "point_get", Err: err}
	}

	var rec models.PriceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &models.StoreError{Op: "point_get", Err: err}
	}
	return &rec, nil
}

func (s *RedisPriceStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisPriceStore) Close() error {
	return s.client.Close()
}

var _ domrepo.PriceStore = (*RedisPriceStore)(nil)
