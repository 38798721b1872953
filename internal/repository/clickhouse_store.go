package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	applogger "QuoteVault/pkg/logger"
	"QuoteVault/pkg/util"
)

// PriceTableSchema is the statement set passed to Client.InitSchema.
// ReplacingMergeTree keyed on (symbol, date) gives last-write-wins upserts;
// the TTL clause lets ClickHouse reclaim expired rows on its own schedule.
var PriceTableSchema = []string{
	"CREATE DATABASE IF NOT EXISTS quotevault",
	`CREATE TABLE IF NOT EXISTS quotevault.daily_prices (
		symbol String,
		date Date,
		open Float64, high Float64, low Float64, close Float64,
		volume Int64,
		adj_open Float64, adj_high Float64, adj_low Float64, adj_close Float64,
		adj_volume Int64,
		div_cash Float64, split_factor Float64,
		fetched_at Int64,
		expires_at DateTime
	) ENGINE = ReplacingMergeTree(fetched_at)
	ORDER BY (symbol, date)
	TTL expires_at`,
}

// ClickHousePriceStore implements PriceStore on a ReplacingMergeTree table.
// The TTL sweep is periodic, so expired rows can linger for a bounded grace
// period; reads filter on expires_at explicitly.
type ClickHousePriceStore struct {
	db     *sql.DB
	table  string
	logger *applogger.Logger
}

func NewClickHousePriceStore(db *sql.DB, table string, l *applogger.Logger) *ClickHousePriceStore {
	if table == "" {
		table = "quotevault.daily_prices"
	}
	return &ClickHousePriceStore{db: db, table: table, logger: l}
}

const priceColumns = "symbol, date, open, high, low, close, volume, adj_open, adj_high, adj_low, adj_close, adj_volume, div_cash, split_factor, fetched_at, expires_at"

func (s *ClickHousePriceStore) RangeQuery(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceRecord, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s FINAL
		WHERE symbol = ? AND date >= ? AND date <= ? AND expires_at > now()
		ORDER BY date ASC
	`, priceColumns, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, start, end)
	if err != nil {
		return nil, &models.StoreError{Op: "range_query", Err: err}
	}
	defer rows.Close()

	records := make([]models.PriceRecord, 0, 256)
	for rows.Next() {
		rec, err := scanPriceRecord(rows)
		if err != nil {
			return nil, &models.StoreError{Op: "range_query", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StoreError{Op: "range_query", Err: err}
	}
	return records, nil
}

func (s *ClickHousePriceStore) BatchWrite(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += writeChunkSize {
		chunk := records[start:min(start+writeChunkSize, len(records))]

		values := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*16)
		for _, r := range chunk {
			d, ok := util.ParseDate(r.Date)
			if !ok {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Symbol, d,
				r.Open, r.High, r.Low, r.Close, r.Volume,
				r.AdjOpen, r.AdjHigh, r.AdjLow, r.AdjClose, r.AdjVolume,
				r.DivCash, r.SplitFactor,
				r.FetchedAt, time.Unix(r.ExpiresAt, 0),
			)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, priceColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return &models.StoreError{Op: "batch_write", Err: err}
		}
	}

	s.logger.Debug("batch wrote price records", applogger.Int("count", len(records)))
	return nil
}

func (s *ClickHousePriceStore) PointGet(ctx context.Context, symbol, date string) (*models.PriceRecord, error) {
	d, ok := util.ParseDate(date)
	if !ok {
		return nil, nil
	}

	q := fmt.Sprintf(`
		SELECT %s FROM %s FINAL
		WHERE symbol = ? AND date = ? AND expires_at > now()
		LIMIT 1
	`, priceColumns, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, d)
	if err != nil {
		return nil, &models.StoreError{Op: "point_get", Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &models.StoreError{Op: "point_get", Err: err}
		}
		return nil, nil
	}
	rec, err := scanPriceRecord(rows)
	if err != nil {
		return nil, &models.StoreError{Op: "point_get", Err: err}
	}
	return &rec, nil
}

func scanPriceRecord(rows *sql.Rows) (models.PriceRecord, error) {
	var rec models.PriceRecord
	var date, expires time.Time
	err := rows.Scan(
		&rec.Symbol, &date,
		&rec.Open, &rec.High, &rec.Low, &rec.Close, &rec.Volume,
		&rec.AdjOpen, &rec.AdjHigh, &rec.AdjLow, &rec.AdjClose, &rec.AdjVolume,
		&rec.DivCash, &rec.SplitFactor,
		&rec.FetchedAt, &expires,
	)
	if err != nil {
		return rec, err
	}
	rec.Date = util.FormatDate(date)
	rec.ExpiresAt = expires.Unix()
	return rec, nil
}

func (s *ClickHousePriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHousePriceStore) Close() error {
	return nil // pool owned by pkg/clickhouse client
}

var _ domrepo.PriceStore = (*ClickHousePriceStore)(nil)
