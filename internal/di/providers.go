package di

import (
	"context"
	"fmt"
	"time"

	"QuoteVault/internal/domain/repository"
	"QuoteVault/internal/handler/api"
	internalrepo "QuoteVault/internal/repository"
	"QuoteVault/internal/service/yahoo"
	"QuoteVault/internal/usecase"
	"QuoteVault/pkg/cache"
	pkgch "QuoteVault/pkg/clickhouse"
	"QuoteVault/pkg/config"
	pkgkafka "QuoteVault/pkg/kafka"
	applogger "QuoteVault/pkg/logger"
	"QuoteVault/pkg/metrics"
	"QuoteVault/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// Stores bundles the active price store with the backend client that owns its
// connections, so the app can close them on shutdown.
type Stores struct {
	Store repository.PriceStore
	Redis *cache.RedisCache // set when backend is redis
	CH    *pkgch.Client     // set when backend is clickhouse
}

// ProvideStores builds the configured store backend.
func ProvideStores(cfg *config.Config, l *applogger.Logger) (*Stores, error) {
	switch cfg.Store.Backend {
	case "clickhouse":
		ch := cfg.Store.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.PriceTableSchema); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}

		table := ch.Database + ".daily_prices"
		return &Stores{
			Store: internalrepo.NewClickHousePriceStore(client.DB(), table, l),
			CH:    client,
		}, nil

	default:
		r := cfg.Store.Redis
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(r.Host),
			cache.WithRedisPort(r.Port),
			cache.WithRedisPassword(r.Password),
			cache.WithRedisDB(r.DB),
			cache.WithRedisPool(r.PoolSize, r.MinIdleConns, r.PoolTimeout),
			cache.WithRedisPrefix(r.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return &Stores{
			Store: internalrepo.NewRedisPriceStore(rc.Client(), r.Prefix, l),
			Redis: rc,
		}, nil
	}
}

// ProvideRangeMarker creates the known-empty range marker. Markers ride the
// layered cache (memory over redis) when redis is the store backend; with the
// clickhouse backend there is no secondary cache and markers are disabled.
func ProvideRangeMarker(st *Stores, cfg *config.Config) *usecase.RangeMarker {
	if st.Redis == nil {
		return nil
	}
	layered := cache.NewLayeredCache(st.Redis)
	return usecase.NewRangeMarker(layered, cfg.Cache.EmptyMarkerTTL)
}

// ProvideYahooClient creates the shared upstream client. One client serves
// price series, earnings calendars, and ticker search so they share a rate
// limiter.
func ProvideYahooClient(cfg *config.Config, l *applogger.Logger) *yahoo.Client {
	return yahoo.New(
		cfg.Provider.BaseURL,
		cfg.Provider.Timeout,
		cfg.Provider.MaxRetries,
		cfg.Provider.BackoffBase,
		l,
	)
}

// ProvideSeriesProvider exposes the upstream client as the daily-bar source.
func ProvideSeriesProvider(client *yahoo.Client) repository.SeriesProvider {
	return client
}

// ProvideEarningsSource exposes the upstream client as the earnings source.
func ProvideEarningsSource(client *yahoo.Client) repository.EarningsSource {
	return client
}

// ProvideSymbolSearcher exposes the upstream client as the ticker searcher.
func ProvideSymbolSearcher(client *yahoo.Client) repository.SymbolSearcher {
	return client
}

// ProvideEarningsStore builds the earnings calendar cache. It rides the
// layered cache over redis when redis is the store backend; with clickhouse
// there is no key-value layer, so calendars live in process memory only.
func ProvideEarningsStore(st *Stores, cfg *config.Config, l *applogger.Logger) repository.EarningsStore {
	var svc cache.Service
	if st.Redis != nil {
		svc = cache.NewLayeredCache(st.Redis)
	} else {
		svc = cache.NewMemoryCache()
	}
	return internalrepo.NewEarningsCache(svc, cfg.Cache.EarningsTTL, l)
}

// Writeback bundles the record writer with the producer behind it (nil in
// direct mode).
type Writeback struct {
	Writer   repository.RecordWriter
	Producer *pkgkafka.Producer
}

// ProvideWriteback selects the cache repopulation path.
func ProvideWriteback(cfg *config.Config, st *Stores, m repository.Metrics) (*Writeback, error) {
	if cfg.Writeback.Mode != "kafka" {
		return &Writeback{Writer: internalrepo.NewDirectWriter(st.Store, m)}, nil
	}

	k := cfg.Writeback.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return &Writeback{
		Writer:   internalrepo.NewKafkaWriter(producer, k.Topic, m),
		Producer: producer,
	}, nil
}

// ProvideKafkaConsumer creates the write-back consumer, or nil in direct mode.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Writeback.Mode != "kafka" {
		return nil, nil
	}

	k := cfg.Writeback.Kafka
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(k.Brokers),
		pkgkafka.WithConsumerGroupID(k.GroupID),
		pkgkafka.WithConsumerWorkers(k.Workers),
		pkgkafka.WithConsumerBufferSize(k.BufferSize),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaRecordsHandler registers the handler draining published records
// into the store.
func ProvideKafkaRecordsHandler(cfg *config.Config, st *Stores, m repository.Metrics) *usecase.KafkaRecordsHandler {
	return usecase.NewKafkaRecordsHandler(cfg.Writeback.Kafka.Topic, st.Store, m)
}

// ProvideTTLPolicy maps configured TTL tiers into the policy.
func ProvideTTLPolicy(cfg *config.Config) usecase.TTLPolicy {
	return usecase.TTLPolicy{
		Historical:        cfg.Cache.TTLHistorical,
		Current:           cfg.Cache.TTLCurrent,
		HistoricalAgeDays: cfg.Cache.HistoricalAgeDays,
	}
}

// ProvideCoverageEvaluator creates the cache sufficiency evaluator.
func ProvideCoverageEvaluator(st *Stores, cfg *config.Config, l *applogger.Logger, m repository.Metrics) *usecase.CoverageEvaluator {
	return usecase.NewCoverageEvaluator(st.Store, cfg.Cache.CoverageThreshold, l, m)
}

// ProvidePricesUseCase creates the single-symbol pipeline.
func ProvidePricesUseCase(
	st *Stores,
	provider repository.SeriesProvider,
	wb *Writeback,
	marker *usecase.RangeMarker,
	coverage *usecase.CoverageEvaluator,
	ttl usecase.TTLPolicy,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.PricesUseCase {
	return usecase.NewPricesUseCase(st.Store, provider, wb.Writer, marker, coverage, ttl, l, m)
}

// ProvideBatchUseCase creates the multi-symbol coordinator.
func ProvideBatchUseCase(prices *usecase.PricesUseCase, cfg *config.Config, l *applogger.Logger) *usecase.BatchUseCase {
	return usecase.NewBatchUseCase(prices, cfg.Batch.MaxSymbols, cfg.Batch.MaxWorkers, l)
}

// ProvideEarningsUseCase creates the earnings calendar pipeline.
func ProvideEarningsUseCase(
	store repository.EarningsStore,
	source repository.EarningsSource,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.EarningsUseCase {
	return usecase.NewEarningsUseCase(store, source, usecase.DefaultMaxEarningsSymbols, l, m)
}

// ProvideSearchUseCase creates the ticker search pipeline.
func ProvideSearchUseCase(searcher repository.SymbolSearcher, l *applogger.Logger) *usecase.SearchUseCase {
	return usecase.NewSearchUseCase(searcher, l)
}

// ProvidePricesHandler creates the HTTP handler.
func ProvidePricesHandler(
	l *applogger.Logger,
	prices *usecase.PricesUseCase,
	batch *usecase.BatchUseCase,
	earnings *usecase.EarningsUseCase,
	search *usecase.SearchUseCase,
	st *Stores,
) *api.PricesEchoHandler {
	return api.NewPricesEchoHandler(l, prices, batch, earnings, search, st.Store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.PricesEchoHandler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRecordsHandler,
	st *Stores,
	wb *Writeback,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, handler, consumer, kh)
	if st.Redis != nil {
		app.AddCloser("redis", st.Redis)
	}
	if st.CH != nil {
		app.AddCloser("clickhouse", st.CH)
	}
	if wb.Producer != nil {
		app.AddCloser("kafka producer", wb.Producer)
	}
	return app
}
