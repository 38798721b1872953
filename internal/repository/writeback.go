package repository

import (
	"context"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	pkgkafka "QuoteVault/pkg/kafka"
)

// DirectWriter repopulates the cache by writing straight through to the
// price store.
type DirectWriter struct {
	store   domrepo.PriceStore
	metrics domrepo.Metrics
}

func NewDirectWriter(store domrepo.PriceStore, metrics domrepo.Metrics) *DirectWriter {
	return &DirectWriter{store: store, metrics: metrics}
}

func (w *DirectWriter) WriteBack(ctx context.Context, records []models.PriceRecord) error {
	if err := w.store.BatchWrite(ctx, records); err != nil {
		return err
	}
	w.metrics.RecordWriteback("direct", len(records))
	return nil
}

// KafkaWriter repopulates the cache asynchronously: records are published to
// a topic, keyed by symbol for per-symbol ordering, and a consumer drains
// them into the store.
type KafkaWriter struct {
	producer *pkgkafka.Producer
	topic    string
	metrics  domrepo.Metrics
}

func NewKafkaWriter(producer *pkgkafka.Producer, topic string, metrics domrepo.Metrics) *KafkaWriter {
	return &KafkaWriter{producer: producer, topic: topic, metrics: metrics}
}

func (w *KafkaWriter) WriteBack(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Symbol), Value: r}
	}
	if err := w.producer.PublishBatch(ctx, w.topic, msgs); err != nil {
		return err
	}
	w.metrics.RecordWriteback("kafka", len(records))
	return nil
}

func (w *KafkaWriter) Close() error {
	if w.producer != nil {
		return w.producer.Close()
	}
	return nil
}

var (
	_ domrepo.RecordWriter = (*DirectWriter)(nil)
	_ domrepo.RecordWriter = (*KafkaWriter)(nil)
)
