package usecase

import (
	"context"
	"encoding/json"
	"time"

	"QuoteVault/internal/domain/models"
	domrepo "QuoteVault/internal/domain/repository"
	pkgkafka "QuoteVault/pkg/kafka"
)

// KafkaRecordsHandler consumes published price records and drains them into
// the store. This is the consumer half of the kafka write-back path.
type KafkaRecordsHandler struct {
	topic   string
	store   domrepo.PriceStore
	metrics domrepo.Metrics
}

func NewKafkaRecordsHandler(topic string, store domrepo.PriceStore, metrics domrepo.Metrics) *KafkaRecordsHandler {
	return &KafkaRecordsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaRecordsHandler) Topic() string { return h.topic }

func (h *KafkaRecordsHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.PriceRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if rec.Symbol == "" || rec.Date == "" {
		h.metrics.RecordError("consumer_invalid_record")
		return nil // drop, not retryable
	}

	start := time.Now()
	err := h.store.BatchWrite(ctx, []models.PriceRecord{rec})
	h.metrics.RecordLatency("writeback_store_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRecordsHandler)(nil)
