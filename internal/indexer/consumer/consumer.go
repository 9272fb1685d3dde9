// Package consumer reads document events from Kafka and applies them to the
// phonetic index, recording each document's outcome in the status registry.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/search"
)

// StatusUpdater records pipeline outcomes. The ingestion repository
// satisfies it.
type StatusUpdater interface {
	SetStatus(ctx context.Context, namespace, id string, status ingestion.Status, cause error) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that applies each DocumentEvent to
// the namespace's index. Events that can never succeed are marked FAILED and
// skipped; store failures are marked FAILED and returned so the consumer
// retries them. statuses and m may be nil.
//
// Delivery is at least once and Add increments scores. An add whose batch
// reached Redis but whose reply was lost is applied again on retry, so the
// document's scores are inflated until it is removed and re-added.
// Transactional batches narrow the window to a lost EXEC reply; they do not
// close it.
func HandleMessage(indexes *search.Registry, statuses StatusUpdater, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event", "error", err, "key", string(key))
			return kafka.ErrSkip
		}

		var done ingestion.Status
		switch event.Op {
		case ingestion.OpAdd:
			done = ingestion.StatusIndexed
		case ingestion.OpRemove:
			done = ingestion.StatusRemoved
		default:
			logger.Error("unknown document event op", "op", event.Op, "key", string(key))
			return kafka.ErrSkip
		}

		err = apply(ctx, indexes, event)
		observe(m, event.Op, err)
		if err != nil {
			updateStatus(ctx, statuses, event, ingestion.StatusFailed, err, logger)
			if errors.Is(err, apperrors.ErrInvalidInput) || errors.Is(err, apperrors.ErrInvalidNamespace) {
				logger.Warn("dropping invalid document event", "namespace", event.Namespace, "doc_id", event.DocumentID, "error", err)
				return kafka.ErrSkip
			}
			return fmt.Errorf("applying %s for %s: %w", event.Op, event.Key(), err)
		}

		updateStatus(ctx, statuses, event, done, nil, logger)
		logger.Debug("document event applied",
			"op", event.Op,
			"namespace", event.Namespace,
			"doc_id", event.DocumentID,
		)
		return nil
	}
}

func apply(ctx context.Context, indexes *search.Registry, event ingestion.DocumentEvent) error {
	idx, err := indexes.Get(event.Namespace)
	if err != nil {
		return err
	}
	if event.Op == ingestion.OpRemove {
		return idx.Remove(ctx, event.DocumentID)
	}
	return idx.Add(ctx, event.DocumentID, event.Text)
}

func observe(m *metrics.Metrics, op ingestion.Op, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	if op == ingestion.OpRemove {
		m.DocsRemovedTotal.WithLabelValues(status).Inc()
		return
	}
	m.DocsIndexedTotal.WithLabelValues(status).Inc()
}

func updateStatus(ctx context.Context, statuses StatusUpdater, event ingestion.DocumentEvent, status ingestion.Status, cause error, logger *slog.Logger) {
	if statuses == nil {
		return
	}
	if err := statuses.SetStatus(ctx, event.Namespace, event.DocumentID, status, cause); err != nil {
		logger.Error("failed to update document status",
			"namespace", event.Namespace,
			"doc_id", event.DocumentID,
			"status", status,
			"error", err,
		)
	}
}
