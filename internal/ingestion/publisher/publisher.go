// Package publisher records document changes in the status registry and
// publishes them as DocumentEvents for the indexer service.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/logger"
	"github.com/google/uuid"
)

// StatusStore is the part of the status registry the publisher writes.
type StatusStore interface {
	MarkMany(ctx context.Context, namespace string, ids []string, status ingestion.Status) error
	FailMany(ctx context.Context, namespace string, ids []string, cause error) error
}

// EventProducer publishes events to the document event topic.
type EventProducer interface {
	Publish(ctx context.Context, event kafka.Event) error
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Publisher coordinates status bookkeeping and event production.
type Publisher struct {
	statuses StatusStore
	producer EventProducer
	now      func() time.Time
	logger   *slog.Logger
}

func New(statuses StatusStore, producer EventProducer) *Publisher {
	return &Publisher{
		statuses: statuses,
		producer: producer,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.WithComponent("publisher"),
	}
}

// Ingest accepts documents for indexing. Documents without an id get a
// generated one. Every document is marked PENDING before its event is
// published, so the indexer's INDEXED or FAILED always lands last.
func (p *Publisher) Ingest(ctx context.Context, namespace string, docs []ingestion.DocumentRequest) ([]ingestion.IngestResponse, error) {
	ids := make([]string, len(docs))
	events := make([]kafka.Event, len(docs))
	publishedAt := p.now()
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
		ev := ingestion.DocumentEvent{
			Op:          ingestion.OpAdd,
			Namespace:   namespace,
			DocumentID:  id,
			Text:        doc.Text,
			PublishedAt: publishedAt,
		}
		events[i] = kafka.Event{Key: ev.Key(), Value: ev}
	}

	if err := p.statuses.MarkMany(ctx, namespace, ids, ingestion.StatusPending); err != nil {
		return nil, fmt.Errorf("recording pending documents: %w", err)
	}
	if err := p.publish(ctx, events); err != nil {
		p.markFailed(ctx, namespace, ids, err)
		return nil, err
	}

	resp := make([]ingestion.IngestResponse, len(ids))
	for i, id := range ids {
		resp[i] = ingestion.IngestResponse{Namespace: namespace, DocumentID: id, Status: ingestion.StatusPending}
	}
	p.logger.Info("documents accepted", "namespace", namespace, "count", len(ids))
	return resp, nil
}

// Remove accepts the removal of id from namespace.
func (p *Publisher) Remove(ctx context.Context, namespace, id string) (*ingestion.IngestResponse, error) {
	if err := p.statuses.MarkMany(ctx, namespace, []string{id}, ingestion.StatusRemoving); err != nil {
		return nil, fmt.Errorf("recording removal: %w", err)
	}
	ev := ingestion.DocumentEvent{
		Op:          ingestion.OpRemove,
		Namespace:   namespace,
		DocumentID:  id,
		PublishedAt: p.now(),
	}
	if err := p.publish(ctx, []kafka.Event{{Key: ev.Key(), Value: ev}}); err != nil {
		p.markFailed(ctx, namespace, []string{id}, err)
		return nil, err
	}
	p.logger.Info("removal accepted", "namespace", namespace, "doc_id", id)
	return &ingestion.IngestResponse{Namespace: namespace, DocumentID: id, Status: ingestion.StatusRemoving}, nil
}

func (p *Publisher) publish(ctx context.Context, events []kafka.Event) error {
	var err error
	if len(events) == 1 {
		err = p.producer.Publish(ctx, events[0])
	} else {
		err = p.producer.PublishBatch(ctx, events)
	}
	if err != nil {
		return apperrors.Wrap(
			apperrors.New(apperrors.ErrInternal, http.StatusServiceUnavailable, "event stream unavailable"),
			err,
		)
	}
	return nil
}

func (p *Publisher) markFailed(ctx context.Context, namespace string, ids []string, cause error) {
	if err := p.statuses.FailMany(ctx, namespace, ids, cause); err != nil {
		p.logger.Error("failed to record publish failure", "namespace", namespace, "documents", len(ids), "error", err)
	}
}
