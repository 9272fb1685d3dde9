package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusCall struct {
	id     string
	status ingestion.Status
	failed bool
}

type recordingStatuses struct {
	mu    sync.Mutex
	calls []statusCall
}

func (r *recordingStatuses) SetStatus(_ context.Context, _, id string, status ingestion.Status, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, statusCall{id: id, status: status, failed: cause != nil})
	return nil
}

type brokenStore struct{}

func (brokenStore) Batch(context.Context, []store.Op) ([]store.Result, error) {
	return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, errors.New("connection refused"))
}

func encode(t *testing.T, event ingestion.DocumentEvent) []byte {
	t.Helper()
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return b
}

func TestHandleMessageAddsAndRemoves(t *testing.T) {
	ctx := context.Background()
	reg := search.NewRegistry(store.NewMemory())
	statuses := &recordingStatuses{}
	m := metrics.New(prometheus.NewRegistry())
	handle := HandleMessage(reg, statuses, m)

	add := ingestion.DocumentEvent{Op: ingestion.OpAdd, Namespace: "reds", DocumentID: "1", Text: "keyboard cat"}
	require.NoError(t, handle(ctx, []byte(add.Key()), encode(t, add)))

	idx, err := reg.Get("reds")
	require.NoError(t, err)
	ids, err := idx.Query("keyboard cat").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids)

	remove := ingestion.DocumentEvent{Op: ingestion.OpRemove, Namespace: "reds", DocumentID: "1"}
	require.NoError(t, handle(ctx, []byte(remove.Key()), encode(t, remove)))
	ids, err = idx.Query("keyboard").Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.Equal(t, []statusCall{
		{id: "1", status: ingestion.StatusIndexed},
		{id: "1", status: ingestion.StatusRemoved},
	}, statuses.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocsIndexedTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocsRemovedTotal.WithLabelValues("success")))
}

func TestHandleMessageSkipsUndecodableAndUnknown(t *testing.T) {
	handle := HandleMessage(search.NewRegistry(store.NewMemory()), nil, nil)

	err := handle(context.Background(), nil, []byte("{not json"))
	require.ErrorIs(t, err, kafka.ErrSkip)

	event := ingestion.DocumentEvent{Op: "upsert", Namespace: "reds", DocumentID: "1"}
	err = handle(context.Background(), nil, encode(t, event))
	require.ErrorIs(t, err, kafka.ErrSkip)
}

func TestHandleMessageSkipsInvalidEvents(t *testing.T) {
	statuses := &recordingStatuses{}
	handle := HandleMessage(search.NewRegistry(store.NewMemory()), statuses, nil)

	event := ingestion.DocumentEvent{Op: ingestion.OpAdd, Namespace: "", DocumentID: "1", Text: "x"}
	err := handle(context.Background(), nil, encode(t, event))
	require.ErrorIs(t, err, kafka.ErrSkip)
	require.Len(t, statuses.calls, 1)
	assert.Equal(t, ingestion.StatusFailed, statuses.calls[0].status)
	assert.True(t, statuses.calls[0].failed)
}

func TestHandleMessageReturnsStoreFailures(t *testing.T) {
	statuses := &recordingStatuses{}
	m := metrics.New(prometheus.NewRegistry())
	handle := HandleMessage(search.NewRegistry(brokenStore{}), statuses, m)

	event := ingestion.DocumentEvent{Op: ingestion.OpAdd, Namespace: "reds", DocumentID: "1", Text: "ferret"}
	err := handle(context.Background(), nil, encode(t, event))
	require.Error(t, err)
	assert.NotErrorIs(t, err, kafka.ErrSkip)
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	require.Len(t, statuses.calls, 1)
	assert.Equal(t, ingestion.StatusFailed, statuses.calls[0].status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocsIndexedTotal.WithLabelValues("failed")))
}

func TestRedeliveredAddAccumulates(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	handle := HandleMessage(search.NewRegistry(mem), nil, nil)

	event := ingestion.DocumentEvent{Op: ingestion.OpAdd, Namespace: "reds", DocumentID: "1", Text: "ferret"}
	require.NoError(t, handle(ctx, nil, encode(t, event)))
	require.NoError(t, handle(ctx, nil, encode(t, event)))

	score, ok := mem.Score("reds:word:FRT", "1")
	require.True(t, ok)
	assert.Equal(t, 2.0, score)

	remove := ingestion.DocumentEvent{Op: ingestion.OpRemove, Namespace: "reds", DocumentID: "1"}
	require.NoError(t, handle(ctx, nil, encode(t, remove)))
	require.NoError(t, handle(ctx, nil, encode(t, event)))
	score, ok = mem.Score("reds:word:FRT", "1")
	require.True(t, ok)
	assert.Equal(t, 1.0, score)
}
