package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	ingested [][]ingestion.DocumentRequest
	removed  []string
	err      error
}

func (s *stubPublisher) Ingest(_ context.Context, ns string, docs []ingestion.DocumentRequest) ([]ingestion.IngestResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.ingested = append(s.ingested, docs)
	out := make([]ingestion.IngestResponse, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = "generated"
		}
		out[i] = ingestion.IngestResponse{Namespace: ns, DocumentID: id, Status: ingestion.StatusPending}
	}
	return out, nil
}

func (s *stubPublisher) Remove(_ context.Context, ns, id string) (*ingestion.IngestResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.removed = append(s.removed, id)
	return &ingestion.IngestResponse{Namespace: ns, DocumentID: id, Status: ingestion.StatusRemoving}, nil
}

type stubStatuses map[string]*ingestion.Record

func (s stubStatuses) Get(_ context.Context, ns, id string) (*ingestion.Record, error) {
	if rec, ok := s[ns+"/"+id]; ok {
		return rec, nil
	}
	return nil, apperrors.New(apperrors.ErrNotFound, http.StatusNotFound, "missing")
}

func serve(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestIngestBatch(t *testing.T) {
	pub := &stubPublisher{}
	h := New(pub, stubStatuses{})

	rec := serve(h, http.MethodPost, "/api/v1/indexes/reds/documents",
		`{"documents":[{"id":"7","text":"simple words"},{"text":"no id"}]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Documents []ingestion.IngestResponse `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Documents, 2)
	assert.Equal(t, "generated", body.Documents[1].DocumentID)
	assert.Equal(t, "reds", body.Documents[0].Namespace)
	require.Len(t, pub.ingested, 1)
}

func TestIngestBatchValidation(t *testing.T) {
	pub := &stubPublisher{}
	h := New(pub, stubStatuses{})

	rec := serve(h, http.MethodPost, "/api/v1/indexes/reds/documents", `{"documents":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation failed")

	rec = serve(h, http.MethodPost, "/api/v1/indexes/reds/documents", `{"docs":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
	assert.Empty(t, pub.ingested)
}

func TestIngestOneUsesPathID(t *testing.T) {
	pub := &stubPublisher{}
	h := New(pub, stubStatuses{})

	rec := serve(h, http.MethodPut, "/api/v1/indexes/reds/documents/42", `{"text":"keyboard cat"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pub.ingested, 1)
	assert.Equal(t, ingestion.DocumentRequest{ID: "42", Text: "keyboard cat"}, pub.ingested[0][0])
}

func TestRemove(t *testing.T) {
	pub := &stubPublisher{}
	h := New(pub, stubStatuses{})

	rec := serve(h, http.MethodDelete, "/api/v1/indexes/reds/documents/42", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"42"}, pub.removed)
	assert.Contains(t, rec.Body.String(), `"REMOVING"`)
}

func TestPublisherFailureStatus(t *testing.T) {
	pub := &stubPublisher{err: apperrors.Wrap(
		apperrors.New(apperrors.ErrInternal, http.StatusServiceUnavailable, "event stream unavailable"),
		errors.New("dial tcp"),
	)}
	h := New(pub, stubStatuses{})

	rec := serve(h, http.MethodPut, "/api/v1/indexes/reds/documents/1", `{"text":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ingestion failed")
}

func TestStatus(t *testing.T) {
	h := New(&stubPublisher{}, stubStatuses{
		"reds/7": {Namespace: "reds", DocumentID: "7", Status: ingestion.StatusIndexed},
	})

	rec := serve(h, http.MethodGet, "/api/v1/indexes/reds/documents/7/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got ingestion.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, ingestion.StatusIndexed, got.Status)

	rec = serve(h, http.MethodGet, "/api/v1/indexes/reds/documents/8/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
