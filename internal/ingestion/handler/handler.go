// Package handler serves the ingestion HTTP API: it validates document
// changes, hands them to the publisher and reports pipeline status.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/logger"
)

const maxBodyBytes = 64 << 20

type Publisher interface {
	Ingest(ctx context.Context, namespace string, docs []ingestion.DocumentRequest) ([]ingestion.IngestResponse, error)
	Remove(ctx context.Context, namespace, id string) (*ingestion.IngestResponse, error)
}

type StatusReader interface {
	Get(ctx context.Context, namespace, id string) (*ingestion.Record, error)
}

type Handler struct {
	publisher Publisher
	statuses  StatusReader
	logger    *slog.Logger
}

func New(pub Publisher, statuses StatusReader) *Handler {
	return &Handler{
		publisher: pub,
		statuses:  statuses,
		logger:    logger.WithComponent("ingestion-handler"),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/indexes/{namespace}/documents", h.IngestBatch)
	mux.HandleFunc("PUT /api/v1/indexes/{namespace}/documents/{id}", h.IngestOne)
	mux.HandleFunc("DELETE /api/v1/indexes/{namespace}/documents/{id}", h.Remove)
	mux.HandleFunc("GET /api/v1/indexes/{namespace}/documents/{id}/status", h.Status)
}

// IngestBatch accepts {"documents":[{"id","text"}]}; ids are optional.
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	ctx := logger.WithNamespace(r.Context(), namespace)
	var req ingestion.BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validator.ValidateBatch(namespace, &req); err != nil {
		h.writeValidation(w, err)
		return
	}
	resp, err := h.publisher.Ingest(ctx, namespace, req.Documents)
	if err != nil {
		h.fail(ctx, w, "ingestion failed", err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]any{"documents": resp})
}

// IngestOne accepts {"text"} for the id in the path.
func (h *Handler) IngestOne(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	ctx := logger.WithNamespace(r.Context(), namespace)
	var req ingestion.TextRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc := ingestion.DocumentRequest{ID: r.PathValue("id"), Text: req.Text}
	if err := validator.ValidateDocument(namespace, &doc, true); err != nil {
		h.writeValidation(w, err)
		return
	}
	resp, err := h.publisher.Ingest(ctx, namespace, []ingestion.DocumentRequest{doc})
	if err != nil {
		h.fail(ctx, w, "ingestion failed", err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, resp[0])
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	ctx := logger.WithNamespace(r.Context(), namespace)
	doc := ingestion.DocumentRequest{ID: r.PathValue("id")}
	if err := validator.ValidateDocument(namespace, &doc, true); err != nil {
		h.writeValidation(w, err)
		return
	}
	resp, err := h.publisher.Remove(ctx, namespace, doc.ID)
	if err != nil {
		h.fail(ctx, w, "removal failed", err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.statuses.Get(ctx, r.PathValue("namespace"), r.PathValue("id"))
	if err != nil {
		h.fail(ctx, w, "status lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, message string, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status == http.StatusNotFound {
		h.writeError(w, status, "document not found")
		return
	}
	logger.FromContext(ctx).Error(message, "error", err, "status_code", status)
	h.writeError(w, status, message)
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
