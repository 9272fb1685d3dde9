package handler

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/search"
)

const maxBodyBytes = 64 << 20

// SearchResponse is the body of a search request.
type SearchResponse struct {
	Namespace string `json:"namespace"`
	*search.Result
}

type documentBody struct {
	Text string `json:"text"`
}

type bulkBody struct {
	Documents []search.Document `json:"documents"`
}

type Handler struct {
	indexes     *search.Registry
	defaultMode search.Mode
	maxWindow   int64
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New builds a Handler. maxWindow <= 0 leaves windows unbounded; m may be
// nil.
func New(indexes *search.Registry, defaultMode search.Mode, maxWindow int64, m *metrics.Metrics) *Handler {
	return &Handler{
		indexes:     indexes,
		defaultMode: defaultMode,
		maxWindow:   maxWindow,
		metrics:     m,
		logger:      logger.WithComponent("search-handler"),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/indexes/{namespace}/search", h.Search)
	mux.HandleFunc("PUT /api/v1/indexes/{namespace}/documents/{id}", h.PutDocument)
	mux.HandleFunc("POST /api/v1/indexes/{namespace}/documents", h.BulkAdd)
	mux.HandleFunc("DELETE /api/v1/indexes/{namespace}/documents/{id}", h.DeleteDocument)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logger.WithNamespace(r.Context(), r.PathValue("namespace"))
	log := logger.FromContext(ctx)
	params := r.URL.Query()

	mode := h.defaultMode
	if raw := params.Get("mode"); raw != "" {
		parsed, err := search.ParseMode(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "mode must be intersect or union")
			return
		}
		mode = parsed
	}

	startRank, stopRank, ok := h.window(w, params.Get("start"), params.Get("stop"))
	if !ok {
		return
	}

	idx, err := h.indexes.Get(r.PathValue("namespace"))
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	query := params.Get("q")
	result, err := idx.Query(query).Mode(mode).Range(startRank, stopRank).Result(ctx)
	h.observe(mode, result, err, time.Since(start))
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed", "query", query, "error", err, "status_code", status)
		h.writeError(w, status, "search failed")
		return
	}

	log.Info("search completed",
		"query", query,
		"mode", result.Mode,
		"total_hits", result.TotalHits,
		"returned", len(result.IDs),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, SearchResponse{Namespace: idx.Namespace(), Result: result})
}

// window parses start and stop. Without them the first maxWindow ranks are
// returned; a non-negative window wider than maxWindow is rejected.
func (h *Handler) window(w http.ResponseWriter, rawStart, rawStop string) (int64, int64, bool) {
	start, stop := int64(0), int64(-1)
	if h.maxWindow > 0 {
		stop = h.maxWindow - 1
	}
	var err error
	if rawStart != "" {
		if start, err = strconv.ParseInt(rawStart, 10, 64); err != nil {
			h.writeError(w, http.StatusBadRequest, "start must be an integer")
			return 0, 0, false
		}
	}
	if rawStop != "" {
		if stop, err = strconv.ParseInt(rawStop, 10, 64); err != nil {
			h.writeError(w, http.StatusBadRequest, "stop must be an integer")
			return 0, 0, false
		}
	} else if rawStart != "" && start >= 0 && h.maxWindow > 0 {
		stop = math.MaxInt64
		if start <= math.MaxInt64-(h.maxWindow-1) {
			stop = start + h.maxWindow - 1
		}
	}
	if h.maxWindow > 0 && start >= 0 && stop >= start && stop-start >= h.maxWindow {
		h.writeError(w, http.StatusBadRequest, "window exceeds "+strconv.FormatInt(h.maxWindow, 10)+" results")
		return 0, 0, false
	}
	return start, stop, true
}

func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	var body documentBody
	if !h.decode(w, r, &body) {
		return
	}
	idx, ok := h.index(w, r)
	if !ok {
		return
	}
	if err := idx.Add(r.Context(), r.PathValue("id"), body.Text); err != nil {
		h.fail(w, r, "indexing failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BulkAdd(w http.ResponseWriter, r *http.Request) {
	var body bulkBody
	if !h.decode(w, r, &body) {
		return
	}
	if len(body.Documents) == 0 {
		h.writeError(w, http.StatusBadRequest, "documents must not be empty")
		return
	}
	idx, ok := h.index(w, r)
	if !ok {
		return
	}
	if err := idx.AddAll(r.Context(), body.Documents); err != nil {
		h.fail(w, r, "bulk indexing failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"namespace": idx.Namespace(),
		"indexed":   len(body.Documents),
	})
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.index(w, r)
	if !ok {
		return
	}
	if err := idx.Remove(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, "removal failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) (*search.Index, bool) {
	idx, err := h.indexes.Get(r.PathValue("namespace"))
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return nil, false
	}
	return idx, true
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

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status == http.StatusBadRequest {
		h.writeError(w, status, err.Error())
		return
	}
	logger.FromContext(r.Context()).Error(message,
		"namespace", r.PathValue("namespace"),
		"error", err,
		"status_code", status,
	)
	h.writeError(w, status, message)
}

func (h *Handler) observe(mode search.Mode, result *search.Result, err error, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	resultType := "hit"
	switch {
	case err != nil:
		resultType = "error"
	case len(result.IDs) == 0:
		resultType = "zero_result"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(mode.String(), resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
	if err == nil {
		h.metrics.SearchResultsCount.Observe(float64(len(result.IDs)))
	}
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
