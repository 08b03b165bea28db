package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/cache"
	"github.com/andretaki/simurgh/internal/workflow"
)

const (
	dashboardCacheKey = "workflow:dashboard"
	dashboardCacheTTL = 30 * time.Second
)

type WorkflowHandler struct {
	store     *workflow.Store
	cache     *cache.Cache
	lostAfter time.Duration
}

func NewWorkflowHandler(store *workflow.Store, c *cache.Cache, lostAfter time.Duration) *WorkflowHandler {
	return &WorkflowHandler{store: store, cache: c, lostAfter: lostAfter}
}

func (h *WorkflowHandler) opts() workflow.Options {
	return workflow.Options{Now: time.Now(), LostAfter: h.lostAfter}
}

// ByDocument resolves workflow status for one RFQ document.
func (h *WorkflowHandler) ByDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document ID"})
		return
	}

	rec, err := h.store.LoadByDocumentID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workflow not found"})
		return
	}

	h.writeRecord(w, rec)
}

func (h *WorkflowHandler) ByRfqNumber(w http.ResponseWriter, r *http.Request) {
	rfqNumber := chi.URLParam(r, "rfqNumber")
	if rfqNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rfq number required"})
		return
	}

	rec, err := h.store.LoadByRfqNumber(r.Context(), rfqNumber)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workflow not found"})
		return
	}

	h.writeRecord(w, rec)
}

func (h *WorkflowHandler) ByPoNumber(w http.ResponseWriter, r *http.Request) {
	poNumber := chi.URLParam(r, "poNumber")
	if poNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "po number required"})
		return
	}

	rec, err := h.store.LoadByPoNumber(r.Context(), poNumber)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workflow not found"})
		return
	}

	h.writeRecord(w, rec)
}

// Dashboard groups every workflow in the system and counts them by status.
// The full-table aggregation is cached briefly since it scans every row.
func (h *WorkflowHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		var cached workflow.Summary
		if err := h.cache.Get(r.Context(), dashboardCacheKey, &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	ds, err := h.store.LoadDataset(r.Context())
	if err != nil {
		serverError(w, "load workflow dashboard", err)
		return
	}

	summary := workflow.Aggregate(ds, h.opts())

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), dashboardCacheKey, summary, dashboardCacheTTL); err != nil {
			slog.Warn("failed to cache dashboard summary", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *WorkflowHandler) writeRecord(w http.ResponseWriter, rec workflow.Record) {
	opts := h.opts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   workflow.Derive(rec, opts),
		"timeline": workflow.Timeline(rec, opts),
		"document": rec.Document,
		"response": rec.Response,
		"orders":   rec.Orders,
	})
}
