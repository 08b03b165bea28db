package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/audit"
	"github.com/andretaki/simurgh/internal/queue"
	"github.com/andretaki/simurgh/internal/samgov"
)

type OpportunityHandler struct {
	store       *samgov.DBStore
	queueClient *queue.Client
	audit       *audit.Service
}

func NewOpportunityHandler(store *samgov.DBStore, qc *queue.Client, auditSvc *audit.Service) *OpportunityHandler {
	return &OpportunityHandler{store: store, queueClient: qc, audit: auditSvc}
}

func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	minScore, _ := strconv.Atoi(r.URL.Query().Get("min_score"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	opps, err := h.store.ListOpportunities(r.Context(), minScore, limit)
	if err != nil {
		serverError(w, "list opportunities", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"opportunities": opps, "count": len(opps)})
}

// Sync schedules a background pull; results land asynchronously.
func (h *OpportunityHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if err := h.queueClient.EnqueueSamSync(); err != nil {
		serverError(w, "schedule opportunity sync", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync scheduled"})
}

func (h *OpportunityHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.CatalogItems(r.Context())
	if err != nil {
		serverError(w, "list catalog", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "count": len(items)})
}

func (h *OpportunityHandler) AddCatalogItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NSN         string `json:"nsn"`
		FSC         string `json:"fsc"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NSN == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nsn required"})
		return
	}

	item, err := h.store.AddCatalogItem(r.Context(), req.NSN, req.FSC, req.Description)
	if err != nil {
		serverError(w, "add catalog item", err)
		return
	}

	recordAction(r, h.audit, "catalog.item_added", "catalog_item", &item.ID, map[string]interface{}{"nsn": req.NSN})
	writeJSON(w, http.StatusCreated, item)
}

func (h *OpportunityHandler) DeleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid catalog item ID"})
		return
	}

	if err := h.store.DeleteCatalogItem(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "catalog item not found"})
		return
	}

	recordAction(r, h.audit, "catalog.item_deleted", "catalog_item", &id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
