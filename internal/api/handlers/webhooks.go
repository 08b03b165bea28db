package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/audit"
	"github.com/andretaki/simurgh/internal/webhook"
)

type WebhookHandler struct {
	svc   *webhook.Service
	audit *audit.Service
}

func NewWebhookHandler(svc *webhook.Service, auditSvc *audit.Service) *WebhookHandler {
	return &WebhookHandler{svc: svc, audit: auditSvc}
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req webhook.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.URL == "" || len(req.Events) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url and events required"})
		return
	}

	wh, err := h.svc.Create(r.Context(), req)
	if err != nil {
		serverError(w, "create webhook", err)
		return
	}

	recordAction(r, h.audit, "webhook.created", "webhook", &wh.ID, map[string]interface{}{"url": req.URL})
	writeJSON(w, http.StatusCreated, wh)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	webhooks, err := h.svc.List(r.Context())
	if err != nil {
		serverError(w, "list webhooks", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"webhooks": webhooks, "count": len(webhooks)})
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid webhook ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		serverError(w, "delete webhook", err)
		return
	}

	recordAction(r, h.audit, "webhook.deleted", "webhook", &id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
