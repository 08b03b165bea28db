package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/audit"
	"github.com/andretaki/simurgh/internal/models"
	"github.com/andretaki/simurgh/internal/response"
)

type ResponseHandler struct {
	svc   *response.Service
	audit *audit.Service
}

func NewResponseHandler(svc *response.Service, auditSvc *audit.Service) *ResponseHandler {
	return &ResponseHandler{svc: svc, audit: auditSvc}
}

func (h *ResponseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID *string             `json:"document_id"`
		Data       models.ResponseData `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var docID *uuid.UUID
	if req.DocumentID != nil {
		parsed, err := uuid.Parse(*req.DocumentID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document ID"})
			return
		}
		docID = &parsed
	}

	resp, err := h.svc.Create(r.Context(), docID, req.Data)
	if err != nil {
		serverError(w, "create response", err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}
	status := r.URL.Query().Get("status")

	responses, err := h.svc.List(r.Context(), status, limit, offset)
	if err != nil {
		serverError(w, "list responses", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": responses, "count": len(responses)})
}

func (h *ResponseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid response ID"})
		return
	}

	resp, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "response not found"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ResponseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid response ID"})
		return
	}

	var data models.ResponseData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := h.svc.Update(r.Context(), id, data)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid response ID"})
		return
	}

	resp, err := h.svc.Submit(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	recordAction(r, h.audit, "response.submitted", "rfq_response", &id, nil)
	writeJSON(w, http.StatusOK, resp)
}

func (h *ResponseHandler) NoBid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid response ID"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := h.svc.SetNoBid(r.Context(), id, req.Reason)
	if err != nil {
		serverError(w, "record no-bid", err)
		return
	}

	recordAction(r, h.audit, "response.no_bid", "rfq_response", &id, map[string]interface{}{"reason": req.Reason})
	writeJSON(w, http.StatusOK, resp)
}

func (h *ResponseHandler) GeneratePdf(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid response ID"})
		return
	}

	resp, err := h.svc.GeneratePdf(r.Context(), id)
	if err != nil {
		serverError(w, "generate response pdf", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
