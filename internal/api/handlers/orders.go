package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/audit"
	"github.com/andretaki/simurgh/internal/auth"
	"github.com/andretaki/simurgh/internal/order"
)

type OrderHandler struct {
	svc   *order.Service
	audit *audit.Service
}

func NewOrderHandler(svc *order.Service, auditSvc *audit.Service) *OrderHandler {
	return &OrderHandler{svc: svc, audit: auditSvc}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req order.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	o, err := h.svc.Create(r.Context(), req)
	if err != nil {
		serverError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer file.Close()

	o, err := h.svc.Upload(r.Context(), order.UploadRequest{
		FileName: header.Filename,
		FileType: filepath.Ext(header.Filename),
		Data:     file,
	})
	if err != nil {
		serverError(w, "upload order document", err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}
	stage := r.URL.Query().Get("stage")

	orders, err := h.svc.List(r.Context(), stage, limit, offset)
	if err != nil {
		serverError(w, "list orders", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	o, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) SetStage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stage required"})
		return
	}

	o, err := h.svc.SetStage(r.Context(), id, req.Stage)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	recordAction(r, h.audit, "order.stage_changed", "government_order", &id, map[string]interface{}{"stage": req.Stage})
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req struct {
		ShippedAt *time.Time `json:"shipped_at"`
	}
	// Body is optional; an empty body means shipped now.
	_ = json.NewDecoder(r.Body).Decode(&req)

	shippedAt := time.Now()
	if req.ShippedAt != nil {
		shippedAt = *req.ShippedAt
	}

	o, err := h.svc.MarkShipped(r.Context(), id, shippedAt)
	if err != nil {
		serverError(w, "mark order shipped", err)
		return
	}

	recordAction(r, h.audit, "order.shipped", "government_order", &id, map[string]interface{}{"shipped_at": shippedAt})
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) Link(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document ID"})
		return
	}

	created, err := h.svc.LinkToRfq(r.Context(), id, docID)
	if err != nil {
		serverError(w, "link order", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"linked": true, "created": created})
}

func (h *OrderHandler) AddQualitySheet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req struct {
		LotNumber string                 `json:"lot_number"`
		CoaData   map[string]interface{} `json:"coa_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sheet, err := h.svc.AddQualitySheet(r.Context(), id, req.LotNumber, req.CoaData)
	if err != nil {
		serverError(w, "add quality sheet", err)
		return
	}

	writeJSON(w, http.StatusCreated, sheet)
}

func (h *OrderHandler) ListQualitySheets(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	sheets, err := h.svc.QualitySheets(r.Context(), id)
	if err != nil {
		serverError(w, "list quality sheets", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"quality_sheets": sheets, "count": len(sheets)})
}

func (h *OrderHandler) VerifyQualitySheet(w http.ResponseWriter, r *http.Request) {
	sheetID, err := uuid.Parse(chi.URLParam(r, "sheetID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sheet ID"})
		return
	}

	sheet, err := h.svc.VerifyQualitySheet(r.Context(), sheetID, auth.ActorFromContext(r.Context()))
	if err != nil {
		serverError(w, "verify quality sheet", err)
		return
	}

	recordAction(r, h.audit, "quality_sheet.verified", "quality_sheet", &sheetID, nil)
	writeJSON(w, http.StatusOK, sheet)
}

func (h *OrderHandler) AddLabel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req struct {
		LabelType string  `json:"label_type"`
		FilePath  *string `json:"file_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LabelType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label_type required"})
		return
	}

	label, err := h.svc.AddLabel(r.Context(), id, req.LabelType, req.FilePath)
	if err != nil {
		serverError(w, "add label", err)
		return
	}

	writeJSON(w, http.StatusCreated, label)
}

func (h *OrderHandler) ListLabels(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	labels, err := h.svc.Labels(r.Context(), id)
	if err != nil {
		serverError(w, "list labels", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"labels": labels, "count": len(labels)})
}

func (h *OrderHandler) VerifyLabel(w http.ResponseWriter, r *http.Request) {
	labelID, err := uuid.Parse(chi.URLParam(r, "labelID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid label ID"})
		return
	}

	label, err := h.svc.VerifyLabel(r.Context(), labelID, auth.ActorFromContext(r.Context()))
	if err != nil {
		serverError(w, "verify label", err)
		return
	}

	recordAction(r, h.audit, "label.verified", "generated_label", &labelID, nil)
	writeJSON(w, http.StatusOK, label)
}
