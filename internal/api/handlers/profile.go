package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/andretaki/simurgh/internal/profile"
)

type ProfileHandler struct {
	svc *profile.Service
}

func NewProfileHandler(svc *profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	prof, err := h.svc.Get(r.Context())
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not configured"})
		return
	}

	writeJSON(w, http.StatusOK, prof)
}

func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req profile.UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CompanyName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company_name required"})
		return
	}

	prof, err := h.svc.Upsert(r.Context(), req)
	if err != nil {
		serverError(w, "save company profile", err)
		return
	}

	writeJSON(w, http.StatusOK, prof)
}
