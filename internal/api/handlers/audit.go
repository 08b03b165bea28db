package handlers

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/audit"
	"github.com/andretaki/simurgh/internal/auth"
)

type AuditHandler struct {
	svc *audit.Service
}

func NewAuditHandler(svc *audit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func (h *AuditHandler) Logs(w http.ResponseWriter, r *http.Request) {
	q := audit.AuditQuery{
		Action: r.URL.Query().Get("action"),
	}
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	q.StartDate = parseDateParam(r, "start_date")
	q.EndDate = parseDateParam(r, "end_date")

	logs, err := h.svc.GetAuditLogs(r.Context(), q)
	if err != nil {
		serverError(w, "load audit logs", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs, "count": len(logs)})
}

func (h *AuditHandler) UsageSummary(w http.ResponseWriter, r *http.Request) {
	start := parseDateParam(r, "start_date")
	end := parseDateParam(r, "end_date")

	summary, err := h.svc.GetUsageSummary(r.Context(), start, end)
	if err != nil {
		serverError(w, "load usage summary", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"usage": summary})
}

// recordAction writes an audit row for an operator action. Failures are
// logged and never fail the request.
func recordAction(r *http.Request, svc *audit.Service, action, resourceType string, id *uuid.UUID, details map[string]interface{}) {
	if svc == nil {
		return
	}

	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	entry := audit.LogEntry{
		Actor:        auth.ActorFromContext(r.Context()),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   id,
		Details:      details,
		IPAddress:    ip,
	}
	if err := svc.Log(r.Context(), entry); err != nil {
		slog.Warn("audit log write failed", "action", action, "error", err)
	}
}

func parseDateParam(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
