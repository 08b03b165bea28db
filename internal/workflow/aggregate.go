package workflow

import (
	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/models"
)

// Dataset is a full table scan of workflow-relevant rows, each slice in
// database insertion order.
type Dataset struct {
	Documents []models.RfqDocument
	Responses []models.RfqResponse
	Orders    []models.GovernmentOrder
	Links     []models.GovernmentOrderRfqLink
	Sheets    []models.QualitySheet
	Labels    []models.GeneratedLabel
}

// Group is one logical workflow after grouping. Document is nil for
// order-only workflows that exist from the PO stage onward.
type Group struct {
	Document *models.RfqDocument `json:"document,omitempty"`
	Response *models.RfqResponse `json:"response,omitempty"`
	Orders   []OrderRecord       `json:"orders,omitempty"`
	Status   Status              `json:"status"`
	Timeline []StageEvent        `json:"timeline"`
}

type Summary struct {
	Groups []Group        `json:"groups"`
	Counts map[Status]int `json:"counts"`
	Total  int            `json:"total"`
}

// Aggregate groups every document and order into workflows by their
// connecting key (junction row, legacy FK, RFQ number exact match, then
// digit-suffix fallback) and derives a status per group for dashboard
// counting.
func Aggregate(ds Dataset, opts Options) Summary {
	sheetByOrder := make(map[uuid.UUID]*models.QualitySheet, len(ds.Sheets))
	for i := range ds.Sheets {
		s := &ds.Sheets[i]
		if _, ok := sheetByOrder[s.GovernmentOrderID]; !ok {
			sheetByOrder[s.GovernmentOrderID] = s
		}
	}
	labelsByOrder := make(map[uuid.UUID][]models.GeneratedLabel)
	for _, l := range ds.Labels {
		labelsByOrder[l.GovernmentOrderID] = append(labelsByOrder[l.GovernmentOrderID], l)
	}

	groups := make([]Group, len(ds.Documents))
	groupByDoc := make(map[uuid.UUID]int, len(ds.Documents))
	for i := range ds.Documents {
		groups[i] = Group{Document: &ds.Documents[i]}
		groupByDoc[ds.Documents[i].ID] = i
	}

	// Legacy 1:1 assumption: the first response per document wins.
	for i := range ds.Responses {
		r := &ds.Responses[i]
		if r.RfqDocumentID == nil {
			continue
		}
		if gi, ok := groupByDoc[*r.RfqDocumentID]; ok && groups[gi].Response == nil {
			groups[gi].Response = r
		}
	}

	linkedDocs := make(map[uuid.UUID][]uuid.UUID, len(ds.Links))
	for _, l := range ds.Links {
		linkedDocs[l.GovernmentOrderID] = append(linkedDocs[l.GovernmentOrderID], l.RfqDocumentID)
	}

	var orphanOrders []OrderRecord
	for i := range ds.Orders {
		order := ds.Orders[i]
		rec := OrderRecord{
			Order:        order,
			QualitySheet: sheetByOrder[order.ID],
			Labels:       labelsByOrder[order.ID],
		}

		targets := resolveOrderDocs(&order, linkedDocs[order.ID], ds.Documents)
		if len(targets) == 0 {
			orphanOrders = append(orphanOrders, rec)
			continue
		}
		for _, docID := range targets {
			if gi, ok := groupByDoc[docID]; ok {
				groups[gi].Orders = append(groups[gi].Orders, rec)
			}
		}
	}

	for _, rec := range orphanOrders {
		groups = append(groups, Group{Orders: []OrderRecord{rec}})
	}

	counts := make(map[Status]int)
	for i := range groups {
		rec := Record{Document: groups[i].Document, Response: groups[i].Response, Orders: groups[i].Orders}
		groups[i].Status = Derive(rec, opts)
		groups[i].Timeline = Timeline(rec, opts)
		counts[groups[i].Status]++
	}

	return Summary{Groups: groups, Counts: counts, Total: len(groups)}
}

// resolveOrderDocs returns the union of documents an order is attached to:
// junction rows and the legacy FK first, RFQ-number matching only when no
// explicit link exists.
func resolveOrderDocs(order *models.GovernmentOrder, junction []uuid.UUID, docs []models.RfqDocument) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	for _, id := range junction {
		add(id)
	}
	if order.RfqDocumentID != nil {
		add(*order.RfqDocumentID)
	}
	if len(out) > 0 {
		return out
	}

	if num := orderRfqNumber(order); num != "" {
		if doc := MatchDocumentByNumber(docs, num); doc != nil {
			add(doc.ID)
		}
	}
	return out
}
