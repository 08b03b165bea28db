// Package workflow reconstructs pipeline state for a quoting workflow from
// loosely-linked rows: an RFQ document and everything transitively attached
// to it (response, orders via the legacy FK or the junction table, quality
// sheets, labels). Derivation is a pure read over fetched rows and never
// writes back.
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/models"
)

type Status string

const (
	StatusRfqReceived       Status = "rfq_received"
	StatusResponseDraft     Status = "response_draft"
	StatusResponseSubmitted Status = "response_submitted"
	StatusPoReceived        Status = "po_received"
	StatusInFulfillment     Status = "in_fulfillment"
	StatusVerified          Status = "verified"
	StatusShipped           Status = "shipped"

	// Absorbing side states. An order appearing later overrides all three.
	StatusNoBid   Status = "no_bid"
	StatusExpired Status = "expired"
	StatusLost    Status = "lost"
)

var mainSequence = map[Status]int{
	StatusRfqReceived:       0,
	StatusResponseDraft:     1,
	StatusResponseSubmitted: 2,
	StatusPoReceived:        3,
	StatusInFulfillment:     4,
	StatusVerified:          5,
	StatusShipped:           6,
}

type Options struct {
	Now       time.Time
	LostAfter time.Duration
}

// OrderRecord bundles a government order with its fulfillment artifacts.
type OrderRecord struct {
	Order        models.GovernmentOrder
	QualitySheet *models.QualitySheet
	Labels       []models.GeneratedLabel
}

// Record is the full joined record set for one workflow key.
type Record struct {
	Document *models.RfqDocument
	Response *models.RfqResponse
	Orders   []OrderRecord
}

// Derive computes the current stage label for one workflow. Priority order:
// order presence pins the workflow at po_received or later, then no-bid,
// then expiry, then the lost heuristic, then the response fallback down to
// rfq_received as the floor. Missing or malformed extracted fields count as
// unknown and bias toward the least-advanced plausible status.
func Derive(rec Record, opts Options) Status {
	orders := dedupeOrders(rec.Orders)
	if len(orders) > 0 {
		return orderStatus(orders)
	}

	if rec.Response != nil {
		if data := models.ParseResponseData(rec.Response.ResponseData); data.NoBid {
			return StatusNoBid
		}
	}

	submitted := responseSubmitted(rec.Response)

	if rec.Document != nil && !submitted {
		if due := documentDueDate(rec.Document); due != nil && due.Before(opts.Now) {
			return StatusExpired
		}
	}

	if submitted {
		// Heuristic: a submitted quote with no PO after the grace interval
		// is presumed lost. Best-effort, not authoritative.
		if opts.LostAfter > 0 && rec.Response.SubmittedAt != nil &&
			opts.Now.Sub(*rec.Response.SubmittedAt) > opts.LostAfter {
			return StatusLost
		}
		return StatusResponseSubmitted
	}

	if rec.Response != nil {
		return StatusResponseDraft
	}
	return StatusRfqReceived
}

func responseSubmitted(resp *models.RfqResponse) bool {
	if resp == nil {
		return false
	}
	return resp.Status == models.ResponseStatusSubmitted || resp.Status == models.ResponseStatusCompleted
}

// documentDueDate prefers the denormalized column and falls back to the
// extracted-fields blob.
func documentDueDate(doc *models.RfqDocument) *time.Time {
	if doc.DueDate != nil {
		return doc.DueDate
	}
	return models.ParseRfqFields(doc.ExtractedFields).ParsedDueDate()
}

// dedupeOrders collapses the union of legacy-FK and junction-table links:
// a workflow's order set is the union, not the sum.
func dedupeOrders(orders []OrderRecord) []OrderRecord {
	if len(orders) < 2 {
		return orders
	}
	seen := make(map[uuid.UUID]struct{}, len(orders))
	out := orders[:0:0]
	for _, o := range orders {
		if _, ok := seen[o.Order.ID]; ok {
			continue
		}
		seen[o.Order.ID] = struct{}{}
		out = append(out, o)
	}
	return out
}

func orderStatus(orders []OrderRecord) Status {
	best := StatusPoReceived
	for _, o := range orders {
		if s := singleOrderStatus(o); mainSequence[s] > mainSequence[best] {
			best = s
		}
	}
	return best
}

func singleOrderStatus(o OrderRecord) Status {
	stage := ""
	if o.Order.Stage != nil {
		stage = *o.Order.Stage
	}

	switch stage {
	case models.OrderStageShip, models.OrderStageClosed:
		// Shipping stages report shipped only once the shipped marker is set.
		if o.Order.ShippedAt != nil {
			return StatusShipped
		}
		return StatusVerified
	case models.OrderStageVerified:
		return StatusVerified
	}

	if sheetVerified(o.QualitySheet) {
		return StatusVerified
	}

	switch stage {
	case models.OrderStageSourcing, models.OrderStageFulfilling, models.OrderStageQC:
		return StatusInFulfillment
	}
	if o.QualitySheet != nil || len(o.Labels) > 0 {
		return StatusInFulfillment
	}
	return StatusPoReceived
}

func sheetVerified(sheet *models.QualitySheet) bool {
	if sheet == nil {
		return false
	}
	return sheet.VerifiedAt != nil || (sheet.VerifiedBy != nil && *sheet.VerifiedBy != "")
}
