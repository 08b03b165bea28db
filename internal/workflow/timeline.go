package workflow

import "time"

// StageEvent is one reached stage with its best-known timestamp. At is nil
// when a stage is implied but no row carries a usable time.
type StageEvent struct {
	Stage Status     `json:"stage"`
	At    *time.Time `json:"at,omitempty"`
}

// Timeline lists the stages a workflow has passed through, in pipeline
// order, ending on a side-state entry when one applies.
func Timeline(rec Record, opts Options) []StageEvent {
	current := Derive(rec, opts)
	orders := dedupeOrders(rec.Orders)

	var events []StageEvent
	if rec.Document != nil {
		events = append(events, StageEvent{Stage: StatusRfqReceived, At: timePtr(rec.Document.CreatedAt)})
	}

	switch current {
	case StatusNoBid:
		var at *time.Time
		if rec.Response != nil {
			at = timePtr(rec.Response.UpdatedAt)
		}
		return append(events, StageEvent{Stage: StatusNoBid, At: at})
	case StatusExpired:
		var at *time.Time
		if rec.Document != nil {
			at = documentDueDate(rec.Document)
		}
		return append(events, StageEvent{Stage: StatusExpired, At: at})
	}

	if rec.Response != nil {
		events = append(events, StageEvent{Stage: StatusResponseDraft, At: timePtr(rec.Response.CreatedAt)})
		if responseSubmitted(rec.Response) {
			events = append(events, StageEvent{Stage: StatusResponseSubmitted, At: rec.Response.SubmittedAt})
		}
	}

	if current == StatusLost {
		var at *time.Time
		if rec.Response != nil && rec.Response.SubmittedAt != nil {
			at = timePtr(rec.Response.SubmittedAt.Add(opts.LostAfter))
		}
		return append(events, StageEvent{Stage: StatusLost, At: at})
	}

	if len(orders) > 0 {
		events = append(events, StageEvent{Stage: StatusPoReceived, At: earliestOrderTime(orders)})
	}
	if mainSequence[current] >= mainSequence[StatusInFulfillment] {
		events = append(events, StageEvent{Stage: StatusInFulfillment, At: earliestArtifactTime(orders)})
	}
	if mainSequence[current] >= mainSequence[StatusVerified] {
		events = append(events, StageEvent{Stage: StatusVerified, At: verificationTime(orders)})
	}
	if current == StatusShipped {
		events = append(events, StageEvent{Stage: StatusShipped, At: earliestShipTime(orders)})
	}

	return events
}

func timePtr(t time.Time) *time.Time { return &t }

func earliestOrderTime(orders []OrderRecord) *time.Time {
	var earliest *time.Time
	for _, o := range orders {
		t := o.Order.CreatedAt
		if earliest == nil || t.Before(*earliest) {
			earliest = timePtr(t)
		}
	}
	return earliest
}

func earliestArtifactTime(orders []OrderRecord) *time.Time {
	var earliest *time.Time
	consider := func(t time.Time) {
		if earliest == nil || t.Before(*earliest) {
			earliest = timePtr(t)
		}
	}
	for _, o := range orders {
		if o.QualitySheet != nil {
			consider(o.QualitySheet.CreatedAt)
		}
		for _, l := range o.Labels {
			consider(l.CreatedAt)
		}
	}
	return earliest
}

func verificationTime(orders []OrderRecord) *time.Time {
	for _, o := range orders {
		if o.QualitySheet != nil && o.QualitySheet.VerifiedAt != nil {
			return o.QualitySheet.VerifiedAt
		}
	}
	return nil
}

func earliestShipTime(orders []OrderRecord) *time.Time {
	var earliest *time.Time
	for _, o := range orders {
		if o.Order.ShippedAt == nil {
			continue
		}
		if earliest == nil || o.Order.ShippedAt.Before(*earliest) {
			earliest = o.Order.ShippedAt
		}
	}
	return earliest
}
