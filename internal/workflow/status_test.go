package workflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/andretaki/simurgh/internal/models"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testOpts() Options {
	return Options{Now: testNow, LostAfter: 30 * 24 * time.Hour}
}

func strPtr(s string) *string { return &s }
func tp(t time.Time) *time.Time { return &t }

func doc(mod ...func(*models.RfqDocument)) *models.RfqDocument {
	d := &models.RfqDocument{
		ID:        uuid.New(),
		FileName:  "rfq.pdf",
		Status:    models.RfqStatusProcessed,
		CreatedAt: testNow.Add(-72 * time.Hour),
	}
	for _, m := range mod {
		m(d)
	}
	return d
}

func resp(status string, mod ...func(*models.RfqResponse)) *models.RfqResponse {
	r := &models.RfqResponse{
		ID:        uuid.New(),
		Status:    status,
		CreatedAt: testNow.Add(-48 * time.Hour),
		UpdatedAt: testNow.Add(-48 * time.Hour),
	}
	for _, m := range mod {
		m(r)
	}
	return r
}

func order(mod ...func(*models.GovernmentOrder)) models.GovernmentOrder {
	o := models.GovernmentOrder{
		ID:        uuid.New(),
		Status:    models.RfqStatusProcessed,
		CreatedAt: testNow.Add(-24 * time.Hour),
	}
	for _, m := range mod {
		m(&o)
	}
	return o
}

func TestDeriveForwardWalk(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		want Status
	}{
		{
			name: "document only",
			rec:  Record{Document: doc()},
			want: StatusRfqReceived,
		},
		{
			name: "draft response",
			rec:  Record{Document: doc(), Response: resp(models.ResponseStatusDraft)},
			want: StatusResponseDraft,
		},
		{
			name: "submitted response",
			rec: Record{Document: doc(), Response: resp(models.ResponseStatusSubmitted, func(r *models.RfqResponse) {
				r.SubmittedAt = tp(testNow.Add(-24 * time.Hour))
			})},
			want: StatusResponseSubmitted,
		},
		{
			name: "completed counts as submitted",
			rec: Record{Document: doc(), Response: resp(models.ResponseStatusCompleted, func(r *models.RfqResponse) {
				r.SubmittedAt = tp(testNow.Add(-24 * time.Hour))
			})},
			want: StatusResponseSubmitted,
		},
		{
			name: "order present",
			rec:  Record{Document: doc(), Orders: []OrderRecord{{Order: order()}}},
			want: StatusPoReceived,
		},
		{
			name: "quality sheet implies fulfillment",
			rec: Record{Document: doc(), Orders: []OrderRecord{{
				Order:        order(),
				QualitySheet: &models.QualitySheet{ID: uuid.New(), LotNumber: "LOT-1", CreatedAt: testNow},
			}}},
			want: StatusInFulfillment,
		},
		{
			name: "label implies fulfillment",
			rec: Record{Document: doc(), Orders: []OrderRecord{{
				Order:  order(),
				Labels: []models.GeneratedLabel{{ID: uuid.New(), LabelType: "mil-std-129", CreatedAt: testNow}},
			}}},
			want: StatusInFulfillment,
		},
		{
			name: "fulfilling stage",
			rec: Record{Document: doc(), Orders: []OrderRecord{{
				Order: order(func(o *models.GovernmentOrder) { o.Stage = strPtr(models.OrderStageFulfilling) }),
			}}},
			want: StatusInFulfillment,
		},
		{
			name: "verified stage",
			rec: Record{Document: doc(), Orders: []OrderRecord{{
				Order: order(func(o *models.GovernmentOrder) { o.Stage = strPtr(models.OrderStageVerified) }),
			}}},
			want: StatusVerified,
		},
		{
			name: "verified via quality sheet signature",
			rec: Record{Document: doc(), Orders: []OrderRecord{{
				Order: order(),
				QualitySheet: &models.QualitySheet{
					ID: uuid.New(), LotNumber: "LOT-1",
					VerifiedBy: strPtr("inspector"), VerifiedAt: tp(testNow),
				},
			}}},
			want: StatusVerified,
		},
		{
			name: "ship stage without marker stays verified",
			rec: Record{Document: doc(), Orders: []OrderRecord{{
				Order: order(func(o *models.GovernmentOrder) { o.Stage = strPtr(models.OrderStageShip) }),
			}}},
			want: StatusVerified,
		},
		{
			name: "shipped",
			rec: Record{Document: doc(), Orders: []OrderRecord{{
				Order: order(func(o *models.GovernmentOrder) {
					o.Stage = strPtr(models.OrderStageShip)
					o.ShippedAt = tp(testNow.Add(-time.Hour))
				}),
			}}},
			want: StatusShipped,
		},
		{
			name: "closed with marker is shipped",
			rec: Record{Document: doc(), Orders: []OrderRecord{{
				Order: order(func(o *models.GovernmentOrder) {
					o.Stage = strPtr(models.OrderStageClosed)
					o.ShippedAt = tp(testNow.Add(-time.Hour))
				}),
			}}},
			want: StatusShipped,
		},
		{
			name: "order without document starts at po stage",
			rec:  Record{Orders: []OrderRecord{{Order: order()}}},
			want: StatusPoReceived,
		},
		{
			name: "empty record floors at rfq_received",
			rec:  Record{},
			want: StatusRfqReceived,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Derive(tc.rec, testOpts()))
		})
	}
}

func TestDeriveSideStates(t *testing.T) {
	pastDue := doc(func(d *models.RfqDocument) { d.DueDate = tp(testNow.Add(-24 * time.Hour)) })

	t.Run("expired when due date past and never submitted", func(t *testing.T) {
		assert.Equal(t, StatusExpired, Derive(Record{Document: pastDue}, testOpts()))
	})

	t.Run("draft does not rescue expiry", func(t *testing.T) {
		rec := Record{Document: pastDue, Response: resp(models.ResponseStatusDraft)}
		assert.Equal(t, StatusExpired, Derive(rec, testOpts()))
	})

	t.Run("submission overrides expiry", func(t *testing.T) {
		rec := Record{Document: pastDue, Response: resp(models.ResponseStatusSubmitted, func(r *models.RfqResponse) {
			r.SubmittedAt = tp(testNow.Add(-12 * time.Hour))
		})}
		assert.Equal(t, StatusResponseSubmitted, Derive(rec, testOpts()))
	})

	t.Run("due date from extracted fields blob", func(t *testing.T) {
		d := doc(func(d *models.RfqDocument) {
			d.ExtractedFields = json.RawMessage(`{"due_date":"2026-01-02"}`)
		})
		assert.Equal(t, StatusExpired, Derive(Record{Document: d}, testOpts()))
	})

	t.Run("malformed extracted fields never advance status", func(t *testing.T) {
		d := doc(func(d *models.RfqDocument) {
			d.ExtractedFields = json.RawMessage(`{definitely not json`)
		})
		assert.Equal(t, StatusRfqReceived, Derive(Record{Document: d}, testOpts()))
	})

	t.Run("no bid", func(t *testing.T) {
		rec := Record{Document: doc(), Response: resp(models.ResponseStatusDraft, func(r *models.RfqResponse) {
			r.ResponseData = json.RawMessage(`{"no_bid":true,"no_bid_reason":"cannot meet spec"}`)
		})}
		assert.Equal(t, StatusNoBid, Derive(rec, testOpts()))
	})

	t.Run("lost after grace interval with no order", func(t *testing.T) {
		rec := Record{Document: doc(), Response: resp(models.ResponseStatusSubmitted, func(r *models.RfqResponse) {
			r.SubmittedAt = tp(testNow.Add(-45 * 24 * time.Hour))
		})}
		assert.Equal(t, StatusLost, Derive(rec, testOpts()))
	})

	t.Run("not lost inside grace interval", func(t *testing.T) {
		rec := Record{Document: doc(), Response: resp(models.ResponseStatusSubmitted, func(r *models.RfqResponse) {
			r.SubmittedAt = tp(testNow.Add(-10 * 24 * time.Hour))
		})}
		assert.Equal(t, StatusResponseSubmitted, Derive(rec, testOpts()))
	})

	t.Run("missing submission timestamp never reports lost", func(t *testing.T) {
		rec := Record{Document: doc(), Response: resp(models.ResponseStatusSubmitted)}
		assert.Equal(t, StatusResponseSubmitted, Derive(rec, testOpts()))
	})
}

// Order presence overrides the absorbing side states: once a PO exists the
// workflow must never report no_bid, expired, or lost.
func TestDeriveOrderPresenceOverridesSideStates(t *testing.T) {
	ord := []OrderRecord{{Order: order()}}

	noBid := resp(models.ResponseStatusDraft, func(r *models.RfqResponse) {
		r.ResponseData = json.RawMessage(`{"no_bid":true}`)
	})
	assert.Equal(t, StatusPoReceived, Derive(Record{Document: doc(), Response: noBid, Orders: ord}, testOpts()))

	pastDue := doc(func(d *models.RfqDocument) { d.DueDate = tp(testNow.Add(-24 * time.Hour)) })
	assert.Equal(t, StatusPoReceived, Derive(Record{Document: pastDue, Orders: ord}, testOpts()))

	stale := resp(models.ResponseStatusSubmitted, func(r *models.RfqResponse) {
		r.SubmittedAt = tp(testNow.Add(-90 * 24 * time.Hour))
	})
	assert.Equal(t, StatusPoReceived, Derive(Record{Document: doc(), Response: stale, Orders: ord}, testOpts()))
}

func TestDeriveAlwaysEnumValue(t *testing.T) {
	valid := map[Status]bool{
		StatusRfqReceived: true, StatusResponseDraft: true, StatusResponseSubmitted: true,
		StatusPoReceived: true, StatusInFulfillment: true, StatusVerified: true,
		StatusShipped: true, StatusNoBid: true, StatusExpired: true, StatusLost: true,
	}

	recs := []Record{
		{},
		{Document: doc()},
		{Document: doc(func(d *models.RfqDocument) { d.ExtractedFields = json.RawMessage(`[1,2,3]`) })},
		{Response: resp(models.ResponseStatusDraft)},
		{Orders: []OrderRecord{{Order: order(func(o *models.GovernmentOrder) { o.Stage = strPtr("bogus_stage") })}}},
		{Document: doc(), Response: resp("weird_status"), Orders: nil},
	}
	for _, rec := range recs {
		got := Derive(rec, testOpts())
		assert.Truef(t, valid[got], "derived %q is not a defined status", got)
	}
}

func TestDeriveDedupesOrdersAcrossLinkSources(t *testing.T) {
	o := order(func(o *models.GovernmentOrder) { o.Stage = strPtr(models.OrderStageVerified) })
	// Same order arriving via both the legacy FK and the junction table.
	rec := Record{Document: doc(), Orders: []OrderRecord{{Order: o}, {Order: o}}}
	assert.Equal(t, StatusVerified, Derive(rec, testOpts()))
	assert.Len(t, dedupeOrders(rec.Orders), 1)
}

func TestDerivePicksMostAdvancedOrder(t *testing.T) {
	rec := Record{Document: doc(), Orders: []OrderRecord{
		{Order: order()},
		{Order: order(func(o *models.GovernmentOrder) {
			o.Stage = strPtr(models.OrderStageShip)
			o.ShippedAt = tp(testNow)
		})},
	}}
	assert.Equal(t, StatusShipped, Derive(rec, testOpts()))
}

func TestTimeline(t *testing.T) {
	d := doc()
	r := resp(models.ResponseStatusSubmitted, func(r *models.RfqResponse) {
		r.SubmittedAt = tp(testNow.Add(-36 * time.Hour))
	})
	o := order(func(o *models.GovernmentOrder) {
		o.Stage = strPtr(models.OrderStageShip)
		o.ShippedAt = tp(testNow.Add(-time.Hour))
	})
	rec := Record{Document: d, Response: r, Orders: []OrderRecord{{
		Order:        o,
		QualitySheet: &models.QualitySheet{ID: uuid.New(), LotNumber: "LOT-9", VerifiedAt: tp(testNow.Add(-6 * time.Hour)), CreatedAt: testNow.Add(-10 * time.Hour)},
	}}}

	events := Timeline(rec, testOpts())

	var stages []Status
	for _, e := range events {
		stages = append(stages, e.Stage)
	}
	assert.Equal(t, []Status{
		StatusRfqReceived, StatusResponseDraft, StatusResponseSubmitted,
		StatusPoReceived, StatusInFulfillment, StatusVerified, StatusShipped,
	}, stages)

	assert.Equal(t, d.CreatedAt, *events[0].At)
	assert.Equal(t, *o.ShippedAt, *events[6].At)
}

func TestTimelineSideState(t *testing.T) {
	pastDue := doc(func(d *models.RfqDocument) { d.DueDate = tp(testNow.Add(-24 * time.Hour)) })
	events := Timeline(Record{Document: pastDue}, testOpts())

	assert.Len(t, events, 2)
	assert.Equal(t, StatusRfqReceived, events[0].Stage)
	assert.Equal(t, StatusExpired, events[1].Stage)
	assert.Equal(t, *pastDue.DueDate, *events[1].At)
}
