package workflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andretaki/simurgh/internal/models"
)

func TestAggregateGroupsByExplicitLinks(t *testing.T) {
	docA := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("SPE4A6-26-Q-0001") })
	docB := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("SPE4A6-26-Q-0002") })

	legacyLinked := order(func(o *models.GovernmentOrder) { o.RfqDocumentID = &docA.ID })
	junctionLinked := order()

	ds := Dataset{
		Documents: []models.RfqDocument{docA, docB},
		Orders:    []models.GovernmentOrder{legacyLinked, junctionLinked},
		Links: []models.GovernmentOrderRfqLink{
			{GovernmentOrderID: junctionLinked.ID, RfqDocumentID: docB.ID},
		},
	}

	sum := Aggregate(ds, testOpts())
	require.Len(t, sum.Groups, 2)
	assert.Equal(t, 2, sum.Counts[StatusPoReceived])
	assert.Len(t, sum.Groups[0].Orders, 1)
	assert.Len(t, sum.Groups[1].Orders, 1)
}

// Both link sources pointing the same order at the same document must not
// double it: the order set is the union, not the sum.
func TestAggregateUnionNotSum(t *testing.T) {
	d := *doc()
	o := order(func(o *models.GovernmentOrder) { o.RfqDocumentID = &d.ID })

	ds := Dataset{
		Documents: []models.RfqDocument{d},
		Orders:    []models.GovernmentOrder{o},
		Links:     []models.GovernmentOrderRfqLink{{GovernmentOrderID: o.ID, RfqDocumentID: d.ID}},
	}

	sum := Aggregate(ds, testOpts())
	require.Len(t, sum.Groups, 1)
	assert.Len(t, dedupeOrders(sum.Groups[0].Orders), 1)
	assert.Equal(t, StatusPoReceived, sum.Groups[0].Status)
}

func TestAggregateMatchesByRfqNumber(t *testing.T) {
	d := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("821 - 36208263") })
	exact := order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("821 - 36208263") })

	ds := Dataset{Documents: []models.RfqDocument{d}, Orders: []models.GovernmentOrder{exact}}
	sum := Aggregate(ds, testOpts())
	require.Len(t, sum.Groups, 1)
	assert.Equal(t, StatusPoReceived, sum.Groups[0].Status)
}

// A vendor-visible "821 - 36208263" and a PO's bare "36208263" connect via
// the digit-suffix fallback when no exact match exists.
func TestAggregateNormalizedSuffixFallback(t *testing.T) {
	d := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("821 - 36208263") })
	bare := order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("36208263") })

	ds := Dataset{Documents: []models.RfqDocument{d}, Orders: []models.GovernmentOrder{bare}}
	sum := Aggregate(ds, testOpts())
	require.Len(t, sum.Groups, 1)
	assert.Equal(t, StatusPoReceived, sum.Groups[0].Status)
	assert.Len(t, sum.Groups[0].Orders, 1)
}

func TestAggregateExactMatchBeatsSuffixMatch(t *testing.T) {
	suffixOnly := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("99 - 12345") })
	exact := *doc(func(d *models.RfqDocument) {
		d.RfqNumber = strPtr("12345")
		d.CreatedAt = suffixOnly.CreatedAt.Add(time.Hour)
	})

	o := order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("12345") })

	ds := Dataset{Documents: []models.RfqDocument{suffixOnly, exact}, Orders: []models.GovernmentOrder{o}}
	sum := Aggregate(ds, testOpts())

	require.Len(t, sum.Groups, 2)
	assert.Empty(t, sum.Groups[0].Orders, "suffix-only document must not take the exact match's order")
	assert.Len(t, sum.Groups[1].Orders, 1)
}

func TestAggregateFirstInsertionOrderWinsOnAmbiguousSuffix(t *testing.T) {
	first := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("821 - 555000") })
	second := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("900 - 555000") })

	o := order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("555000") })

	ds := Dataset{Documents: []models.RfqDocument{first, second}, Orders: []models.GovernmentOrder{o}}
	sum := Aggregate(ds, testOpts())

	require.Len(t, sum.Groups, 2)
	assert.Len(t, sum.Groups[0].Orders, 1, "first database-ordered match is authoritative")
	assert.Empty(t, sum.Groups[1].Orders)
}

func TestAggregateOrphanOrderFormsOwnGroup(t *testing.T) {
	o := order(func(o *models.GovernmentOrder) { o.PoNumber = strPtr("SPE4A626V0007") })

	sum := Aggregate(Dataset{Orders: []models.GovernmentOrder{o}}, testOpts())
	require.Len(t, sum.Groups, 1)
	assert.Nil(t, sum.Groups[0].Document)
	assert.Equal(t, StatusPoReceived, sum.Groups[0].Status)
}

func TestAggregateCounts(t *testing.T) {
	received := *doc()
	expired := *doc(func(d *models.RfqDocument) { d.DueDate = tp(testNow.Add(-48 * time.Hour)) })
	quoted := *doc()

	quotedResp := models.RfqResponse{
		ID:            uuid.New(),
		RfqDocumentID: &quoted.ID,
		Status:        models.ResponseStatusSubmitted,
		SubmittedAt:   tp(testNow.Add(-24 * time.Hour)),
		CreatedAt:     testNow.Add(-24 * time.Hour),
	}

	awarded := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("777123") })
	po := order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("777123") })

	ds := Dataset{
		Documents: []models.RfqDocument{received, expired, quoted, awarded},
		Responses: []models.RfqResponse{quotedResp},
		Orders:    []models.GovernmentOrder{po},
	}

	sum := Aggregate(ds, testOpts())
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 1, sum.Counts[StatusRfqReceived])
	assert.Equal(t, 1, sum.Counts[StatusExpired])
	assert.Equal(t, 1, sum.Counts[StatusResponseSubmitted])
	assert.Equal(t, 1, sum.Counts[StatusPoReceived])
}

func TestAggregateAttachesFulfillmentArtifacts(t *testing.T) {
	d := *doc()
	o := order(func(o *models.GovernmentOrder) { o.RfqDocumentID = &d.ID })

	ds := Dataset{
		Documents: []models.RfqDocument{d},
		Orders:    []models.GovernmentOrder{o},
		Sheets: []models.QualitySheet{{
			ID: uuid.New(), GovernmentOrderID: o.ID, LotNumber: "LOT-3",
			CoaData: json.RawMessage(`{}`), CreatedAt: testNow,
		}},
	}

	sum := Aggregate(ds, testOpts())
	require.Len(t, sum.Groups, 1)
	assert.Equal(t, StatusInFulfillment, sum.Groups[0].Status)
}
