package samgov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantityLabeled(t *testing.T) {
	cases := map[string]float64{
		"QTY: 40":                        40,
		"Quantity 1,200 each":            1200,
		"qty-16 drums of compound":       16,
		"total quantity: 3.5 GL per can": 3.5,
	}
	for text, want := range cases {
		got := ParseQuantity(text)
		require.NotNil(t, got, "text %q", text)
		assert.Equal(t, want, *got, "text %q", text)
	}
}

func TestParseQuantityUnitFallback(t *testing.T) {
	got := ParseQuantity("deliver 55 gallons to depot")
	require.NotNil(t, got)
	assert.Equal(t, 55.0, *got)
}

func TestParseQuantityLabelWinsOverUnitPair(t *testing.T) {
	got := ParseQuantity("pack size 5 GAL, QTY: 12")
	require.NotNil(t, got)
	assert.Equal(t, 12.0, *got)
}

func TestParseQuantityAbsent(t *testing.T) {
	assert.Nil(t, ParseQuantity("no numbers of interest here"))
	assert.Nil(t, ParseQuantity("QTY: 0"))
}

func TestParseLineItems(t *testing.T) {
	text := "ITEM 0001 NSN 6810-00-286-5435 QTY: 40 DR\n" +
		"ITEM 0002 NSN 9150002526383 12 cans\n" +
		"packaging per MIL-STD-2073"
	items := ParseLineItems(text)
	require.Len(t, items, 2)

	assert.Equal(t, "6810-00-286-5435", items[0].NSN)
	require.NotNil(t, items[0].Quantity)
	assert.Equal(t, 40.0, *items[0].Quantity)
	assert.Equal(t, "DR", items[0].Unit)

	assert.Equal(t, "9150-00-252-6383", items[1].NSN)
	require.NotNil(t, items[1].Quantity)
	assert.Equal(t, 12.0, *items[1].Quantity)
	assert.Equal(t, "CN", items[1].Unit)
}

func TestParseLineItemsDedupesRepeatedNSN(t *testing.T) {
	text := "NSN 6810-00-286-5435\nsee also 6810-00-286-5435 above"
	items := ParseLineItems(text)
	assert.Len(t, items, 1)
}

func TestParseLineItemsNoNSN(t *testing.T) {
	assert.Empty(t, ParseLineItems("QTY: 40 with no stock number"))
}
