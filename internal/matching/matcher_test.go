package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalog = []CatalogItem{
	{NSN: "6810-00-286-5435", FSC: "6810"},
	{NSN: "6850-01-441-3219", FSC: "6850"},
	{NSN: "9150-00-252-6383", FSC: "9150"},
}

func TestScoreZeroSignals(t *testing.T) {
	opp := Opportunity{
		SolicitationNumber: "SPE4A6-26-Q-0400",
		Title:              "Aircraft tire assemblies",
		Description:        "Qty 40 main landing gear tires",
		NAICSCode:          "326211",
		SetAsideType:       "None",
	}
	res := Score(opp, testCatalog)
	assert.Zero(t, res.RelevanceScore)
	assert.Nil(t, res.MatchedKeyword)
	assert.Nil(t, res.MatchedFsc)
	assert.Empty(t, res.MatchedNsns)
}

func TestScoreSingleNSN(t *testing.T) {
	// Bare-digit form so the 6810 FSC patterns stay silent.
	opp := Opportunity{
		Title:       "Sodium dichromate requirement",
		Description: "Item: 6810002865435, quantity 12 drums",
	}
	res := Score(opp, testCatalog)
	assert.Equal(t, 75, res.RelevanceScore, "one NSN and nothing else scores 70+5")
	require.NotNil(t, res.MatchedKeyword)
	assert.Equal(t, "NSN:6810-00-286-5435", *res.MatchedKeyword)
	assert.Equal(t, []string{"6810-00-286-5435"}, res.MatchedNsns)
}

// NSN matching is format-insensitive: dashed, bare, and space-separated
// renderings embedded in arbitrary text all hit the same catalog entry.
func TestScoreNSNFormatInsensitive(t *testing.T) {
	forms := []string{
		"see item 6810-00-286-5435 for details",
		"NSN 6810002865435 qty 100",
		"stock number 6810 00 286 5435 packaged per mil-std",
	}
	for _, text := range forms {
		t.Run(text, func(t *testing.T) {
			res := Score(Opportunity{Title: "solicitation", Description: text}, testCatalog)
			assert.Equal(t, []string{"6810-00-286-5435"}, res.MatchedNsns)
			assert.Equal(t, 75, res.RelevanceScore)
		})
	}
}

// The leading four digits of a matched dashed NSN are not an FSC mention,
// but a separate explicit class reference in the same text still is.
func TestScoreDashedNSNSuppressesOwnFSC(t *testing.T) {
	plain := Score(Opportunity{Title: "resupply", Description: "see item 6810-00-286-5435"}, testCatalog)
	assert.Equal(t, 75, plain.RelevanceScore)
	assert.Nil(t, plain.MatchedFsc)

	explicit := Score(Opportunity{Title: "resupply", Description: "ship 6810-00-286-5435 under FSC-6850 packaging"}, testCatalog)
	require.NotNil(t, explicit.MatchedFsc)
	assert.Equal(t, "6850", *explicit.MatchedFsc)
	assert.Equal(t, 100, explicit.RelevanceScore)
}

func TestScoreMonotonicInNSNMatches(t *testing.T) {
	// Build text with an increasing number of distinct catalog NSNs.
	texts := []string{
		"",
		"6810002865435",
		"6810002865435 and 6850014413219",
		"6810002865435 and 6850014413219 and 9150002526383",
	}
	prev := -1
	for n, text := range texts {
		res := Score(Opportunity{Title: "items", Description: text}, testCatalog)
		assert.GreaterOrEqual(t, res.RelevanceScore, prev, "score must not decrease with %d matches", n)
		assert.LessOrEqual(t, res.RelevanceScore, 100)
		prev = res.RelevanceScore
	}
}

func TestScoreNSNExtraCap(t *testing.T) {
	catalog := make([]CatalogItem, 0, 8)
	text := ""
	for i := 0; i < 8; i++ {
		nsn := fmt.Sprintf("6810-00-286-5%03d", i)
		catalog = append(catalog, CatalogItem{NSN: nsn, FSC: ""})
		text += " " + nsn
	}
	res := Score(Opportunity{Title: "bulk hardware lot", Description: text}, catalog)
	assert.Len(t, res.MatchedNsns, 8)
	// 70 + capped 20; many matches approach 90, never exceed it via NSNs alone.
	assert.Equal(t, 90, res.RelevanceScore)
}

func TestScoreDuplicateCatalogNSNCountedOnce(t *testing.T) {
	catalog := []CatalogItem{
		{NSN: "6810-00-286-5435", FSC: "6810"},
		{NSN: "6810002865435", FSC: "6810"},
	}
	res := Score(Opportunity{Description: "6810002865435"}, catalog)
	assert.Equal(t, []string{"6810-00-286-5435"}, res.MatchedNsns)
	assert.Equal(t, 75, res.RelevanceScore)
}

func TestScoreFSCPatterns(t *testing.T) {
	for _, text := range []string{"FSC 6810 applies", "FSC: 6810", "FSC-6810", "class 6810-all items"} {
		t.Run(text, func(t *testing.T) {
			res := Score(Opportunity{Title: "misc", Description: text}, testCatalog)
			require.NotNil(t, res.MatchedFsc)
			assert.Equal(t, "6810", *res.MatchedFsc)
			assert.Equal(t, 25, res.RelevanceScore)
		})
	}
}

func TestScoreKeywordInTitleOnly(t *testing.T) {
	inTitle := Score(Opportunity{Title: "Industrial Solvent, 55 gal"}, testCatalog)
	assert.Equal(t, 10, inTitle.RelevanceScore)
	require.NotNil(t, inTitle.MatchedKeyword)
	assert.Equal(t, "solvent", *inTitle.MatchedKeyword)

	inBodyOnly := Score(Opportunity{Title: "Misc supplies", Description: "includes solvent"}, testCatalog)
	assert.Zero(t, inBodyOnly.RelevanceScore)
}

func TestScoreNAICSAndSetAside(t *testing.T) {
	res := Score(Opportunity{Title: "supplies", NAICSCode: "325998", SetAsideType: "Total Small Business"}, testCatalog)
	assert.Equal(t, 8, res.RelevanceScore)

	none := Score(Opportunity{Title: "supplies", NAICSCode: "325998", SetAsideType: "None"}, testCatalog)
	assert.Equal(t, 5, none.RelevanceScore)
}

func TestScoreAdditiveAndClamped(t *testing.T) {
	opp := Opportunity{
		Title:        "Chemical cleaning compound",
		Description:  "FSC 6810, NSN 6810-00-286-5435",
		NAICSCode:    "325998",
		SetAsideType: "Total Small Business",
	}
	res := Score(opp, testCatalog)
	// 75 (NSN) + 25 (FSC) + 10 (keyword) + 5 (NAICS) + 3 (set-aside) = 118 → 100.
	assert.Equal(t, 100, res.RelevanceScore)
	require.NotNil(t, res.MatchedKeyword)
	assert.Equal(t, "NSN:6810-00-286-5435", *res.MatchedKeyword, "NSN label beats keyword label")
}

func TestScoreFSCPlusSetAside(t *testing.T) {
	opp := Opportunity{
		Title:        "Sodium dichromate",
		Description:  "FSC 6810 per attached drawing",
		SetAsideType: "SBA",
	}
	res := Score(opp, testCatalog)
	assert.Equal(t, 28, res.RelevanceScore)
	assert.Empty(t, res.MatchedNsns)
}

func TestNSNForms(t *testing.T) {
	dashed, stripped, spaced := NSNForms("6810-00-286-5435")
	assert.Equal(t, "6810-00-286-5435", dashed)
	assert.Equal(t, "6810002865435", stripped)
	assert.Equal(t, "6810 00 286 5435", spaced)

	// Bare digits canonicalize to the dashed form.
	dashed, _, _ = NSNForms("6810002865435")
	assert.Equal(t, "6810-00-286-5435", dashed)
}
