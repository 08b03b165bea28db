// Package matching scores external solicitations against the internal
// product catalog for lead qualification. Scoring is a single pass of
// rule-based substring tests; there is no fuzzy or semantic component.
package matching

import "strings"

type CatalogItem struct {
	NSN string
	FSC string
}

type Opportunity struct {
	SolicitationNumber string
	Title              string
	Description        string
	FullDescription    string
	NAICSCode          string
	SetAsideType       string
}

// Result is the wire shape consumed by the opportunity list UI.
type Result struct {
	RelevanceScore int      `json:"relevanceScore"`
	MatchedKeyword *string  `json:"matchedKeyword"`
	MatchedFsc     *string  `json:"matchedFsc"`
	MatchedNsns    []string `json:"matchedNsns"`
}

// Additive score weights, clamped to 100 after summing. One NSN hit scores
// 70+5; additional distinct hits add 5 each up to the 20-point cap.
const (
	nsnBaseScore  = 70
	nsnExtraScore = 5
	nsnExtraCap   = 20
	fscScore      = 25
	keywordScore  = 10
	naicsScore    = 5
	setAsideScore = 3
	maxRelevance  = 100
)

// KeywordRule binds a product keyword to the FSC it usually indicates.
// A hit requires the keyword to appear literally in the solicitation title.
type KeywordRule struct {
	Keyword string
	FSC     string
}

var KeywordRules = []KeywordRule{
	{Keyword: "chemical", FSC: "6810"},
	{Keyword: "solvent", FSC: "6850"},
	{Keyword: "cleaner", FSC: "7930"},
	{Keyword: "cleaning compound", FSC: "7930"},
	{Keyword: "grease", FSC: "9150"},
	{Keyword: "lubricant", FSC: "9150"},
	{Keyword: "adhesive", FSC: "8040"},
	{Keyword: "sealant", FSC: "8030"},
}

// RelevantNAICS lists the industry codes the company actually serves.
var RelevantNAICS = []string{
	"325998", // other miscellaneous chemical product manufacturing
	"325611",
	"325612",
	"325199",
	"324191",
}

// Score evaluates one solicitation against the full catalog text (title,
// description, and any fetched long-form description).
func Score(opp Opportunity, catalog []CatalogItem) Result {
	upper := strings.ToUpper(opp.Title + " " + opp.Description + " " + opp.FullDescription)
	compact := compactText(upper)

	var result Result

	matched := matchNSNs(upper, compact, catalog)
	if len(matched) > 0 {
		result.MatchedNsns = matched
		result.RelevanceScore += nsnBaseScore + min(nsnExtraScore*len(matched), nsnExtraCap)
		// A dashed NSN begins with its own FSC digits. Remove matched NSN
		// text so the bare "XXXX-" class pattern only fires on standalone
		// class mentions.
		upper = withoutNSNs(upper, matched)
	}

	if fsc := matchFSC(upper, catalog); fsc != "" {
		result.MatchedFsc = &fsc
		result.RelevanceScore += fscScore
	}

	keyword := matchKeyword(opp.Title)
	if keyword != "" {
		result.RelevanceScore += keywordScore
	}

	for _, code := range RelevantNAICS {
		if opp.NAICSCode == code {
			result.RelevanceScore += naicsScore
			break
		}
	}

	if opp.SetAsideType != "" && !strings.EqualFold(opp.SetAsideType, "none") {
		result.RelevanceScore += setAsideScore
	}

	if result.RelevanceScore > maxRelevance {
		result.RelevanceScore = maxRelevance
	}

	// Display label prefers the concrete NSN over whatever search term
	// surfaced the record.
	switch {
	case len(matched) > 0:
		label := "NSN:" + matched[0]
		result.MatchedKeyword = &label
	case keyword != "":
		result.MatchedKeyword = &keyword
	}

	return result
}

func matchNSNs(upper, compact string, catalog []CatalogItem) []string {
	var matched []string
	seen := make(map[string]struct{})
	for _, item := range catalog {
		dashed, stripped, spaced := NSNForms(item.NSN)
		if dashed == "" {
			continue
		}
		if _, dup := seen[dashed]; dup {
			continue
		}
		if strings.Contains(upper, dashed) ||
			strings.Contains(upper, spaced) ||
			(stripped != "" && strings.Contains(compact, stripped)) {
			seen[dashed] = struct{}{}
			matched = append(matched, dashed)
		}
	}
	return matched
}

func withoutNSNs(upper string, matched []string) string {
	for _, dashed := range matched {
		upper = strings.ReplaceAll(upper, dashed, " ")
		upper = strings.ReplaceAll(upper, strings.ReplaceAll(dashed, "-", " "), " ")
	}
	return upper
}

func matchFSC(upper string, catalog []CatalogItem) string {
	seen := make(map[string]struct{})
	for _, item := range catalog {
		fsc := strings.TrimSpace(item.FSC)
		if fsc == "" {
			continue
		}
		if _, dup := seen[fsc]; dup {
			continue
		}
		seen[fsc] = struct{}{}

		for _, pattern := range []string{"FSC " + fsc, "FSC: " + fsc, "FSC-" + fsc, fsc + "-"} {
			if strings.Contains(upper, strings.ToUpper(pattern)) {
				return fsc
			}
		}
	}
	return ""
}

func matchKeyword(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range KeywordRules {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Keyword
		}
	}
	return ""
}
