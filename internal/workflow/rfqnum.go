package workflow

import (
	"strings"

	"github.com/andretaki/simurgh/internal/models"
)

// RFQ numbers show up in cosmetically different forms across documents:
// a vendor-visible "821 - 36208263" against a PO's bare "36208263".
// Matching is exact first, then falls back to a digit-only suffix match in
// either direction, so the prefixed form finds the bare one and vice versa.
// The fallback is inherently ambiguous when two RFQs share a numeric
// suffix; the first candidate in insertion order wins.

func NormalizeRfqNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchDocumentByNumber resolves an RFQ number against candidate documents,
// which must be in insertion (database) order. Returns nil when no document
// carries a usable number or nothing matches.
func MatchDocumentByNumber(docs []models.RfqDocument, rfqNumber string) *models.RfqDocument {
	want := NormalizeRfqNumber(rfqNumber)
	if want == "" {
		return nil
	}

	for i := range docs {
		if num := documentRfqNumber(&docs[i]); num != "" && NormalizeRfqNumber(num) == want {
			return &docs[i]
		}
	}

	wantDigits := DigitsOnly(want)
	if wantDigits == "" {
		return nil
	}
	for i := range docs {
		if num := documentRfqNumber(&docs[i]); num != "" && digitsSuffixMatch(DigitsOnly(num), wantDigits) {
			return &docs[i]
		}
	}
	return nil
}

// digitsSuffixMatch reports whether one digit string ends with the other.
// Both sides must be non-empty.
func digitsSuffixMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}

// documentRfqNumber prefers the denormalized column over the extracted blob.
func documentRfqNumber(doc *models.RfqDocument) string {
	if doc.RfqNumber != nil && *doc.RfqNumber != "" {
		return *doc.RfqNumber
	}
	if n := models.ParseRfqFields(doc.ExtractedFields).RfqNumber; n != nil {
		return *n
	}
	return ""
}

// orderRfqNumber prefers the denormalized column over the extracted blob.
func orderRfqNumber(order *models.GovernmentOrder) string {
	if order.RfqNumber != nil && *order.RfqNumber != "" {
		return *order.RfqNumber
	}
	if n := models.ParseOrderFields(order.ExtractedData).RfqNumber; n != nil {
		return *n
	}
	return ""
}
