package samgov

import (
	"regexp"
	"strconv"
	"strings"
)

// LineItem is a naive extraction of one requirement line from a
// solicitation description.
type LineItem struct {
	NSN      string   `json:"nsn"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
}

var (
	qtyLabelPattern = regexp.MustCompile(`(?i)(?:qty|quantity)[\s:.-]*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	qtyUnitPattern  = regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]+)?)\s*(ea|each|dr|drum|drums|cn|can|cans|gl|gal|gallon|gallons|bt|bottle|bottles|kt|kit|kits|lb|lbs|pounds)\b`)
	nsnPattern      = regexp.MustCompile(`\b(\d{4})[- ]?(\d{2})[- ]?(\d{3})[- ]?(\d{4})\b`)
)

// ParseQuantity pulls the first plausible order quantity out of free text.
// Labeled quantities ("QTY: 40") win over bare number-unit pairs.
func ParseQuantity(text string) *float64 {
	if m := qtyLabelPattern.FindStringSubmatch(text); len(m) > 1 {
		if v, ok := parseNumber(m[1]); ok {
			return &v
		}
	}
	if m := qtyUnitPattern.FindStringSubmatch(text); len(m) > 1 {
		if v, ok := parseNumber(m[1]); ok {
			return &v
		}
	}
	return nil
}

// ParseLineItems scans the text line by line for NSN references and pairs
// each with a quantity found on the same line, when present.
func ParseLineItems(text string) []LineItem {
	var items []LineItem
	seen := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		m := nsnPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		nsn := m[1] + "-" + m[2] + "-" + m[3] + "-" + m[4]
		if _, dup := seen[nsn]; dup {
			continue
		}
		seen[nsn] = struct{}{}

		item := LineItem{NSN: nsn}
		rest := strings.Replace(line, m[0], "", 1)
		if um := qtyUnitPattern.FindStringSubmatch(rest); len(um) > 2 {
			if v, ok := parseNumber(um[1]); ok {
				item.Quantity = &v
				item.Unit = normalizeUnit(um[2])
			}
		} else if qm := qtyLabelPattern.FindStringSubmatch(rest); len(qm) > 1 {
			if v, ok := parseNumber(qm[1]); ok {
				item.Quantity = &v
			}
		}
		items = append(items, item)
	}
	return items
}

func parseNumber(token string) (float64, bool) {
	compact := strings.ReplaceAll(token, ",", "")
	v, err := strconv.ParseFloat(compact, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func normalizeUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "ea", "each":
		return "EA"
	case "dr", "drum", "drums":
		return "DR"
	case "cn", "can", "cans":
		return "CN"
	case "gl", "gal", "gallon", "gallons":
		return "GL"
	case "bt", "bottle", "bottles":
		return "BT"
	case "kt", "kit", "kits":
		return "KT"
	case "lb", "lbs", "pounds":
		return "LB"
	default:
		return strings.ToUpper(unit)
	}
}
