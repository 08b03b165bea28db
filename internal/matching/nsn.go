package matching

import "strings"

// A catalog NSN is matched in three textual forms: canonical dashed
// (XXXX-XX-XXX-XXXX), dash-stripped, and space-separated, since buyers embed
// any of the three in solicitation text.

// NSNForms renders the three match forms for a catalog NSN. Inputs that do
// not strip to 13 digits are kept close to verbatim.
func NSNForms(nsn string) (dashed, stripped, spaced string) {
	stripped = digitsOf(nsn)
	if len(stripped) == 13 {
		dashed = stripped[0:4] + "-" + stripped[4:6] + "-" + stripped[6:9] + "-" + stripped[9:13]
		spaced = stripped[0:4] + " " + stripped[4:6] + " " + stripped[6:9] + " " + stripped[9:13]
		return dashed, stripped, spaced
	}

	dashed = strings.ToUpper(strings.TrimSpace(nsn))
	spaced = strings.ReplaceAll(dashed, "-", " ")
	stripped = strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, dashed)
	return dashed, stripped, spaced
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// compactText uppercases and drops everything non-alphanumeric, so the
// dash-stripped NSN form matches regardless of the punctuation the
// solicitation used.
func compactText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
