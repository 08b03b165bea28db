package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	raw, ok := ExtractJSON(`{"rfq_number": "SPE4A6-26-Q-0400"}`)
	require.True(t, ok)
	assert.JSONEq(t, `{"rfq_number": "SPE4A6-26-Q-0400"}`, string(raw))
}

func TestExtractJSONCodeFence(t *testing.T) {
	content := "```json\n{\"po_number\": \"SPE4A6-26-V-1001\"}\n```"
	raw, ok := ExtractJSON(content)
	require.True(t, ok)
	assert.JSONEq(t, `{"po_number": "SPE4A6-26-V-1001"}`, string(raw))
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	content := `Here is the extracted data:

{"rfq_number": "W52P1J-26-R-0012", "due_date": "2026-07-01"}

Let me know if you need anything else.`
	raw, ok := ExtractJSON(content)
	require.True(t, ok)
	assert.JSONEq(t, `{"rfq_number": "W52P1J-26-R-0012", "due_date": "2026-07-01"}`, string(raw))
}

func TestExtractJSONNestedObjects(t *testing.T) {
	content := `{"line_items": [{"nsn": "6810-00-286-5435", "quantity": 40}], "due_date": null}`
	raw, ok := ExtractJSON(content)
	require.True(t, ok)
	assert.Contains(t, string(raw), "6810-00-286-5435")
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	content := `{"notes": "see {bracket} and \"quoted\" text", "qty": 1}`
	raw, ok := ExtractJSON(content)
	require.True(t, ok)
	assert.JSONEq(t, content, string(raw))
}

func TestExtractJSONNone(t *testing.T) {
	_, ok := ExtractJSON("I could not find any structured data in this document.")
	assert.False(t, ok)

	_, ok = ExtractJSON(`{"unterminated": true`)
	assert.False(t, ok)
}
