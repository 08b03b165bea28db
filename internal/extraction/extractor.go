package extraction

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/models"
)

// Completer is the gateway surface the extractor needs.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// UsageRecorder persists per-call token usage. Optional.
type UsageRecorder interface {
	RecordLLMUsage(ctx context.Context, entry models.LLMUsageLog) error
}

// ErrNoJSON is returned when the model reply contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

// Documents run well past context limits; keep the prompt bounded.
const maxPromptChars = 24000

const rfqSystemPrompt = `You extract structured data from U.S. government Request for Quote (RFQ) documents.
Reply with a single JSON object and nothing else. Use null for any field not present in the document.
Schema:
{
  "rfq_number": string|null,
  "due_date": string|null (ISO 8601 date),
  "contracting_office": string|null,
  "buyer_name": string|null,
  "buyer_email": string|null,
  "buyer_phone": string|null,
  "set_aside": string|null,
  "delivery_days": integer|null,
  "line_items": [{"nsn": string|null, "description": string|null, "quantity": number|null, "unit": string|null}]
}`

const orderSystemPrompt = `You extract structured data from U.S. government purchase order documents.
Reply with a single JSON object and nothing else. Use null for any field not present in the document.
Schema:
{
  "po_number": string|null,
  "rfq_number": string|null,
  "nsn": string|null,
  "product_description": string|null,
  "quantity": number|null,
  "unit_price": number|null,
  "total_price": number|null,
  "delivery_date": string|null (ISO 8601 date),
  "ship_to": string|null
}`

// Extractor turns document text into typed field structs.
type Extractor struct {
	gw       Completer
	recorder UsageRecorder
}

func NewExtractor(gw Completer, recorder UsageRecorder) *Extractor {
	return &Extractor{gw: gw, recorder: recorder}
}

// ExtractRfqFields asks the model for RFQ fields. Absent fields stay nil;
// an error means the call or the reply's JSON framing failed, not that a
// particular field was missing.
func (e *Extractor) ExtractRfqFields(ctx context.Context, text string, documentID *uuid.UUID) (models.RfqFields, error) {
	raw, err := e.complete(ctx, rfqSystemPrompt, text, "rfq", documentID)
	if err != nil {
		return models.RfqFields{}, err
	}
	return models.ParseRfqFields(raw), nil
}

func (e *Extractor) ExtractOrderFields(ctx context.Context, text string, documentID *uuid.UUID) (models.OrderFields, error) {
	raw, err := e.complete(ctx, orderSystemPrompt, text, "order", documentID)
	if err != nil {
		return models.OrderFields{}, err
	}
	return models.ParseOrderFields(raw), nil
}

func (e *Extractor) complete(ctx context.Context, system, text, docType string, documentID *uuid.UUID) ([]byte, error) {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	resp, err := e.gw.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, err
	}

	e.recordUsage(ctx, resp, docType, documentID)

	raw, ok := ExtractJSON(resp.Content)
	if !ok {
		return nil, ErrNoJSON
	}
	return raw, nil
}

func (e *Extractor) recordUsage(ctx context.Context, resp *CompletionResponse, docType string, documentID *uuid.UUID) {
	if e.recorder == nil {
		return
	}
	err := e.recorder.RecordLLMUsage(ctx, models.LLMUsageLog{
		Provider:     resp.Provider,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		TotalTokens:  resp.TotalTokens,
		LatencyMs:    resp.LatencyMs,
		DocumentType: docType,
		DocumentID:   documentID,
	})
	if err != nil {
		slog.Error("failed to record LLM usage", "error", err)
	}
}
