package models

import (
	"encoding/json"
	"strings"
	"time"
)

// RfqFields is the typed view of an RfqDocument's extracted_fields blob.
// LLM output shape drifts, so every field is optional; absent means unknown.
type RfqFields struct {
	RfqNumber         *string         `json:"rfq_number,omitempty"`
	DueDate           *string         `json:"due_date,omitempty"`
	ContractingOffice *string         `json:"contracting_office,omitempty"`
	BuyerName         *string         `json:"buyer_name,omitempty"`
	BuyerEmail        *string         `json:"buyer_email,omitempty"`
	BuyerPhone        *string         `json:"buyer_phone,omitempty"`
	SetAside          *string         `json:"set_aside,omitempty"`
	DeliveryDays      *int            `json:"delivery_days,omitempty"`
	LineItems         []RfqLineItem   `json:"line_items,omitempty"`
	Mail              *MailProvenance `json:"mail,omitempty"`
}

type RfqLineItem struct {
	NSN         *string  `json:"nsn,omitempty"`
	Description *string  `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
}

// MailProvenance records where a mailbox-ingested document came from.
type MailProvenance struct {
	MessageID  string     `json:"message_id"`
	Sender     string     `json:"sender,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

// OrderFields is the typed view of a GovernmentOrder's extracted_data blob.
type OrderFields struct {
	PoNumber           *string  `json:"po_number,omitempty"`
	RfqNumber          *string  `json:"rfq_number,omitempty"`
	NSN                *string  `json:"nsn,omitempty"`
	ProductDescription *string  `json:"product_description,omitempty"`
	Quantity           *float64 `json:"quantity,omitempty"`
	UnitPrice          *float64 `json:"unit_price,omitempty"`
	TotalPrice         *float64 `json:"total_price,omitempty"`
	DeliveryDate       *string  `json:"delivery_date,omitempty"`
	ShipTo             *string  `json:"ship_to,omitempty"`
}

// ResponseData is the typed view of an RfqResponse's response_data blob.
// NoBid is an application-level flag, not a status enum value.
type ResponseData struct {
	NoBid       bool            `json:"no_bid,omitempty"`
	NoBidReason *string         `json:"no_bid_reason,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	LineItems   []QuoteLineItem `json:"line_items,omitempty"`
}

type QuoteLineItem struct {
	NSN         *string  `json:"nsn,omitempty"`
	Description *string  `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Total       *float64 `json:"total,omitempty"`
}

// ParseRfqFields decodes the blob best-effort. Malformed JSON yields the
// zero value: unknown fields must never fail a read path.
func ParseRfqFields(raw json.RawMessage) RfqFields {
	var f RfqFields
	if len(raw) == 0 {
		return f
	}
	_ = json.Unmarshal(raw, &f)
	return f
}

func ParseOrderFields(raw json.RawMessage) OrderFields {
	var f OrderFields
	if len(raw) == 0 {
		return f
	}
	_ = json.Unmarshal(raw, &f)
	return f
}

func ParseResponseData(raw json.RawMessage) ResponseData {
	var d ResponseData
	if len(raw) == 0 {
		return d
	}
	_ = json.Unmarshal(raw, &d)
	return d
}

var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
}

// ParsedDueDate interprets the extracted due date string, trying the formats
// LLMs actually emit. Returns nil when absent or unparseable.
func (f RfqFields) ParsedDueDate() *time.Time {
	if f.DueDate == nil {
		return nil
	}
	s := strings.TrimSpace(*f.DueDate)
	if s == "" {
		return nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
