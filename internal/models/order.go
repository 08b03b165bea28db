package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type GovernmentOrder struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	PoNumber           *string         `json:"po_number,omitempty" db:"po_number"`
	RfqNumber          *string         `json:"rfq_number,omitempty" db:"rfq_number"`
	ProductDescription *string         `json:"product_description,omitempty" db:"product_description"`
	NSN                *string         `json:"nsn,omitempty" db:"nsn"`
	Quantity           *float64        `json:"quantity,omitempty" db:"quantity"`
	UnitPrice          *float64        `json:"unit_price,omitempty" db:"unit_price"`
	TotalPrice         *float64        `json:"total_price,omitempty" db:"total_price"`
	ExtractedData      json.RawMessage `json:"extracted_data" db:"extracted_data"`
	FilePath           *string         `json:"file_path,omitempty" db:"file_path"`
	RfqDocumentID      *uuid.UUID      `json:"rfq_document_id,omitempty" db:"rfq_document_id"`
	Status             string          `json:"status" db:"status"`
	Stage              *string         `json:"stage,omitempty" db:"stage"`
	ShippedAt          *time.Time      `json:"shipped_at,omitempty" db:"shipped_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// GovernmentOrderRfqLink is the authoritative order↔RFQ association.
// GovernmentOrder.RfqDocumentID is a denormalized projection of it and is
// only ever written in the same transaction as a junction row.
type GovernmentOrderRfqLink struct {
	GovernmentOrderID uuid.UUID `json:"government_order_id" db:"government_order_id"`
	RfqDocumentID     uuid.UUID `json:"rfq_document_id" db:"rfq_document_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

type QualitySheet struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	GovernmentOrderID uuid.UUID       `json:"government_order_id" db:"government_order_id"`
	LotNumber         string          `json:"lot_number" db:"lot_number"`
	CoaData           json.RawMessage `json:"coa_data" db:"coa_data"`
	VerifiedBy        *string         `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt        *time.Time      `json:"verified_at,omitempty" db:"verified_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

type GeneratedLabel struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	GovernmentOrderID uuid.UUID  `json:"government_order_id" db:"government_order_id"`
	LabelType         string     `json:"label_type" db:"label_type"`
	FilePath          *string    `json:"file_path,omitempty" db:"file_path"`
	VerifiedBy        *string    `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// Fulfillment stages. A nil stage means the order was received but
// fulfillment has not started.
const (
	OrderStageReceived   = "received"
	OrderStageVerified   = "verified"
	OrderStageSourcing   = "sourcing"
	OrderStageFulfilling = "fulfilling"
	OrderStageQC         = "qc"
	OrderStageShip       = "ship"
	OrderStageClosed     = "closed"
)
