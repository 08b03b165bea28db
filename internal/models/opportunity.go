package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CatalogItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	NSN         string    `json:"nsn" db:"nsn"`
	FSC         string    `json:"fsc" db:"fsc"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SamOpportunity mirrors an external SAM.gov solicitation, keyed uniquely
// by its solicitation number.
type SamOpportunity struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	SolicitationNumber string          `json:"solicitation_number" db:"solicitation_number"`
	Title              string          `json:"title" db:"title"`
	Description        string          `json:"description" db:"description"`
	FullDescription    string          `json:"full_description,omitempty" db:"full_description"`
	NAICSCode          string          `json:"naics_code" db:"naics_code"`
	SetAsideType       string          `json:"set_aside_type" db:"set_aside_type"`
	PostedDate         *time.Time      `json:"posted_date,omitempty" db:"posted_date"`
	ResponseDeadline   *time.Time      `json:"response_deadline,omitempty" db:"response_deadline"`
	RelevanceScore     int             `json:"relevance_score" db:"relevance_score"`
	MatchedKeyword     *string         `json:"matched_keyword,omitempty" db:"matched_keyword"`
	MatchedFsc         *string         `json:"matched_fsc,omitempty" db:"matched_fsc"`
	MatchedNsns        json.RawMessage `json:"matched_nsns,omitempty" db:"matched_nsns"`
	ParsedQuantity     *float64        `json:"parsed_quantity,omitempty" db:"parsed_quantity"`
	ParsedLineItems    json.RawMessage `json:"parsed_line_items,omitempty" db:"parsed_line_items"`
	UILink             string          `json:"ui_link,omitempty" db:"ui_link"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}
