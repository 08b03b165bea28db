package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Webhook struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	URL       string          `json:"url" db:"url"`
	Secret    string          `json:"secret,omitempty" db:"secret"`
	Events    json.RawMessage `json:"events" db:"events"`
	Active    bool            `json:"active" db:"active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

const (
	EventRfqProcessed      = "rfq.processed"
	EventResponseSubmitted = "response.submitted"
	EventOrderStageChanged = "order.stage_changed"
)
