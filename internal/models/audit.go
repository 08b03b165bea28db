package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Actor        string          `json:"actor" db:"actor"`
	Action       string          `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details" db:"details"`
	IPAddress    *string         `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

type LLMUsageLog struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Provider     string     `json:"provider" db:"provider"`
	Model        string     `json:"model" db:"model"`
	InputTokens  int        `json:"input_tokens" db:"input_tokens"`
	OutputTokens int        `json:"output_tokens" db:"output_tokens"`
	TotalTokens  int        `json:"total_tokens" db:"total_tokens"`
	LatencyMs    int64      `json:"latency_ms" db:"latency_ms"`
	DocumentType string     `json:"document_type" db:"document_type"`
	DocumentID   *uuid.UUID `json:"document_id,omitempty" db:"document_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
