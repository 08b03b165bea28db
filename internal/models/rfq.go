package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type RfqDocument struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	FileName        string          `json:"file_name" db:"file_name"`
	FilePath        string          `json:"file_path,omitempty" db:"file_path"`
	FileType        string          `json:"file_type,omitempty" db:"file_type"`
	FileSizeBytes   int64           `json:"file_size_bytes,omitempty" db:"file_size_bytes"`
	Source          string          `json:"source" db:"source"`
	RawText         string          `json:"-" db:"raw_text"`
	ExtractedFields json.RawMessage `json:"extracted_fields" db:"extracted_fields"`
	RfqNumber       *string         `json:"rfq_number,omitempty" db:"rfq_number"`
	DueDate         *time.Time      `json:"due_date,omitempty" db:"due_date"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

type RfqResponse struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	RfqDocumentID *uuid.UUID      `json:"rfq_document_id,omitempty" db:"rfq_document_id"`
	ResponseData  json.RawMessage `json:"response_data" db:"response_data"`
	PdfPath       *string         `json:"pdf_path,omitempty" db:"pdf_path"`
	PdfURL        *string         `json:"pdf_url,omitempty" db:"pdf_url"`
	Status        string          `json:"status" db:"status"`
	SubmittedAt   *time.Time      `json:"submitted_at,omitempty" db:"submitted_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

const (
	RfqSourceUpload  = "upload"
	RfqSourceMailbox = "mailbox"
)

// Extraction statuses. "processing" is only valid while an extraction
// attempt is in flight; every attempt must end on a terminal value.
const (
	RfqStatusProcessing       = "processing"
	RfqStatusProcessed        = "processed"
	RfqStatusExtractionFailed = "extraction_failed"
	RfqStatusFailed           = "failed"
)

const (
	ResponseStatusDraft     = "draft"
	ResponseStatusSubmitted = "submitted"
	ResponseStatusCompleted = "completed"
)
