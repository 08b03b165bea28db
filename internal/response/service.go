// Package response manages quote responses to RFQ documents, from draft
// through submission, including rendered quote PDFs.
package response

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andretaki/simurgh/internal/models"
	"github.com/andretaki/simurgh/internal/profile"
	"github.com/andretaki/simurgh/internal/storage"
)

// Notifier fans events out to webhook subscribers.
type Notifier interface {
	Dispatch(ctx context.Context, event string, payload interface{}) error
}

type Service struct {
	db      *pgxpool.Pool
	storage storage.Storage
	events  Notifier
	profile *profile.Service
}

func NewService(db *pgxpool.Pool, store storage.Storage, events Notifier, profiles *profile.Service) *Service {
	return &Service{db: db, storage: store, events: events, profile: profiles}
}

const responseColumns = `id, rfq_document_id, response_data, pdf_path, pdf_url, status,
	submitted_at, created_at, updated_at`

func (s *Service) Create(ctx context.Context, documentID *uuid.UUID, data models.ResponseData) (*models.RfqResponse, error) {
	blob, _ := json.Marshal(data)

	var resp models.RfqResponse
	err := s.db.QueryRow(ctx,
		`INSERT INTO rfq_responses (rfq_document_id, response_data, status)
		 VALUES ($1, $2, $3)
		 RETURNING `+responseColumns,
		documentID, blob, models.ResponseStatusDraft,
	).Scan(scanTargets(&resp)...)
	if err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}
	return &resp, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.RfqResponse, error) {
	var resp models.RfqResponse
	err := s.db.QueryRow(ctx,
		`SELECT `+responseColumns+` FROM rfq_responses WHERE id = $1`, id,
	).Scan(scanTargets(&resp)...)
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	return &resp, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]models.RfqResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + responseColumns + ` FROM rfq_responses`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3"
		args = append(args, status, limit, offset)
	} else {
		query += " ORDER BY created_at DESC LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var responses []models.RfqResponse
	for rows.Next() {
		var r models.RfqResponse
		if err := rows.Scan(scanTargets(&r)...); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, nil
}

// Update replaces the draft's response data. Submitted responses are
// immutable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, data models.ResponseData) (*models.RfqResponse, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.ResponseStatusDraft {
		return nil, fmt.Errorf("response %s is %s, only drafts can be edited", id, existing.Status)
	}

	blob, _ := json.Marshal(data)
	var resp models.RfqResponse
	err = s.db.QueryRow(ctx,
		`UPDATE rfq_responses SET response_data = $1, updated_at = now()
		 WHERE id = $2 RETURNING `+responseColumns,
		blob, id,
	).Scan(scanTargets(&resp)...)
	if err != nil {
		return nil, fmt.Errorf("update response: %w", err)
	}
	return &resp, nil
}

// Submit marks the response submitted and stamps the submission time.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (*models.RfqResponse, error) {
	var resp models.RfqResponse
	err := s.db.QueryRow(ctx,
		`UPDATE rfq_responses SET status = $1, submitted_at = $2, updated_at = now()
		 WHERE id = $3 RETURNING `+responseColumns,
		models.ResponseStatusSubmitted, time.Now(), id,
	).Scan(scanTargets(&resp)...)
	if err != nil {
		return nil, fmt.Errorf("submit response: %w", err)
	}

	if s.events != nil {
		payload := map[string]interface{}{"response_id": id, "rfq_document_id": resp.RfqDocumentID}
		if err := s.events.Dispatch(ctx, models.EventResponseSubmitted, payload); err != nil {
			slog.Error("response submitted event dispatch failed", "response_id", id, "error", err)
		}
	}

	return &resp, nil
}

// SetNoBid flags the response as a declined bid.
func (s *Service) SetNoBid(ctx context.Context, id uuid.UUID, reason string) (*models.RfqResponse, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data := models.ParseResponseData(existing.ResponseData)
	data.NoBid = true
	if reason != "" {
		data.NoBidReason = &reason
	}
	blob, _ := json.Marshal(data)

	var resp models.RfqResponse
	err = s.db.QueryRow(ctx,
		`UPDATE rfq_responses SET response_data = $1, updated_at = now()
		 WHERE id = $2 RETURNING `+responseColumns,
		blob, id,
	).Scan(scanTargets(&resp)...)
	if err != nil {
		return nil, fmt.Errorf("set no-bid: %w", err)
	}
	return &resp, nil
}

// GeneratePdf renders the quote, stores it, and saves the storage key and
// public URL on the response.
func (s *Service) GeneratePdf(ctx context.Context, id uuid.UUID) (*models.RfqResponse, error) {
	resp, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prof, err := s.profile.Get(ctx)
	if err != nil {
		// A missing profile still produces a usable quote sheet.
		prof = &models.CompanyProfile{}
	}

	var doc *models.RfqDocument
	if resp.RfqDocumentID != nil {
		doc = s.documentFor(ctx, *resp.RfqDocumentID)
	}

	pdfBytes, err := RenderQuote(prof, doc, models.ParseResponseData(resp.ResponseData))
	if err != nil {
		return nil, fmt.Errorf("render quote pdf: %w", err)
	}

	path := fmt.Sprintf("quotes/%s/%s.pdf", id, time.Now().Format("20060102150405"))
	if err := s.storage.Upload(ctx, path, bytes.NewReader(pdfBytes), "application/pdf"); err != nil {
		return nil, fmt.Errorf("store quote pdf: %w", err)
	}
	url := s.storage.PublicURL(path)

	var updated models.RfqResponse
	err = s.db.QueryRow(ctx,
		`UPDATE rfq_responses SET pdf_path = $1, pdf_url = $2, updated_at = now()
		 WHERE id = $3 RETURNING `+responseColumns,
		path, url, id,
	).Scan(scanTargets(&updated)...)
	if err != nil {
		return nil, fmt.Errorf("save pdf location: %w", err)
	}
	return &updated, nil
}

func (s *Service) documentFor(ctx context.Context, docID uuid.UUID) *models.RfqDocument {
	var doc models.RfqDocument
	err := s.db.QueryRow(ctx,
		`SELECT id, file_name, rfq_number, due_date, extracted_fields
		 FROM rfq_documents WHERE id = $1`, docID,
	).Scan(&doc.ID, &doc.FileName, &doc.RfqNumber, &doc.DueDate, &doc.ExtractedFields)
	if err != nil {
		slog.Warn("quote pdf rendered without document context", "document_id", docID, "error", err)
		return nil
	}
	return &doc
}

func scanTargets(r *models.RfqResponse) []interface{} {
	return []interface{}{
		&r.ID, &r.RfqDocumentID, &r.ResponseData, &r.PdfPath, &r.PdfURL,
		&r.Status, &r.SubmittedAt, &r.CreatedAt, &r.UpdatedAt,
	}
}
