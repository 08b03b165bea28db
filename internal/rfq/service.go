// Package rfq manages incoming RFQ documents from upload through field
// extraction.
package rfq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andretaki/simurgh/internal/extraction"
	"github.com/andretaki/simurgh/internal/models"
	"github.com/andretaki/simurgh/internal/storage"
	"github.com/andretaki/simurgh/pkg/textextract"
)

// Enqueuer schedules background extraction for a stored document.
type Enqueuer interface {
	EnqueueRfqExtract(ctx context.Context, documentID uuid.UUID) error
}

// Notifier fans events out to webhook subscribers.
type Notifier interface {
	Dispatch(ctx context.Context, event string, payload interface{}) error
}

type Service struct {
	db        *pgxpool.Pool
	storage   storage.Storage
	queue     Enqueuer
	events    Notifier
	extractor *extraction.Extractor
}

func NewService(db *pgxpool.Pool, store storage.Storage, queue Enqueuer, events Notifier, extractor *extraction.Extractor) *Service {
	return &Service{db: db, storage: store, queue: queue, events: events, extractor: extractor}
}

type UploadRequest struct {
	FileName string
	FileType string
	FileSize int64
	Source   string
	Data     io.Reader
}

const documentColumns = `id, file_name, file_path, file_type, file_size_bytes, source,
	raw_text, extracted_fields, rfq_number, due_date, status, created_at, updated_at`

// Upload stores the file, inserts a processing row, and schedules
// extraction.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.RfqDocument, error) {
	if req.Source == "" {
		req.Source = models.RfqSourceUpload
	}

	docID := uuid.New()
	path := fmt.Sprintf("rfq/%s/%s%s", docID, time.Now().Format("20060102"), req.FileType)

	if err := s.storage.Upload(ctx, path, req.Data, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	var doc models.RfqDocument
	err := s.db.QueryRow(ctx,
		`INSERT INTO rfq_documents (id, file_name, file_path, file_type, file_size_bytes, source, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+documentColumns,
		docID, req.FileName, path, req.FileType, req.FileSize, req.Source, models.RfqStatusProcessing,
	).Scan(scanTargets(&doc)...)
	if err != nil {
		return nil, fmt.Errorf("insert rfq document: %w", err)
	}

	if err := s.queue.EnqueueRfqExtract(ctx, docID); err != nil {
		_ = s.UpdateStatus(ctx, docID, models.RfqStatusFailed)
		return nil, fmt.Errorf("enqueue extraction: %w", err)
	}

	return &doc, nil
}

// IngestMail stores a mailbox attachment as a new document, stamping the
// message provenance into the fields blob before extraction runs.
func (s *Service) IngestMail(ctx context.Context, req UploadRequest, prov models.MailProvenance) (*models.RfqDocument, error) {
	docID := uuid.New()
	path := fmt.Sprintf("rfq/%s/%s%s", docID, time.Now().Format("20060102"), req.FileType)

	if err := s.storage.Upload(ctx, path, req.Data, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	blob, _ := json.Marshal(models.RfqFields{Mail: &prov})

	var doc models.RfqDocument
	err := s.db.QueryRow(ctx,
		`INSERT INTO rfq_documents (id, file_name, file_path, file_type, file_size_bytes, source, extracted_fields, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+documentColumns,
		docID, req.FileName, path, req.FileType, req.FileSize, models.RfqSourceMailbox, blob, models.RfqStatusProcessing,
	).Scan(scanTargets(&doc)...)
	if err != nil {
		return nil, fmt.Errorf("insert rfq document: %w", err)
	}

	if err := s.queue.EnqueueRfqExtract(ctx, docID); err != nil {
		_ = s.UpdateStatus(ctx, docID, models.RfqStatusFailed)
		return nil, fmt.Errorf("enqueue extraction: %w", err)
	}

	return &doc, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.RfqDocument, error) {
	var doc models.RfqDocument
	err := s.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM rfq_documents WHERE id = $1`, id,
	).Scan(scanTargets(&doc)...)
	if err != nil {
		return nil, fmt.Errorf("get rfq document: %w", err)
	}
	return &doc, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]models.RfqDocument, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + documentColumns + ` FROM rfq_documents`
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
		return nil, fmt.Errorf("list rfq documents: %w", err)
	}
	defer rows.Close()

	var docs []models.RfqDocument
	for rows.Next() {
		var d models.RfqDocument
		if err := rows.Scan(scanTargets(&d)...); err != nil {
			return nil, fmt.Errorf("scan rfq document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if doc.FilePath != "" {
		_ = s.storage.Delete(ctx, doc.FilePath)
	}

	_, err = s.db.Exec(ctx, "DELETE FROM rfq_documents WHERE id = $1", id)
	return err
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.db.Exec(ctx,
		"UPDATE rfq_documents SET status = $1, updated_at = now() WHERE id = $2", status, id)
	return err
}

// Reprocess re-queues extraction for a document that already has a file.
func (s *Service) Reprocess(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.UpdateStatus(ctx, id, models.RfqStatusProcessing); err != nil {
		return err
	}
	if err := s.queue.EnqueueRfqExtract(ctx, id); err != nil {
		_ = s.UpdateStatus(ctx, id, models.RfqStatusFailed)
		return fmt.Errorf("enqueue extraction: %w", err)
	}
	return nil
}

// Process runs the extraction pipeline for one document. It always leaves
// the row on a terminal status.
func (s *Service) Process(ctx context.Context, id uuid.UUID) error {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	text, err := s.documentText(ctx, doc)
	if err != nil {
		slog.Error("rfq text extraction failed", "document_id", id, "error", err)
		return s.UpdateStatus(ctx, id, models.RfqStatusFailed)
	}

	fields, err := s.extractor.ExtractRfqFields(ctx, text, &doc.ID)
	if err != nil {
		slog.Error("rfq field extraction failed", "document_id", id, "error", err)
		_, uerr := s.db.Exec(ctx,
			`UPDATE rfq_documents SET raw_text = $1, status = $2, updated_at = now() WHERE id = $3`,
			text, models.RfqStatusExtractionFailed, id)
		return uerr
	}

	// Mailbox provenance rides in the blob; keep it through re-extraction.
	if prior := models.ParseRfqFields(doc.ExtractedFields); prior.Mail != nil {
		fields.Mail = prior.Mail
	}

	blob, _ := json.Marshal(fields)
	_, err = s.db.Exec(ctx,
		`UPDATE rfq_documents
		 SET raw_text = $1, extracted_fields = $2, rfq_number = $3, due_date = $4,
		     status = $5, updated_at = now()
		 WHERE id = $6`,
		text, blob, fields.RfqNumber, fields.ParsedDueDate(), models.RfqStatusProcessed, id)
	if err != nil {
		return fmt.Errorf("save extracted fields: %w", err)
	}

	if s.events != nil {
		payload := map[string]interface{}{"document_id": id, "rfq_number": fields.RfqNumber}
		if err := s.events.Dispatch(ctx, models.EventRfqProcessed, payload); err != nil {
			slog.Error("rfq processed event dispatch failed", "document_id", id, "error", err)
		}
	}

	slog.Info("rfq document processed", "document_id", id, "rfq_number", fields.RfqNumber)
	return nil
}

func (s *Service) documentText(ctx context.Context, doc *models.RfqDocument) (string, error) {
	body, err := s.storage.Download(ctx, doc.FilePath)
	if err != nil {
		return "", fmt.Errorf("download document: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	result, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), doc.FileType)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func scanTargets(d *models.RfqDocument) []interface{} {
	return []interface{}{
		&d.ID, &d.FileName, &d.FilePath, &d.FileType, &d.FileSizeBytes, &d.Source,
		&d.RawText, &d.ExtractedFields, &d.RfqNumber, &d.DueDate, &d.Status,
		&d.CreatedAt, &d.UpdatedAt,
	}
}
