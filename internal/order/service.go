// Package order manages government purchase orders through fulfillment:
// PO ingestion, stage transitions, RFQ linking, quality sheets, and labels.
package order

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

// Enqueuer schedules background extraction for a stored PO file.
type Enqueuer interface {
	EnqueueOrderExtract(ctx context.Context, orderID uuid.UUID) error
}

// Notifier fans events out to webhook subscribers.
type Notifier interface {
	Dispatch(ctx context.Context, event string, payload interface{}) error
}

// Linker writes the order-to-RFQ association transactionally.
type Linker interface {
	Link(ctx context.Context, orderID, documentID uuid.UUID) (bool, error)
}

type Service struct {
	db        *pgxpool.Pool
	storage   storage.Storage
	queue     Enqueuer
	events    Notifier
	linker    Linker
	extractor *extraction.Extractor
}

func NewService(db *pgxpool.Pool, store storage.Storage, queue Enqueuer, events Notifier, linker Linker, extractor *extraction.Extractor) *Service {
	return &Service{db: db, storage: store, queue: queue, events: events, linker: linker, extractor: extractor}
}

const orderColumns = `id, po_number, rfq_number, product_description, nsn, quantity,
	unit_price, total_price, extracted_data, file_path, rfq_document_id, status,
	stage, shipped_at, created_at, updated_at`

var stageRank = map[string]int{
	models.OrderStageReceived:   0,
	models.OrderStageVerified:   1,
	models.OrderStageSourcing:   2,
	models.OrderStageFulfilling: 3,
	models.OrderStageQC:         4,
	models.OrderStageShip:       5,
	models.OrderStageClosed:     6,
}

type CreateRequest struct {
	PoNumber           *string  `json:"po_number"`
	RfqNumber          *string  `json:"rfq_number"`
	NSN                *string  `json:"nsn"`
	ProductDescription *string  `json:"product_description"`
	Quantity           *float64 `json:"quantity"`
	UnitPrice          *float64 `json:"unit_price"`
	TotalPrice         *float64 `json:"total_price"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.GovernmentOrder, error) {
	var o models.GovernmentOrder
	err := s.db.QueryRow(ctx,
		`INSERT INTO government_orders (po_number, rfq_number, nsn, product_description, quantity, unit_price, total_price, status, stage)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', $8)
		 RETURNING `+orderColumns,
		req.PoNumber, req.RfqNumber, req.NSN, req.ProductDescription,
		req.Quantity, req.UnitPrice, req.TotalPrice, models.OrderStageReceived,
	).Scan(scanTargets(&o)...)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return &o, nil
}

type UploadRequest struct {
	FileName string
	FileType string
	Data     io.Reader
}

// Upload stores a PO file, inserts a processing row, and schedules
// extraction.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.GovernmentOrder, error) {
	orderID := uuid.New()
	path := fmt.Sprintf("po/%s/%s%s", orderID, time.Now().Format("20060102"), req.FileType)

	if err := s.storage.Upload(ctx, path, req.Data, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	var o models.GovernmentOrder
	err := s.db.QueryRow(ctx,
		`INSERT INTO government_orders (id, file_path, status, stage)
		 VALUES ($1, $2, 'processing', $3)
		 RETURNING `+orderColumns,
		orderID, path, models.OrderStageReceived,
	).Scan(scanTargets(&o)...)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := s.queue.EnqueueOrderExtract(ctx, orderID); err != nil {
		_, _ = s.db.Exec(ctx, "UPDATE government_orders SET status = 'failed', updated_at = now() WHERE id = $1", orderID)
		return nil, fmt.Errorf("enqueue extraction: %w", err)
	}

	return &o, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.GovernmentOrder, error) {
	var o models.GovernmentOrder
	err := s.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM government_orders WHERE id = $1`, id,
	).Scan(scanTargets(&o)...)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (s *Service) List(ctx context.Context, stage string, limit, offset int) ([]models.GovernmentOrder, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + orderColumns + ` FROM government_orders`
	args := []interface{}{}
	if stage != "" {
		query += " WHERE stage = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3"
		args = append(args, stage, limit, offset)
	} else {
		query += " ORDER BY created_at DESC LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.GovernmentOrder
	for rows.Next() {
		var o models.GovernmentOrder
		if err := rows.Scan(scanTargets(&o)...); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// SetStage advances the fulfillment stage. Moves backward are rejected so a
// closed order cannot quietly reopen.
func (s *Service) SetStage(ctx context.Context, id uuid.UUID, stage string) (*models.GovernmentOrder, error) {
	newRank, ok := stageRank[stage]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}

	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Stage != nil {
		if cur, ok := stageRank[*order.Stage]; ok && newRank < cur {
			return nil, fmt.Errorf("cannot move stage backward from %s to %s", *order.Stage, stage)
		}
	}

	_, err = s.db.Exec(ctx,
		"UPDATE government_orders SET stage = $1, updated_at = now() WHERE id = $2", stage, id)
	if err != nil {
		return nil, fmt.Errorf("update stage: %w", err)
	}

	if s.events != nil {
		payload := map[string]interface{}{"order_id": id, "stage": stage, "po_number": order.PoNumber}
		if err := s.events.Dispatch(ctx, models.EventOrderStageChanged, payload); err != nil {
			slog.Error("stage change event dispatch failed", "order_id", id, "error", err)
		}
	}

	return s.GetByID(ctx, id)
}

// MarkShipped stamps the shipment timestamp. Stage is moved to ship if
// fulfillment had not reached it yet.
func (s *Service) MarkShipped(ctx context.Context, id uuid.UUID, shippedAt time.Time) (*models.GovernmentOrder, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stage := models.OrderStageShip
	if order.Stage != nil && stageRank[*order.Stage] > stageRank[models.OrderStageShip] {
		stage = *order.Stage
	}

	_, err = s.db.Exec(ctx,
		"UPDATE government_orders SET shipped_at = $1, stage = $2, updated_at = now() WHERE id = $3",
		shippedAt, stage, id)
	if err != nil {
		return nil, fmt.Errorf("mark shipped: %w", err)
	}
	return s.GetByID(ctx, id)
}

// LinkToRfq associates the order with an RFQ document.
func (s *Service) LinkToRfq(ctx context.Context, orderID, documentID uuid.UUID) (bool, error) {
	return s.linker.Link(ctx, orderID, documentID)
}

// Process runs extraction for an uploaded PO file and fills the order's
// structured columns. The row always lands on a terminal status.
func (s *Service) Process(ctx context.Context, id uuid.UUID) error {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order.FilePath == nil || *order.FilePath == "" {
		return fmt.Errorf("order %s has no file to extract", id)
	}

	text, err := s.orderText(ctx, *order.FilePath)
	if err != nil {
		slog.Error("po text extraction failed", "order_id", id, "error", err)
		_, uerr := s.db.Exec(ctx, "UPDATE government_orders SET status = 'failed', updated_at = now() WHERE id = $1", id)
		return uerr
	}

	fields, err := s.extractor.ExtractOrderFields(ctx, text, &id)
	if err != nil {
		slog.Error("po field extraction failed", "order_id", id, "error", err)
		_, uerr := s.db.Exec(ctx, "UPDATE government_orders SET status = 'extraction_failed', updated_at = now() WHERE id = $1", id)
		return uerr
	}

	blob, _ := json.Marshal(fields)
	_, err = s.db.Exec(ctx,
		`UPDATE government_orders
		 SET po_number = COALESCE($1, po_number),
		     rfq_number = COALESCE($2, rfq_number),
		     nsn = COALESCE($3, nsn),
		     product_description = COALESCE($4, product_description),
		     quantity = COALESCE($5, quantity),
		     unit_price = COALESCE($6, unit_price),
		     total_price = COALESCE($7, total_price),
		     extracted_data = $8, status = 'active', updated_at = now()
		 WHERE id = $9`,
		fields.PoNumber, fields.RfqNumber, fields.NSN, fields.ProductDescription,
		fields.Quantity, fields.UnitPrice, fields.TotalPrice, blob, id)
	if err != nil {
		return fmt.Errorf("save extracted order fields: %w", err)
	}

	slog.Info("government order processed", "order_id", id, "po_number", fields.PoNumber)
	return nil
}

func (s *Service) orderText(ctx context.Context, path string) (string, error) {
	body, err := s.storage.Download(ctx, path)
	if err != nil {
		return "", fmt.Errorf("download po: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read po: %w", err)
	}

	result, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), ".pdf")
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func scanTargets(o *models.GovernmentOrder) []interface{} {
	return []interface{}{
		&o.ID, &o.PoNumber, &o.RfqNumber, &o.ProductDescription, &o.NSN, &o.Quantity,
		&o.UnitPrice, &o.TotalPrice, &o.ExtractedData, &o.FilePath, &o.RfqDocumentID,
		&o.Status, &o.Stage, &o.ShippedAt, &o.CreatedAt, &o.UpdatedAt,
	}
}
