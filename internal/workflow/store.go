package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andretaki/simurgh/internal/models"
)

// Store fetches the joined record sets the deriver operates on. All reads;
// the only writes are the linker's junction/FK pair.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const documentColumns = `id, file_name, file_path, file_type, file_size_bytes, source,
	extracted_fields, rfq_number, due_date, status, created_at, updated_at`

const orderColumns = `id, po_number, rfq_number, product_description, nsn, quantity,
	unit_price, total_price, extracted_data, file_path, rfq_document_id, status, stage,
	shipped_at, created_at, updated_at`

func scanDocument(row pgx.Row) (*models.RfqDocument, error) {
	var d models.RfqDocument
	err := row.Scan(&d.ID, &d.FileName, &d.FilePath, &d.FileType, &d.FileSizeBytes, &d.Source,
		&d.ExtractedFields, &d.RfqNumber, &d.DueDate, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanOrder(row pgx.Row) (*models.GovernmentOrder, error) {
	var o models.GovernmentOrder
	err := row.Scan(&o.ID, &o.PoNumber, &o.RfqNumber, &o.ProductDescription, &o.NSN, &o.Quantity,
		&o.UnitPrice, &o.TotalPrice, &o.ExtractedData, &o.FilePath, &o.RfqDocumentID, &o.Status,
		&o.Stage, &o.ShippedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// LoadByDocumentID assembles the workflow record rooted at one RFQ document.
func (s *Store) LoadByDocumentID(ctx context.Context, docID uuid.UUID) (Record, error) {
	var rec Record

	doc, err := scanDocument(s.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM rfq_documents WHERE id = $1`, docID))
	if err != nil {
		return rec, fmt.Errorf("load rfq document: %w", err)
	}
	rec.Document = doc

	resp, err := s.responseForDocument(ctx, docID)
	if err != nil {
		return rec, err
	}
	rec.Response = resp

	orders, err := s.ordersForDocument(ctx, docID)
	if err != nil {
		return rec, err
	}
	rec.Orders = orders
	return rec, nil
}

// LoadByRfqNumber resolves the key exact-first, digit-suffix second, and
// falls back to an order-only record when only a PO side exists.
func (s *Store) LoadByRfqNumber(ctx context.Context, rfqNumber string) (Record, error) {
	docs, err := s.LinkableDocuments(ctx)
	if err != nil {
		return Record{}, err
	}
	if doc := MatchDocumentByNumber(docs, rfqNumber); doc != nil {
		return s.LoadByDocumentID(ctx, doc.ID)
	}

	// No document: the workflow may still exist from the PO stage onward.
	orders, err := s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM government_orders ORDER BY created_at, id`)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	wantDigits := DigitsOnly(rfqNumber)
	for i := range orders {
		num := orderRfqNumber(&orders[i])
		if num == "" {
			continue
		}
		if NormalizeRfqNumber(num) == NormalizeRfqNumber(rfqNumber) ||
			digitsSuffixMatch(DigitsOnly(num), wantDigits) {
			bundle, err := s.bundleOrder(ctx, orders[i])
			if err != nil {
				return rec, err
			}
			rec.Orders = append(rec.Orders, bundle)
		}
	}
	if len(rec.Orders) == 0 {
		return rec, pgx.ErrNoRows
	}
	return rec, nil
}

func (s *Store) LoadByPoNumber(ctx context.Context, poNumber string) (Record, error) {
	order, err := scanOrder(s.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM government_orders WHERE po_number = $1 ORDER BY created_at, id LIMIT 1`,
		poNumber))
	if err != nil {
		return Record{}, fmt.Errorf("load order by po number: %w", err)
	}

	docID, err := s.firstLinkedDocument(ctx, order.ID, order.RfqDocumentID)
	if err != nil {
		return Record{}, err
	}
	if docID != nil {
		return s.LoadByDocumentID(ctx, *docID)
	}

	bundle, err := s.bundleOrder(ctx, *order)
	if err != nil {
		return Record{}, err
	}
	return Record{Orders: []OrderRecord{bundle}}, nil
}

// LoadDataset pulls the full-scan dataset for dashboard aggregation.
func (s *Store) LoadDataset(ctx context.Context) (Dataset, error) {
	var ds Dataset

	docRows, err := s.db.Query(ctx,
		`SELECT `+documentColumns+` FROM rfq_documents ORDER BY created_at, id`)
	if err != nil {
		return ds, fmt.Errorf("scan rfq documents: %w", err)
	}
	defer docRows.Close()
	for docRows.Next() {
		d, err := scanDocument(docRows)
		if err != nil {
			return ds, fmt.Errorf("scan rfq document: %w", err)
		}
		ds.Documents = append(ds.Documents, *d)
	}
	docRows.Close()

	respRows, err := s.db.Query(ctx,
		`SELECT id, rfq_document_id, response_data, pdf_path, pdf_url, status, submitted_at, created_at, updated_at
		 FROM rfq_responses ORDER BY created_at, id`)
	if err != nil {
		return ds, fmt.Errorf("scan rfq responses: %w", err)
	}
	defer respRows.Close()
	for respRows.Next() {
		var r models.RfqResponse
		if err := respRows.Scan(&r.ID, &r.RfqDocumentID, &r.ResponseData, &r.PdfPath, &r.PdfURL,
			&r.Status, &r.SubmittedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return ds, fmt.Errorf("scan rfq response: %w", err)
		}
		ds.Responses = append(ds.Responses, r)
	}
	respRows.Close()

	orders, err := s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM government_orders ORDER BY created_at, id`)
	if err != nil {
		return ds, err
	}
	ds.Orders = orders

	linkRows, err := s.db.Query(ctx,
		`SELECT government_order_id, rfq_document_id, created_at FROM government_order_rfq_links`)
	if err != nil {
		return ds, fmt.Errorf("scan order links: %w", err)
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var l models.GovernmentOrderRfqLink
		if err := linkRows.Scan(&l.GovernmentOrderID, &l.RfqDocumentID, &l.CreatedAt); err != nil {
			return ds, fmt.Errorf("scan order link: %w", err)
		}
		ds.Links = append(ds.Links, l)
	}
	linkRows.Close()

	sheetRows, err := s.db.Query(ctx,
		`SELECT id, government_order_id, lot_number, coa_data, verified_by, verified_at, created_at
		 FROM quality_sheets ORDER BY created_at, id`)
	if err != nil {
		return ds, fmt.Errorf("scan quality sheets: %w", err)
	}
	defer sheetRows.Close()
	for sheetRows.Next() {
		var sh models.QualitySheet
		if err := sheetRows.Scan(&sh.ID, &sh.GovernmentOrderID, &sh.LotNumber, &sh.CoaData,
			&sh.VerifiedBy, &sh.VerifiedAt, &sh.CreatedAt); err != nil {
			return ds, fmt.Errorf("scan quality sheet: %w", err)
		}
		ds.Sheets = append(ds.Sheets, sh)
	}
	sheetRows.Close()

	labelRows, err := s.db.Query(ctx,
		`SELECT id, government_order_id, label_type, file_path, verified_by, verified_at, created_at
		 FROM generated_labels ORDER BY created_at, id`)
	if err != nil {
		return ds, fmt.Errorf("scan generated labels: %w", err)
	}
	defer labelRows.Close()
	for labelRows.Next() {
		var l models.GeneratedLabel
		if err := labelRows.Scan(&l.ID, &l.GovernmentOrderID, &l.LabelType, &l.FilePath,
			&l.VerifiedBy, &l.VerifiedAt, &l.CreatedAt); err != nil {
			return ds, fmt.Errorf("scan generated label: %w", err)
		}
		ds.Labels = append(ds.Labels, l)
	}

	return ds, nil
}

// UnlinkedOrders returns orders with neither a legacy FK nor a junction row.
func (s *Store) UnlinkedOrders(ctx context.Context) ([]models.GovernmentOrder, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM government_orders o
		 WHERE o.rfq_document_id IS NULL
		   AND NOT EXISTS (SELECT 1 FROM government_order_rfq_links l WHERE l.government_order_id = o.id)
		 ORDER BY o.created_at, o.id`)
}

// LinkableDocuments returns every document in insertion order; number
// extraction happens in Go so blob-only numbers still participate.
func (s *Store) LinkableDocuments(ctx context.Context) ([]models.RfqDocument, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+documentColumns+` FROM rfq_documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("scan linkable documents: %w", err)
	}
	defer rows.Close()

	var docs []models.RfqDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan linkable document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, nil
}

// Link writes the junction row and refreshes the legacy FK projection in
// one transaction. Returns false when the pair already existed.
func (s *Store) Link(ctx context.Context, orderID, docID uuid.UUID) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin link tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO government_order_rfq_links (government_order_id, rfq_document_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		orderID, docID)
	if err != nil {
		return false, fmt.Errorf("insert order link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE government_orders SET rfq_document_id = COALESCE(rfq_document_id, $2), updated_at = now()
		 WHERE id = $1`,
		orderID, docID); err != nil {
		return false, fmt.Errorf("update legacy link: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit link tx: %w", err)
	}
	return true, nil
}

func (s *Store) responseForDocument(ctx context.Context, docID uuid.UUID) (*models.RfqResponse, error) {
	var r models.RfqResponse
	err := s.db.QueryRow(ctx,
		`SELECT id, rfq_document_id, response_data, pdf_path, pdf_url, status, submitted_at, created_at, updated_at
		 FROM rfq_responses WHERE rfq_document_id = $1 ORDER BY created_at, id LIMIT 1`,
		docID).Scan(&r.ID, &r.RfqDocumentID, &r.ResponseData, &r.PdfPath, &r.PdfURL,
		&r.Status, &r.SubmittedAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load response: %w", err)
	}
	return &r, nil
}

// ordersForDocument takes the union of junction rows and the legacy FK.
func (s *Store) ordersForDocument(ctx context.Context, docID uuid.UUID) ([]OrderRecord, error) {
	orders, err := s.queryOrders(ctx,
		`SELECT DISTINCT ON (o.id) `+prefixedOrderColumns+`
		 FROM government_orders o
		 LEFT JOIN government_order_rfq_links l ON l.government_order_id = o.id
		 WHERE o.rfq_document_id = $1 OR l.rfq_document_id = $1
		 ORDER BY o.id, o.created_at`,
		docID)
	if err != nil {
		return nil, err
	}

	out := make([]OrderRecord, 0, len(orders))
	for _, o := range orders {
		bundle, err := s.bundleOrder(ctx, o)
		if err != nil {
			return nil, err
		}
		out = append(out, bundle)
	}
	return out, nil
}

const prefixedOrderColumns = `o.id, o.po_number, o.rfq_number, o.product_description, o.nsn, o.quantity,
	o.unit_price, o.total_price, o.extracted_data, o.file_path, o.rfq_document_id, o.status, o.stage,
	o.shipped_at, o.created_at, o.updated_at`

func (s *Store) bundleOrder(ctx context.Context, order models.GovernmentOrder) (OrderRecord, error) {
	rec := OrderRecord{Order: order}

	var sh models.QualitySheet
	err := s.db.QueryRow(ctx,
		`SELECT id, government_order_id, lot_number, coa_data, verified_by, verified_at, created_at
		 FROM quality_sheets WHERE government_order_id = $1 ORDER BY created_at, id LIMIT 1`,
		order.ID).Scan(&sh.ID, &sh.GovernmentOrderID, &sh.LotNumber, &sh.CoaData,
		&sh.VerifiedBy, &sh.VerifiedAt, &sh.CreatedAt)
	if err == nil {
		rec.QualitySheet = &sh
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return rec, fmt.Errorf("load quality sheet: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, government_order_id, label_type, file_path, verified_by, verified_at, created_at
		 FROM generated_labels WHERE government_order_id = $1 ORDER BY created_at, id`,
		order.ID)
	if err != nil {
		return rec, fmt.Errorf("load labels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l models.GeneratedLabel
		if err := rows.Scan(&l.ID, &l.GovernmentOrderID, &l.LabelType, &l.FilePath,
			&l.VerifiedBy, &l.VerifiedAt, &l.CreatedAt); err != nil {
			return rec, fmt.Errorf("scan label: %w", err)
		}
		rec.Labels = append(rec.Labels, l)
	}
	return rec, nil
}

func (s *Store) queryOrders(ctx context.Context, sql string, args ...any) ([]models.GovernmentOrder, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.GovernmentOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (s *Store) firstLinkedDocument(ctx context.Context, orderID uuid.UUID, legacy *uuid.UUID) (*uuid.UUID, error) {
	var docID uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT rfq_document_id FROM government_order_rfq_links
		 WHERE government_order_id = $1 ORDER BY created_at LIMIT 1`,
		orderID).Scan(&docID)
	if err == nil {
		return &docID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load order link: %w", err)
	}
	return legacy, nil
}
