package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/models"
)

// AddQualitySheet attaches a certificate-of-analysis record to an order.
func (s *Service) AddQualitySheet(ctx context.Context, orderID uuid.UUID, lotNumber string, coaData map[string]interface{}) (*models.QualitySheet, error) {
	if _, err := s.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	blob, _ := json.Marshal(coaData)

	var sheet models.QualitySheet
	err := s.db.QueryRow(ctx,
		`INSERT INTO quality_sheets (government_order_id, lot_number, coa_data)
		 VALUES ($1, $2, $3)
		 RETURNING id, government_order_id, lot_number, coa_data, verified_by, verified_at, created_at`,
		orderID, lotNumber, blob,
	).Scan(&sheet.ID, &sheet.GovernmentOrderID, &sheet.LotNumber, &sheet.CoaData,
		&sheet.VerifiedBy, &sheet.VerifiedAt, &sheet.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert quality sheet: %w", err)
	}
	return &sheet, nil
}

// VerifyQualitySheet stamps the reviewer signature and timestamp.
func (s *Service) VerifyQualitySheet(ctx context.Context, sheetID uuid.UUID, verifiedBy string) (*models.QualitySheet, error) {
	var sheet models.QualitySheet
	err := s.db.QueryRow(ctx,
		`UPDATE quality_sheets SET verified_by = $1, verified_at = $2
		 WHERE id = $3
		 RETURNING id, government_order_id, lot_number, coa_data, verified_by, verified_at, created_at`,
		verifiedBy, time.Now(), sheetID,
	).Scan(&sheet.ID, &sheet.GovernmentOrderID, &sheet.LotNumber, &sheet.CoaData,
		&sheet.VerifiedBy, &sheet.VerifiedAt, &sheet.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("verify quality sheet: %w", err)
	}
	return &sheet, nil
}

func (s *Service) QualitySheets(ctx context.Context, orderID uuid.UUID) ([]models.QualitySheet, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, government_order_id, lot_number, coa_data, verified_by, verified_at, created_at
		 FROM quality_sheets WHERE government_order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list quality sheets: %w", err)
	}
	defer rows.Close()

	var sheets []models.QualitySheet
	for rows.Next() {
		var sh models.QualitySheet
		if err := rows.Scan(&sh.ID, &sh.GovernmentOrderID, &sh.LotNumber, &sh.CoaData,
			&sh.VerifiedBy, &sh.VerifiedAt, &sh.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quality sheet: %w", err)
		}
		sheets = append(sheets, sh)
	}
	return sheets, nil
}

// AddLabel records a generated shipping or container label.
func (s *Service) AddLabel(ctx context.Context, orderID uuid.UUID, labelType string, filePath *string) (*models.GeneratedLabel, error) {
	if _, err := s.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	var label models.GeneratedLabel
	err := s.db.QueryRow(ctx,
		`INSERT INTO generated_labels (government_order_id, label_type, file_path)
		 VALUES ($1, $2, $3)
		 RETURNING id, government_order_id, label_type, file_path, verified_by, verified_at, created_at`,
		orderID, labelType, filePath,
	).Scan(&label.ID, &label.GovernmentOrderID, &label.LabelType, &label.FilePath,
		&label.VerifiedBy, &label.VerifiedAt, &label.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert label: %w", err)
	}
	return &label, nil
}

func (s *Service) VerifyLabel(ctx context.Context, labelID uuid.UUID, verifiedBy string) (*models.GeneratedLabel, error) {
	var label models.GeneratedLabel
	err := s.db.QueryRow(ctx,
		`UPDATE generated_labels SET verified_by = $1, verified_at = $2
		 WHERE id = $3
		 RETURNING id, government_order_id, label_type, file_path, verified_by, verified_at, created_at`,
		verifiedBy, time.Now(), labelID,
	).Scan(&label.ID, &label.GovernmentOrderID, &label.LabelType, &label.FilePath,
		&label.VerifiedBy, &label.VerifiedAt, &label.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("verify label: %w", err)
	}
	return &label, nil
}

func (s *Service) Labels(ctx context.Context, orderID uuid.UUID) ([]models.GeneratedLabel, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, government_order_id, label_type, file_path, verified_by, verified_at, created_at
		 FROM generated_labels WHERE government_order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var labels []models.GeneratedLabel
	for rows.Next() {
		var l models.GeneratedLabel
		if err := rows.Scan(&l.ID, &l.GovernmentOrderID, &l.LabelType, &l.FilePath,
			&l.VerifiedBy, &l.VerifiedAt, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, nil
}
