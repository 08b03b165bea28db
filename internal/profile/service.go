// Package profile manages the bidding company's registration record.
package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andretaki/simurgh/internal/models"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

const profileColumns = `id, company_name, cage_code, uei, certifications, default_boilerplate,
	contact_name, contact_email, contact_phone, created_at, updated_at`

// Get resolves the singleton profile. When several rows exist the oldest
// wins, so reads stay deterministic.
func (s *Service) Get(ctx context.Context) (*models.CompanyProfile, error) {
	var p models.CompanyProfile
	err := s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM company_profiles ORDER BY created_at, id LIMIT 1`,
	).Scan(&p.ID, &p.CompanyName, &p.CageCode, &p.UEI, &p.Certifications,
		&p.DefaultBoilerplate, &p.ContactName, &p.ContactEmail, &p.ContactPhone,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get company profile: %w", err)
	}
	return &p, nil
}

type UpsertRequest struct {
	CompanyName        string          `json:"company_name"`
	CageCode           string          `json:"cage_code"`
	UEI                string          `json:"uei"`
	Certifications     []string        `json:"certifications"`
	DefaultBoilerplate json.RawMessage `json:"default_boilerplate"`
	ContactName        string          `json:"contact_name"`
	ContactEmail       string          `json:"contact_email"`
	ContactPhone       string          `json:"contact_phone"`
}

// Upsert updates the singleton row, inserting it on first use.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*models.CompanyProfile, error) {
	certs, _ := json.Marshal(req.Certifications)
	boilerplate := req.DefaultBoilerplate
	if len(boilerplate) == 0 {
		boilerplate = json.RawMessage(`{}`)
	}

	existing, err := s.Get(ctx)
	if err != nil {
		var p models.CompanyProfile
		err := s.db.QueryRow(ctx,
			`INSERT INTO company_profiles (company_name, cage_code, uei, certifications, default_boilerplate, contact_name, contact_email, contact_phone)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+profileColumns,
			req.CompanyName, req.CageCode, req.UEI, certs, boilerplate,
			req.ContactName, req.ContactEmail, req.ContactPhone,
		).Scan(&p.ID, &p.CompanyName, &p.CageCode, &p.UEI, &p.Certifications,
			&p.DefaultBoilerplate, &p.ContactName, &p.ContactEmail, &p.ContactPhone,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert company profile: %w", err)
		}
		return &p, nil
	}

	var p models.CompanyProfile
	err = s.db.QueryRow(ctx,
		`UPDATE company_profiles
		 SET company_name = $1, cage_code = $2, uei = $3, certifications = $4,
		     default_boilerplate = $5, contact_name = $6, contact_email = $7,
		     contact_phone = $8, updated_at = now()
		 WHERE id = $9
		 RETURNING `+profileColumns,
		req.CompanyName, req.CageCode, req.UEI, certs, boilerplate,
		req.ContactName, req.ContactEmail, req.ContactPhone, existing.ID,
	).Scan(&p.ID, &p.CompanyName, &p.CageCode, &p.UEI, &p.Certifications,
		&p.DefaultBoilerplate, &p.ContactName, &p.ContactEmail, &p.ContactPhone,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update company profile: %w", err)
	}
	return &p, nil
}
