package samgov

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andretaki/simurgh/internal/models"
)

const opportunityColumns = `id, solicitation_number, title, description, full_description,
	naics_code, set_aside_type, posted_date, response_deadline, relevance_score,
	matched_keyword, matched_fsc, matched_nsns, parsed_quantity, parsed_line_items,
	ui_link, created_at, updated_at`

// DBStore is the Postgres-backed Store plus the read queries the API serves.
type DBStore struct {
	pool *pgxpool.Pool
}

func NewDBStore(pool *pgxpool.Pool) *DBStore {
	return &DBStore{pool: pool}
}

func (s *DBStore) CatalogItems(ctx context.Context) ([]models.CatalogItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, nsn, fsc, description, created_at FROM catalog_items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	defer rows.Close()

	var items []models.CatalogItem
	for rows.Next() {
		var item models.CatalogItem
		if err := rows.Scan(&item.ID, &item.NSN, &item.FSC, &item.Description, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *DBStore) AddCatalogItem(ctx context.Context, nsn, fsc, description string) (*models.CatalogItem, error) {
	item := &models.CatalogItem{}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO catalog_items (nsn, fsc, description) VALUES ($1, $2, $3)
		 ON CONFLICT (nsn) DO UPDATE SET fsc = EXCLUDED.fsc, description = EXCLUDED.description
		 RETURNING id, nsn, fsc, description, created_at`,
		nsn, fsc, description,
	).Scan(&item.ID, &item.NSN, &item.FSC, &item.Description, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert catalog item: %w", err)
	}
	return item, nil
}

func (s *DBStore) DeleteCatalogItem(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *DBStore) FindBySolicitation(ctx context.Context, solicitationNumber string) (*models.SamOpportunity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+opportunityColumns+` FROM sam_opportunities WHERE solicitation_number = $1`,
		solicitationNumber)
	opp, err := scanOpportunity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return opp, nil
}

func (s *DBStore) Upsert(ctx context.Context, opp *models.SamOpportunity) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sam_opportunities (
			solicitation_number, title, description, full_description, naics_code,
			set_aside_type, posted_date, response_deadline, relevance_score,
			matched_keyword, matched_fsc, matched_nsns, parsed_quantity,
			parsed_line_items, ui_link
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (solicitation_number) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			full_description = EXCLUDED.full_description,
			naics_code = EXCLUDED.naics_code,
			set_aside_type = EXCLUDED.set_aside_type,
			posted_date = EXCLUDED.posted_date,
			response_deadline = EXCLUDED.response_deadline,
			relevance_score = EXCLUDED.relevance_score,
			matched_keyword = EXCLUDED.matched_keyword,
			matched_fsc = EXCLUDED.matched_fsc,
			matched_nsns = EXCLUDED.matched_nsns,
			parsed_quantity = EXCLUDED.parsed_quantity,
			parsed_line_items = EXCLUDED.parsed_line_items,
			ui_link = EXCLUDED.ui_link,
			updated_at = now()`,
		opp.SolicitationNumber, opp.Title, opp.Description, opp.FullDescription,
		opp.NAICSCode, opp.SetAsideType, opp.PostedDate, opp.ResponseDeadline,
		opp.RelevanceScore, opp.MatchedKeyword, opp.MatchedFsc, opp.MatchedNsns,
		opp.ParsedQuantity, opp.ParsedLineItems, opp.UILink)
	if err != nil {
		return fmt.Errorf("upsert opportunity %s: %w", opp.SolicitationNumber, err)
	}
	return nil
}

// ListOpportunities returns scored opportunities at or above minScore,
// highest first.
func (s *DBStore) ListOpportunities(ctx context.Context, minScore, limit int) ([]models.SamOpportunity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+opportunityColumns+` FROM sam_opportunities
		 WHERE relevance_score >= $1
		 ORDER BY relevance_score DESC, posted_date DESC NULLS LAST
		 LIMIT $2`, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []models.SamOpportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *opp)
	}
	return opps, rows.Err()
}

func scanOpportunity(row pgx.Row) (*models.SamOpportunity, error) {
	opp := &models.SamOpportunity{}
	err := row.Scan(
		&opp.ID, &opp.SolicitationNumber, &opp.Title, &opp.Description,
		&opp.FullDescription, &opp.NAICSCode, &opp.SetAsideType, &opp.PostedDate,
		&opp.ResponseDeadline, &opp.RelevanceScore, &opp.MatchedKeyword,
		&opp.MatchedFsc, &opp.MatchedNsns, &opp.ParsedQuantity,
		&opp.ParsedLineItems, &opp.UILink, &opp.CreatedAt, &opp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return opp, nil
}
