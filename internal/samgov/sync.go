package samgov

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/andretaki/simurgh/internal/matching"
	"github.com/andretaki/simurgh/internal/models"
)

const syncLookback = 7 * 24 * time.Hour

// Store is the persistence surface the sync service needs.
type Store interface {
	CatalogItems(ctx context.Context) ([]models.CatalogItem, error)
	FindBySolicitation(ctx context.Context, solicitationNumber string) (*models.SamOpportunity, error)
	Upsert(ctx context.Context, opp *models.SamOpportunity) error
}

type SyncResult struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Service fetches recent solicitations matching the catalog's FSC codes,
// keywords, and NAICS codes, scores each one, and mirrors it locally.
type Service struct {
	store  Store
	source NoticeSource
	now    func() time.Time
}

func NewService(store Store, source NoticeSource) *Service {
	return &Service{store: store, source: source, now: time.Now}
}

func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	items, err := s.store.CatalogItems(ctx)
	if err != nil {
		return result, err
	}
	catalog := make([]matching.CatalogItem, 0, len(items))
	for _, item := range items {
		catalog = append(catalog, matching.CatalogItem{NSN: item.NSN, FSC: item.FSC})
	}

	notices := s.search(ctx, catalog)
	result.Fetched = len(notices)

	for _, notice := range notices {
		inserted, err := s.processNotice(ctx, notice, catalog)
		if err != nil {
			slog.Error("opportunity upsert failed, skipping",
				"solicitation_number", notice.SolicitationNumber, "error", err)
			result.Skipped++
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	slog.Info("sam.gov sync complete",
		"fetched", result.Fetched, "inserted", result.Inserted,
		"updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

// search runs one query per distinct catalog FSC, keyword rule, and relevant
// NAICS code, deduplicating results by solicitation number. A failed search
// is logged and the rest proceed.
func (s *Service) search(ctx context.Context, catalog []matching.CatalogItem) []Notice {
	to := s.now()
	from := to.Add(-syncLookback)

	var params []SearchParams
	seenFSC := make(map[string]struct{})
	for _, item := range catalog {
		fsc := strings.TrimSpace(item.FSC)
		if fsc == "" {
			continue
		}
		if _, dup := seenFSC[fsc]; dup {
			continue
		}
		seenFSC[fsc] = struct{}{}
		params = append(params, SearchParams{ClassificationCode: fsc, PostedFrom: from, PostedTo: to})
	}
	for _, rule := range matching.KeywordRules {
		params = append(params, SearchParams{Keyword: rule.Keyword, PostedFrom: from, PostedTo: to})
	}
	for _, code := range matching.RelevantNAICS {
		params = append(params, SearchParams{NAICS: code, PostedFrom: from, PostedTo: to})
	}

	var notices []Notice
	seen := make(map[string]struct{})
	for _, p := range params {
		batch, err := s.source.Search(ctx, p)
		if err != nil {
			slog.Warn("sam.gov search failed",
				"fsc", p.ClassificationCode, "keyword", p.Keyword, "naics", p.NAICS, "error", err)
			continue
		}
		for _, n := range batch {
			key := strings.TrimSpace(n.SolicitationNumber)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			notices = append(notices, n)
		}
	}
	return notices
}

func (s *Service) processNotice(ctx context.Context, notice Notice, catalog []matching.CatalogItem) (bool, error) {
	solNum := strings.TrimSpace(notice.SolicitationNumber)

	existing, err := s.store.FindBySolicitation(ctx, solNum)
	if err != nil {
		return false, err
	}

	full := ""
	if existing != nil {
		full = existing.FullDescription
	}
	if full == "" {
		fetched, err := s.source.FetchDescription(ctx, notice.Description)
		if err != nil {
			slog.Warn("description fetch failed, scoring without it",
				"solicitation_number", solNum, "error", err)
		} else {
			full = fetched
		}
	}

	score := matching.Score(matching.Opportunity{
		SolicitationNumber: solNum,
		Title:              notice.Title,
		FullDescription:    full,
		NAICSCode:          notice.NAICSCode,
		SetAsideType:       notice.TypeOfSetAside,
	}, catalog)

	opp := &models.SamOpportunity{
		SolicitationNumber: solNum,
		Title:              notice.Title,
		Description:        notice.Description,
		FullDescription:    full,
		NAICSCode:          notice.NAICSCode,
		SetAsideType:       notice.TypeOfSetAside,
		PostedDate:         parseSamTime(notice.PostedDate),
		ResponseDeadline:   parseSamTime(notice.ResponseDeadline),
		RelevanceScore:     score.RelevanceScore,
		MatchedKeyword:     score.MatchedKeyword,
		MatchedFsc:         score.MatchedFsc,
		ParsedQuantity:     ParseQuantity(full),
		UILink:             notice.UILink,
	}
	if len(score.MatchedNsns) > 0 {
		opp.MatchedNsns, _ = json.Marshal(score.MatchedNsns)
	}
	if lines := ParseLineItems(full); len(lines) > 0 {
		opp.ParsedLineItems, _ = json.Marshal(lines)
	}

	if err := s.store.Upsert(ctx, opp); err != nil {
		return false, err
	}
	return existing == nil, nil
}

func parseSamTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
