package samgov

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andretaki/simurgh/internal/models"
)

type fakeStore struct {
	catalog []models.CatalogItem
	rows    map[string]*models.SamOpportunity
	inserts int
	updates int
	failOn  string
}

func newFakeStore(catalog ...models.CatalogItem) *fakeStore {
	return &fakeStore{catalog: catalog, rows: make(map[string]*models.SamOpportunity)}
}

func (f *fakeStore) CatalogItems(ctx context.Context) ([]models.CatalogItem, error) {
	return f.catalog, nil
}

func (f *fakeStore) FindBySolicitation(ctx context.Context, solNum string) (*models.SamOpportunity, error) {
	opp, ok := f.rows[solNum]
	if !ok {
		return nil, nil
	}
	copied := *opp
	return &copied, nil
}

func (f *fakeStore) Upsert(ctx context.Context, opp *models.SamOpportunity) error {
	if opp.SolicitationNumber == f.failOn {
		return errors.New("constraint violation")
	}
	if _, exists := f.rows[opp.SolicitationNumber]; exists {
		f.updates++
	} else {
		f.inserts++
	}
	copied := *opp
	f.rows[opp.SolicitationNumber] = &copied
	return nil
}

type fakeSource struct {
	notices      []Notice
	descriptions map[string]string
	descErr      map[string]error
	descFetches  int
	searchErr    error
}

func (f *fakeSource) Search(ctx context.Context, params SearchParams) ([]Notice, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	// Every query returns the full fixture set; dedupe is the service's job.
	return f.notices, nil
}

func (f *fakeSource) FetchDescription(ctx context.Context, descURL string) (string, error) {
	f.descFetches++
	if err, ok := f.descErr[descURL]; ok {
		return "", err
	}
	return f.descriptions[descURL], nil
}

func newSyncService(store Store, source NoticeSource) *Service {
	svc := NewService(store, source)
	svc.now = func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestSyncInsertsAndScoresNewOpportunities(t *testing.T) {
	store := newFakeStore(models.CatalogItem{NSN: "6810-00-286-5435", FSC: "6810"})
	source := &fakeSource{
		notices: []Notice{{
			SolicitationNumber: "SPE4A6-26-Q-0400",
			Title:              "Sodium dichromate",
			Description:        "https://api.sam.gov/desc/1",
			NAICSCode:          "325998",
			TypeOfSetAside:     "Total Small Business",
			PostedDate:         "2026-06-10",
		}},
		descriptions: map[string]string{
			"https://api.sam.gov/desc/1": "NSN 6810002865435\nQTY: 40 DR",
		},
	}

	result, err := newSyncService(store, source).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Inserted)
	assert.Zero(t, result.Updated)

	opp := store.rows["SPE4A6-26-Q-0400"]
	require.NotNil(t, opp)
	// NSN 75 + NAICS 5 + set-aside 3.
	assert.Equal(t, 83, opp.RelevanceScore)
	assert.JSONEq(t, `["6810-00-286-5435"]`, string(opp.MatchedNsns))
	require.NotNil(t, opp.ParsedQuantity)
	assert.Equal(t, 40.0, *opp.ParsedQuantity)
	require.NotNil(t, opp.PostedDate)
	assert.Equal(t, "2026-06-10", opp.PostedDate.Format("2006-01-02"))
}

func TestSyncRerunUpdatesWithoutDuplicates(t *testing.T) {
	store := newFakeStore(models.CatalogItem{NSN: "6810-00-286-5435", FSC: "6810"})
	source := &fakeSource{
		notices: []Notice{
			{SolicitationNumber: "A-1", Title: "chemical lot", Description: "https://d/1"},
			{SolicitationNumber: "A-2", Title: "misc", Description: "https://d/2"},
		},
		descriptions: map[string]string{"https://d/1": "6810002865435", "https://d/2": "nothing here"},
	}
	svc := newSyncService(store, source)

	first, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Inserted, "second run must not insert")
	assert.Equal(t, 2, second.Updated)
	assert.Len(t, store.rows, 2)
}

func TestSyncSkipsStoredDescriptionRefetch(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{
		notices:      []Notice{{SolicitationNumber: "B-1", Title: "x", Description: "https://d/1"}},
		descriptions: map[string]string{"https://d/1": "full text"},
	}
	svc := newSyncService(store, source)

	_, err := svc.Sync(context.Background())
	require.NoError(t, err)
	fetchesAfterFirst := source.descFetches
	assert.Greater(t, fetchesAfterFirst, 0)

	_, err = svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fetchesAfterFirst, source.descFetches,
		"stored description must not be re-fetched")
}

func TestSyncRefetchesWhenStoredDescriptionEmpty(t *testing.T) {
	store := newFakeStore(models.CatalogItem{NSN: "6810-00-286-5435", FSC: "6810"})
	source := &fakeSource{
		notices: []Notice{{SolicitationNumber: "C-1", Title: "x", Description: "https://d/1"}},
		descErr: map[string]error{"https://d/1": errors.New("timeout")},
	}
	svc := newSyncService(store, source)

	// First pass fails the fetch; the row lands with an empty description.
	_, err := svc.Sync(context.Background())
	require.NoError(t, err)
	require.NotNil(t, store.rows["C-1"])
	assert.Empty(t, store.rows["C-1"].FullDescription)
	assert.Zero(t, store.rows["C-1"].RelevanceScore)

	// Endpoint recovers; the update pass enriches and re-scores the row.
	source.descErr = nil
	source.descriptions = map[string]string{"https://d/1": "item 6810002865435"}
	_, err = svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "item 6810002865435", store.rows["C-1"].FullDescription)
	assert.Equal(t, 75, store.rows["C-1"].RelevanceScore)
}

func TestSyncDescriptionFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{
		notices: []Notice{
			{SolicitationNumber: "D-1", Title: "x", Description: "https://d/1"},
			{SolicitationNumber: "D-2", Title: "y", Description: "https://d/2"},
		},
		descriptions: map[string]string{"https://d/2": "ok"},
		descErr:      map[string]error{"https://d/1": errors.New("connection reset")},
	}

	result, err := newSyncService(store, source).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Len(t, store.rows, 2)
}

func TestSyncUpsertFailureSkipsItem(t *testing.T) {
	store := newFakeStore()
	store.failOn = "E-1"
	source := &fakeSource{
		notices: []Notice{
			{SolicitationNumber: "E-1", Title: "x"},
			{SolicitationNumber: "E-2", Title: "y"},
		},
	}

	result, err := newSyncService(store, source).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Inserted)
	require.NotNil(t, store.rows["E-2"])
}

func TestSyncIgnoresBlankSolicitationNumbers(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{notices: []Notice{{SolicitationNumber: "  ", Title: "x"}}}

	result, err := newSyncService(store, source).Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Fetched)
	assert.Empty(t, store.rows)
}
