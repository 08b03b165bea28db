package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andretaki/simurgh/internal/models"
)

type fakeLinkStore struct {
	orders []models.GovernmentOrder
	docs   []models.RfqDocument
	linked map[uuid.UUID]uuid.UUID
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{linked: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeLinkStore) UnlinkedOrders(ctx context.Context) ([]models.GovernmentOrder, error) {
	var out []models.GovernmentOrder
	for _, o := range f.orders {
		if _, ok := f.linked[o.ID]; !ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeLinkStore) LinkableDocuments(ctx context.Context) ([]models.RfqDocument, error) {
	return f.docs, nil
}

func (f *fakeLinkStore) Link(ctx context.Context, orderID, docID uuid.UUID) (bool, error) {
	if _, ok := f.linked[orderID]; ok {
		return false, nil
	}
	f.linked[orderID] = docID
	return true, nil
}

func TestLinkerRepair(t *testing.T) {
	store := newFakeLinkStore()

	d1 := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("SPE4A6-26-Q-1001") })
	d2 := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("821 - 36208263") })
	store.docs = []models.RfqDocument{d1, d2}

	exact := order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("SPE4A6-26-Q-1001") })
	suffix := order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("36208263") })
	noNumber := order()
	noMatch := order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("00000001") })
	store.orders = []models.GovernmentOrder{exact, suffix, noNumber, noMatch}

	linker := NewLinker(store)
	linked, err := linker.Repair(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, linked)
	assert.Equal(t, d1.ID, store.linked[exact.ID])
	assert.Equal(t, d2.ID, store.linked[suffix.ID])
	assert.NotContains(t, store.linked, noNumber.ID)
	assert.NotContains(t, store.linked, noMatch.ID)
}

func TestLinkerRepairIdempotent(t *testing.T) {
	store := newFakeLinkStore()
	d := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("36208263") })
	store.docs = []models.RfqDocument{d}
	store.orders = []models.GovernmentOrder{
		order(func(o *models.GovernmentOrder) { o.RfqNumber = strPtr("36208263") }),
	}

	linker := NewLinker(store)

	first, err := linker.Repair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := linker.Repair(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second, "second run must link nothing new")
}

func TestLinkerUsesExtractedBlobNumber(t *testing.T) {
	store := newFakeLinkStore()
	d := *doc(func(d *models.RfqDocument) { d.RfqNumber = strPtr("36208263") })
	store.docs = []models.RfqDocument{d}

	o := order(func(o *models.GovernmentOrder) {
		o.ExtractedData = []byte(`{"rfq_number":"821 - 36208263"}`)
	})
	store.orders = []models.GovernmentOrder{o}

	linked, err := NewLinker(store).Repair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, linked)
	assert.Equal(t, d.ID, store.linked[o.ID])
}
