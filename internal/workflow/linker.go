package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/andretaki/simurgh/internal/models"
)

// LinkStore is the persistence surface the repair job needs. Link must
// write the junction row and the legacy FK in one transaction and report
// false when the pair was already linked.
type LinkStore interface {
	UnlinkedOrders(ctx context.Context) ([]models.GovernmentOrder, error)
	LinkableDocuments(ctx context.Context) ([]models.RfqDocument, error)
	Link(ctx context.Context, orderID, docID uuid.UUID) (bool, error)
}

// Linker is the one-shot repair for orders that carry an RFQ-number-looking
// field but never got resolved to a document. Running it twice is a no-op:
// the second pass finds nothing left to link.
type Linker struct {
	store LinkStore
}

func NewLinker(store LinkStore) *Linker {
	return &Linker{store: store}
}

// Repair attempts exact-then-normalized matching for every unlinked order
// and persists the resulting links. Per-order failures are logged and
// skipped, not fatal.
func (l *Linker) Repair(ctx context.Context) (int, error) {
	orders, err := l.store.UnlinkedOrders(ctx)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}

	docs, err := l.store.LinkableDocuments(ctx)
	if err != nil {
		return 0, err
	}

	linked := 0
	for i := range orders {
		num := orderRfqNumber(&orders[i])
		if num == "" {
			continue
		}
		doc := MatchDocumentByNumber(docs, num)
		if doc == nil {
			continue
		}

		inserted, err := l.store.Link(ctx, orders[i].ID, doc.ID)
		if err != nil {
			slog.Error("link repair failed for order", "order_id", orders[i].ID, "error", err)
			continue
		}
		if inserted {
			slog.Info("linked order to rfq document", "order_id", orders[i].ID, "document_id", doc.ID, "rfq_number", num)
			linked++
		}
	}
	return linked, nil
}
