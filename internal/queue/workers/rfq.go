// Package workers holds the asynq task handlers for the background binary.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/andretaki/simurgh/internal/queue"
	"github.com/andretaki/simurgh/internal/rfq"
)

type RfqWorker struct {
	rfqSvc *rfq.Service
}

func NewRfqWorker(rfqSvc *rfq.Service) *RfqWorker {
	return &RfqWorker{rfqSvc: rfqSvc}
}

func (w *RfqWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.RfqExtractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("parse document ID: %w", err)
	}

	slog.Info("processing RFQ document", "document_id", docID)

	if err := w.rfqSvc.Process(ctx, docID); err != nil {
		return fmt.Errorf("process document %s: %w", docID, err)
	}

	slog.Info("RFQ document processed", "document_id", docID)
	return nil
}
