package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/andretaki/simurgh/internal/samgov"
)

type SamSyncWorker struct {
	syncSvc *samgov.Service
}

func NewSamSyncWorker(syncSvc *samgov.Service) *SamSyncWorker {
	return &SamSyncWorker{syncSvc: syncSvc}
}

func (w *SamSyncWorker) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	result, err := w.syncSvc.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync opportunities: %w", err)
	}
	slog.Info("opportunity sync complete",
		"fetched", result.Fetched, "inserted", result.Inserted,
		"updated", result.Updated, "skipped", result.Skipped)
	return nil
}
