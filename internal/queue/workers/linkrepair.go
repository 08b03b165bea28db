package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/andretaki/simurgh/internal/workflow"
)

type LinkRepairWorker struct {
	linker *workflow.Linker
}

func NewLinkRepairWorker(linker *workflow.Linker) *LinkRepairWorker {
	return &LinkRepairWorker{linker: linker}
}

func (w *LinkRepairWorker) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	linked, err := w.linker.Repair(ctx)
	if err != nil {
		return fmt.Errorf("repair order links: %w", err)
	}
	if linked > 0 {
		slog.Info("repaired order links", "linked", linked)
	}
	return nil
}
