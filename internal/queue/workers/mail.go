package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/andretaki/simurgh/internal/mail"
)

type MailWorker struct {
	poller *mail.Poller
}

func NewMailWorker(poller *mail.Poller) *MailWorker {
	return &MailWorker{poller: poller}
}

func (w *MailWorker) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	result, err := w.poller.Poll(ctx)
	if err != nil {
		return fmt.Errorf("poll mailbox: %w", err)
	}
	slog.Info("mailbox polled", "fetched", result.Fetched, "ingested", result.Ingested)
	return nil
}
