package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// HandlersRegistry collects task handlers and wraps each with timing
// instrumentation before it reaches the asynq mux.
type HandlersRegistry struct {
	mux *asynq.ServeMux
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{mux: asynq.NewServeMux()}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, timed(taskType, handler))
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

func timed(taskType string, next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		if err != nil {
			slog.Error("task failed", "type", taskType, "duration", time.Since(start).String(), "error", err)
			return err
		}
		slog.Info("task done", "type", taskType, "duration", time.Since(start).String())
		return nil
	})
}
