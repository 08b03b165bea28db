package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/andretaki/simurgh/internal/order"
	"github.com/andretaki/simurgh/internal/queue"
)

type OrderWorker struct {
	orderSvc *order.Service
}

func NewOrderWorker(orderSvc *order.Service) *OrderWorker {
	return &OrderWorker{orderSvc: orderSvc}
}

func (w *OrderWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.OrderExtractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return fmt.Errorf("parse order ID: %w", err)
	}

	slog.Info("processing order document", "order_id", orderID)

	if err := w.orderSvc.Process(ctx, orderID); err != nil {
		return fmt.Errorf("process order %s: %w", orderID, err)
	}

	slog.Info("order document processed", "order_id", orderID)
	return nil
}
