// Package queue wraps asynq task publishing and handler registration.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/andretaki/simurgh/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueRfqExtract(_ context.Context, documentID uuid.UUID) error {
	payload := RfqExtractPayload{DocumentID: documentID.String()}
	return c.enqueue(TypeRfqExtract, payload, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute))
}

func (c *Client) EnqueueOrderExtract(_ context.Context, orderID uuid.UUID) error {
	payload := OrderExtractPayload{OrderID: orderID.String()}
	return c.enqueue(TypeOrderExtract, payload, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute))
}

func (c *Client) EnqueueSamSync() error {
	return c.enqueue(TypeSamSync, struct{}{}, asynq.MaxRetry(2), asynq.Timeout(30*time.Minute), asynq.Queue("low"))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
