package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDispatchesByType(t *testing.T) {
	reg := NewHandlersRegistry()

	var got string
	reg.Register(TypeRfqExtract, asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		got = task.Type()
		return nil
	}))

	err := reg.Mux().ProcessTask(context.Background(), asynq.NewTask(TypeRfqExtract, nil))
	require.NoError(t, err)
	assert.Equal(t, TypeRfqExtract, got)
}

func TestRegistryPropagatesHandlerError(t *testing.T) {
	reg := NewHandlersRegistry()

	boom := errors.New("extract failed")
	reg.Register(TypeOrderExtract, asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		return boom
	}))

	err := reg.Mux().ProcessTask(context.Background(), asynq.NewTask(TypeOrderExtract, nil))
	assert.ErrorIs(t, err, boom)
}
