package notify

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/furwell/vetclinic-scheduling/internal/clinic"
)

// Enqueuer pushes notification tasks onto the Redis queue. It implements
// clinic.Notifier; the actual mail goes out from cmd/notify-worker.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisOpt asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpt)}
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

func (e *Enqueuer) Booked(ctx context.Context, n clinic.Notification) error {
	return e.enqueue(ctx, TypeBooked, n)
}

func (e *Enqueuer) Rescheduled(ctx context.Context, n clinic.Notification) error {
	return e.enqueue(ctx, TypeRescheduled, n)
}

func (e *Enqueuer) Cancelled(ctx context.Context, n clinic.Notification) error {
	return e.enqueue(ctx, TypeCancelled, n)
}

func (e *Enqueuer) enqueue(ctx context.Context, typ string, n clinic.Notification) error {
	task, err := newTask(typ, n)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", typ, err)
	}
	return nil
}
