package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/polrydian/polrydian-api/internal/transfer"
)

const (
	emailMaxRetry  = 5
	emailRetention = 24 * time.Hour
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher enqueues outbound email for the worker.
type Dispatcher struct {
	client enqueuer
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// DispatchEmail enqueues msg under taskID. Completed tasks are retained for a
// day, so a repeated taskID inside that window is dropped.
func (d *Dispatcher) DispatchEmail(ctx context.Context, taskID string, msg *transfer.EmailMessage) error {
	taskPayload, err := json.Marshal(SendEmailPayload{Message: *msg})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSendEmail, taskPayload)

	info, err := d.client.EnqueueContext(ctx, task,
		asynq.TaskID(taskID),
		asynq.MaxRetry(emailMaxRetry),
		asynq.Retention(emailRetention),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			slog.Info("email task already queued", "task_id", taskID)
			return nil
		}
		return err
	}

	slog.Info("email task queued", "task_id", info.ID, "subject", msg.Subject)
	return nil
}
