package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (j *Queue) HandleSendEmailTask(ctx context.Context, task *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid email payload: %v: %w", err, asynq.SkipRetry)
	}

	if len(payload.Message.To) == 0 {
		return fmt.Errorf("email has no recipients: %w", asynq.SkipRetry)
	}

	id, err := j.es.Send(ctx, &payload.Message)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Info("email sent", "id", id, "subject", payload.Message.Subject)
	return nil
}

// Register adds the queue's handlers to mux.
func (j *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeSendEmail, j.HandleSendEmailTask)
}
