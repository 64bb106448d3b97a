package queue

import (
	"github.com/polrydian/polrydian-api/internal/service"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

type Queue struct {
	es service.EmailService
}

func NewQueue(es service.EmailService) *Queue {
	return &Queue{
		es: es,
	}
}

const TaskTypeSendEmail = "email:send"

type SendEmailPayload struct {
	Message transfer.EmailMessage `json:"message"`
}
