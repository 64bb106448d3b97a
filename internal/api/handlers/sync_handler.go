package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/polrydian/polrydian-api/internal/api/middleware"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/service"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

type SyncHandler struct {
	s     service.SyncService
	audit service.SecurityLogger
}

func NewSyncHandler(s service.SyncService, audit service.SecurityLogger) *SyncHandler {
	return &SyncHandler{s: s, audit: audit}
}

func (h *SyncHandler) Sync(c *fiber.Ctx) error {
	var req transfer.SyncRequest
	if err := c.BodyParser(&req); err != nil {
		h.audit.Log(requestContext(c), models.ActionInvalidSyncRequest, models.SecurityDetails{
			Message: "Invalid request body",
			Error:   err.Error(),
		}, models.SeverityLow)
		return c.Status(fiber.StatusBadRequest).JSON(transfer.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	result, err := h.s.Sync(c.UserContext(), service.SyncRequest{
		UserID:    GetUserID(c),
		Platform:  req.Platform,
		Action:    req.Action,
		IPAddress: middleware.ClientIP(c),
	})
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.SyncResponse{
		Success:  true,
		Message:  result.Message,
		Inserted: result.Reconcile.Inserted,
		Updated:  result.Reconcile.Updated,
		Failed:   result.Reconcile.Failed,
		Total:    result.Reconcile.Total,
	})
}
