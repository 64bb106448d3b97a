package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/polrydian/polrydian-api/internal/api/middleware"
	"github.com/polrydian/polrydian-api/internal/service"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// requestContext carries the caller into audit records.
func requestContext(c *fiber.Ctx) context.Context {
	return service.WithActor(c.UserContext(), service.Actor{
		UserID:    GetUserID(c),
		IPAddress: middleware.ClientIP(c),
	})
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, service.ErrUnsupportedPlatform),
		errors.Is(err, service.ErrInvalidRequest),
		service.SetupRequired(err):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrUpstreamFetch):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// errorJSON writes the error body. Unhandled failures never leak their cause.
func errorJSON(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = service.ErrUnhandled.Error()
	}
	return c.Status(status).JSON(transfer.ErrorResponse{
		Error:         msg,
		SetupRequired: service.SetupRequired(err),
	})
}
