package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/polrydian/polrydian-api/internal/service"
)

type UserHandler struct {
	s     service.UserService
	audit service.SecurityLogger
}

func NewUserHandler(service service.UserService, audit service.SecurityLogger) *UserHandler {
	return &UserHandler{s: service, audit: audit}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userID := GetUserID(c)

	roles, err := h.s.Roles(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	email, _ := c.Locals("email").(string)
	return c.JSON(fiber.Map{
		"user_id": userID,
		"email":   email,
		"roles":   roles,
	})
}

func (h *UserHandler) ListSecurityEvents(c *fiber.Ctx) error {
	events, err := h.audit.Recent(c.UserContext(), c.Query("severity"), c.QueryInt("limit", 0))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(nonNil(events))
}
