package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/polrydian/polrydian-api/internal/service"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

type PublicHandler struct {
	content  service.ContentService
	contact  service.ContactService
	economic service.EconomicService
}

func NewPublicHandler(content service.ContentService, contact service.ContactService, economic service.EconomicService) *PublicHandler {
	return &PublicHandler{content: content, contact: contact, economic: economic}
}

func (h *PublicHandler) Posts(c *fiber.Ctx) error {
	posts, err := h.content.PublishedPosts(c.UserContext(), c.Query("platform"), c.QueryBool("featured", false), c.QueryInt("limit", 0))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(nonNil(posts))
}

func (h *PublicHandler) Articles(c *fiber.Ctx) error {
	articles, err := h.content.PublishedArticles(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(nonNil(articles))
}

func (h *PublicHandler) Contact(c *fiber.Ctx) error {
	var req transfer.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(transfer.ErrorResponse{Error: "Invalid request body"})
	}

	reference, err := h.contact.Submit(requestContext(c), &req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":   "Thank you, we will be in touch shortly.",
		"reference": reference,
	})
}

func (h *PublicHandler) EconomicSeries(c *fiber.Ctx) error {
	series, err := h.economic.Observations(c.UserContext(), c.Params("series"), c.QueryInt("limit", 0))
	if err != nil {
		return errorJSON(c, err)
	}

	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.JSON(series)
}
