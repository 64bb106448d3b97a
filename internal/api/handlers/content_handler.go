package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/service"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

type ContentHandler struct {
	s service.ContentService
}

func NewContentHandler(s service.ContentService) *ContentHandler {
	return &ContentHandler{s: s}
}

func (h *ContentHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.ListPosts(c.UserContext(), c.Query("platform"), c.Query("status"), c.QueryInt("limit", 0))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(nonNil(posts))
}

func (h *ContentHandler) ListArticles(c *fiber.Ctx) error {
	articles, err := h.s.ListArticles(c.UserContext(), c.Query("status"), c.QueryInt("limit", 0))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(nonNil(articles))
}

func (h *ContentHandler) ReviewPost(c *fiber.Ctx) error {
	return h.review(c, h.s.ReviewPost)
}

func (h *ContentHandler) ReviewArticle(c *fiber.Ctx) error {
	return h.review(c, h.s.ReviewArticle)
}

func (h *ContentHandler) review(c *fiber.Ctx, apply func(ctx context.Context, id int64, review *models.ContentReview) error) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(transfer.ErrorResponse{Error: "Invalid id"})
	}

	var req transfer.ContentReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(transfer.ErrorResponse{Error: "Invalid request body"})
	}

	err = apply(requestContext(c), int64(id), &models.ContentReview{
		ApprovalStatus: req.ApprovalStatus,
		IsVisible:      req.IsVisible,
		IsFeatured:     req.IsFeatured,
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// nonNil keeps empty lists serialising as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
