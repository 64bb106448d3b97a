package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/repository"
)

const (
	defaultContentLimit = 50
	maxContentLimit     = 200
)

type ContentService interface {
	ListPosts(ctx context.Context, platform, approvalStatus string, limit int) ([]*models.SocialMediaPost, error)
	ListArticles(ctx context.Context, approvalStatus string, limit int) ([]*models.LinkedInArticle, error)
	ReviewPost(ctx context.Context, id int64, review *models.ContentReview) error
	ReviewArticle(ctx context.Context, id int64, review *models.ContentReview) error
	PublishedPosts(ctx context.Context, platform string, featuredOnly bool, limit int) ([]*models.SocialMediaPost, error)
	PublishedArticles(ctx context.Context, limit int) ([]*models.LinkedInArticle, error)
}

type contentService struct {
	sp    repository.SocialPostRepository
	la    repository.LinkedInArticleRepository
	audit SecurityLogger
}

func NewContentService(sp repository.SocialPostRepository, la repository.LinkedInArticleRepository, audit SecurityLogger) ContentService {
	return &contentService{
		sp:    sp,
		la:    la,
		audit: audit,
	}
}

func (s *contentService) ListPosts(ctx context.Context, platform, approvalStatus string, limit int) ([]*models.SocialMediaPost, error) {
	if err := validateFilters(platform, approvalStatus); err != nil {
		return nil, err
	}
	return s.sp.List(ctx, platform, approvalStatus, clampLimit(limit))
}

func (s *contentService) ListArticles(ctx context.Context, approvalStatus string, limit int) ([]*models.LinkedInArticle, error) {
	if err := validateFilters("", approvalStatus); err != nil {
		return nil, err
	}
	return s.la.List(ctx, approvalStatus, clampLimit(limit))
}

func (s *contentService) ReviewPost(ctx context.Context, id int64, review *models.ContentReview) error {
	return s.review(ctx, "post", id, review, s.sp.Review)
}

func (s *contentService) ReviewArticle(ctx context.Context, id int64, review *models.ContentReview) error {
	return s.review(ctx, "article", id, review, s.la.Review)
}

func (s *contentService) review(ctx context.Context, kind string, id int64, review *models.ContentReview,
	apply func(context.Context, int64, *models.ContentReview) error) error {
	if err := validateReview(review); err != nil {
		return err
	}

	if err := apply(ctx, id, review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	s.audit.Log(ctx, models.ActionContentReviewed, models.SecurityDetails{
		Message: fmt.Sprintf("%s %d reviewed: %s", kind, id, review.ApprovalStatus),
	}, models.SeverityLow)
	return nil
}

func (s *contentService) PublishedPosts(ctx context.Context, platform string, featuredOnly bool, limit int) ([]*models.SocialMediaPost, error) {
	if err := validateFilters(platform, ""); err != nil {
		return nil, err
	}
	return s.sp.ListPublished(ctx, platform, featuredOnly, clampLimit(limit))
}

func (s *contentService) PublishedArticles(ctx context.Context, limit int) ([]*models.LinkedInArticle, error) {
	return s.la.ListPublished(ctx, clampLimit(limit))
}

func validateFilters(platform, approvalStatus string) error {
	if err := validation.Validate(platform, validation.In(models.PlatformLinkedIn, models.PlatformInstagram)); err != nil {
		return fmt.Errorf("%w: platform: %v", ErrInvalidRequest, err)
	}
	if err := validation.Validate(approvalStatus, validation.In(models.ApprovalStatusPending, models.ApprovalStatusApproved, models.ApprovalStatusRejected)); err != nil {
		return fmt.Errorf("%w: approval_status: %v", ErrInvalidRequest, err)
	}
	return nil
}

func validateReview(review *models.ContentReview) error {
	if review == nil {
		return fmt.Errorf("%w: empty review", ErrInvalidRequest)
	}
	if review.ApprovalStatus == "" && review.IsVisible == nil && review.IsFeatured == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidRequest)
	}

	err := validation.ValidateStruct(review,
		validation.Field(&review.ApprovalStatus, validation.In(models.ApprovalStatusPending, models.ApprovalStatusApproved, models.ApprovalStatusRejected)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultContentLimit
	}
	if limit > maxContentLimit {
		return maxContentLimit
	}
	return limit
}
