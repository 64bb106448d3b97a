package service

import (
	"context"
	"log/slog"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/platform"
	"github.com/polrydian/polrydian-api/internal/repository"
)

// ItemResult is one fetched item after enrichment. EngagementErr is set when
// enrichment failed and Engagement holds the degraded values.
type ItemResult struct {
	Item          platform.Item
	Engagement    models.EngagementData
	EngagementErr error
}

type ReconcileResult struct {
	Inserted int
	Updated  int
	Failed   int
	Total    int
}

type Reconciler interface {
	Reconcile(ctx context.Context, platformName string, results []ItemResult) ReconcileResult
}

type reconciler struct {
	sp repository.SocialPostRepository
	la repository.LinkedInArticleRepository
}

func NewReconciler(sp repository.SocialPostRepository, la repository.LinkedInArticleRepository) Reconciler {
	return &reconciler{sp: sp, la: la}
}

// Reconcile upserts every item. Each upsert commits on its own and a failed
// item is counted without stopping the batch.
func (r *reconciler) Reconcile(ctx context.Context, platformName string, results []ItemResult) ReconcileResult {
	var res ReconcileResult

	for _, ir := range results {
		res.Total++

		var inserted bool
		var err error
		if ir.Item.Kind == platform.KindArticle {
			inserted, err = r.la.Upsert(ctx, articleFromItem(ir))
		} else {
			inserted, err = r.sp.Upsert(ctx, postFromItem(platformName, ir))
		}

		if err != nil {
			slog.Warn("failed to reconcile item", "platform", platformName, "external_id", ir.Item.ExternalID, "error", err)
			res.Failed++
			continue
		}

		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	return res
}

func isFeatured(e models.EngagementData) bool {
	return e.Likes > config.FeaturedLikesThreshold
}

// Synced rows are published straight away.
func postFromItem(platformName string, ir ItemResult) *models.SocialMediaPost {
	return &models.SocialMediaPost{
		Platform:       platformName,
		PlatformPostID: ir.Item.ExternalID,
		PostType:       ir.Item.PostType,
		Content:        ir.Item.Content,
		PostURL:        ir.Item.URL,
		MediaURL:       ir.Item.MediaURL,
		PublishedAt:    ir.Item.PublishedAt,
		EngagementData: ir.Engagement,
		ApprovalStatus: models.ApprovalStatusApproved,
		IsVisible:      true,
		IsFeatured:     isFeatured(ir.Engagement),
	}
}

func articleFromItem(ir ItemResult) *models.LinkedInArticle {
	return &models.LinkedInArticle{
		LinkedInID:     ir.Item.ExternalID,
		Title:          ir.Item.Title,
		Content:        ir.Item.Content,
		ArticleURL:     ir.Item.URL,
		PublishedAt:    ir.Item.PublishedAt,
		EngagementData: ir.Engagement,
		ApprovalStatus: models.ApprovalStatusApproved,
		IsVisible:      true,
		IsFeatured:     isFeatured(ir.Engagement),
	}
}
