package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/polrydian/polrydian-api/internal/models"
)

type LinkedInArticleRepository interface {
	Upsert(ctx context.Context, article *models.LinkedInArticle) (bool, error)
	List(ctx context.Context, approvalStatus string, limit int) ([]*models.LinkedInArticle, error)
	ListPublished(ctx context.Context, limit int) ([]*models.LinkedInArticle, error)
	Review(ctx context.Context, id int64, review *models.ContentReview) error
}

type linkedInArticleRepository struct {
	db *sql.DB
}

func NewLinkedInArticleRepository(db *sql.DB) LinkedInArticleRepository {
	return &linkedInArticleRepository{db: db}
}

const linkedInArticleColumns = `id, linkedin_id, title, content, article_url, published_at,
	engagement_data, approval_status, is_visible, is_featured, created_at, updated_at`

func (r *linkedInArticleRepository) Upsert(ctx context.Context, article *models.LinkedInArticle) (bool, error) {
	query := `
		INSERT INTO linkedin_articles (
			linkedin_id,
			title,
			content,
			article_url,
			published_at,
			engagement_data,
			approval_status,
			is_visible,
			is_featured
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (linkedin_id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			article_url = EXCLUDED.article_url,
			published_at = EXCLUDED.published_at,
			engagement_data = EXCLUDED.engagement_data,
			approval_status = EXCLUDED.approval_status,
			is_visible = EXCLUDED.is_visible,
			is_featured = EXCLUDED.is_featured,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		article.LinkedInID,
		article.Title,
		article.Content,
		article.ArticleURL,
		nullTime(article.PublishedAt),
		article.EngagementData,
		article.ApprovalStatus,
		article.IsVisible,
		article.IsFeatured,
	).Scan(&article.ID, &inserted)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return inserted, nil
}

func (r *linkedInArticleRepository) List(ctx context.Context, approvalStatus string, limit int) ([]*models.LinkedInArticle, error) {
	query := `SELECT ` + linkedInArticleColumns + `
		FROM linkedin_articles
		WHERE ($1 = '' OR approval_status = $1)
		ORDER BY published_at DESC NULLS LAST
		LIMIT $2`

	return r.list(ctx, query, approvalStatus, limit)
}

func (r *linkedInArticleRepository) ListPublished(ctx context.Context, limit int) ([]*models.LinkedInArticle, error) {
	query := `SELECT ` + linkedInArticleColumns + `
		FROM linkedin_articles
		WHERE approval_status = 'approved' AND is_visible = TRUE
		ORDER BY is_featured DESC, published_at DESC NULLS LAST
		LIMIT $1`

	return r.list(ctx, query, limit)
}

func (r *linkedInArticleRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.LinkedInArticle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var articles []*models.LinkedInArticle
	for rows.Next() {
		var a models.LinkedInArticle
		var publishedAt sql.NullTime
		err := rows.Scan(&a.ID, &a.LinkedInID, &a.Title, &a.Content, &a.ArticleURL, &publishedAt,
			&a.EngagementData, &a.ApprovalStatus, &a.IsVisible, &a.IsFeatured, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		a.PublishedAt = publishedAt.Time
		articles = append(articles, &a)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return articles, nil
}

func (r *linkedInArticleRepository) Review(ctx context.Context, id int64, review *models.ContentReview) error {
	query := `
		UPDATE linkedin_articles
		SET approval_status = COALESCE(NULLIF($1, ''), approval_status),
			is_visible = COALESCE($2, is_visible),
			is_featured = COALESCE($3, is_featured),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, review.ApprovalStatus, nullBool(review.IsVisible), nullBool(review.IsFeatured), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return expectOneRow(result)
}
