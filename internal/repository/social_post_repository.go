package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/polrydian/polrydian-api/internal/models"
)

type SocialPostRepository interface {
	Upsert(ctx context.Context, post *models.SocialMediaPost) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.SocialMediaPost, error)
	List(ctx context.Context, platform, approvalStatus string, limit int) ([]*models.SocialMediaPost, error)
	ListPublished(ctx context.Context, platform string, featuredOnly bool, limit int) ([]*models.SocialMediaPost, error)
	Review(ctx context.Context, id int64, review *models.ContentReview) error
}

type socialPostRepository struct {
	db *sql.DB
}

func NewSocialPostRepository(db *sql.DB) SocialPostRepository {
	return &socialPostRepository{db: db}
}

const socialPostColumns = `id, platform, platform_post_id, post_type, content, post_url, media_url,
	published_at, engagement_data, approval_status, is_visible, is_featured, created_at, updated_at`

// Upsert inserts or updates the row keyed by (platform, platform_post_id) and
// reports whether a new row was created. A previously mirrored media_url is
// kept when the incoming one is empty.
func (r *socialPostRepository) Upsert(ctx context.Context, post *models.SocialMediaPost) (bool, error) {
	query := `
		INSERT INTO social_media_posts (
			platform,
			platform_post_id,
			post_type,
			content,
			post_url,
			media_url,
			published_at,
			engagement_data,
			approval_status,
			is_visible,
			is_featured
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (platform, platform_post_id) DO UPDATE SET
			post_type = EXCLUDED.post_type,
			content = EXCLUDED.content,
			post_url = EXCLUDED.post_url,
			media_url = COALESCE(NULLIF(EXCLUDED.media_url, ''), social_media_posts.media_url),
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
		post.Platform,
		post.PlatformPostID,
		post.PostType,
		post.Content,
		post.PostURL,
		post.MediaURL,
		nullTime(post.PublishedAt),
		post.EngagementData,
		post.ApprovalStatus,
		post.IsVisible,
		post.IsFeatured,
	).Scan(&post.ID, &inserted)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return inserted, nil
}

func (r *socialPostRepository) GetByID(ctx context.Context, id int64) (*models.SocialMediaPost, error) {
	query := `SELECT ` + socialPostColumns + ` FROM social_media_posts WHERE id = $1`

	post, err := scanSocialPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// List returns posts for admin review. Empty filters match everything.
func (r *socialPostRepository) List(ctx context.Context, platform, approvalStatus string, limit int) ([]*models.SocialMediaPost, error) {
	query := `SELECT ` + socialPostColumns + `
		FROM social_media_posts
		WHERE ($1 = '' OR platform = $1)
		AND ($2 = '' OR approval_status = $2)
		ORDER BY published_at DESC NULLS LAST
		LIMIT $3`

	return r.list(ctx, query, platform, approvalStatus, limit)
}

// ListPublished returns approved, visible posts for the public site.
func (r *socialPostRepository) ListPublished(ctx context.Context, platform string, featuredOnly bool, limit int) ([]*models.SocialMediaPost, error) {
	query := `SELECT ` + socialPostColumns + `
		FROM social_media_posts
		WHERE approval_status = 'approved' AND is_visible = TRUE
		AND ($1 = '' OR platform = $1)
		AND (NOT $2 OR is_featured = TRUE)
		ORDER BY is_featured DESC, published_at DESC NULLS LAST
		LIMIT $3`

	return r.list(ctx, query, platform, featuredOnly, limit)
}

func (r *socialPostRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.SocialMediaPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.SocialMediaPost
	for rows.Next() {
		post, err := scanSocialPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *socialPostRepository) Review(ctx context.Context, id int64, review *models.ContentReview) error {
	query := `
		UPDATE social_media_posts
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

func scanSocialPost(row rowScanner) (*models.SocialMediaPost, error) {
	var post models.SocialMediaPost
	var publishedAt sql.NullTime
	err := row.Scan(&post.ID, &post.Platform, &post.PlatformPostID, &post.PostType, &post.Content,
		&post.PostURL, &post.MediaURL, &publishedAt, &post.EngagementData, &post.ApprovalStatus,
		&post.IsVisible, &post.IsFeatured, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	post.PublishedAt = publishedAt.Time
	return &post, nil
}
