package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SocialMediaPost is a synced post, unique per (platform, platform_post_id).
type SocialMediaPost struct {
	ID             int64          `db:"id" json:"id"`
	Platform       string         `db:"platform" json:"platform"`
	PlatformPostID string         `db:"platform_post_id" json:"platform_post_id"`
	PostType       string         `db:"post_type" json:"post_type"`
	Content        string         `db:"content" json:"content"`
	PostURL        string         `db:"post_url" json:"post_url"`
	MediaURL       string         `db:"media_url" json:"media_url"`
	PublishedAt    time.Time      `db:"published_at" json:"published_at"`
	EngagementData EngagementData `db:"engagement_data" json:"engagement_data"`
	ApprovalStatus string         `db:"approval_status" json:"approval_status"`
	IsVisible      bool           `db:"is_visible" json:"is_visible"`
	IsFeatured     bool           `db:"is_featured" json:"is_featured"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// LinkedInArticle is a synced long-form article, unique per linkedin_id.
type LinkedInArticle struct {
	ID             int64          `db:"id" json:"id"`
	LinkedInID     string         `db:"linkedin_id" json:"linkedin_id"`
	Title          string         `db:"title" json:"title"`
	Content        string         `db:"content" json:"content"`
	ArticleURL     string         `db:"article_url" json:"article_url"`
	PublishedAt    time.Time      `db:"published_at" json:"published_at"`
	EngagementData EngagementData `db:"engagement_data" json:"engagement_data"`
	ApprovalStatus string         `db:"approval_status" json:"approval_status"`
	IsVisible      bool           `db:"is_visible" json:"is_visible"`
	IsFeatured     bool           `db:"is_featured" json:"is_featured"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// EngagementData is best-effort; all zero when enrichment failed.
type EngagementData struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
	Views    int `json:"views"`
}

func (e EngagementData) Value() (driver.Value, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (e *EngagementData) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = EngagementData{}
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return errors.New("engagement_data: unsupported scan type")
	}
}

const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

const (
	PostTypeText    = "text"
	PostTypeImage   = "image"
	PostTypeVideo   = "video"
	PostTypeArticle = "article"
	PostTypeAlbum   = "carousel"
)

// ContentReview is an admin decision applied to one synced row.
type ContentReview struct {
	ApprovalStatus string `json:"approval_status"`
	IsVisible      *bool  `json:"is_visible"`
	IsFeatured     *bool  `json:"is_featured"`
}
