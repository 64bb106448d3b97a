package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polrydian/polrydian-api/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func seededContent(t *testing.T) (ContentService, *fakePostRepo, *fakeAudit) {
	t.Helper()
	posts := newFakePostRepo()
	ctx := context.Background()
	for _, p := range []*models.SocialMediaPost{
		{Platform: models.PlatformLinkedIn, PlatformPostID: "p1", ApprovalStatus: models.ApprovalStatusApproved, IsVisible: true, IsFeatured: true},
		{Platform: models.PlatformLinkedIn, PlatformPostID: "p2", ApprovalStatus: models.ApprovalStatusApproved, IsVisible: false},
		{Platform: models.PlatformInstagram, PlatformPostID: "m1", ApprovalStatus: models.ApprovalStatusPending, IsVisible: true},
	} {
		_, err := posts.Upsert(ctx, p)
		require.NoError(t, err)
	}
	audit := &fakeAudit{}
	return NewContentService(posts, newFakeArticleRepo(), audit), posts, audit
}

func TestContentService_PublishedPosts(t *testing.T) {
	svc, _, _ := seededContent(t)

	posts, err := svc.PublishedPosts(context.Background(), "", false, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].PlatformPostID)

	posts, err = svc.PublishedPosts(context.Background(), models.PlatformInstagram, true, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestContentService_ListPostsFilters(t *testing.T) {
	svc, _, _ := seededContent(t)

	posts, err := svc.ListPosts(context.Background(), models.PlatformInstagram, models.ApprovalStatusPending, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "m1", posts[0].PlatformPostID)

	_, err = svc.ListPosts(context.Background(), "myspace", "", 10)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.ListPosts(context.Background(), "", "archived", 10)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestContentService_ReviewPost(t *testing.T) {
	svc, posts, audit := seededContent(t)
	m1 := posts.get(models.PlatformInstagram, "m1")

	review := &models.ContentReview{ApprovalStatus: models.ApprovalStatusApproved, IsFeatured: boolPtr(true)}
	require.NoError(t, svc.ReviewPost(context.Background(), m1.ID, review))
	assert.Same(t, review, posts.reviews[m1.ID])

	entry, ok := audit.find(models.ActionContentReviewed)
	require.True(t, ok)
	assert.Contains(t, entry.Details.Message, "approved")
}

func TestContentService_ReviewValidation(t *testing.T) {
	svc, posts, _ := seededContent(t)
	id := posts.get(models.PlatformLinkedIn, "p1").ID

	assert.ErrorIs(t, svc.ReviewPost(context.Background(), id, &models.ContentReview{}), ErrInvalidRequest)
	assert.ErrorIs(t, svc.ReviewPost(context.Background(), id, nil), ErrInvalidRequest)
	assert.ErrorIs(t, svc.ReviewPost(context.Background(), id, &models.ContentReview{ApprovalStatus: "maybe"}), ErrInvalidRequest)
	assert.ErrorIs(t, svc.ReviewPost(context.Background(), 999, &models.ContentReview{IsVisible: boolPtr(false)}), ErrNotFound)
	assert.ErrorIs(t, svc.ReviewArticle(context.Background(), 1, &models.ContentReview{IsVisible: boolPtr(false)}), ErrNotFound)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultContentLimit, clampLimit(0))
	assert.Equal(t, defaultContentLimit, clampLimit(-4))
	assert.Equal(t, 20, clampLimit(20))
	assert.Equal(t, maxContentLimit, clampLimit(10000))
}
