package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

const (
	linkedInDisplayName = "LinkedIn"
	linkedInPageSize    = 50
	linkedInPostURL     = "https://www.linkedin.com/feed/update/"
)

type LinkedInClient struct {
	baseURL    string
	apiVersion string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker[[]Item]
}

func NewLinkedInClient(baseURL, apiVersion string, client *http.Client) *LinkedInClient {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &LinkedInClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		client:     client,
		breaker:    newBreaker("linkedin-posts"),
	}
}

func (c *LinkedInClient) Platform() string {
	return models.PlatformLinkedIn
}

func (c *LinkedInClient) FetchPosts(ctx context.Context, accountID, token string) ([]Item, error) {
	return executeBreaker(c.breaker, func() ([]Item, error) {
		posts, err := c.listPosts(ctx, accountID, token)
		if err != nil {
			return nil, err
		}

		items := make([]Item, 0, len(posts))
		for _, p := range posts {
			items = append(items, linkedInItem(p))
		}
		return items, nil
	})
}

// FetchArticles returns the author's posts that share an article.
func (c *LinkedInClient) FetchArticles(ctx context.Context, accountID, token string) ([]Item, error) {
	return executeBreaker(c.breaker, func() ([]Item, error) {
		posts, err := c.listPosts(ctx, accountID, token)
		if err != nil {
			return nil, err
		}

		var items []Item
		for _, p := range posts {
			if p.Content == nil || p.Content.Article == nil {
				continue
			}
			item := linkedInItem(p)
			item.Kind = KindArticle
			items = append(items, item)
		}
		return items, nil
	})
}

func (c *LinkedInClient) listPosts(ctx context.Context, accountID, token string) ([]transfer.LinkedInPost, error) {
	params := url.Values{}
	params.Set("q", "author")
	params.Set("author", "urn:li:person:"+accountID)
	params.Set("count", fmt.Sprint(linkedInPageSize))

	req, err := c.newRequest(ctx, c.baseURL+"/rest/posts?"+params.Encode(), token)
	if err != nil {
		return nil, err
	}

	var result transfer.LinkedInPostsResponse
	if err := getJSON(c.client, req, linkedInDisplayName, &result, parseLinkedInError); err != nil {
		return nil, err
	}
	return result.Elements, nil
}

func (c *LinkedInClient) FetchEngagement(ctx context.Context, itemID, token string) (models.EngagementData, error) {
	req, err := c.newRequest(ctx, c.baseURL+"/rest/socialActions/"+url.QueryEscape(itemID), token)
	if err != nil {
		return models.EngagementData{}, err
	}

	var actions transfer.LinkedInSocialActions
	if err := getJSON(c.client, req, linkedInDisplayName, &actions, parseLinkedInError); err != nil {
		return models.EngagementData{}, err
	}

	engagement := models.EngagementData{
		Likes:    actions.NumLikes,
		Comments: actions.NumComments,
		Shares:   actions.NumShares,
		Views:    actions.NumViews,
	}
	if actions.LikesSummary != nil {
		engagement.Likes = actions.LikesSummary.TotalLikes
	}
	if actions.CommentsSummary != nil {
		engagement.Comments = actions.CommentsSummary.AggregatedTotalComments
	}
	return engagement, nil
}

func (c *LinkedInClient) newRequest(ctx context.Context, reqURL, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("LinkedIn-Version", c.apiVersion)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	return req, nil
}

func linkedInItem(p transfer.LinkedInPost) Item {
	item := Item{
		ExternalID: p.ID,
		Kind:       KindPost,
		PostType:   models.PostTypeText,
		Content:    p.Commentary,
		URL:        linkedInPostURL + p.ID,
	}

	switch {
	case p.PublishedAt > 0:
		item.PublishedAt = time.UnixMilli(p.PublishedAt).UTC()
	case p.Created.Time > 0:
		item.PublishedAt = time.UnixMilli(p.Created.Time).UTC()
	}

	if p.Content == nil {
		return item
	}

	switch {
	case p.Content.Article != nil:
		item.PostType = models.PostTypeArticle
		item.Title = p.Content.Article.Title
		if p.Content.Article.Source != "" {
			item.URL = p.Content.Article.Source
		}
		if item.Content == "" {
			item.Content = p.Content.Article.Description
		}
	case p.Content.MultiImage != nil:
		item.PostType = models.PostTypeAlbum
	case p.Content.Media != nil:
		item.PostType = models.PostTypeImage
		if strings.HasPrefix(p.Content.Media.ID, "urn:li:video:") {
			item.PostType = models.PostTypeVideo
		}
		if item.Title == "" {
			item.Title = p.Content.Media.Title
		}
	}
	return item
}

func parseLinkedInError(body []byte) string {
	var e transfer.LinkedInErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Message
}
