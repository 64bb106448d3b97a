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
	instagramDisplayName     = "Instagram"
	instagramTimestampLayout = "2006-01-02T15:04:05-0700"
	instagramMediaFields     = "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp,like_count,comments_count"
	instagramInsightMetrics  = "likes,comments,shares,views"
)

type InstagramClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]Item]
}

func NewInstagramClient(baseURL string, client *http.Client) *InstagramClient {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &InstagramClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		breaker: newBreaker("instagram-media"),
	}
}

func (c *InstagramClient) Platform() string {
	return models.PlatformInstagram
}

func (c *InstagramClient) FetchPosts(ctx context.Context, accountID, token string) ([]Item, error) {
	return executeBreaker(c.breaker, func() ([]Item, error) {
		params := url.Values{}
		params.Set("fields", instagramMediaFields)
		params.Set("limit", "50")
		params.Set("access_token", token)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/%s/media?%s", c.baseURL, url.PathEscape(accountID), params.Encode()), nil)
		if err != nil {
			return nil, fmt.Errorf("error creating request: %w", err)
		}

		var result transfer.InstagramMediaResponse
		if err := getJSON(c.client, req, instagramDisplayName, &result, parseInstagramError); err != nil {
			return nil, err
		}

		items := make([]Item, 0, len(result.Data))
		for _, m := range result.Data {
			items = append(items, instagramItem(m))
		}
		return items, nil
	})
}

func (c *InstagramClient) FetchArticles(ctx context.Context, accountID, token string) ([]Item, error) {
	return nil, fmt.Errorf("%w: instagram articles", ErrNotSupported)
}

func (c *InstagramClient) FetchEngagement(ctx context.Context, itemID, token string) (models.EngagementData, error) {
	params := url.Values{}
	params.Set("metric", instagramInsightMetrics)
	params.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s/insights?%s", c.baseURL, url.PathEscape(itemID), params.Encode()), nil)
	if err != nil {
		return models.EngagementData{}, fmt.Errorf("error creating request: %w", err)
	}

	var result transfer.InstagramInsightsResponse
	if err := getJSON(c.client, req, instagramDisplayName, &result, parseInstagramError); err != nil {
		return models.EngagementData{}, err
	}

	var engagement models.EngagementData
	for _, metric := range result.Data {
		value := 0
		if metric.TotalValue != nil {
			value = metric.TotalValue.Value
		} else if len(metric.Values) > 0 {
			value = metric.Values[0].Value
		}

		switch metric.Name {
		case "likes":
			engagement.Likes = value
		case "comments":
			engagement.Comments = value
		case "shares":
			engagement.Shares = value
		case "views":
			engagement.Views = value
		}
	}
	return engagement, nil
}

func instagramItem(m transfer.InstagramMedia) Item {
	item := Item{
		ExternalID: m.ID,
		Kind:       KindPost,
		Content:    m.Caption,
		URL:        m.Permalink,
		MediaURL:   m.MediaURL,
		Engagement: models.EngagementData{
			Likes:    m.LikeCount,
			Comments: m.CommentsCount,
		},
	}

	switch m.MediaType {
	case "VIDEO":
		item.PostType = models.PostTypeVideo
		if m.ThumbnailURL != "" {
			item.MediaURL = m.ThumbnailURL
		}
	case "CAROUSEL_ALBUM":
		item.PostType = models.PostTypeAlbum
	default:
		item.PostType = models.PostTypeImage
	}

	if t, err := time.Parse(instagramTimestampLayout, m.Timestamp); err == nil {
		item.PublishedAt = t.UTC()
	}
	return item
}

func parseInstagramError(body []byte) string {
	var e transfer.InstagramErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error.Message
}
