// Package platform talks to the external social APIs whose content is synced
// into the local store.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/polrydian/polrydian-api/internal/models"
)

const (
	KindPost    = "post"
	KindArticle = "article"
)

var (
	ErrCircuitOpen  = errors.New("upstream API temporarily unavailable")
	ErrNotSupported = errors.New("operation not supported by platform")
)

// Item is one piece of external content normalised across platforms.
type Item struct {
	ExternalID  string
	Kind        string
	PostType    string
	Title       string
	Content     string
	URL         string
	MediaURL    string
	PublishedAt time.Time
	// Engagement holds counters embedded in the listing. Sync stores only
	// what FetchEngagement returns.
	Engagement  models.EngagementData
}

// ContentClient fetches content from one platform. FetchPosts and
// FetchArticles are the primary fetch and fail the sync on any error;
// FetchEngagement is best-effort enrichment.
type ContentClient interface {
	Platform() string
	FetchPosts(ctx context.Context, accountID, token string) ([]Item, error)
	FetchArticles(ctx context.Context, accountID, token string) ([]Item, error)
	FetchEngagement(ctx context.Context, itemID, token string) (models.EngagementData, error)
}

// APIError is a non-2xx response from an upstream API.
type APIError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error: HTTP %d", e.Platform, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: HTTP %d: %s", e.Platform, e.StatusCode, e.Message)
}

// NewHTTPClient returns the client used for upstream calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// newBreaker trips after consecutive transport or 5xx failures. Client errors
// such as an expired token do not count against the upstream.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]Item] {
	return gobreaker.NewCircuitBreaker[[]Item](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

func executeBreaker(cb *gobreaker.CircuitBreaker[[]Item], fn func() ([]Item, error)) ([]Item, error) {
	items, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, cb.Name())
	}
	return items, err
}

// getJSON performs req and decodes a 2xx body into out. Any other status is
// returned as *APIError carrying the upstream message when one can be parsed.
func getJSON(client *http.Client, req *http.Request, platform string, out interface{}, parseErr func([]byte) string) error {
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%s request failed: %w", platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("error reading %s response: %w", platform, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Platform: platform, StatusCode: resp.StatusCode}
		if parseErr != nil {
			apiErr.Message = parseErr(body)
		}
		slog.Info(apiErr.Error())
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("error parsing %s response: %w", platform, err)
	}
	return nil
}
