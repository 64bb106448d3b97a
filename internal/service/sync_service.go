package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/platform"
	"github.com/polrydian/polrydian-api/internal/ratelimit"
	"github.com/polrydian/polrydian-api/internal/repository"
)

const (
	ActionSyncPosts    = "sync_posts"
	ActionSyncArticles = "sync_articles"

	engagementTimeout = 10 * time.Second
)

var supportedActions = map[string][]string{
	models.PlatformLinkedIn:  {ActionSyncPosts, ActionSyncArticles},
	models.PlatformInstagram: {ActionSyncPosts},
}

type SyncRequest struct {
	UserID    string
	Platform  string
	Action    string
	IPAddress string
}

type SyncResult struct {
	Message            string
	Reconcile          ReconcileResult
	EngagementFailures int
	ExpiringSoon       bool
	DaysRemaining      int
}

type SyncService interface {
	Sync(ctx context.Context, req SyncRequest) (*SyncResult, error)
}

type syncService struct {
	ur         repository.UserRoleRepository
	limiter    *ratelimit.Limiter
	creds      CredentialService
	clients    map[string]platform.ContentClient
	reconciler Reconciler
	mirror     MediaMirror
	audit      SecurityLogger
}

func NewSyncService(
	ur repository.UserRoleRepository,
	limiter *ratelimit.Limiter,
	creds CredentialService,
	clients []platform.ContentClient,
	reconciler Reconciler,
	mirror MediaMirror,
	audit SecurityLogger) SyncService {
	byPlatform := make(map[string]platform.ContentClient, len(clients))
	for _, c := range clients {
		byPlatform[c.Platform()] = c
	}
	return &syncService{
		ur:         ur,
		limiter:    limiter,
		creds:      creds,
		clients:    byPlatform,
		reconciler: reconciler,
		mirror:     mirror,
		audit:      audit,
	}
}

// Sync pulls content for one platform into the local tables. Every terminal
// failure is audited before it is returned.
func (s *syncService) Sync(ctx context.Context, req SyncRequest) (result *SyncResult, err error) {
	if req.Platform == "" {
		req.Platform = models.PlatformLinkedIn
	}
	ctx = WithActor(ctx, Actor{UserID: req.UserID, IPAddress: req.IPAddress})
	details := models.SecurityDetails{Platform: req.Platform, SyncAction: req.Action}

	defer func() {
		if r := recover(); r != nil {
			d := details
			d.Error = fmt.Sprint(r)
			d.Stack = string(debug.Stack())
			s.audit.Log(ctx, models.ActionSyncError, d, models.SeverityHigh)
			slog.Error("sync panicked", "platform", req.Platform, "action", req.Action, "panic", d.Error)
			result, err = nil, ErrUnhandled
		}
	}()

	isAdmin, err := s.ur.HasRole(ctx, req.UserID, models.RoleAdmin)
	if err != nil {
		return nil, s.unhandled(ctx, details, err)
	}
	if !isAdmin {
		d := details
		d.Role = models.RoleAdmin
		s.audit.Log(ctx, models.ActionUnauthorizedAccess, d, models.SeverityHigh)
		return nil, ErrForbidden
	}

	client, ok := s.clients[req.Platform]
	if !ok {
		s.audit.Log(ctx, models.ActionInvalidSyncRequest, details, models.SeverityLow)
		return nil, ErrUnsupportedPlatform
	}
	if !actionSupported(req.Platform, req.Action) {
		s.audit.Log(ctx, models.ActionInvalidSyncRequest, details, models.SeverityLow)
		return nil, ErrInvalidAction
	}

	s.audit.Log(ctx, models.ActionSyncAttempt, details, models.SeverityLow)

	identifier := fmt.Sprintf("%s_sync_%s", req.Platform, req.IPAddress)
	allowed, err := s.limiter.Check(ctx, identifier, config.SyncMaxAttempts, config.SyncWindowMinutes*time.Minute)
	if err != nil {
		return nil, s.unhandled(ctx, details, err)
	}
	if !allowed {
		d := details
		d.Identifier = identifier
		s.audit.Log(ctx, models.ActionRateLimitExceeded, d, models.SeverityMedium)
		return nil, ErrRateLimited
	}

	cred, err := s.creds.LoadActive(ctx, req.UserID, req.Platform)
	if err != nil {
		if SetupRequired(err) {
			return nil, err
		}
		return nil, s.unhandled(ctx, details, err)
	}

	var items []platform.Item
	switch req.Action {
	case ActionSyncArticles:
		items, err = client.FetchArticles(ctx, cred.Credential.PlatformUserID, cred.AccessToken)
	default:
		items, err = client.FetchPosts(ctx, cred.Credential.PlatformUserID, cred.AccessToken)
	}
	if err != nil {
		d := details
		d.Error = err.Error()
		s.audit.Log(ctx, models.ActionSyncAPIFailed, d, models.SeverityHigh)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	results := make([]ItemResult, 0, len(items))
	engagementFailures := 0
	for _, item := range items {
		ir := s.enrich(ctx, client, req.Platform, item, cred.AccessToken)
		if ir.EngagementErr != nil {
			engagementFailures++
		}
		results = append(results, ir)
	}

	rec := s.reconciler.Reconcile(ctx, req.Platform, results)

	success := details
	success.Inserted = rec.Inserted
	success.Updated = rec.Updated
	success.Failed = rec.Failed
	success.Total = rec.Total
	success.EngagementFailures = engagementFailures
	s.audit.Log(ctx, models.ActionSyncSuccess, success, models.SeverityLow)

	return &SyncResult{
		Message:            fmt.Sprintf("%s %s completed successfully", models.PlatformDisplayName(req.Platform), req.Action),
		Reconcile:          rec,
		EngagementFailures: engagementFailures,
		ExpiringSoon:       cred.ExpiringSoon,
		DaysRemaining:      cred.DaysRemaining,
	}, nil
}

// enrich fetches engagement and mirrors media for one item. Neither step can
// fail the sync: a failed engagement fetch stores zeroed metrics, so the item
// is never featured, and a failed mirror keeps the platform URL.
func (s *syncService) enrich(ctx context.Context, client platform.ContentClient, platformName string, item platform.Item, token string) ItemResult {
	ir := ItemResult{Item: item}

	ectx, cancel := context.WithTimeout(ctx, engagementTimeout)
	engagement, err := client.FetchEngagement(ectx, item.ExternalID, token)
	cancel()
	if err != nil {
		slog.Warn("engagement fetch failed", "platform", platformName, "external_id", item.ExternalID, "error", err)
		ir.EngagementErr = err
		s.audit.Log(ctx, models.ActionEngagementFailed, models.SecurityDetails{
			Platform: platformName,
			Message:  item.ExternalID,
			Error:    err.Error(),
		}, models.SeverityLow)
	} else {
		ir.Engagement = engagement
	}

	if s.mirror != nil && item.MediaURL != "" {
		mirrored, err := s.mirror.Mirror(ctx, platformName, item.ExternalID, item.MediaURL)
		if err != nil {
			slog.Warn("media mirror failed", "platform", platformName, "external_id", item.ExternalID, "error", err)
		} else {
			ir.Item.MediaURL = mirrored
		}
	}

	return ir
}

func (s *syncService) unhandled(ctx context.Context, details models.SecurityDetails, err error) error {
	details.Error = err.Error()
	s.audit.Log(ctx, models.ActionSyncError, details, models.SeverityHigh)
	return fmt.Errorf("%w: %v", ErrUnhandled, err)
}

func actionSupported(platformName, action string) bool {
	for _, a := range supportedActions[platformName] {
		if a == action {
			return true
		}
	}
	return false
}
