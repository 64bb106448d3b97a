package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/repository"
	"github.com/polrydian/polrydian-api/internal/service"
)

const concurrencyLimit = 10

// TokenExpiryJob sweeps credentials that expire inside the warning window.
// Expired ones are deactivated, Instagram tokens are refreshed, and the admin
// is emailed about anything that still needs a manual reconnect.
type TokenExpiryJob struct {
	cr     repository.CredentialRepository
	ig     service.InstagramService
	notify service.NotificationService
	audit  service.SecurityLogger
	now    func() time.Time
}

func NewTokenExpiryJob(
	cr repository.CredentialRepository,
	ig service.InstagramService,
	notify service.NotificationService,
	audit service.SecurityLogger) *TokenExpiryJob {
	return &TokenExpiryJob{
		cr:     cr,
		ig:     ig,
		notify: notify,
		audit:  audit,
		now:    time.Now,
	}
}

func (c *TokenExpiryJob) CheckTokens() {
	ctx := context.Background()

	now := c.now()
	credentials, err := c.cr.ListActiveExpiringBefore(ctx, now.Add(config.ExpiryWarningWindow))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, cred := range credentials {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(cred *models.Credential) {
			defer wg.Done()
			defer func() { <-semaphore }()

			c.check(service.WithActor(ctx, service.Actor{UserID: cred.UserID}), cred, now)
		}(cred)
	}

	wg.Wait()
	slog.Info("token expiry check finished", "checked", len(credentials))
}

func (c *TokenExpiryJob) check(ctx context.Context, cred *models.Credential, now time.Time) {
	remaining := cred.TimeUntilExpiry(now)
	days := int(remaining.Hours() / 24)
	details := models.SecurityDetails{
		Platform:      cred.Platform,
		ExpiresAt:     &cred.ExpiresAt,
		DaysRemaining: &days,
	}

	if remaining <= 0 {
		if err := c.cr.Deactivate(ctx, cred.ID); err != nil {
			slog.Info(err.Error())
			return
		}
		details.DaysRemaining = nil
		details.Message = "access token expired"
		c.audit.Log(ctx, models.ActionTokenExpired, details, models.SeverityMedium)
		c.sendNotice(c.notify.NotifyTokenExpired(ctx, cred), cred)
		return
	}

	if cred.Platform == models.PlatformInstagram {
		err := c.ig.RefreshInstagramToken(ctx, cred.UserID)
		if err == nil {
			c.audit.Log(ctx, models.ActionTokenRefreshed, models.SecurityDetails{Platform: cred.Platform}, models.SeverityLow)
			return
		}
		slog.Info("Unable to refresh tokens for Instagram", "credential_id", cred.ID, "error", err)
		refreshFailed := details
		refreshFailed.Error = err.Error()
		c.audit.Log(ctx, models.ActionTokenRefreshFailed, refreshFailed, models.SeverityMedium)
	}

	c.sendNotice(c.notify.NotifyTokenExpiring(ctx, cred, days), cred)
}

func (c *TokenExpiryJob) sendNotice(err error, cred *models.Credential) {
	if err != nil {
		slog.Info("Unable to queue token notice", "platform", cred.Platform, "credential_id", cred.ID, "error", err)
	}
}
