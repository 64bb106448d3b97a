package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/repository"
)

// ActiveCredential is a loaded credential with its decrypted token.
type ActiveCredential struct {
	Credential    *models.Credential
	AccessToken   string
	DaysRemaining int
	ExpiringSoon  bool
}

type ConnectRequest struct {
	UserID         string
	Platform       string
	PlatformUserID string
	AccessToken    string
	ProfileData    models.ProfileData
	ExpiresAt      time.Time
}

type CredentialService interface {
	LoadActive(ctx context.Context, userID, platform string) (*ActiveCredential, error)
	Connect(ctx context.Context, req ConnectRequest) (int64, error)
	List(ctx context.Context, userID string) ([]*models.ConnectionStatus, error)
	Disconnect(ctx context.Context, userID, platform string) error
}

type credentialService struct {
	cr     repository.CredentialRepository
	cipher TokenCipher
	audit  SecurityLogger
	now    func() time.Time
}

func NewCredentialService(cr repository.CredentialRepository, cipher TokenCipher, audit SecurityLogger) CredentialService {
	return &credentialService{
		cr:     cr,
		cipher: cipher,
		audit:  audit,
		now:    time.Now,
	}
}

// LoadActive returns the newest active credential for the platform. An expired
// credential is deactivated and reported as ErrCredentialExpired; one expiring
// within the warning window is audited but still returned.
func (s *credentialService) LoadActive(ctx context.Context, userID, platform string) (*ActiveCredential, error) {
	details := models.SecurityDetails{Platform: platform}

	c, err := s.cr.GetActive(ctx, userID, platform)
	if err != nil {
		return nil, fmt.Errorf("error loading credential: %w", err)
	}

	if c == nil {
		details.Message = "no active credential"
		s.audit.Log(ctx, models.ActionCredentialMissing, details, models.SeverityMedium)
		return nil, ErrCredentialNotFound
	}

	now := s.now()
	remaining := c.TimeUntilExpiry(now)
	days := daysRemaining(remaining)
	details.ExpiresAt = &c.ExpiresAt
	details.DaysRemaining = &days

	if remaining <= 0 {
		if err := s.cr.Deactivate(ctx, c.ID); err != nil {
			slog.Info(err.Error())
		}
		details.Message = "access token expired"
		s.audit.Log(ctx, models.ActionTokenExpired, details, models.SeverityMedium)
		return nil, ErrCredentialExpired
	}

	token, err := s.cipher.Decrypt(ctx, c.AccessTokenEncrypted)
	if err != nil || !usableToken(token) {
		if err != nil {
			details.Error = err.Error()
		}
		details.Message = ErrTokenDecrypt.Error()
		s.audit.Log(ctx, models.ActionTokenDecryptFailed, details, models.SeverityHigh)
		return nil, ErrTokenDecrypt
	}

	active := &ActiveCredential{
		Credential:    c,
		AccessToken:   token,
		DaysRemaining: days,
	}

	if remaining < config.ExpiryWarningWindow {
		active.ExpiringSoon = true
		details.Message = fmt.Sprintf("access token expires in %d days", days)
		s.audit.Log(ctx, models.ActionTokenExpiringSoon, details, models.SeverityMedium)
	}

	return active, nil
}

func (s *credentialService) Connect(ctx context.Context, req ConnectRequest) (int64, error) {
	if req.UserID == "" || req.PlatformUserID == "" || req.AccessToken == "" {
		err := errors.New("incomplete credential")
		slog.Info(err.Error())
		return 0, err
	}

	encrypted, err := s.cipher.Encrypt(ctx, req.AccessToken)
	if err != nil {
		return 0, fmt.Errorf("error encrypting access token: %w", err)
	}

	id, err := s.cr.Replace(ctx, &models.Credential{
		UserID:               req.UserID,
		Platform:             req.Platform,
		PlatformUserID:       req.PlatformUserID,
		AccessTokenEncrypted: encrypted,
		ProfileData:          req.ProfileData,
		ExpiresAt:            req.ExpiresAt,
	})
	if err != nil {
		return 0, fmt.Errorf("error storing credential: %w", err)
	}

	s.audit.Log(ctx, models.ActionCredentialConnected, models.SecurityDetails{
		Platform:  req.Platform,
		ExpiresAt: &req.ExpiresAt,
	}, models.SeverityLow)

	return id, nil
}

func (s *credentialService) List(ctx context.Context, userID string) ([]*models.ConnectionStatus, error) {
	credentials, err := s.cr.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing connections: %w", err)
	}

	now := s.now()
	statuses := make([]*models.ConnectionStatus, 0, len(credentials))
	for _, c := range credentials {
		statuses = append(statuses, &models.ConnectionStatus{
			Platform:       c.Platform,
			PlatformUserID: c.PlatformUserID,
			ProfileData:    c.ProfileData,
			ExpiresAt:      c.ExpiresAt,
			DaysRemaining:  daysRemaining(c.TimeUntilExpiry(now)),
			ConnectedAt:    c.CreatedAt,
		})
	}
	return statuses, nil
}

// Disconnect deactivates the user's credentials for platform. Rows are kept.
func (s *credentialService) Disconnect(ctx context.Context, userID, platform string) error {
	n, err := s.cr.DeactivateByPlatform(ctx, nil, userID, platform)
	if err != nil {
		return fmt.Errorf("error disconnecting account: %w", err)
	}
	if n == 0 {
		return ErrCredentialNotFound
	}

	s.audit.Log(ctx, models.ActionCredentialRevoked, models.SecurityDetails{Platform: platform}, models.SeverityLow)
	return nil
}

func daysRemaining(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Hours() / 24))
}
