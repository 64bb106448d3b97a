package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/pkg/utils"
)

const oauthStateLifetime = 10 * time.Minute

var errStateSecretMissing = errors.New("OAUTH_STATE_SECRET is not configured")

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, userID string) (string, error)
	Callback(ctx context.Context, platform, code, state string) error
	List(ctx context.Context, userID string) ([]*models.ConnectionStatus, error)
	Delete(ctx context.Context, userID, platform string) error
}

type platformService struct {
	stateSecret string
	li          LinkedInService
	ig          InstagramService
	creds       CredentialService
}

func NewPlatformService(cfg config.Config, li LinkedInService, ig InstagramService, creds CredentialService) PlatformService {
	return &platformService{
		stateSecret: cfg.OAuthStateSecret,
		li:          li,
		ig:          ig,
		creds:       creds,
	}
}

// GetAuthURL returns the provider consent URL. The state parameter is a
// short-lived token signed with OAUTH_STATE_SECRET that carries the user id
// through the redirect. That secret is never shared with the token cipher.
func (s *platformService) GetAuthURL(ctx context.Context, platform, userID string) (string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return "", err
	}

	if s.stateSecret == "" {
		slog.Info(errStateSecretMissing.Error())
		return "", errStateSecretMissing
	}

	state, err := utils.GenerateToken(s.stateSecret, userID, "", oauthStateLifetime)
	if err != nil {
		return "", fmt.Errorf("Unable to create state token")
	}

	switch platform {
	case models.PlatformLinkedIn:
		return s.li.AuthURL(state), nil
	case models.PlatformInstagram:
		return s.ig.AuthURL(state), nil
	default:
		return "", ErrUnsupportedPlatform
	}
}

func (s *platformService) Callback(ctx context.Context, platform, code, state string) error {
	if s.stateSecret == "" {
		slog.Info(errStateSecretMissing.Error())
		return fmt.Errorf("%w: %v", ErrInvalidRequest, errStateSecretMissing)
	}

	claims, err := utils.ValidateToken(s.stateSecret, state)
	if err != nil {
		return fmt.Errorf("%w: Unable to validate user", ErrInvalidRequest)
	}

	ctx = WithActor(ctx, Actor{UserID: claims.Subject, IPAddress: ActorFrom(ctx).IPAddress})

	switch platform {
	case models.PlatformLinkedIn:
		return s.li.LinkedInCallback(ctx, code, claims.Subject)
	case models.PlatformInstagram:
		return s.ig.InstagramCallback(ctx, code, claims.Subject)
	default:
		return ErrUnsupportedPlatform
	}
}

func (s *platformService) List(ctx context.Context, userID string) ([]*models.ConnectionStatus, error) {
	if userID == "" {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}
	return s.creds.List(ctx, userID)
}

func (s *platformService) Delete(ctx context.Context, userID, platform string) error {
	switch platform {
	case models.PlatformLinkedIn, models.PlatformInstagram:
	default:
		return ErrUnsupportedPlatform
	}
	return s.creds.Disconnect(ctx, userID, platform)
}
