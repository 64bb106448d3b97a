package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

var linkedInScopes = []string{"openid", "profile", "email", "w_member_social", "r_member_social"}

// LinkedIn access tokens live 60 days when the response omits expires_in.
const linkedInDefaultTokenLifetime = 60 * 24 * time.Hour

type LinkedInService interface {
	AuthURL(state string) string
	LinkedInCallback(ctx context.Context, code, userID string) error
}

type linkedInService struct {
	oauth      *oauth2.Config
	apiURL     string
	httpClient *http.Client
	creds      CredentialService
}

func NewLinkedInService(cfg config.Config, httpClient *http.Client, creds CredentialService) LinkedInService {
	return &linkedInService{
		oauth: &oauth2.Config{
			ClientID:     cfg.LinkedIn.ClientID,
			ClientSecret: cfg.LinkedIn.ClientSecret,
			RedirectURL:  cfg.LinkedIn.RedirectURI,
			Scopes:       linkedInScopes,
			Endpoint:     linkedin.Endpoint,
		},
		apiURL:     strings.TrimRight(cfg.LinkedIn.APIURL, "/"),
		httpClient: httpClient,
		creds:      creds,
	}
}

func (s *linkedInService) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

func (s *linkedInService) LinkedInCallback(ctx context.Context, code, userID string) error {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	if s.oauth.ClientID == "" || s.oauth.ClientSecret == "" || s.oauth.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	userInfo, err := s.userInfo(ctx, token)
	if err != nil {
		return err
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(linkedInDefaultTokenLifetime)
	}

	_, err = s.creds.Connect(ctx, ConnectRequest{
		UserID:         userID,
		Platform:       models.PlatformLinkedIn,
		PlatformUserID: userInfo.Sub,
		AccessToken:    token.AccessToken,
		ProfileData: models.ProfileData{
			Name:    userInfo.Name,
			Picture: userInfo.Picture,
		},
		ExpiresAt: expiresAt,
	})
	return err
}

func (s *linkedInService) userInfo(ctx context.Context, token *oauth2.Token) (*transfer.LinkedInUserInfo, error) {
	client := s.oauth.Client(ctx, token)

	resp, err := client.Get(s.apiURL + "/v2/userinfo")
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from LinkedIn userinfo: %d", resp.StatusCode)
	}

	var userInfo transfer.LinkedInUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if userInfo.Sub == "" {
		return nil, errors.New("LinkedIn userinfo missing subject")
	}
	return &userInfo, nil
}
