package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

const (
	instagramAuthURL = "https://www.instagram.com/oauth/authorize"
	instagramScopes  = "instagram_business_basic,instagram_business_manage_insights"
)

type InstagramService interface {
	AuthURL(state string) string
	InstagramCallback(ctx context.Context, code, userID string) error
	RefreshInstagramToken(ctx context.Context, userID string) error
}

type instagramService struct {
	cfg        config.Instagram
	httpClient *http.Client
	creds      CredentialService
}

func NewInstagramService(cfg config.Instagram, httpClient *http.Client, creds CredentialService) InstagramService {
	return &instagramService{
		cfg:        cfg,
		httpClient: httpClient,
		creds:      creds,
	}
}

func (ig *instagramService) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", ig.cfg.ClientID)
	params.Add("scope", instagramScopes)
	params.Add("response_type", "code")
	params.Add("redirect_uri", ig.cfg.RedirectURI)
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", instagramAuthURL, params.Encode())
}

func (ig *instagramService) InstagramCallback(ctx context.Context, code, userID string) error {
	if code == "" {
		err := errors.New("code or state is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := ig.ExchangeCodeForToken(ctx, code)
	if err != nil {
		return err
	}

	userInfo, err := ig.GetInstagramUserInfo(ctx, token.LongLivedToken)
	if err != nil {
		return err
	}

	_, err = ig.creds.Connect(ctx, ConnectRequest{
		UserID:         userID,
		Platform:       models.PlatformInstagram,
		PlatformUserID: userInfo.UserID,
		AccessToken:    token.LongLivedToken,
		ProfileData: models.ProfileData{
			Name:     userInfo.Name,
			Username: userInfo.Username,
			Picture:  userInfo.ProfilePicture,
		},
		ExpiresAt: token.ExpiresAt,
	})
	return err
}

func (ig *instagramService) ExchangeCodeForToken(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	shortLived, err := ig.getShortLivedToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get short-lived token: %w", err)
	}

	longLived, err := ig.exchangeToken(ctx, "/access_token", url.Values{
		"grant_type":    {"ig_exchange_token"},
		"client_secret": {ig.cfg.ClientSecret},
		"access_token":  {shortLived.AccessToken},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %w", err)
	}

	longLived.UserID = shortLived.UserID
	return longLived, nil
}

func (ig *instagramService) getShortLivedToken(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	data := url.Values{}
	data.Set("client_id", ig.cfg.ClientID)
	data.Set("client_secret", ig.cfg.ClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", ig.cfg.RedirectURI)
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(ig.cfg.OAuthURL, "/")+"/oauth/access_token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ig.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("error response from Instagram: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		AccessToken string      `json:"access_token"`
		UserID      json.Number `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &transfer.InstagramToken{
		UserID:      result.UserID.String(),
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

// exchangeToken calls one of the graph token endpoints that answer with
// access_token and expires_in.
func (ig *instagramService) exchangeToken(ctx context.Context, path string, params url.Values) (*transfer.InstagramToken, error) {
	reqURL := strings.TrimRight(ig.cfg.GraphURL, "/") + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ig.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("error response from Instagram: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &transfer.InstagramToken{
		AccessToken:    result.AccessToken,
		LongLivedToken: result.AccessToken,
		ExpiresAt:      GetExpiresAt(result.ExpiresIn),
	}, nil
}

func (ig *instagramService) GetInstagramUserInfo(ctx context.Context, accessToken string) (*transfer.InstagramUserInfo, error) {
	params := url.Values{}
	params.Set("fields", "id,username,name,profile_picture_url")
	params.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(ig.cfg.APIURL, "/")+"/me?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := ig.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from Instagram: %d", resp.StatusCode)
	}

	var userInfo transfer.InstagramUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if userInfo.UserID == "" {
		return nil, errors.New("Instagram profile missing user id")
	}
	return &userInfo, nil
}

// RefreshInstagramToken extends the user's long-lived token and stores the
// new one in place of the old credential.
func (ig *instagramService) RefreshInstagramToken(ctx context.Context, userID string) error {
	active, err := ig.creds.LoadActive(ctx, userID, models.PlatformInstagram)
	if err != nil {
		return err
	}

	token, err := ig.exchangeToken(ctx, "/refresh_access_token", url.Values{
		"grant_type":   {"ig_refresh_token"},
		"access_token": {active.AccessToken},
	})
	if err != nil {
		return fmt.Errorf("failed to refresh Instagram token: %w", err)
	}

	_, err = ig.creds.Connect(ctx, ConnectRequest{
		UserID:         userID,
		Platform:       models.PlatformInstagram,
		PlatformUserID: active.Credential.PlatformUserID,
		AccessToken:    token.AccessToken,
		ProfileData:    active.Credential.ProfileData,
		ExpiresAt:      token.ExpiresAt,
	})
	return err
}
