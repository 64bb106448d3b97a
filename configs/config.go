package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Enabled reports whether media mirroring to R2 is configured.
func (r R2) Enabled() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != ""
}

type LinkedIn struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIURL       string
	APIVersion   string
}

type Instagram struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIURL       string
	OAuthURL     string
	GraphURL     string
}

type Resend struct {
	APIKey     string
	From       string
	AdminEmail string
	APIURL     string
}

type Config struct {
	Port                string
	PostgresURI         string
	RedisURI            string
	JWTSecret           string
	SecretKey           string
	OAuthStateSecret    string
	TrustedProxies      []string
	TokenCipher         string
	RateLimitBackend    string
	LinkedIn            LinkedIn
	Instagram           Instagram
	Resend              Resend
	FredAPIKey          string
	FredAPIURL          string
	FrontendURL         string
	R2                  R2
	ExpiryCheckSchedule string
	HTTPTimeout         time.Duration
}

const (
	TokenCipherRPC   = "rpc"
	TokenCipherLocal = "local"

	RateLimitMemory   = "memory"
	RateLimitPostgres = "postgres"
	RateLimitRedis    = "redis"
)

// Sync policy.
const (
	SyncMaxAttempts        = 5
	SyncWindowMinutes      = 60
	ExpiryWarningWindow    = 30 * 24 * time.Hour
	FeaturedLikesThreshold = 50

	ThrottleMaxRequests = 10
	ThrottleWindow      = 60 * time.Second
)

func LoadConfig() *Config {
	return &Config{
		Port:             getEnv("PORT", "3000"),
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", "localhost:6379"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		SecretKey:        getEnv("SECRET_KEY", ""),
		OAuthStateSecret: getEnv("OAUTH_STATE_SECRET", ""),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES"),
		TokenCipher:      getEnv("TOKEN_CIPHER", TokenCipherRPC),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", RateLimitMemory),
		LinkedIn: LinkedIn{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),
			APIURL:       getEnv("LINKEDIN_API_URL", "https://api.linkedin.com"),
			APIVersion:   getEnv("LINKEDIN_API_VERSION", "202401"),
		},
		Instagram: Instagram{
			ClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
			ClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("INSTAGRAM_REDIRECT_URI", ""),
			APIURL:       getEnv("INSTAGRAM_API_URL", "https://graph.instagram.com/v21.0"),
			OAuthURL:     getEnv("INSTAGRAM_OAUTH_URL", "https://api.instagram.com"),
			GraphURL:     getEnv("INSTAGRAM_GRAPH_URL", "https://graph.instagram.com"),
		},
		Resend: Resend{
			APIKey:     getEnv("RESEND_API_KEY", ""),
			From:       getEnv("RESEND_FROM", "Polrydian Group <noreply@polrydiangroup.com>"),
			AdminEmail: getEnv("ADMIN_EMAIL", ""),
			APIURL:     getEnv("RESEND_API_URL", "https://api.resend.com"),
		},
		FredAPIKey:  getEnv("FRED_API_KEY", ""),
		FredAPIURL:  getEnv("FRED_API_URL", "https://api.stlouisfed.org/fred"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		ExpiryCheckSchedule: getEnv("EXPIRY_CHECK_SCHEDULE", "@every 01h00m00s"),
		HTTPTimeout:         time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
