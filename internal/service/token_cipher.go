package service

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/repository"
	"github.com/polrydian/polrydian-api/pkg/utils"
)

const fallbackPrefix = "ENCRYPTED:"

type TokenCipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// NewTokenCipher returns the configured primary cipher wrapped with the
// degraded base64 fallback.
func NewTokenCipher(cfg config.Config, tc repository.TokenCryptoRepository, audit SecurityLogger) TokenCipher {
	var primary TokenCipher
	switch cfg.TokenCipher {
	case config.TokenCipherLocal:
		primary = &localCipher{key: []byte(cfg.SecretKey)}
	default:
		primary = &rpcCipher{tc: tc}
	}
	return &fallbackCipher{primary: primary, audit: audit}
}

// rpcCipher delegates to the encrypt_token/decrypt_token database functions.
type rpcCipher struct {
	tc repository.TokenCryptoRepository
}

func (c *rpcCipher) Encrypt(ctx context.Context, plaintext string) (string, error) {
	return c.tc.EncryptToken(ctx, plaintext)
}

func (c *rpcCipher) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	return c.tc.DecryptToken(ctx, ciphertext)
}

// localCipher is AES-GCM in process keyed by SECRET_KEY.
type localCipher struct {
	key []byte
}

func (c *localCipher) Encrypt(ctx context.Context, plaintext string) (string, error) {
	return utils.Encrypt([]byte(plaintext), c.key)
}

func (c *localCipher) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	return utils.Decrypt(ciphertext, c.key)
}

// fallbackCipher switches to the base64 encoding whenever the primary errors.
// That encoding is not encryption, so every use is logged as a warning and
// recorded as a security event.
type fallbackCipher struct {
	primary TokenCipher
	audit   SecurityLogger
}

func (c *fallbackCipher) Encrypt(ctx context.Context, plaintext string) (string, error) {
	ciphertext, err := c.primary.Encrypt(ctx, plaintext)
	if err == nil {
		return ciphertext, nil
	}

	c.warn(ctx, "encrypt", err)
	return EncodeFallback(plaintext), nil
}

func (c *fallbackCipher) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	plaintext, err := c.primary.Decrypt(ctx, ciphertext)
	if err == nil {
		return plaintext, nil
	}

	c.warn(ctx, "decrypt", err)
	return DecodeFallback(ciphertext), nil
}

func (c *fallbackCipher) warn(ctx context.Context, op string, err error) {
	slog.Warn("token cipher unavailable, using base64 fallback", "op", op, "error", err)
	if c.audit != nil {
		c.audit.Log(ctx, models.ActionCipherFallbackInUse, models.SecurityDetails{
			Message:        "token " + op + " used base64 fallback",
			Error:          err.Error(),
			FallbackCipher: true,
		}, models.SeverityMedium)
	}
}

func EncodeFallback(plaintext string) string {
	return base64.StdEncoding.EncodeToString([]byte(fallbackPrefix + plaintext))
}

// DecodeFallback reverses EncodeFallback. Values that are not base64 are
// legacy plaintext and come back unchanged.
func DecodeFallback(ciphertext string) string {
	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return ciphertext
	}
	return strings.TrimPrefix(string(decoded), fallbackPrefix)
}

// usableToken rejects decrypt output that cannot be a bearer token.
func usableToken(token string) bool {
	if token == "" || !utf8.ValidString(token) {
		return false
	}
	for _, r := range token {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
