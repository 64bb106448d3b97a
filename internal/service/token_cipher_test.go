package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
)

type fakeTokenCrypto struct {
	err error
}

func (f *fakeTokenCrypto) EncryptToken(ctx context.Context, plaintext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "pgp:" + plaintext, nil
}

func (f *fakeTokenCrypto) DecryptToken(ctx context.Context, ciphertext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if len(ciphertext) < 4 || ciphertext[:4] != "pgp:" {
		return "", errors.New("Wrong key or corrupt data")
	}
	return ciphertext[4:], nil
}

func TestTokenCipher_RPCRoundTrip(t *testing.T) {
	audit := &fakeAudit{}
	cipher := NewTokenCipher(config.Config{TokenCipher: config.TokenCipherRPC}, &fakeTokenCrypto{}, audit)
	ctx := context.Background()

	ct, err := cipher.Encrypt(ctx, "AQX-token")
	require.NoError(t, err)
	assert.Equal(t, "pgp:AQX-token", ct)

	pt, err := cipher.Decrypt(ctx, ct)
	require.NoError(t, err)
	assert.Equal(t, "AQX-token", pt)
	assert.Empty(t, audit.actions())
}

func TestTokenCipher_LocalRoundTrip(t *testing.T) {
	cfg := config.Config{TokenCipher: config.TokenCipherLocal, SecretKey: "0123456789abcdef0123456789abcdef"}
	audit := &fakeAudit{}
	cipher := NewTokenCipher(cfg, nil, audit)
	ctx := context.Background()

	ct, err := cipher.Encrypt(ctx, "IGQV-token")
	require.NoError(t, err)
	assert.NotContains(t, ct, "IGQV-token")

	pt, err := cipher.Decrypt(ctx, ct)
	require.NoError(t, err)
	assert.Equal(t, "IGQV-token", pt)
	assert.Empty(t, audit.actions())
}

func TestTokenCipher_FallbackRoundTrip(t *testing.T) {
	audit := &fakeAudit{}
	cipher := NewTokenCipher(config.Config{}, &fakeTokenCrypto{err: errors.New("function encrypt_token does not exist")}, audit)
	ctx := context.Background()

	ct, err := cipher.Encrypt(ctx, "AQX-token")
	require.NoError(t, err)
	assert.Equal(t, EncodeFallback("AQX-token"), ct)

	pt, err := cipher.Decrypt(ctx, ct)
	require.NoError(t, err)
	assert.Equal(t, "AQX-token", pt)

	assert.Equal(t, []string{models.ActionCipherFallbackInUse, models.ActionCipherFallbackInUse}, audit.actions())
	entry, _ := audit.find(models.ActionCipherFallbackInUse)
	assert.Equal(t, models.SeverityMedium, entry.Severity)
	assert.True(t, entry.Details.FallbackCipher)
}

func TestTokenCipher_FallbackDecryptOfPrimaryCiphertextWhenPrimaryUp(t *testing.T) {
	cipher := NewTokenCipher(config.Config{}, &fakeTokenCrypto{}, &fakeAudit{})

	pt, err := cipher.Decrypt(context.Background(), EncodeFallback("legacy-token"))
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", pt)
}

func TestDecodeFallback(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fallback encoded", EncodeFallback("AQX-token"), "AQX-token"},
		{"legacy plaintext", "AQX-plain-token!", "AQX-plain-token!"},
		{"base64 without prefix", "dG9rZW4=", "token"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeFallback(tt.in))
		})
	}
}

func TestUsableToken(t *testing.T) {
	assert.True(t, usableToken("AQXdSP_w-token.123"))
	assert.False(t, usableToken(""))
	assert.False(t, usableToken("bad token"))
	assert.False(t, usableToken("bad\ntoken"))
	assert.False(t, usableToken(string([]byte{0xff, 0xfe})))
}
