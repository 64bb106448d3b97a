package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polrydian/polrydian-api/internal/models"
)

func newTestCredentialService(repo *fakeCredentialRepo, cipher TokenCipher, audit SecurityLogger) CredentialService {
	svc := NewCredentialService(repo, cipher, audit)
	svc.(*credentialService).now = func() time.Time { return fixedNow }
	return svc
}

func TestCredentialService_ConnectReplacesPrevious(t *testing.T) {
	repo := &fakeCredentialRepo{}
	audit := &fakeAudit{}
	svc := newTestCredentialService(repo, &prefixCipher{}, audit)
	ctx := context.Background()

	first, err := svc.Connect(ctx, ConnectRequest{
		UserID: adminID, Platform: models.PlatformLinkedIn, PlatformUserID: "abc123",
		AccessToken: "old-token", ExpiresAt: fixedNow.Add(60 * 24 * time.Hour),
	})
	require.NoError(t, err)

	second, err := svc.Connect(ctx, ConnectRequest{
		UserID: adminID, Platform: models.PlatformLinkedIn, PlatformUserID: "abc123",
		AccessToken: "new-token", ExpiresAt: fixedNow.Add(60 * 24 * time.Hour),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	active, err := svc.LoadActive(ctx, adminID, models.PlatformLinkedIn)
	require.NoError(t, err)
	assert.Equal(t, "new-token", active.AccessToken)
	assert.Equal(t, "enc:new-token", active.Credential.AccessTokenEncrypted)
	assert.Equal(t, 60, active.DaysRemaining)
	assert.False(t, active.ExpiringSoon)

	list, err := svc.List(ctx, adminID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.PlatformLinkedIn, list[0].Platform)

	entry, ok := audit.find(models.ActionCredentialConnected)
	require.True(t, ok)
	assert.Equal(t, models.SeverityLow, entry.Severity)
}

func TestCredentialService_ConnectRejectsIncompleteRequest(t *testing.T) {
	svc := newTestCredentialService(&fakeCredentialRepo{}, &prefixCipher{}, &fakeAudit{})

	_, err := svc.Connect(context.Background(), ConnectRequest{UserID: adminID, Platform: models.PlatformLinkedIn})
	assert.Error(t, err)
}

func TestCredentialService_ConnectStoreError(t *testing.T) {
	repo := &fakeCredentialRepo{err: errors.New("insert failed")}
	svc := newTestCredentialService(repo, &prefixCipher{}, &fakeAudit{})

	_, err := svc.Connect(context.Background(), ConnectRequest{
		UserID: adminID, Platform: models.PlatformLinkedIn, PlatformUserID: "abc123",
		AccessToken: "token", ExpiresAt: fixedNow.Add(time.Hour),
	})
	assert.ErrorContains(t, err, "insert failed")
}

func TestCredentialService_LoadActive_ExpiryBoundaries(t *testing.T) {
	tests := []struct {
		name         string
		expiresIn    time.Duration
		wantErr      error
		wantSoon     bool
		wantDays     int
		wantAudit    string
		wantSeverity string
	}{
		{"expired", -time.Minute, ErrCredentialExpired, false, 0, models.ActionTokenExpired, models.SeverityMedium},
		{"expires exactly now", 0, ErrCredentialExpired, false, 0, models.ActionTokenExpired, models.SeverityMedium},
		{"ten days", 10 * 24 * time.Hour, nil, true, 10, models.ActionTokenExpiringSoon, models.SeverityMedium},
		{"just under thirty days", 30*24*time.Hour - time.Minute, nil, true, 29, models.ActionTokenExpiringSoon, models.SeverityMedium},
		{"thirty days", 30 * 24 * time.Hour, nil, false, 30, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCredentialRepo{}
			audit := &fakeAudit{}
			svc := newTestCredentialService(repo, &prefixCipher{}, audit)
			c := repo.add(&models.Credential{
				UserID: adminID, Platform: models.PlatformLinkedIn, PlatformUserID: "abc123",
				AccessTokenEncrypted: "enc:token", ExpiresAt: fixedNow.Add(tt.expiresIn),
			})

			active, err := svc.LoadActive(context.Background(), adminID, models.PlatformLinkedIn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, []int64{c.ID}, repo.deactivated)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantSoon, active.ExpiringSoon)
				assert.Equal(t, tt.wantDays, active.DaysRemaining)
				assert.Empty(t, repo.deactivated)
			}

			if tt.wantAudit == "" {
				assert.Empty(t, audit.actions())
				return
			}
			entry, ok := audit.find(tt.wantAudit)
			require.True(t, ok)
			assert.Equal(t, tt.wantSeverity, entry.Severity)
		})
	}
}

func TestCredentialService_LoadActive_UsesNewestRow(t *testing.T) {
	repo := &fakeCredentialRepo{}
	svc := newTestCredentialService(repo, &prefixCipher{}, &fakeAudit{})
	repo.add(&models.Credential{UserID: adminID, Platform: models.PlatformLinkedIn, PlatformUserID: "abc123",
		AccessTokenEncrypted: "enc:older", ExpiresAt: fixedNow.Add(50 * 24 * time.Hour)})
	repo.add(&models.Credential{UserID: adminID, Platform: models.PlatformLinkedIn, PlatformUserID: "abc123",
		AccessTokenEncrypted: "enc:newer", ExpiresAt: fixedNow.Add(50 * 24 * time.Hour)})

	active, err := svc.LoadActive(context.Background(), adminID, models.PlatformLinkedIn)
	require.NoError(t, err)
	assert.Equal(t, "newer", active.AccessToken)
}

func TestCredentialService_LoadActive_UnusableToken(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		cipher *prefixCipher
	}{
		{"decrypt error", "enc:token", &prefixCipher{decryptErr: errors.New("pgcrypto: wrong key")}},
		{"empty plaintext", "enc:", &prefixCipher{}},
		{"control characters", "enc:tok\x00en", &prefixCipher{}},
		{"embedded whitespace", "enc:tok en", &prefixCipher{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCredentialRepo{}
			audit := &fakeAudit{}
			svc := newTestCredentialService(repo, tt.cipher, audit)
			repo.add(&models.Credential{UserID: adminID, Platform: models.PlatformLinkedIn, PlatformUserID: "abc123",
				AccessTokenEncrypted: tt.stored, ExpiresAt: fixedNow.Add(50 * 24 * time.Hour)})

			_, err := svc.LoadActive(context.Background(), adminID, models.PlatformLinkedIn)
			assert.ErrorIs(t, err, ErrTokenDecrypt)
			assert.EqualError(t, err, "Failed to decrypt access token")

			entry, ok := audit.find(models.ActionTokenDecryptFailed)
			require.True(t, ok)
			assert.Equal(t, models.SeverityHigh, entry.Severity)
		})
	}
}

func TestCredentialService_LoadActive_RepositoryError(t *testing.T) {
	repo := &fakeCredentialRepo{err: errors.New("connection reset")}
	audit := &fakeAudit{}
	svc := newTestCredentialService(repo, &prefixCipher{}, audit)

	_, err := svc.LoadActive(context.Background(), adminID, models.PlatformLinkedIn)
	assert.Error(t, err)
	assert.False(t, SetupRequired(err))
	assert.Empty(t, audit.actions())
}

func TestCredentialService_Disconnect(t *testing.T) {
	repo := &fakeCredentialRepo{}
	audit := &fakeAudit{}
	svc := newTestCredentialService(repo, &prefixCipher{}, audit)
	repo.add(&models.Credential{UserID: adminID, Platform: models.PlatformInstagram, PlatformUserID: "1789",
		AccessTokenEncrypted: "enc:token", ExpiresAt: fixedNow.Add(50 * 24 * time.Hour)})

	require.NoError(t, svc.Disconnect(context.Background(), adminID, models.PlatformInstagram))
	_, ok := audit.find(models.ActionCredentialRevoked)
	assert.True(t, ok)

	err := svc.Disconnect(context.Background(), adminID, models.PlatformInstagram)
	assert.ErrorIs(t, err, ErrCredentialNotFound)

	_, err = svc.LoadActive(context.Background(), adminID, models.PlatformInstagram)
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}
