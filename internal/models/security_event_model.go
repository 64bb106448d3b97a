package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SecurityEvent is an append-only audit record.
type SecurityEvent struct {
	ID        int64           `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id,omitempty"`
	Action    string          `db:"action" json:"action"`
	Details   SecurityDetails `db:"details" json:"details"`
	Severity  string          `db:"severity" json:"severity"`
	IPAddress string          `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// SecurityDetails carries the event-specific fields. Unset fields are omitted
// from the stored JSON.
type SecurityDetails struct {
	Platform           string     `json:"platform,omitempty"`
	SyncAction         string     `json:"sync_action,omitempty"`
	Identifier         string     `json:"identifier,omitempty"`
	Role               string     `json:"role,omitempty"`
	Message            string     `json:"message,omitempty"`
	Error              string     `json:"error,omitempty"`
	Stack              string     `json:"stack,omitempty"`
	Status             int        `json:"status,omitempty"`
	Inserted           int        `json:"inserted,omitempty"`
	Updated            int        `json:"updated,omitempty"`
	Failed             int        `json:"failed,omitempty"`
	Total              int        `json:"total,omitempty"`
	EngagementFailures int        `json:"engagement_failures,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	DaysRemaining      *int       `json:"days_remaining,omitempty"`
	FallbackCipher     bool       `json:"fallback_cipher,omitempty"`
}

func (d SecurityDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *SecurityDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = SecurityDetails{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return errors.New("details: unsupported scan type")
	}
}

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

const (
	ActionAuthFailed          = "auth_failed"
	ActionUnauthorizedAccess  = "unauthorized_sync_attempt"
	ActionAdminAccessDenied   = "unauthorized_admin_access"
	ActionInvalidSyncRequest  = "invalid_sync_request"
	ActionRateLimitExceeded   = "rate_limit_exceeded"
	ActionCredentialMissing   = "credential_missing"
	ActionTokenExpired        = "token_expired"
	ActionTokenExpiringSoon   = "token_expiring_soon"
	ActionTokenDecryptFailed  = "token_decrypt_failed"
	ActionSyncAttempt         = "sync_attempt"
	ActionSyncSuccess         = "sync_success"
	ActionSyncAPIFailed       = "sync_api_failed"
	ActionSyncError           = "sync_error"
	ActionEngagementFailed    = "engagement_fetch_failed"
	ActionCredentialConnected = "credential_connected"
	ActionCredentialRevoked   = "credential_disconnected"
	ActionContentReviewed     = "content_reviewed"
	ActionCipherFallbackInUse = "token_cipher_fallback"
	ActionTokenRefreshed      = "token_refreshed"
	ActionTokenRefreshFailed  = "token_refresh_failed"
)
