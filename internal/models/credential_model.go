package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
)

// Credential is the persisted OAuth token record for one platform connection.
// Only the most recently created active row per (user, platform) is used.
type Credential struct {
	ID                   int64       `db:"id" json:"id"`
	UserID               string      `db:"user_id" json:"user_id"`
	Platform             string      `db:"platform" json:"platform"`
	PlatformUserID       string      `db:"platform_user_id" json:"platform_user_id"`
	AccessTokenEncrypted string      `db:"access_token_encrypted" json:"-"`
	ProfileData          ProfileData `db:"profile_data" json:"profile_data"`
	ExpiresAt            time.Time   `db:"expires_at" json:"expires_at"`
	IsActive             bool        `db:"is_active" json:"is_active"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at" json:"updated_at"`
}

// ProfileData is a snapshot of the external profile taken at connect time.
type ProfileData struct {
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
	Username string `json:"username,omitempty"`
	Headline string `json:"headline,omitempty"`
}

func (p ProfileData) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *ProfileData) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = ProfileData{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("profile_data: unsupported scan type")
	}
}

// TimeUntilExpiry returns the remaining token lifetime relative to now.
func (c *Credential) TimeUntilExpiry(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// ConnectionStatus is the token-free view of a credential shown to admins.
type ConnectionStatus struct {
	Platform       string      `json:"platform"`
	PlatformUserID string      `json:"platform_user_id"`
	ProfileData    ProfileData `json:"profile_data"`
	ExpiresAt      time.Time   `json:"expires_at"`
	DaysRemaining  int         `json:"days_remaining"`
	ConnectedAt    time.Time   `json:"connected_at"`
}

// PlatformDisplayName returns the user-facing platform name.
func PlatformDisplayName(platform string) string {
	switch platform {
	case PlatformLinkedIn:
		return "LinkedIn"
	case PlatformInstagram:
		return "Instagram"
	default:
		return platform
	}
}
