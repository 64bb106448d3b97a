package service

import "errors"

// Terminal failures of a sync run. Handlers map each to an HTTP status.
var (
	ErrForbidden           = errors.New("Insufficient permissions")
	ErrInvalidAction       = errors.New("Invalid action")
	ErrUnsupportedPlatform = errors.New("Unsupported platform")
	ErrRateLimited         = errors.New("Rate limit exceeded. Please try again later.")
	ErrCredentialNotFound  = errors.New("No active connection found. Please connect your account first.")
	ErrCredentialExpired   = errors.New("Access token has expired. Please reconnect your account.")
	ErrTokenDecrypt        = errors.New("Failed to decrypt access token")
	ErrUpstreamFetch       = errors.New("Failed to fetch content from platform")
	ErrUnhandled           = errors.New("Internal server error")
)

var (
	ErrNotFound       = errors.New("Not found")
	ErrInvalidRequest = errors.New("Invalid request")
)

// SetupRequired reports whether err means the caller has to (re)connect the
// platform account before syncing again.
func SetupRequired(err error) bool {
	return errors.Is(err, ErrCredentialNotFound) ||
		errors.Is(err, ErrCredentialExpired) ||
		errors.Is(err, ErrTokenDecrypt)
}
