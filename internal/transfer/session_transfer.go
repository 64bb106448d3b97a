package transfer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of a BaaS-issued session token. The user id is
// carried in the subject.
type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type SyncRequest struct {
	Action   string `json:"action"`
	Platform string `json:"platform"`
}

type SyncResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Failed   int    `json:"failed"`
	Total    int    `json:"total"`
}

type ErrorResponse struct {
	Error         string `json:"error"`
	SetupRequired bool   `json:"setup_required,omitempty"`
}

type ContentReviewRequest struct {
	ApprovalStatus string `json:"approval_status"`
	IsVisible      *bool  `json:"is_visible"`
	IsFeatured     *bool  `json:"is_featured"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}
