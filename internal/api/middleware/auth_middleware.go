package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/service"
	"github.com/polrydian/polrydian-api/pkg/utils"
)

type AuthMiddleware struct {
	us    service.UserService
	audit service.SecurityLogger
	cfg   config.Config
}

func NewAuthMiddleware(cfg config.Config, us service.UserService, audit service.SecurityLogger) *AuthMiddleware {
	return &AuthMiddleware{us: us, audit: audit, cfg: cfg}
}

// AuthMiddleware accepts a bearer session token and stores the user id and
// email in locals.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			m.audit.Log(m.actorContext(c, ""), models.ActionAuthFailed, models.SecurityDetails{
				Message: "missing bearer token",
			}, models.SeverityMedium)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		claims, err := utils.ValidateToken(m.cfg.JWTSecret, tokenString)
		if err != nil {
			m.audit.Log(m.actorContext(c, ""), models.ActionAuthFailed, models.SecurityDetails{
				Message: "invalid session token",
				Error:   err.Error(),
			}, models.SeverityMedium)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.Subject)
		c.Locals("email", claims.Email)
		return c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)

		isAdmin, err := m.us.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to verify permissions",
			})
		}

		if !isAdmin {
			m.audit.Log(m.actorContext(c, userID), models.ActionAdminAccessDenied, models.SecurityDetails{
				Role:    models.RoleAdmin,
				Message: c.Method() + " " + c.Path(),
			}, models.SeverityHigh)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) actorContext(c *fiber.Ctx, userID string) context.Context {
	return service.WithActor(c.UserContext(), service.Actor{UserID: userID, IPAddress: ClientIP(c)})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// TrustProxies makes c.IP() read X-Forwarded-For only when the socket peer is
// one of the trusted proxies (IPs or CIDRs). Other peers are identified by
// their socket address whatever headers they send.
func TrustProxies(cfg fiber.Config, proxies []string) fiber.Config {
	cfg.ProxyHeader = fiber.HeaderXForwardedFor
	cfg.EnableTrustedProxyCheck = true
	cfg.TrustedProxies = proxies
	cfg.EnableIPValidation = true
	return cfg
}

// ClientIP is the caller identity used for rate limiting and audit records.
// The app must be built with TrustProxies for forwarded addresses to count.
func ClientIP(c *fiber.Ctx) string {
	return c.IP()
}
