package handlers

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/service"
)

type PlatformHandler struct {
	ps  service.PlatformService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		cfg: cfg,
	}
}

// AddSocialAccount returns the provider consent URL. The admin UI navigates
// there itself because the redirect cannot carry the bearer token.
func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	authURL, err := h.ps.GetAuthURL(c.UserContext(), c.Params("platform"), GetUserID(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"url": authURL})
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	platform := c.Params("platform")

	if denied := c.Query("error"); denied != "" {
		slog.Info("oauth consent denied", "platform", platform, "error", denied)
		return c.Redirect(h.connectionsURL("error", denied), fiber.StatusTemporaryRedirect)
	}

	err := h.ps.Callback(requestContext(c), platform, c.Query("code"), c.Query("state"))
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to connect account",
		})
	}

	return c.Redirect(h.connectionsURL("connected", platform), fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) connectionsURL(key, value string) string {
	return fmt.Sprintf("%s/admin/connections?%s=%s", h.cfg.FrontendURL, key, url.QueryEscape(value))
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accountList, err := h.ps.List(c.UserContext(), GetUserID(c))
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	err := h.ps.Delete(requestContext(c), GetUserID(c), c.Params("platform"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
