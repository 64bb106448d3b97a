package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

// EmailService delivers one message through Resend.
type EmailService interface {
	Send(ctx context.Context, msg *transfer.EmailMessage) (string, error)
}

// EmailDispatcher hands a message to background delivery.
type EmailDispatcher interface {
	DispatchEmail(ctx context.Context, taskID string, msg *transfer.EmailMessage) error
}

type emailService struct {
	cfg        config.Resend
	httpClient *http.Client
}

func NewEmailService(cfg config.Resend, httpClient *http.Client) EmailService {
	return &emailService{cfg: cfg, httpClient: httpClient}
}

func (s *emailService) Send(ctx context.Context, msg *transfer.EmailMessage) (string, error) {
	if s.cfg.APIKey == "" {
		err := errors.New("email delivery is not configured")
		slog.Info(err.Error())
		return "", err
	}

	if msg.From == "" {
		msg.From = s.cfg.From
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.cfg.APIURL, "/")+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code from Resend: %d: %s", resp.StatusCode, respBody)
	}

	var result transfer.ResendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	return result.ID, nil
}

type ContactService interface {
	Submit(ctx context.Context, req *transfer.ContactRequest) (string, error)
}

type NotificationService interface {
	NotifyTokenExpiring(ctx context.Context, c *models.Credential, daysRemaining int) error
	NotifyTokenExpired(ctx context.Context, c *models.Credential) error
}

type Mailer struct {
	cfg        config.Resend
	dispatcher EmailDispatcher
}

// NewMailer returns the contact form and admin notification producers.
func NewMailer(cfg config.Resend, dispatcher EmailDispatcher) *Mailer {
	return &Mailer{cfg: cfg, dispatcher: dispatcher}
}

func validateContact(req *transfer.ContactRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Company, validation.Length(0, 200)),
		validation.Field(&req.Subject, validation.Length(0, 200)),
		validation.Field(&req.Message, validation.Required, validation.Length(10, 5000)),
	)
}

// Submit validates a contact form and queues it for the admin inbox. The
// returned reference identifies the queued message.
func (m *Mailer) Submit(ctx context.Context, req *transfer.ContactRequest) (string, error) {
	if err := validateContact(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if m.cfg.AdminEmail == "" {
		err := errors.New("admin email is not configured")
		slog.Info(err.Error())
		return "", err
	}

	reference, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	subject := req.Subject
	if subject == "" {
		subject = "New enquiry"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(subject))
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>", html.EscapeString(req.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>", html.EscapeString(req.Email))
	if req.Company != "" {
		fmt.Fprintf(&b, "<p><strong>Company:</strong> %s</p>", html.EscapeString(req.Company))
	}
	fmt.Fprintf(&b, "<p>%s</p>", strings.ReplaceAll(html.EscapeString(req.Message), "\n", "<br>"))
	fmt.Fprintf(&b, "<p><small>Reference %s</small></p>", reference)

	msg := &transfer.EmailMessage{
		From:    m.cfg.From,
		To:      []string{m.cfg.AdminEmail},
		Subject: "Contact form: " + subject,
		HTML:    b.String(),
		Text:    req.Message,
		ReplyTo: req.Email,
	}

	if err := m.dispatcher.DispatchEmail(ctx, "contact:"+reference, msg); err != nil {
		return "", err
	}
	return reference, nil
}

func (m *Mailer) NotifyTokenExpiring(ctx context.Context, c *models.Credential, daysRemaining int) error {
	name := models.PlatformDisplayName(c.Platform)
	return m.notifyAdmin(ctx,
		fmt.Sprintf("%s:expiring:%d:%s", c.Platform, c.ID, c.ExpiresAt.Format("2006-01-02")),
		fmt.Sprintf("%s connection expires in %d days", name, daysRemaining),
		fmt.Sprintf("The %s access token for %s expires on %s. Reconnect the account from the admin panel to keep syncing.",
			name, accountLabel(c), c.ExpiresAt.Format("2 January 2006")))
}

func (m *Mailer) NotifyTokenExpired(ctx context.Context, c *models.Credential) error {
	name := models.PlatformDisplayName(c.Platform)
	return m.notifyAdmin(ctx,
		fmt.Sprintf("%s:expired:%d", c.Platform, c.ID),
		fmt.Sprintf("%s connection expired", name),
		fmt.Sprintf("The %s access token for %s has expired and the connection was deactivated. Reconnect the account from the admin panel.",
			name, accountLabel(c)))
}

func (m *Mailer) notifyAdmin(ctx context.Context, taskID, subject, text string) error {
	if m.cfg.AdminEmail == "" {
		return nil
	}
	return m.dispatcher.DispatchEmail(ctx, taskID, &transfer.EmailMessage{
		From:    m.cfg.From,
		To:      []string{m.cfg.AdminEmail},
		Subject: subject,
		HTML:    "<p>" + html.EscapeString(text) + "</p>",
		Text:    text,
	})
}

func accountLabel(c *models.Credential) string {
	switch {
	case c.ProfileData.Username != "":
		return "@" + c.ProfileData.Username
	case c.ProfileData.Name != "":
		return c.ProfileData.Name
	default:
		return c.PlatformUserID
	}
}
