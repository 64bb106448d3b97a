package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/polrydian/polrydian-api/configs"
	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

var testResend = config.Resend{
	APIKey:     "re_test",
	From:       "Polrydian Group <noreply@polrydiangroup.com>",
	AdminEmail: "office@polrydiangroup.com",
}

func TestEmailService_Send(t *testing.T) {
	var got transfer.EmailMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer srv.Close()

	cfg := testResend
	cfg.APIURL = srv.URL
	svc := NewEmailService(cfg, srv.Client())

	id, err := svc.Send(context.Background(), &transfer.EmailMessage{
		To:      []string{"office@polrydiangroup.com"},
		Subject: "Hello",
		Text:    "Body",
	})
	require.NoError(t, err)
	assert.Equal(t, "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794", id)
	assert.Equal(t, testResend.From, got.From)
	assert.Equal(t, "Hello", got.Subject)
}

func TestEmailService_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"message":"Invalid from field"}`))
	}))
	defer srv.Close()

	cfg := testResend
	cfg.APIURL = srv.URL
	_, err := NewEmailService(cfg, srv.Client()).Send(context.Background(), &transfer.EmailMessage{To: []string{"a@b.co"}})
	assert.ErrorContains(t, err, "422")
}

func TestEmailService_NotConfigured(t *testing.T) {
	_, err := NewEmailService(config.Resend{}, http.DefaultClient).Send(context.Background(), &transfer.EmailMessage{})
	assert.Error(t, err)
}

func TestMailer_SubmitContact(t *testing.T) {
	d := &fakeDispatcher{}
	m := NewMailer(testResend, d)

	ref, err := m.Submit(context.Background(), &transfer.ContactRequest{
		Name:    "Ada <script>",
		Email:   "ada@example.com",
		Company: "Analytical Engines",
		Message: "We would like to discuss a supply chain review.",
	})
	require.NoError(t, err)
	assert.Len(t, ref, 21)

	require.Len(t, d.sent, 1)
	sent := d.sent[0]
	assert.Equal(t, "contact:"+ref, sent.TaskID)
	assert.Equal(t, []string{testResend.AdminEmail}, sent.Msg.To)
	assert.Equal(t, "ada@example.com", sent.Msg.ReplyTo)
	assert.Equal(t, "Contact form: New enquiry", sent.Msg.Subject)
	assert.Contains(t, sent.Msg.HTML, "Ada &lt;script&gt;")
	assert.NotContains(t, sent.Msg.HTML, "<script>")
}

func TestMailer_SubmitContactValidation(t *testing.T) {
	tests := []struct {
		name string
		req  transfer.ContactRequest
	}{
		{"missing name", transfer.ContactRequest{Email: "ada@example.com", Message: "Long enough message"}},
		{"bad email", transfer.ContactRequest{Name: "Ada", Email: "not-an-email", Message: "Long enough message"}},
		{"short message", transfer.ContactRequest{Name: "Ada", Email: "ada@example.com", Message: "hi"}},
		{"long subject", transfer.ContactRequest{Name: "Ada", Email: "ada@example.com", Subject: strings.Repeat("x", 201), Message: "Long enough message"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			_, err := NewMailer(testResend, d).Submit(context.Background(), &tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Empty(t, d.sent)
		})
	}
}

func TestMailer_TokenNotifications(t *testing.T) {
	d := &fakeDispatcher{}
	m := NewMailer(testResend, d)
	c := &models.Credential{
		ID:          4,
		Platform:    models.PlatformLinkedIn,
		ProfileData: models.ProfileData{Name: "Jane Doe"},
		ExpiresAt:   time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, m.NotifyTokenExpiring(context.Background(), c, 10))
	require.NoError(t, m.NotifyTokenExpired(context.Background(), c))

	require.Len(t, d.sent, 2)
	assert.Equal(t, "linkedin:expiring:4:2024-05-11", d.sent[0].TaskID)
	assert.Equal(t, "LinkedIn connection expires in 10 days", d.sent[0].Msg.Subject)
	assert.Contains(t, d.sent[0].Msg.Text, "Jane Doe")
	assert.Equal(t, "linkedin:expired:4", d.sent[1].TaskID)
}

func TestMailer_NoAdminEmailSkipsNotifications(t *testing.T) {
	d := &fakeDispatcher{}
	m := NewMailer(config.Resend{}, d)

	require.NoError(t, m.NotifyTokenExpired(context.Background(), &models.Credential{Platform: models.PlatformInstagram}))
	assert.Empty(t, d.sent)
}
