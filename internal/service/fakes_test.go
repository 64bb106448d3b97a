package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/polrydian/polrydian-api/internal/models"
	"github.com/polrydian/polrydian-api/internal/platform"
	"github.com/polrydian/polrydian-api/internal/transfer"
)

const (
	adminID  = "6f1c2a7e-4b1d-4c5e-9a3f-2b8d7e6f5a41"
	editorID = "0b7f6d2c-9e4a-4f3b-8c1d-5a6e7f8d9c02"
)

type auditEntry struct {
	Action   string
	Severity string
	Details  models.SecurityDetails
	Actor    Actor
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (f *fakeAudit) Log(ctx context.Context, action string, details models.SecurityDetails, severity string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, auditEntry{Action: action, Severity: severity, Details: details, Actor: ActorFrom(ctx)})
}

func (f *fakeAudit) Recent(ctx context.Context, severity string, limit int) ([]*models.SecurityEvent, error) {
	return nil, nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

func (f *fakeAudit) find(action string) (auditEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.Action == action {
			return e, true
		}
	}
	return auditEntry{}, false
}

type fakeRoles struct {
	admins map[string]bool
	err    error
}

func (f *fakeRoles) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return role == models.RoleAdmin && f.admins[userID], nil
}

func (f *fakeRoles) GetByUserID(ctx context.Context, userID string) ([]*models.UserRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.admins[userID] {
		return []*models.UserRole{{UserID: userID, Role: models.RoleAdmin}}, nil
	}
	return nil, nil
}

func (f *fakeRoles) Grant(ctx context.Context, userID, role string) error {
	if f.admins == nil {
		f.admins = map[string]bool{}
	}
	f.admins[userID] = role == models.RoleAdmin
	return nil
}

type fakeCredentialRepo struct {
	mu          sync.Mutex
	rows        []*models.Credential
	nextID      int64
	deactivated []int64
	err         error
}

func (f *fakeCredentialRepo) add(c *models.Credential) *models.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.IsActive = true
	f.rows = append(f.rows, c)
	return c
}

func (f *fakeCredentialRepo) Create(ctx context.Context, tx *sql.Tx, c *models.Credential) (int64, error) {
	return f.add(c).ID, nil
}

func (f *fakeCredentialRepo) Replace(ctx context.Context, c *models.Credential) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	_, _ = f.DeactivateByPlatform(ctx, nil, c.UserID, c.Platform)
	return f.add(c).ID, nil
}

func (f *fakeCredentialRepo) GetActive(ctx context.Context, userID, platformName string) (*models.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		c := f.rows[i]
		if c.UserID == userID && c.Platform == platformName && c.IsActive {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCredentialRepo) ListActiveByUserID(ctx context.Context, userID string) ([]*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Credential
	for _, c := range f.rows {
		if c.UserID == userID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCredentialRepo) ListActiveExpiringBefore(ctx context.Context, before time.Time) ([]*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Credential
	for _, c := range f.rows {
		if c.IsActive && c.ExpiresAt.Before(before) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCredentialRepo) Deactivate(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.ID == id {
			c.IsActive = false
		}
	}
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeCredentialRepo) DeactivateByPlatform(ctx context.Context, tx *sql.Tx, userID, platformName string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.rows {
		if c.UserID == userID && c.Platform == platformName && c.IsActive {
			c.IsActive = false
			n++
		}
	}
	return n, nil
}

// prefixCipher "encrypts" by prefixing enc:.
type prefixCipher struct {
	decryptErr error
}

func (c *prefixCipher) Encrypt(ctx context.Context, plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (c *prefixCipher) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	if c.decryptErr != nil {
		return "", c.decryptErr
	}
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("not encrypted")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

type fakeClient struct {
	platform      string
	items         []platform.Item
	fetchErr      error
	engagement    map[string]models.EngagementData
	engagementErr error
	failEngage    map[string]bool
	panicOnFetch  bool

	mu              sync.Mutex
	fetchCalls      int
	engagementCalls int
	lastToken       string
}

func (f *fakeClient) Platform() string { return f.platform }

func (f *fakeClient) fetch(token string) ([]platform.Item, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.lastToken = token
	f.mu.Unlock()
	if f.panicOnFetch {
		panic("boom")
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.items, nil
}

func (f *fakeClient) FetchPosts(ctx context.Context, accountID, token string) ([]platform.Item, error) {
	return f.fetch(token)
}

func (f *fakeClient) FetchArticles(ctx context.Context, accountID, token string) ([]platform.Item, error) {
	items, err := f.fetch(token)
	if err != nil {
		return nil, err
	}
	var out []platform.Item
	for _, it := range items {
		if it.Kind == platform.KindArticle {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeClient) FetchEngagement(ctx context.Context, itemID, token string) (models.EngagementData, error) {
	f.mu.Lock()
	f.engagementCalls++
	f.mu.Unlock()
	if f.engagementErr != nil {
		return models.EngagementData{}, f.engagementErr
	}
	if f.failEngage[itemID] {
		return models.EngagementData{}, errors.New("engagement unavailable")
	}
	return f.engagement[itemID], nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls + f.engagementCalls
}

type fakePostRepo struct {
	mu      sync.Mutex
	posts   map[string]*models.SocialMediaPost
	failFor map[string]bool
	nextID  int64
	reviews map[int64]*models.ContentReview
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]*models.SocialMediaPost{}, failFor: map[string]bool{}, reviews: map[int64]*models.ContentReview{}}
}

func (f *fakePostRepo) Upsert(ctx context.Context, post *models.SocialMediaPost) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[post.PlatformPostID] {
		return false, fmt.Errorf("constraint violation on %s", post.PlatformPostID)
	}
	key := post.Platform + "/" + post.PlatformPostID
	if existing, ok := f.posts[key]; ok {
		post.ID = existing.ID
		if post.MediaURL == "" {
			post.MediaURL = existing.MediaURL
		}
		f.posts[key] = post
		return false, nil
	}
	f.nextID++
	post.ID = f.nextID
	f.posts[key] = post
	return true, nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.SocialMediaPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePostRepo) List(ctx context.Context, platformName, approvalStatus string, limit int) ([]*models.SocialMediaPost, error) {
	return f.filter(func(p *models.SocialMediaPost) bool {
		return (platformName == "" || p.Platform == platformName) && (approvalStatus == "" || p.ApprovalStatus == approvalStatus)
	}, limit), nil
}

func (f *fakePostRepo) ListPublished(ctx context.Context, platformName string, featuredOnly bool, limit int) ([]*models.SocialMediaPost, error) {
	return f.filter(func(p *models.SocialMediaPost) bool {
		return p.ApprovalStatus == models.ApprovalStatusApproved && p.IsVisible &&
			(platformName == "" || p.Platform == platformName) && (!featuredOnly || p.IsFeatured)
	}, limit), nil
}

func (f *fakePostRepo) filter(keep func(*models.SocialMediaPost) bool, limit int) []*models.SocialMediaPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SocialMediaPost
	for _, p := range f.posts {
		if keep(p) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakePostRepo) Review(ctx context.Context, id int64, review *models.ContentReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			f.reviews[id] = review
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakePostRepo) get(platformName, externalID string) *models.SocialMediaPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[platformName+"/"+externalID]
}

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*models.LinkedInArticle
	nextID   int64
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: map[string]*models.LinkedInArticle{}}
}

func (f *fakeArticleRepo) Upsert(ctx context.Context, a *models.LinkedInArticle) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.articles[a.LinkedInID]; ok {
		a.ID = existing.ID
		f.articles[a.LinkedInID] = a
		return false, nil
	}
	f.nextID++
	a.ID = f.nextID
	f.articles[a.LinkedInID] = a
	return true, nil
}

func (f *fakeArticleRepo) List(ctx context.Context, approvalStatus string, limit int) ([]*models.LinkedInArticle, error) {
	return f.ListPublished(ctx, limit)
}

func (f *fakeArticleRepo) ListPublished(ctx context.Context, limit int) ([]*models.LinkedInArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.LinkedInArticle
	for _, a := range f.articles {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeArticleRepo) Review(ctx context.Context, id int64, review *models.ContentReview) error {
	return sql.ErrNoRows
}

type fakeMirror struct {
	err   error
	calls int
}

func (f *fakeMirror) Mirror(ctx context.Context, platformName, externalID, sourceURL string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "https://media.example.com/social/" + platformName + "/" + externalID + ".jpg", nil
}

type dispatched struct {
	TaskID string
	Msg    *transfer.EmailMessage
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []dispatched
	err  error
}

func (f *fakeDispatcher) DispatchEmail(ctx context.Context, taskID string, msg *transfer.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, dispatched{TaskID: taskID, Msg: msg})
	return nil
}
