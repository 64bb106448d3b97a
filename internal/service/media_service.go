package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"

	config "github.com/polrydian/polrydian-api/configs"
)

const maxMirrorBytes = 25 << 20

// ObjectStore puts an object and returns its public URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// MediaMirror copies short-lived platform media to storage we control.
type MediaMirror interface {
	Mirror(ctx context.Context, platformName, externalID, sourceURL string) (string, error)
}

type R2Service struct {
	config config.R2

	once   sync.Once
	client *s3.Client
	err    error
}

func NewR2Service(cfg config.R2) *R2Service {
	return &R2Service{config: cfg}
}

func (r *R2Service) r2Client(ctx context.Context) (*s3.Client, error) {
	r.once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.AccessKey, r.config.SecretKey, "")),
			awsconfig.WithRegion("auto"),
		)
		if err != nil {
			slog.Info(err.Error())
			r.err = err
			return
		}

		r.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.AccountID))
		})
	})
	return r.client, r.err
}

func (r *R2Service) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	client, err := r.r2Client(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return strings.TrimRight(r.config.PublicURL, "/") + "/" + key, nil
}

type mediaMirror struct {
	store  ObjectStore
	client *http.Client
}

func NewMediaMirror(store ObjectStore, client *http.Client) MediaMirror {
	return &mediaMirror{store: store, client: client}
}

// Mirror downloads sourceURL and stores it under a key derived from the item,
// so a re-sync overwrites the same object.
func (m *mediaMirror) Mirror(ctx context.Context, platformName, externalID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code fetching media: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMirrorBytes+1))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if len(body) > maxMirrorBytes {
		return "", errors.New("media exceeds size limit")
	}

	kind, err := filetype.Match(body)
	if err != nil || kind == filetype.Unknown {
		return "", errors.New("unknown media type")
	}
	if !filetype.IsImage(body) && !filetype.IsVideo(body) {
		return "", fmt.Errorf("unsupported media type %s", kind.MIME.Value)
	}

	key := fmt.Sprintf("social/%s/%s.%s", platformName, sanitizeKey(externalID), kind.Extension)
	return m.store.Upload(ctx, key, body, kind.MIME.Value)
}

func sanitizeKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
