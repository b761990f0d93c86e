package gcp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

const (
	defaultPublicBaseURL = "https://storage.googleapis.com"
	defaultSignedURLTTL  = 15 * time.Minute
)

type VideoURLConfig struct {
	Bucket        string
	Mode          string
	EmulatorHost  string
	PublicBaseURL string
	SignedURLs    bool
	SignedURLTTL  time.Duration
	Credentials   string
}

// VideoURLResolver maps a lesson's stored video object to a playable URL.
type VideoURLResolver interface {
	ResolveVideoURL(ctx context.Context, objectKey, fallbackURL string) (string, error)
	Close() error
}

type signFunc func(bucket, key string, opts *storage.SignedURLOptions) (string, error)

type videoURLResolver struct {
	log           *logger.Logger
	bucket        string
	mode          StorageMode
	emulatorHost  string
	publicBaseURL string
	signedTTL     time.Duration
	client        *storage.Client
	sign          signFunc
}

func NewVideoURLResolver(ctx context.Context, log *logger.Logger, cfg VideoURLConfig) (VideoURLResolver, error) {
	mode, err := ParseStorageMode(cfg.Mode, cfg.EmulatorHost)
	if err != nil {
		return nil, err
	}
	emulator, err := emulatorBaseURL(mode, cfg.EmulatorHost)
	if err != nil {
		return nil, err
	}
	r := &videoURLResolver{
		log:           log.With("service", "VideoURLResolver"),
		bucket:        strings.TrimSpace(cfg.Bucket),
		mode:          mode,
		emulatorHost:  emulator,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		signedTTL:     cfg.SignedURLTTL,
	}
	if r.publicBaseURL == "" {
		r.publicBaseURL = defaultPublicBaseURL
	}
	if r.signedTTL <= 0 {
		r.signedTTL = defaultSignedURLTTL
	}

	if cfg.SignedURLs && mode == StorageModeGCS && r.bucket != "" {
		opts := credentialOptions(cfg.Credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadOnly))
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		r.client = client
		r.sign = func(bucket, key string, o *storage.SignedURLOptions) (string, error) {
			return client.Bucket(bucket).SignedURL(key, o)
		}
	}

	r.log.Info("Video URL resolver initialized",
		"mode", mode,
		"bucket", r.bucket,
		"public_base_url", r.publicBaseURL,
		"signed_urls", r.sign != nil,
	)
	return r, nil
}

// ResolveVideoURL returns fallbackURL untouched when the lesson has no object
// key or no bucket is configured.
func (r *videoURLResolver) ResolveVideoURL(ctx context.Context, objectKey, fallbackURL string) (string, error) {
	key := strings.TrimLeft(strings.TrimSpace(objectKey), "/")
	if key == "" || r.bucket == "" {
		return fallbackURL, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch {
	case r.mode == StorageModeEmulator:
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", r.emulatorHost, r.bucket, url.PathEscape(key)), nil
	case r.sign != nil:
		signed, err := r.sign(r.bucket, key, &storage.SignedURLOptions{
			Method:  "GET",
			Expires: time.Now().Add(r.signedTTL),
			Scheme:  storage.SigningSchemeV4,
		})
		if err != nil {
			return "", fmt.Errorf("sign video url %q: %w", key, err)
		}
		return signed, nil
	default:
		return fmt.Sprintf("%s/%s/%s", r.publicBaseURL, r.bucket, key), nil
	}
}

func (r *videoURLResolver) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
