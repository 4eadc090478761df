package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/redis/go-redis/v9"

	"site-config-dashboard/internal/config"
)

// OSSService stores uploads in an Aliyun OSS bucket.
type OSSService struct {
	bucket        *oss.Bucket
	bucketName    string
	publicBaseURL string
	redisClient   *redis.Client
	signTTL       time.Duration
}

// NewOSSService creates a new OSS service instance.
// Args:
//   cfg: App config instance with OSS settings.
//   redisClient: Redis client for signed URL cache. May be nil.
// Returns:
//   *OSSService: Initialized OSS service.
//   error: Error when config or OSS client initialization fails.
func NewOSSService(cfg *config.Config, redisClient *redis.Client) (*OSSService, error) {
	if !cfg.OSSEnabled() {
		return nil, fmt.Errorf("oss config is incomplete")
	}

	client, err := oss.New(cfg.OssEndpoint, cfg.OssAccessKey, cfg.OssSecret, oss.UseCname(true))
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.OssBucket)
	if err != nil {
		return nil, err
	}

	return &OSSService{
		bucket:        bucket,
		bucketName:    cfg.OssBucket,
		publicBaseURL: strings.TrimSuffix(cfg.OssPublicBaseURL, "/"),
		redisClient:   redisClient,
		// documents keep the url for a long time; signed urls only back buckets without a public domain
		signTTL: 7 * 24 * time.Hour,
	}, nil
}

// Put uploads body under objectPath.
func (s *OSSService) Put(ctx context.Context, objectPath string, body io.Reader) error {
	if strings.TrimSpace(objectPath) == "" {
		return fmt.Errorf("object path is required")
	}
	return s.bucket.PutObject(s.buildObjectKey(objectPath), body, oss.WithContext(ctx))
}

// URL returns a public URL for objectPath, or a cached signed GET URL when no
// public domain is configured.
func (s *OSSService) URL(ctx context.Context, objectPath string) (string, error) {
	if objectPath == "" {
		return "", nil
	}
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + strings.TrimPrefix(s.buildObjectKey(objectPath), "/"), nil
	}

	cacheKey := "oss_signed:" + objectPath
	if cached, ok := s.getSignedURLFromCache(ctx, cacheKey); ok {
		return cached, nil
	}
	signedURL, err := s.bucket.SignURL(s.buildObjectKey(objectPath), oss.HTTPGet, int64(s.signTTL.Seconds()))
	if err != nil {
		return "", err
	}
	signedURL = unescapeSignedURL(signedURL)
	s.setSignedURLCache(ctx, cacheKey, signedURL)
	return signedURL, nil
}

// Name identifies the backend in metrics and logs.
func (s *OSSService) Name() string {
	return "oss"
}

// buildObjectKey builds the OSS object key with bucket prefix.
func (s *OSSService) buildObjectKey(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.bucketName + path
	}
	return s.bucketName + "/" + path
}

// unescapeSignedURL restores the path portion of a signed URL.
func unescapeSignedURL(raw string) string {
	if idx := strings.Index(raw, "?"); idx != -1 {
		pathPart, _ := url.PathUnescape(raw[:idx])
		return pathPart + raw[idx:]
	}
	decoded, _ := url.PathUnescape(raw)
	return decoded
}

func (s *OSSService) getSignedURLFromCache(ctx context.Context, key string) (string, bool) {
	if s.redisClient == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *OSSService) setSignedURLCache(ctx context.Context, key, value string) {
	if s.redisClient == nil {
		return
	}
	ttl := s.signTTL - 5*time.Minute
	if ttl <= 0 {
		ttl = s.signTTL
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = s.redisClient.Set(ctx, key, value, ttl).Err()
}
