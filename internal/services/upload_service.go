package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"site-config-dashboard/internal/metrics"
	"site-config-dashboard/internal/store"
)

// Upload categories accepted for appearance images.
var UploadCategories = map[string]bool{
	"logo":     true,
	"favicon":  true,
	"hero":     true,
	"carousel": true,
	"media":    true,
}

var (
	ErrInvalidCategory = errors.New("invalid upload category")
	ErrFileRequired    = errors.New("file is required")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

var allowedImageExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".ico":  true,
}

// ObjectStorage is a backend holding uploaded files.
type ObjectStorage interface {
	Put(ctx context.Context, objectPath string, body io.Reader) error
	URL(ctx context.Context, objectPath string) (string, error)
	Name() string
}

// MediaRepository registers uploads.
type MediaRepository interface {
	Insert(ctx context.Context, asset store.MediaAsset) (int64, error)
}

// UploadInput is one uploaded file.
type UploadInput struct {
	TenantKey string
	Category  string
	FileName  string
	Size      int64
	Body      io.Reader
	Actor     string
}

// UploadResult is the durable reference stored in documents.
type UploadResult struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

// UploadService turns local files into durable (url, id) pairs.
type UploadService struct {
	storage  ObjectStorage
	media    MediaRepository
	metrics  *metrics.PrometheusMetrics
	maxBytes int64
	logger   zerolog.Logger
}

// NewUploadService creates the service.
// Args:
//   storage: OSS or local backend.
//   media: Asset registry handing out ids.
//   m: Metrics, may be nil.
//   maxBytes: Size limit, 10 MiB when <= 0.
//   logger: Logger instance.
// Returns:
//   *UploadService: Initialized service.
func NewUploadService(storage ObjectStorage, media MediaRepository, m *metrics.PrometheusMetrics, maxBytes int64, logger zerolog.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &UploadService{
		storage:  storage,
		media:    media,
		metrics:  m,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "upload_service").Str("backend", storage.Name()).Logger(),
	}
}

// Upload stores the file and registers it.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if !UploadCategories[category] {
		return UploadResult{}, ErrInvalidCategory
	}
	if in.Body == nil || strings.TrimSpace(in.FileName) == "" {
		return UploadResult{}, ErrFileRequired
	}
	if in.Size > s.maxBytes {
		return UploadResult{}, ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if !allowedImageExt[ext] {
		return UploadResult{}, ErrUnsupportedType
	}

	objectPath, err := BuildObjectPath(path.Join(sanitizePathSegment(in.TenantKey), category), in.FileName)
	if err != nil {
		return UploadResult{}, err
	}

	if err := s.storage.Put(ctx, objectPath, io.LimitReader(in.Body, s.maxBytes+1)); err != nil {
		return UploadResult{}, fmt.Errorf("store upload: %w", err)
	}
	url, err := s.storage.URL(ctx, objectPath)
	if err != nil {
		return UploadResult{}, fmt.Errorf("resolve upload url: %w", err)
	}

	id, err := s.media.Insert(ctx, store.MediaAsset{
		TenantKey:   in.TenantKey,
		Category:    category,
		StoragePath: objectPath,
		URL:         url,
		FileName:    filepath.Base(in.FileName),
		SizeBytes:   in.Size,
		CreatedBy:   in.Actor,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return UploadResult{}, err
	}

	s.metrics.RecordUpload(s.storage.Name())
	s.logger.Info().Int64("id", id).Str("tenant", in.TenantKey).Str("path", objectPath).Msg("upload stored")
	return UploadResult{ID: id, URL: url, Path: objectPath}, nil
}

// BuildObjectPath generates a randomized object path below dir keeping the
// file extension.
// Args:
//   dir: Directory prefix, may be empty.
//   filename: Original file name.
// Returns:
//   string: Object path.
//   error: Error when filename is empty.
func BuildObjectPath(dir, filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	timestamp := time.Now().Format("20060102150405")
	randomized := fmt.Sprintf("file_%s_%s%s", timestamp, randomSuffix(8), ext)

	dir = strings.Trim(strings.TrimSpace(dir), "/")
	if dir == "" {
		return randomized, nil
	}
	return path.Join(dir, randomized), nil
}

func sanitizePathSegment(value string) string {
	var builder strings.Builder
	for _, ch := range strings.TrimSpace(value) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-' || ch == '_':
			builder.WriteRune(ch)
		default:
			builder.WriteByte('_')
		}
	}
	cleaned := strings.Trim(builder.String(), "_-")
	if cleaned == "" {
		return "shared"
	}
	return cleaned
}

func randomSuffix(length int) string {
	if length <= 0 {
		return ""
	}
	raw := make([]byte, (length+1)/2)
	if _, err := rand.Read(raw); err != nil {
		return strings.Repeat("0", length)
	}
	return hex.EncodeToString(raw)[:length]
}
