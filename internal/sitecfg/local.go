package sitecfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"site-config-dashboard/internal/appearance"
)

// DefaultLocalKey is the well-known key holding the locally saved document.
const DefaultLocalKey = "appearanceConfig"

// LocalStore keeps one appearance document under a single well-known key,
// used when no remote identity exists or the remote call fails.
type LocalStore interface {
	HasSaved(ctx context.Context) bool
	// ReadSaved returns nil when nothing is stored or the stored value is corrupt.
	ReadSaved(ctx context.Context) *appearance.Config
	WriteSaved(ctx context.Context, cfg appearance.Config) error
	ClearSaved(ctx context.Context) error
}

// FileStore keeps the document as a JSON file on local disk.
type FileStore struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file backed local store.
// Args:
//   dir: Directory holding the file. Created on first write.
//   key: Storage key, used as the file name.
//   logger: Logger for swallowed read failures.
// Returns:
//   *FileStore: Initialized store.
func NewFileStore(dir, key string, logger zerolog.Logger) *FileStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultLocalKey
	}
	return &FileStore{
		path:   filepath.Join(dir, key+".json"),
		logger: logger.With().Str("component", "local_file_store").Logger(),
	}
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) HasSaved(_ context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

func (s *FileStore) ReadSaved(_ context.Context) *appearance.Config {
	s.mu.Lock()
	raw, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("read local config failed")
		}
		return nil
	}
	return decodeSaved(raw, s.logger)
}

func (s *FileStore) WriteSaved(_ context.Context, cfg appearance.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode local config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create local config dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("write local config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace local config: %w", err)
	}
	return nil
}

func (s *FileStore) ClearSaved(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove local config: %w", err)
	}
	return nil
}

// RedisStore keeps the document under one redis key, for editor hosts that
// share a redis instance.
type RedisStore struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedisStore creates a redis backed local store.
// Args:
//   client: Redis client.
//   key: Redis key holding the document.
//   logger: Logger for swallowed read failures.
// Returns:
//   *RedisStore: Initialized store.
func NewRedisStore(client *redis.Client, key string, logger zerolog.Logger) *RedisStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultLocalKey
	}
	return &RedisStore{
		client: client,
		key:    key,
		logger: logger.With().Str("component", "local_redis_store").Logger(),
	}
}

func (s *RedisStore) HasSaved(ctx context.Context) bool {
	count, err := s.client.Exists(ctx, s.key).Result()
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("check local config failed")
		return false
	}
	return count > 0
}

func (s *RedisStore) ReadSaved(ctx context.Context) *appearance.Config {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", s.key).Msg("read local config failed")
		}
		return nil
	}
	return decodeSaved(raw, s.logger)
}

func (s *RedisStore) WriteSaved(ctx context.Context, cfg appearance.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode local config: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("write local config: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearSaved(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("remove local config: %w", err)
	}
	return nil
}

// decodeSaved parses a stored document; corrupt content counts as empty.
func decodeSaved(raw []byte, logger zerolog.Logger) *appearance.Config {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	cfg, err := appearance.ParseDocument(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("local config is corrupt, ignoring")
		return nil
	}
	return &cfg
}
