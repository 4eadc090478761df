package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"site-config-dashboard/internal/appearance"
	"site-config-dashboard/internal/metrics"
	"site-config-dashboard/internal/store"
)

// Write sources, also used as audit actions.
const (
	SourceSave    = "save"
	SourceMigrate = "migrate"
	SourcePublish = "publish"
	SourceReset   = "reset"
)

const globalCacheKey = "global"

var (
	ErrNoTenantConfig  = errors.New("tenant has no config")
	ErrTenantRequired  = errors.New("tenant key is required")
	ErrInvalidDocument = errors.New("invalid config document")
)

// SiteConfigRepository persists documents by scope and tenant.
type SiteConfigRepository interface {
	Get(ctx context.Context, scope, tenantKey string) (*store.SiteConfigRecord, error)
	Upsert(ctx context.Context, scope, tenantKey string, document []byte, updatedBy string) (string, error)
}

// AuditRepository records config writes.
type AuditRepository interface {
	Insert(ctx context.Context, entry store.AuditEntry) error
	List(ctx context.Context, tenantKey string, limit, offset int) ([]store.AuditEntry, int64, error)
}

// Cache holds the serialized global document.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// WriteMeta identifies who wrote a document.
type WriteMeta struct {
	Actor     string
	RequestID string
}

// SiteConfigService is the server side authority for appearance documents.
// Every stored document is merged with defaults and sanitized first.
type SiteConfigService struct {
	configs  SiteConfigRepository
	audit    AuditRepository
	cache    Cache
	metrics  *metrics.PrometheusMetrics
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// SiteConfigDeps wires a SiteConfigService. Audit, Cache and Metrics are optional.
type SiteConfigDeps struct {
	Configs  SiteConfigRepository
	Audit    AuditRepository
	Cache    Cache
	Metrics  *metrics.PrometheusMetrics
	CacheTTL time.Duration
	Logger   zerolog.Logger
}

// NewSiteConfigService creates the service.
func NewSiteConfigService(deps SiteConfigDeps) *SiteConfigService {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SiteConfigService{
		configs:  deps.Configs,
		audit:    deps.Audit,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		cacheTTL: ttl,
		logger:   deps.Logger.With().Str("component", "site_config_service").Logger(),
	}
}

// GetTenant returns the tenant's document.
// Returns:
//   *appearance.Config: Stored document, nil when none exists.
//   error: Storage error.
func (s *SiteConfigService) GetTenant(ctx context.Context, tenantKey string) (*appearance.Config, error) {
	if tenantKey == "" {
		return nil, ErrTenantRequired
	}
	return s.load(ctx, store.ScopeTenant, tenantKey)
}

// GetGlobal returns the published document, served from cache when possible.
// Returns:
//   *appearance.Config: Published document, nil when nothing was published.
//   error: Storage error.
func (s *SiteConfigService) GetGlobal(ctx context.Context) (*appearance.Config, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, globalCacheKey)
		switch {
		case err != nil:
			s.metrics.RecordCache("error")
			s.logger.Warn().Err(err).Msg("read global config cache failed")
		case ok:
			cfg, err := appearance.ParseDocument(raw)
			if err == nil {
				s.metrics.RecordCache("hit")
				cfg = appearance.Sanitize(cfg)
				return &cfg, nil
			}
			s.logger.Warn().Err(err).Msg("cached global config is corrupt")
		default:
			s.metrics.RecordCache("miss")
		}
	}

	cfg, err := s.load(ctx, store.ScopeGlobal, "")
	if err != nil || cfg == nil {
		return cfg, err
	}
	s.cacheGlobal(ctx, *cfg)
	return cfg, nil
}

// Save stores a full document for the tenant, overwriting any previous one.
// Args:
//   ctx: Request context.
//   tenantKey: Tenant key.
//   raw: JSON document, possibly partial.
//   source: SourceSave or SourceMigrate.
//   meta: Writer identity.
// Returns:
//   string: Stable config id.
//   appearance.Config: Document as stored.
//   error: ErrInvalidDocument or a storage error.
func (s *SiteConfigService) Save(ctx context.Context, tenantKey string, raw []byte, source string, meta WriteMeta) (string, appearance.Config, error) {
	if tenantKey == "" {
		return "", appearance.Config{}, ErrTenantRequired
	}
	cfg, err := appearance.ParseDocument(raw)
	if err != nil {
		s.metrics.RecordWrite(source, err)
		return "", appearance.Config{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return s.write(ctx, store.ScopeTenant, tenantKey, cfg, source, meta)
}

// Reset overwrites the tenant's document with the defaults.
func (s *SiteConfigService) Reset(ctx context.Context, tenantKey string, meta WriteMeta) (string, appearance.Config, error) {
	if tenantKey == "" {
		return "", appearance.Config{}, ErrTenantRequired
	}
	return s.write(ctx, store.ScopeTenant, tenantKey, appearance.Default(), SourceReset, meta)
}

// Publish copies the tenant's document to the global slot served to
// anonymous visitors.
// Returns:
//   string: Config id of the global document.
//   error: ErrNoTenantConfig when the tenant has nothing to publish.
func (s *SiteConfigService) Publish(ctx context.Context, tenantKey string, meta WriteMeta) (string, error) {
	cfg, err := s.GetTenant(ctx, tenantKey)
	if err != nil {
		return "", err
	}
	if cfg == nil {
		return "", ErrNoTenantConfig
	}

	configID, stored, err := s.write(ctx, store.ScopeGlobal, "", *cfg, SourcePublish, WriteMeta{Actor: meta.Actor, RequestID: meta.RequestID})
	if err != nil {
		return "", err
	}
	s.record(ctx, tenantKey, SourcePublish, configID, meta)
	s.cacheGlobal(ctx, stored)
	return configID, nil
}

// History lists the tenant's audit entries.
func (s *SiteConfigService) History(ctx context.Context, tenantKey string, limit, offset int) ([]store.AuditEntry, int64, error) {
	if s.audit == nil {
		return []store.AuditEntry{}, 0, nil
	}
	return s.audit.List(ctx, tenantKey, limit, offset)
}

func (s *SiteConfigService) write(ctx context.Context, scope, tenantKey string, cfg appearance.Config, source string, meta WriteMeta) (string, appearance.Config, error) {
	cfg = appearance.Sanitize(cfg)
	document, err := json.Marshal(cfg)
	if err != nil {
		s.metrics.RecordWrite(source, err)
		return "", appearance.Config{}, fmt.Errorf("encode config: %w", err)
	}

	configID, err := s.configs.Upsert(ctx, scope, tenantKey, document, meta.Actor)
	s.metrics.RecordWrite(source, err)
	if err != nil {
		return "", appearance.Config{}, err
	}

	s.logger.Info().
		Str("scope", scope).
		Str("tenant", tenantKey).
		Str("source", source).
		Str("config_id", configID).
		Str("request_id", meta.RequestID).
		Msg("site config written")
	if scope == store.ScopeTenant {
		s.record(ctx, tenantKey, source, configID, meta)
	}
	return configID, cfg, nil
}

func (s *SiteConfigService) load(ctx context.Context, scope, tenantKey string) (*appearance.Config, error) {
	record, err := s.configs.Get(ctx, scope, tenantKey)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	cfg, err := appearance.ParseDocument(record.Document)
	if err != nil {
		// a corrupt row is treated like a missing one
		s.logger.Error().Err(err).Str("scope", scope).Str("tenant", tenantKey).Msg("stored config is corrupt")
		return nil, nil
	}
	cfg = appearance.Sanitize(cfg)
	return &cfg, nil
}

func (s *SiteConfigService) cacheGlobal(ctx context.Context, cfg appearance.Config) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, globalCacheKey, raw, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("write global config cache failed")
	}
}

func (s *SiteConfigService) record(ctx context.Context, tenantKey, action, configID string, meta WriteMeta) {
	if s.audit == nil {
		return
	}
	err := s.audit.Insert(ctx, store.AuditEntry{
		TenantKey: tenantKey,
		Action:    action,
		ConfigID:  configID,
		Actor:     meta.Actor,
		RequestID: meta.RequestID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("tenant", tenantKey).Str("action", action).Msg("record audit entry failed")
	}
}
