package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"site-config-dashboard/internal/appearance"
	"site-config-dashboard/internal/http/middleware"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/sitecfg"
	"site-config-dashboard/internal/store"
)

const maxDocumentBytes = 1 << 20

// SiteConfigService is the document authority behind the site config routes.
type SiteConfigService interface {
	GetTenant(ctx context.Context, tenantKey string) (*appearance.Config, error)
	GetGlobal(ctx context.Context) (*appearance.Config, error)
	Save(ctx context.Context, tenantKey string, raw []byte, source string, meta services.WriteMeta) (string, appearance.Config, error)
	Reset(ctx context.Context, tenantKey string, meta services.WriteMeta) (string, appearance.Config, error)
	Publish(ctx context.Context, tenantKey string, meta services.WriteMeta) (string, error)
	History(ctx context.Context, tenantKey string, limit, offset int) ([]store.AuditEntry, int64, error)
}

// SiteConfigHandler serves the remote persistence contract used by editor
// sessions. Business outcomes answer with a success envelope; storage
// failures answer 5xx with an error body so clients treat them as transport
// failures and fall back to their local copy.
type SiteConfigHandler struct {
	service SiteConfigService
	logger  zerolog.Logger
}

// NewSiteConfigHandler creates the handler.
// Args:
//   service: Site config service.
//   logger: Logger instance.
// Returns:
//   *SiteConfigHandler: Initialized handler.
func NewSiteConfigHandler(service SiteConfigService, logger zerolog.Logger) *SiteConfigHandler {
	return &SiteConfigHandler{
		service: service,
		logger:  logger.With().Str("component", "site_config_handler").Logger(),
	}
}

// GetGlobal returns the published document to anyone.
func (h *SiteConfigHandler) GetGlobal(c *gin.Context) {
	cfg, err := h.service.GetGlobal(c.Request.Context())
	if err != nil {
		h.fail(c, err, "load global config failed")
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, sitecfg.Envelope{Success: false, Message: "no global config"})
		return
	}
	c.JSON(http.StatusOK, sitecfg.Envelope{Success: true, Config: cfg})
}

// GetTenant returns the caller tenant's document.
func (h *SiteConfigHandler) GetTenant(c *gin.Context) {
	tenant, ok := tenantKey(c)
	if !ok {
		return
	}
	cfg, err := h.service.GetTenant(c.Request.Context(), tenant)
	if err != nil {
		h.fail(c, err, "load tenant config failed")
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, sitecfg.Envelope{Success: false, Message: "no config for tenant"})
		return
	}
	c.JSON(http.StatusOK, sitecfg.Envelope{Success: true, Config: cfg})
}

// Save stores the full document sent by an editor session.
func (h *SiteConfigHandler) Save(c *gin.Context) {
	h.write(c, services.SourceSave)
}

// Migrate stores a document that so far only lived in an editor's local store.
func (h *SiteConfigHandler) Migrate(c *gin.Context) {
	h.write(c, services.SourceMigrate)
}

// Reset overwrites the tenant document with the defaults.
func (h *SiteConfigHandler) Reset(c *gin.Context) {
	tenant, ok := tenantKey(c)
	if !ok {
		return
	}
	configID, cfg, err := h.service.Reset(c.Request.Context(), tenant, writeMeta(c))
	if err != nil {
		h.fail(c, err, "reset config failed")
		return
	}
	c.JSON(http.StatusOK, sitecfg.Envelope{Success: true, ConfigID: configID, Config: &cfg})
}

// Publish makes the tenant document the global one.
func (h *SiteConfigHandler) Publish(c *gin.Context) {
	tenant, ok := tenantKey(c)
	if !ok {
		return
	}
	configID, err := h.service.Publish(c.Request.Context(), tenant, writeMeta(c))
	if errors.Is(err, services.ErrNoTenantConfig) {
		c.JSON(http.StatusNotFound, sitecfg.Envelope{Success: false, Message: "nothing to publish"})
		return
	}
	if err != nil {
		h.fail(c, err, "publish config failed")
		return
	}
	c.JSON(http.StatusOK, sitecfg.Envelope{Success: true, ConfigID: configID})
}

// History lists the tenant's config writes.
func (h *SiteConfigHandler) History(c *gin.Context) {
	tenant, ok := tenantKey(c)
	if !ok {
		return
	}
	limit, offset := parsePagination(c)
	entries, total, err := h.service.History(c.Request.Context(), tenant, limit, offset)
	if err != nil {
		h.fail(c, err, "list history failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "total": total, "limit": limit, "offset": offset})
}

func (h *SiteConfigHandler) write(c *gin.Context, source string) {
	tenant, ok := tenantKey(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, sitecfg.Envelope{Success: false, Message: "document too large"})
		return
	}

	configID, cfg, err := h.service.Save(c.Request.Context(), tenant, raw, source, writeMeta(c))
	if errors.Is(err, services.ErrInvalidDocument) {
		c.JSON(http.StatusBadRequest, sitecfg.Envelope{Success: false, Message: err.Error()})
		return
	}
	if err != nil {
		h.fail(c, err, "save config failed")
		return
	}
	c.JSON(http.StatusOK, sitecfg.Envelope{Success: true, ConfigID: configID, Config: &cfg})
}

func (h *SiteConfigHandler) fail(c *gin.Context, err error, message string) {
	h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

// tenantKey reads the tenant claim, answering 401 when it is missing.
func tenantKey(c *gin.Context) (string, bool) {
	claims, ok := middleware.GetAuthClaims(c)
	if !ok || claims.TenantKey == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return claims.TenantKey, true
}
