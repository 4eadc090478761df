package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"site-config-dashboard/internal/http/middleware"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/store"
)

type AuthHandler struct {
	auth   *services.AuthService
	users  UserStore
	logger zerolog.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type bootstrapRequest struct {
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Password     string `json:"password"`
	TenantKey    string `json:"tenant_key"`
	Organization string `json:"organization"`
}

// NewAuthHandler creates a handler for auth operations.
// Args:
//   auth: Auth service, nil when JWT is not configured.
//   users: Account storage, nil when the database is down.
//   logger: Logger instance.
// Returns:
//   *AuthHandler: Initialized handler.
func NewAuthHandler(auth *services.AuthService, users UserStore, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, logger: logger.With().Str("component", "auth_handler").Logger()}
}

// Login authenticates a user and returns a token carrying the tenant claim.
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.FindByUsername(c.Request.Context(), username)
	if err != nil {
		h.logger.Error().Err(err).Msg("find user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if user.Status == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "user disabled"})
		return
	}
	if user.PasswordHash == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "password not set"})
		return
	}
	if !h.auth.VerifyPassword(user.PasswordHash, password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := h.auth.IssueToken(&services.AuthUser{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		TenantKey:   user.TenantKey,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	if err := h.users.TouchLogin(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("update last login failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
			"role":         user.Role,
			"tenant_key":   user.TenantKey,
		},
	})
}

// Bootstrap creates the first admin user when no users exist.
func (h *AuthHandler) Bootstrap(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	count, err := h.users.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "bootstrap not allowed"})
		return
	}

	var req bootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	tenant := resolveTenantKey(req.TenantKey, req.Organization, username)
	if tenant == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_key is required"})
		return
	}

	hash, err := h.auth.HashPassword(password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	id, err := h.users.Create(c.Request.Context(), store.UserRecord{
		Username:     username,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		TenantKey:    tenant,
		Role:         "admin",
		Status:       1,
		PasswordHash: hash,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "insert failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         id,
		"username":   username,
		"role":       "admin",
		"tenant_key": tenant,
	})
}

// Me returns current user info.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":           claims.UserID,
			"username":     claims.Username,
			"display_name": claims.DisplayName,
			"role":         claims.Role,
			"tenant_key":   claims.TenantKey,
		},
	})
}

func (h *AuthHandler) ready(c *gin.Context) bool {
	if h.users == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db not ready"})
		return false
	}
	if h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth not configured"})
		return false
	}
	return true
}

// resolveTenantKey prefers an explicit key, then one derived from the
// organisation name, then one derived from fallback.
func resolveTenantKey(explicit, organization, fallback string) string {
	if key := services.NormalizeTenantKey(explicit); key != "" {
		return key
	}
	if key := services.TenantKeyFromName(organization); key != "" {
		return key
	}
	return services.TenantKeyFromName(fallback)
}
