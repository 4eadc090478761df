package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"site-config-dashboard/internal/http/middleware"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/store"
)

type UserHandler struct {
	auth  *services.AuthService
	users UserStore
}

type createUserRequest struct {
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	Status       *int   `json:"status"`
	Password     string `json:"password"`
	TenantKey    string `json:"tenant_key"`
	Organization string `json:"organization"`
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	Status      *int    `json:"status"`
	Password    *string `json:"password"`
	TenantKey   *string `json:"tenant_key"`
}

type changeMyPasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// NewUserHandler creates a handler for user operations.
// Args:
//   auth: Auth service for password hashing.
//   users: Account storage.
// Returns:
//   *UserHandler: Initialized handler.
func NewUserHandler(auth *services.AuthService, users UserStore) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

// Create creates a new user (admin only). Without an explicit tenant the user
// joins the tenant derived from the organisation, or the admin's own tenant.
func (h *UserHandler) Create(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req createUserRequest
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

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = "user"
	}
	if role != "admin" && role != "user" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	status := 1
	if req.Status != nil {
		if *req.Status != 0 && *req.Status != 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = *req.Status
	}

	tenant := services.NormalizeTenantKey(req.TenantKey)
	if tenant == "" {
		tenant = services.TenantKeyFromName(req.Organization)
	}
	if tenant == "" {
		if claims, ok := middleware.GetAuthClaims(c); ok {
			tenant = claims.TenantKey
		}
	}
	if tenant == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_key is required"})
		return
	}

	existing, err := h.users.FindByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
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
		Role:         role,
		Status:       status,
		PasswordHash: hash,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "insert failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           id,
		"username":     username,
		"display_name": strings.TrimSpace(req.DisplayName),
		"role":         role,
		"tenant_key":   tenant,
	})
}

// List returns users (admin only).
func (h *UserHandler) List(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, user := range users {
		items = append(items, userJSON(user))
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// Update updates user profile fields (admin only).
func (h *UserHandler) Update(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var update store.UserUpdate
	if req.DisplayName != nil {
		displayName := strings.TrimSpace(*req.DisplayName)
		update.DisplayName = &displayName
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if role != "admin" && role != "user" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		update.Role = &role
	}
	if req.Status != nil {
		if *req.Status != 0 && *req.Status != 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		update.Status = req.Status
	}
	if req.TenantKey != nil {
		tenant := services.NormalizeTenantKey(*req.TenantKey)
		if tenant == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_key"})
			return
		}
		update.TenantKey = &tenant
	}
	if req.Password != nil {
		password := strings.TrimSpace(*req.Password)
		if password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
			return
		}
		hash, err := h.auth.HashPassword(password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
			return
		}
		update.PasswordHash = &hash
	}

	if update == (store.UserUpdate{}) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty payload"})
		return
	}

	found, err := h.users.Update(c.Request.Context(), id, update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// ChangeMyPassword updates current user's password.
func (h *UserHandler) ChangeMyPassword(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	claims, ok := middleware.GetAuthClaims(c)
	if !ok || claims.UserID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req changeMyPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	oldPassword := strings.TrimSpace(req.OldPassword)
	newPassword := strings.TrimSpace(req.NewPassword)
	if oldPassword == "" || newPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password are required"})
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.Status == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "user disabled"})
		return
	}
	if !h.auth.VerifyPassword(user.PasswordHash, oldPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old password is incorrect"})
		return
	}

	hash, err := h.auth.HashPassword(newPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	if _, err := h.users.Update(c.Request.Context(), claims.UserID, store.UserUpdate{PasswordHash: &hash}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": claims.UserID})
}

func (h *UserHandler) ready(c *gin.Context) bool {
	if h.users == nil || h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db not ready"})
		return false
	}
	return true
}
