package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"site-config-dashboard/internal/http/middleware"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/store"
)

// UserStore is the account storage used by auth and user handlers.
type UserStore interface {
	Count(ctx context.Context) (int64, error)
	FindByUsername(ctx context.Context, username string) (*store.UserRecord, error)
	FindByID(ctx context.Context, id int64) (*store.UserRecord, error)
	List(ctx context.Context) ([]store.UserRecord, error)
	Create(ctx context.Context, user store.UserRecord) (int64, error)
	Update(ctx context.Context, id int64, update store.UserUpdate) (bool, error)
	TouchLogin(ctx context.Context, id int64) error
}

func parseInt64Query(c *gin.Context, key string) int64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}

func parsePagination(c *gin.Context) (int, int) {
	limit := int(parseInt64Query(c, "limit"))
	offset := int(parseInt64Query(c, "offset"))
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// writeMeta builds the audit identity of the current request.
func writeMeta(c *gin.Context) services.WriteMeta {
	meta := services.WriteMeta{RequestID: middleware.GetRequestID(c)}
	if claims, ok := middleware.GetAuthClaims(c); ok {
		meta.Actor = claims.Username
	}
	return meta
}

func userJSON(user store.UserRecord) gin.H {
	return gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"display_name":  user.DisplayName,
		"tenant_key":    user.TenantKey,
		"role":          user.Role,
		"status":        user.Status,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
		"last_login_at": user.LastLoginAt,
	}
}
