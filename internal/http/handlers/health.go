package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness and the state of backing stores.
type HealthHandler struct {
	db    *sql.DB
	redis *redis.Client
}

func NewHealthHandler(db *sql.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Health answers 200 with "ok", or "degraded" when a configured store does
// not respond. The public global config endpoint still works degraded, so the
// status code stays 200.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{
		"mysql": probe(h.db != nil, func() error { return h.db.PingContext(ctx) }),
		"redis": probe(h.redis != nil, func() error { return h.redis.Ping(ctx).Err() }),
	}
	status := "ok"
	for _, state := range checks {
		if state == "down" {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func probe(configured bool, ping func() error) string {
	if !configured {
		return "disabled"
	}
	if err := ping(); err != nil {
		return "down"
	}
	return "up"
}
