package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"site-config-dashboard/internal/http/middleware"
	"site-config-dashboard/internal/services"
)

// Uploader stores an uploaded image and registers its id.
type Uploader interface {
	Upload(ctx context.Context, in services.UploadInput) (services.UploadResult, error)
}

// UploadHandler implements the upload collaborator of editor sessions: a
// local file goes in, a durable (url, id) pair comes out.
type UploadHandler struct {
	uploader Uploader
	logger   zerolog.Logger
}

func NewUploadHandler(uploader Uploader, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
		logger:   logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Upload accepts a multipart "file" with a "category" form field.
// Args:
//   c: Gin context.
// Returns:
//   None.
func (h *UploadHandler) Upload(c *gin.Context) {
	tenant, ok := tenantKey(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer func() {
		_ = file.Close()
	}()

	result, err := h.uploader.Upload(c.Request.Context(), services.UploadInput{
		TenantKey: tenant,
		Category:  c.PostForm("category"),
		FileName:  header.Filename,
		Size:      header.Size,
		Body:      file,
		Actor:     writeMeta(c).Actor,
	})
	switch {
	case errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrFileRequired),
		errors.Is(err, services.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// LocalFileHandler serves uploads kept on local disk.
type LocalFileHandler struct {
	storage *services.LocalStorage
}

func NewLocalFileHandler(storage *services.LocalStorage) *LocalFileHandler {
	return &LocalFileHandler{storage: storage}
}

// Serve returns a local file content.
func (h *LocalFileHandler) Serve(c *gin.Context) {
	raw := strings.TrimPrefix(c.Param("path"), "/")
	absPath, err := h.storage.Resolve(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(absPath)
}
