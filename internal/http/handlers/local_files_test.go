package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-config-dashboard/internal/http/handlers"
	"site-config-dashboard/internal/http/middleware"
	"site-config-dashboard/internal/services"
)

func multipartRequest(t *testing.T, path, token, category, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if category != "" {
		require.NoError(t, writer.WriteField("category", category))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func newUploadRouter(t *testing.T, uploader handlers.Uploader) (*gin.Engine, string) {
	t.Helper()
	auth := newTestAuth(t)
	r := gin.New()
	r.POST("/api/uploads", middleware.AuthRequired(auth), handlers.NewUploadHandler(uploader, silentLogger()).Upload)
	return r, issueToken(t, auth, services.AuthUser{ID: 1, Username: "alice", Role: "user", TenantKey: "acme"})
}

func TestUploadReturnsDurableReference(t *testing.T) {
	uploader := &fakeUploader{}
	r, token := newUploadRouter(t, uploader)

	w := perform(r, multipartRequest(t, "/api/uploads", token, "logo", "logo.png", "png-bytes"))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.UploadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result.ID)
	assert.Equal(t, "https://cdn.example.com/logo.png", result.URL)

	require.Len(t, uploader.inputs, 1)
	assert.Equal(t, "acme", uploader.inputs[0].TenantKey)
	assert.Equal(t, "logo", uploader.inputs[0].Category)
	assert.Equal(t, "alice", uploader.inputs[0].Actor)
	assert.Equal(t, "png-bytes", uploader.bodies[0])
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		filename string
		want     int
	}{
		{name: "missing file", want: http.StatusBadRequest},
		{name: "bad category", err: services.ErrInvalidCategory, filename: "a.png", want: http.StatusBadRequest},
		{name: "bad type", err: services.ErrUnsupportedType, filename: "a.exe", want: http.StatusBadRequest},
		{name: "too large", err: services.ErrFileTooLarge, filename: "a.png", want: http.StatusRequestEntityTooLarge},
		{name: "storage down", err: os.ErrPermission, filename: "a.png", want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, token := newUploadRouter(t, &fakeUploader{err: tt.err})
			w := perform(r, multipartRequest(t, "/api/uploads", token, "logo", tt.filename, "x"))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestLocalFileServe(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme", "logo"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "acme", "logo", "a.png"), []byte("img"), 0644))

	r := gin.New()
	r.GET("/api/local-files/*path", handlers.NewLocalFileHandler(services.NewLocalStorage(root, "")).Serve)

	w := perform(r, httptest.NewRequest(http.MethodGet, "/api/local-files/acme/logo/a.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "img", w.Body.String())

	w = perform(r, httptest.NewRequest(http.MethodGet, "/api/local-files/acme/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, httptest.NewRequest(http.MethodGet, "/api/local-files/acme", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthWithoutStores(t *testing.T) {
	r := gin.New()
	r.GET("/healthz", handlers.NewHealthHandler(nil, nil).Health)

	w := perform(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "disabled", body.Checks["mysql"])
	assert.Equal(t, "disabled", body.Checks["redis"])
}
