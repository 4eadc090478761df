package services_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-config-dashboard/internal/services"
)

func TestBuildObjectPath(t *testing.T) {
	path, err := services.BuildObjectPath("acme/logo", "Hero.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "acme/logo/file_"), path)
	assert.True(t, strings.HasSuffix(path, ".png"), path)

	path, err = services.BuildObjectPath("", "noext")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "file_"), path)
	assert.True(t, strings.HasSuffix(path, ".bin"), path)

	_, err = services.BuildObjectPath("x", " ")
	assert.Error(t, err)
}

func TestUploadRegistersAsset(t *testing.T) {
	storage := &memoryStorage{}
	media := &memoryMedia{}
	service := services.NewUploadService(storage, media, nil, 1024, zerolog.Nop())

	result, err := service.Upload(context.Background(), services.UploadInput{
		TenantKey: "acme",
		Category:  "Logo",
		FileName:  "logo.png",
		Size:      4,
		Body:      strings.NewReader("data"),
		Actor:     "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), result.ID)
	assert.True(t, strings.HasPrefix(result.Path, "acme/logo/"))
	assert.Equal(t, "https://cdn.example.com/"+result.Path, result.URL)
	assert.Equal(t, []byte("data"), storage.objects[result.Path])

	require.Len(t, media.assets, 1)
	assert.Equal(t, "logo", media.assets[0].Category)
	assert.Equal(t, result.URL, media.assets[0].URL)
}

func TestUploadValidation(t *testing.T) {
	service := services.NewUploadService(&memoryStorage{}, &memoryMedia{}, nil, 8, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name string
		in   services.UploadInput
		err  error
	}{
		{name: "category", in: services.UploadInput{Category: "avatar", FileName: "a.png", Body: strings.NewReader("x")}, err: services.ErrInvalidCategory},
		{name: "no body", in: services.UploadInput{Category: "logo", FileName: "a.png"}, err: services.ErrFileRequired},
		{name: "too large", in: services.UploadInput{Category: "logo", FileName: "a.png", Size: 9, Body: strings.NewReader("123456789")}, err: services.ErrFileTooLarge},
		{name: "type", in: services.UploadInput{Category: "logo", FileName: "a.exe", Body: strings.NewReader("x")}, err: services.ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Upload(ctx, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestUploadStorageFailure(t *testing.T) {
	media := &memoryMedia{}
	service := services.NewUploadService(&memoryStorage{putErr: errStorage}, media, nil, 0, zerolog.Nop())
	_, err := service.Upload(context.Background(), services.UploadInput{Category: "hero", FileName: "h.jpg", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, errStorage)
	assert.Empty(t, media.assets)
}

func TestLocalStorage(t *testing.T) {
	root := t.TempDir()
	storage := services.NewLocalStorage(root, "")
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, "acme/logo/a.png", strings.NewReader("png")))
	raw, err := os.ReadFile(filepath.Join(root, "acme", "logo", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(raw))

	url, err := storage.URL(ctx, "acme/logo/a.png")
	require.NoError(t, err)
	assert.Equal(t, "/api/local-files/acme/logo/a.png", url)

	abs, err := storage.Resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), abs)
	_, err = storage.Resolve("")
	assert.Error(t, err)

	remote := services.NewLocalStorage(root, "https://files.example.com/")
	url, err = remote.URL(ctx, "/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/a.png", url)
}
