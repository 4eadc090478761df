package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage stores uploads below a directory served by the local-files route.
type LocalStorage struct {
	root    string
	baseURL string
}

func NewLocalStorage(root, baseURL string) *LocalStorage {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "/api/local-files/"
	}
	return &LocalStorage{root: root, baseURL: strings.TrimSpace(baseURL)}
}

// Put writes body to root/relativePath.
func (s *LocalStorage) Put(_ context.Context, relativePath string, body io.Reader) error {
	absPath, err := s.Resolve(relativePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	output, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}
	if _, err := io.Copy(output, body); err != nil {
		_ = output.Close()
		_ = os.Remove(absPath)
		return fmt.Errorf("write file failed: %w", err)
	}
	return output.Close()
}

// URL returns the URL the local-files route serves relativePath under.
func (s *LocalStorage) URL(_ context.Context, relativePath string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(relativePath), "/")
	if strings.HasPrefix(s.baseURL, "http://") || strings.HasPrefix(s.baseURL, "https://") {
		return strings.TrimSuffix(s.baseURL, "/") + "/" + trimmed, nil
	}
	return path.Join(s.baseURL, trimmed), nil
}

func (s *LocalStorage) Name() string {
	return "local"
}

// Resolve maps a relative path to a file below root, rejecting escapes.
func (s *LocalStorage) Resolve(relativePath string) (string, error) {
	cleaned := filepath.Clean("/" + strings.TrimSpace(relativePath))
	if cleaned == "/" || strings.HasPrefix(cleaned, "/..") {
		return "", errors.New("invalid path")
	}
	return filepath.Join(s.root, strings.TrimPrefix(cleaned, "/")), nil
}
