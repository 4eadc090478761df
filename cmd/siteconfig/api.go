package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"site-config-dashboard/internal/appearance"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/sitecfg"
)

// apiClient calls the server routes that sit outside the editor session:
// uploads and publishing.
type apiClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// upload sends a local image and returns its durable reference.
func (a *apiClient) upload(ctx context.Context, category, filePath string) (services.UploadResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return services.UploadResult{}, err
	}
	defer func() {
		_ = file.Close()
	}()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("category", category); err != nil {
		return services.UploadResult{}, err
	}
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return services.UploadResult{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return services.UploadResult{}, fmt.Errorf("read %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return services.UploadResult{}, err
	}

	var result services.UploadResult
	if err := a.do(ctx, "/api/uploads", writer.FormDataContentType(), &body, &result); err != nil {
		return services.UploadResult{}, err
	}
	if result.URL == "" || result.ID == 0 {
		return services.UploadResult{}, fmt.Errorf("upload returned no reference")
	}
	return result, nil
}

// publish makes the tenant document the global one.
func (a *apiClient) publish(ctx context.Context) (sitecfg.Envelope, error) {
	var env sitecfg.Envelope
	err := a.do(ctx, "/api/site-config/publish", "application/json", nil, &env)
	return env, err
}

func (a *apiClient) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("POST %s: read body: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(payload, &failure)
		message := failure.Error
		if message == "" {
			message = failure.Message
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, message)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("POST %s: decode response: %w", path, err)
	}
	return nil
}

// imagePatch builds the section update storing an uploaded image for
// category. A media upload is only registered, so it yields no patch.
// Args:
//   category: Upload category.
//   result: Durable reference returned by the server.
//   current: Current document, used to append carousel images.
//   alt: Alt text of carousel images.
// Returns:
//   appearance.Section: Section to update, empty for media.
//   json.RawMessage: Section patch.
//   error: Error for unknown categories.
func imagePatch(category string, result services.UploadResult, current appearance.Config, alt string) (appearance.Section, json.RawMessage, error) {
	id := result.ID
	var section appearance.Section
	var patch any
	switch category {
	case "logo":
		section = appearance.SectionBranding
		patch = map[string]any{"logoUrl": result.URL, "logoId": id}
	case "favicon":
		section = appearance.SectionBranding
		patch = map[string]any{"faviconUrl": result.URL, "faviconId": id}
	case "hero":
		section = appearance.SectionHero
		patch = map[string]any{
			"backgroundType":    appearance.BackgroundImage,
			"backgroundImage":   result.URL,
			"backgroundImageId": id,
		}
	case "carousel":
		images := append([]appearance.CarouselImage{}, current.Carousel.Images...)
		images = append(images, appearance.CarouselImage{ID: strconv.FormatInt(id, 10), URL: result.URL, Alt: alt})
		section = appearance.SectionCarousel
		patch = map[string]any{"images": images}
	case "media":
		return "", nil, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", services.ErrInvalidCategory, category)
	}

	raw, err := json.Marshal(patch)
	if err != nil {
		return "", nil, err
	}
	return section, raw, nil
}
