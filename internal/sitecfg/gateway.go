// Package sitecfg keeps an editor session's appearance document in sync with
// the remote authority, falling back to a local store and migrating documents
// that only ever lived locally.
package sitecfg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"site-config-dashboard/internal/appearance"
)

// ErrUnauthorized means the remote refused the caller's credentials. It is a
// transport failure: an expired token must not read as "no document".
var ErrUnauthorized = errors.New("remote rejected credentials")

// Identity is the caller identity supplied by the auth collaborator.
type Identity struct {
	Authenticated bool
	// Subject is opaque to the store; it only takes part in equality checks.
	Subject string
	Token   string
}

// Anonymous is the identity of an unauthenticated visitor.
var Anonymous = Identity{}

// FetchResult is the business outcome of a fetch. Success=false with a nil
// Config means no document exists yet.
type FetchResult struct {
	Success bool
	Config  *appearance.Config
	Message string
}

// SaveResult is the business outcome of a save or migration.
type SaveResult struct {
	Success  bool
	ConfigID string
	Message  string
}

// Gateway is the remote persistence authority. Business failures come back as
// Success=false; a returned error means the call itself failed.
type Gateway interface {
	FetchTenantConfig(ctx context.Context, id Identity) (FetchResult, error)
	FetchGlobalConfig(ctx context.Context) (FetchResult, error)
	SaveConfig(ctx context.Context, id Identity, cfg appearance.Config) (SaveResult, error)
	Migrate(ctx context.Context, id Identity, cfg appearance.Config) (SaveResult, error)
}

// Envelope is the JSON body exchanged with the site config API.
type Envelope struct {
	Success  bool               `json:"success"`
	Config   *appearance.Config `json:"config,omitempty"`
	ConfigID string             `json:"configId,omitempty"`
	Message  string             `json:"message,omitempty"`
}

// HTTPGateway talks to the site config API of the dashboard server.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway for the given server.
// Args:
//   baseURL: Server origin, e.g. http://127.0.0.1:8080.
//   timeout: Client timeout. Zero disables it.
// Returns:
//   *HTTPGateway: Initialized gateway.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) FetchTenantConfig(ctx context.Context, id Identity) (FetchResult, error) {
	if !id.Authenticated {
		return FetchResult{Success: false, Message: "not authenticated"}, nil
	}
	env, err := g.do(ctx, http.MethodGet, "/api/site-config", id.Token, nil)
	if err != nil {
		return FetchResult{}, err
	}
	return FetchResult{Success: env.Success && env.Config != nil, Config: env.Config, Message: env.Message}, nil
}

func (g *HTTPGateway) FetchGlobalConfig(ctx context.Context) (FetchResult, error) {
	env, err := g.do(ctx, http.MethodGet, "/api/site-config/global", "", nil)
	if err != nil {
		return FetchResult{}, err
	}
	return FetchResult{Success: env.Success && env.Config != nil, Config: env.Config, Message: env.Message}, nil
}

func (g *HTTPGateway) SaveConfig(ctx context.Context, id Identity, cfg appearance.Config) (SaveResult, error) {
	return g.upsert(ctx, "/api/site-config", id, cfg)
}

func (g *HTTPGateway) Migrate(ctx context.Context, id Identity, cfg appearance.Config) (SaveResult, error) {
	return g.upsert(ctx, "/api/site-config/migrate", id, cfg)
}

func (g *HTTPGateway) upsert(ctx context.Context, path string, id Identity, cfg appearance.Config) (SaveResult, error) {
	if !id.Authenticated {
		return SaveResult{Success: false, Message: "not authenticated"}, nil
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		return SaveResult{}, fmt.Errorf("encode config: %w", err)
	}
	env, err := g.do(ctx, http.MethodPost, path, id.Token, body)
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Success: env.Success, ConfigID: env.ConfigID, Message: env.Message}, nil
}

// do performs one request. Responses carrying a JSON envelope are business
// outcomes whatever their status; server errors without one, and refused
// credentials, are transport errors.
func (g *HTTPGateway) do(ctx context.Context, method, path, token string, body []byte) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%s %s: %w (%d %s)", method, path, ErrUnauthorized, resp.StatusCode, strings.TrimSpace(extractError(payload)))
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil || !hasSuccessField(payload) {
		if resp.StatusCode >= http.StatusInternalServerError || err != nil {
			return nil, fmt.Errorf("%s %s: unexpected response status %d", method, path, resp.StatusCode)
		}
		message := strings.TrimSpace(extractError(payload))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &Envelope{Success: false, Message: message}, nil
	}
	return &env, nil
}

func hasSuccessField(payload []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	_, ok := probe["success"]
	return ok
}

func extractError(payload []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &parsed)
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}
