package handlers_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"site-config-dashboard/internal/config"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/store"
)

type memoryConfigs struct {
	mu      sync.Mutex
	rows    map[string]*store.SiteConfigRecord
	nextID  int
	failErr error
}

func newMemoryConfigs() *memoryConfigs {
	return &memoryConfigs{rows: make(map[string]*store.SiteConfigRecord)}
}

func (m *memoryConfigs) Get(_ context.Context, scope, tenantKey string) (*store.SiteConfigRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	row, ok := m.rows[scope+"/"+tenantKey]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (m *memoryConfigs) Upsert(_ context.Context, scope, tenantKey string, document []byte, updatedBy string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return "", m.failErr
	}
	key := scope + "/" + tenantKey
	row, ok := m.rows[key]
	if !ok {
		m.nextID++
		row = &store.SiteConfigRecord{ConfigID: fmt.Sprintf("cfg-%d", m.nextID), Scope: scope, TenantKey: tenantKey}
		m.rows[key] = row
	}
	row.Document = append([]byte(nil), document...)
	row.UpdatedBy = updatedBy
	return row.ConfigID, nil
}

func (m *memoryConfigs) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []store.AuditEntry
}

func (m *memoryAudit) Insert(_ context.Context, entry store.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryAudit) List(_ context.Context, tenantKey string, limit, offset int) ([]store.AuditEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]store.AuditEntry, 0)
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].TenantKey == tenantKey {
			matched = append(matched, m.entries[i])
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []store.AuditEntry{}, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

type memoryUsers struct {
	mu     sync.Mutex
	users  map[int64]store.UserRecord
	nextID int64
	logins map[int64]int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[int64]store.UserRecord), logins: make(map[int64]int)}
}

func (m *memoryUsers) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*store.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) FindByID(_ context.Context, id int64) (*store.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *memoryUsers) List(_ context.Context) ([]store.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.UserRecord, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryUsers) Create(_ context.Context, user store.UserRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user.ID, nil
}

func (m *memoryUsers) Update(_ context.Context, id int64, update store.UserUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return false, nil
	}
	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.TenantKey != nil {
		user.TenantKey = *update.TenantKey
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	m.users[id] = user
	return true, nil
}

func (m *memoryUsers) TouchLogin(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[id]++
	return nil
}

func (m *memoryUsers) get(id int64) store.UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

type fakeUploader struct {
	mu     sync.Mutex
	inputs []services.UploadInput
	bodies []string
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, in services.UploadInput) (services.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return services.UploadResult{}, f.err
	}
	raw, _ := io.ReadAll(in.Body)
	in.Body = nil
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(raw))
	return services.UploadResult{ID: int64(len(f.inputs)), URL: "https://cdn.example.com/" + in.FileName, Path: "media/" + in.FileName}, nil
}

func newTestAuth(t *testing.T) *services.AuthService {
	t.Helper()
	auth, err := services.NewAuthService(&config.Config{JwtSecret: "test-secret", JwtIssuer: "test"})
	require.NoError(t, err)
	return auth
}

func issueToken(t *testing.T, auth *services.AuthService, user services.AuthUser) string {
	t.Helper()
	token, _, err := auth.IssueToken(&user)
	require.NoError(t, err)
	return token
}

func init() {
	gin.SetMode(gin.TestMode)
}

func silentLogger() zerolog.Logger {
	return zerolog.Nop()
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func storeUser(username, tenant, role string, status int, hash string) store.UserRecord {
	return store.UserRecord{Username: username, TenantKey: tenant, Role: role, Status: status, PasswordHash: hash}
}
