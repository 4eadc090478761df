package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

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
	now := time.Now()
	row, ok := m.rows[key]
	if !ok {
		m.nextID++
		row = &store.SiteConfigRecord{
			ConfigID:  fmt.Sprintf("cfg-%d", m.nextID),
			Scope:     scope,
			TenantKey: tenantKey,
			CreatedAt: now,
		}
		m.rows[key] = row
	}
	row.Document = append([]byte(nil), document...)
	row.UpdatedBy = updatedBy
	row.UpdatedAt = now
	return row.ConfigID, nil
}

func (m *memoryConfigs) put(scope, tenantKey, document string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.rows[scope+"/"+tenantKey] = &store.SiteConfigRecord{
		ConfigID:  fmt.Sprintf("cfg-%d", m.nextID),
		Scope:     scope,
		TenantKey: tenantKey,
		Document:  []byte(document),
	}
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []store.AuditEntry
}

func (m *memoryAudit) Insert(_ context.Context, entry store.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
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
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *memoryAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry.Action)
	}
	return out
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type memoryMedia struct {
	mu     sync.Mutex
	assets []store.MediaAsset
}

func (m *memoryMedia) Insert(_ context.Context, asset store.MediaAsset) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset.ID = int64(len(m.assets) + 100)
	m.assets = append(m.assets, asset)
	return asset.ID, nil
}

type memoryStorage struct {
	objects map[string][]byte
	putErr  error
}

func (m *memoryStorage) Put(_ context.Context, objectPath string, body io.Reader) error {
	if m.putErr != nil {
		return m.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[objectPath] = buf.Bytes()
	return nil
}

func (m *memoryStorage) URL(_ context.Context, objectPath string) (string, error) {
	return "https://cdn.example.com/" + objectPath, nil
}

func (m *memoryStorage) Name() string {
	return "memory"
}

var errStorage = errors.New("storage unavailable")
