package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-config-dashboard/internal/appearance"
	"site-config-dashboard/internal/metrics"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/store"
)

type serviceFixture struct {
	service *services.SiteConfigService
	configs *memoryConfigs
	audit   *memoryAudit
	cache   *memoryCache
	metrics *metrics.PrometheusMetrics
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	m, err := metrics.NewPrometheusMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	f := serviceFixture{
		configs: newMemoryConfigs(),
		audit:   &memoryAudit{},
		cache:   newMemoryCache(),
		metrics: m,
	}
	f.service = services.NewSiteConfigService(services.SiteConfigDeps{
		Configs: f.configs,
		Audit:   f.audit,
		Cache:   f.cache,
		Metrics: m,
		Logger:  zerolog.Nop(),
	})
	return f
}

func TestSaveMergesDefaultsAndSanitizes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	raw := []byte(`{"branding":{"companyName":"Acme","logoUrl":"blob:http://x/1","logoId":4}}`)
	configID, stored, err := f.service.Save(ctx, "acme", raw, services.SourceSave, services.WriteMeta{Actor: "alice", RequestID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, "cfg-1", configID)
	assert.Equal(t, "Acme", stored.Branding.CompanyName)
	assert.Equal(t, "", stored.Branding.LogoURL)
	assert.Nil(t, stored.Branding.LogoID)
	assert.Equal(t, appearance.Default().Colors, stored.Colors)

	loaded, err := f.service.GetTenant(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, stored, *loaded)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, store.AuditEntry{ID: 1, TenantKey: "acme", Action: "save", ConfigID: "cfg-1", Actor: "alice", RequestID: "req-1", CreatedAt: f.audit.entries[0].CreatedAt}, f.audit.entries[0])
}

func TestSecondSaveOverwritesAndKeepsConfigID(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, _, err := f.service.Save(ctx, "acme", []byte(`{"colors":{"primary":"#111111"}}`), services.SourceMigrate, services.WriteMeta{})
	require.NoError(t, err)
	second, stored, err := f.service.Save(ctx, "acme", []byte(`{"layout":{"theme":"dark"}}`), services.SourceSave, services.WriteMeta{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, f.configs.rows, 1)
	// full overwrite: the earlier color edit is gone
	assert.Equal(t, appearance.Default().Colors.Primary, stored.Colors.Primary)
	assert.Equal(t, "dark", stored.Layout.Theme)
	assert.Equal(t, []string{"migrate", "save"}, f.audit.actions())
}

func TestSaveRejectsInvalidDocument(t *testing.T) {
	f := newServiceFixture(t)
	_, _, err := f.service.Save(context.Background(), "acme", []byte(`[1,2]`), services.SourceSave, services.WriteMeta{})
	assert.ErrorIs(t, err, services.ErrInvalidDocument)

	_, _, err = f.service.Save(context.Background(), "", []byte(`{}`), services.SourceSave, services.WriteMeta{})
	assert.ErrorIs(t, err, services.ErrTenantRequired)
}

func TestGetTenantMissingAndCorrupt(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	cfg, err := f.service.GetTenant(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	f.configs.put(store.ScopeTenant, "broken", "{oops")
	cfg, err = f.service.GetTenant(ctx, "broken")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	f.configs.failErr = errStorage
	_, err = f.service.GetTenant(ctx, "acme")
	assert.ErrorIs(t, err, errStorage)
}

func TestPublishServesGlobalFromCache(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	global, err := f.service.GetGlobal(ctx)
	require.NoError(t, err)
	assert.Nil(t, global)

	_, err = f.service.Publish(ctx, "acme", services.WriteMeta{Actor: "alice"})
	assert.ErrorIs(t, err, services.ErrNoTenantConfig)

	_, _, err = f.service.Save(ctx, "acme", []byte(`{"branding":{"companyName":"Published"}}`), services.SourceSave, services.WriteMeta{})
	require.NoError(t, err)
	configID, err := f.service.Publish(ctx, "acme", services.WriteMeta{Actor: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, configID)

	cached, ok, err := f.cache.Get(ctx, "global")
	require.NoError(t, err)
	require.True(t, ok)
	var cachedCfg appearance.Config
	require.NoError(t, json.Unmarshal(cached, &cachedCfg))
	assert.Equal(t, "Published", cachedCfg.Branding.CompanyName)

	// the row changes underneath; the cache still answers
	f.configs.put(store.ScopeGlobal, "", `{"branding":{"companyName":"Changed"}}`)
	global, err = f.service.GetGlobal(ctx)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.Equal(t, "Published", global.Branding.CompanyName)

	require.NoError(t, f.cache.Delete(ctx, "global"))
	global, err = f.service.GetGlobal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Changed", global.Branding.CompanyName)

	assert.Equal(t, []string{"save", "publish"}, f.audit.actions())
}

func TestGetGlobalFallsThroughCacheErrors(t *testing.T) {
	f := newServiceFixture(t)
	f.cache.getErr = errStorage
	f.configs.put(store.ScopeGlobal, "", `{"layout":{"theme":"dark"}}`)

	global, err := f.service.GetGlobal(context.Background())
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.Equal(t, "dark", global.Layout.Theme)
}

func TestResetOverwritesWithDefaults(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, _, err := f.service.Save(ctx, "acme", []byte(`{"branding":{"companyName":"Acme"}}`), services.SourceSave, services.WriteMeta{})
	require.NoError(t, err)
	_, stored, err := f.service.Reset(ctx, "acme", services.WriteMeta{Actor: "admin"})
	require.NoError(t, err)
	assert.Equal(t, appearance.Default(), stored)

	loaded, err := f.service.GetTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, appearance.Default(), *loaded)
}

func TestHistoryPagesNewestFirst(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _, err := f.service.Save(ctx, "acme", []byte(`{}`), services.SourceSave, services.WriteMeta{RequestID: string(rune('a' + i))})
		require.NoError(t, err)
	}
	_, _, err := f.service.Save(ctx, "other", []byte(`{}`), services.SourceSave, services.WriteMeta{})
	require.NoError(t, err)

	entries, total, err := f.service.History(ctx, "acme", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].RequestID)
	assert.Equal(t, "b", entries[1].RequestID)
}

func TestStorageFailureIsCounted(t *testing.T) {
	f := newServiceFixture(t)
	f.configs.failErr = errStorage

	_, _, err := f.service.Save(context.Background(), "acme", []byte(`{}`), services.SourceSave, services.WriteMeta{})
	assert.ErrorIs(t, err, errStorage)
	assert.Empty(t, f.audit.actions())
}
