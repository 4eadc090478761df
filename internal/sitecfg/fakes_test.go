package sitecfg_test

import (
	"context"
	"errors"
	"sync"

	"site-config-dashboard/internal/appearance"
	"site-config-dashboard/internal/sitecfg"
)

var errTransport = errors.New("connection refused")

type fakeGateway struct {
	mu sync.Mutex

	tenant      map[string]*appearance.Config
	global      *appearance.Config
	fetchErr    error
	saveErr     error
	saveReject  bool
	migrateErr  error
	fetchBlock  map[string]chan struct{}
	// fetchEarly resolves a fetch before it blocks, like a response
	// already on the wire.
	fetchEarly  bool
	fetchStart  chan string
	saveBlock   chan struct{}
	saveStart   chan struct{}
	migrateGate chan struct{}
	migrateIn   chan struct{}

	saves       []appearance.Config
	migrations  []appearance.Config
	activeSaves int
	maxActive   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		tenant:     make(map[string]*appearance.Config),
		fetchBlock: make(map[string]chan struct{}),
	}
}

func (g *fakeGateway) FetchTenantConfig(ctx context.Context, id sitecfg.Identity) (sitecfg.FetchResult, error) {
	g.mu.Lock()
	block := g.fetchBlock[id.Subject]
	start := g.fetchStart
	early := g.fetchEarly
	var result sitecfg.FetchResult
	var err error
	if early {
		result, err = g.resolveTenantLocked(id)
	}
	g.mu.Unlock()
	if start != nil {
		start <- id.Subject
	}
	if block != nil {
		<-block
	}
	if early {
		return result, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolveTenantLocked(id)
}

func (g *fakeGateway) resolveTenantLocked(id sitecfg.Identity) (sitecfg.FetchResult, error) {
	if g.fetchErr != nil {
		return sitecfg.FetchResult{}, g.fetchErr
	}
	cfg, ok := g.tenant[id.Subject]
	if !ok {
		return sitecfg.FetchResult{Success: false, Message: "no config"}, nil
	}
	clone := cfg.Clone()
	return sitecfg.FetchResult{Success: true, Config: &clone}, nil
}

func (g *fakeGateway) FetchGlobalConfig(ctx context.Context) (sitecfg.FetchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return sitecfg.FetchResult{}, g.fetchErr
	}
	if g.global == nil {
		return sitecfg.FetchResult{Success: false, Message: "no global config"}, nil
	}
	clone := g.global.Clone()
	return sitecfg.FetchResult{Success: true, Config: &clone}, nil
}

func (g *fakeGateway) SaveConfig(ctx context.Context, id sitecfg.Identity, cfg appearance.Config) (sitecfg.SaveResult, error) {
	g.mu.Lock()
	g.activeSaves++
	if g.activeSaves > g.maxActive {
		g.maxActive = g.activeSaves
	}
	block := g.saveBlock
	start := g.saveStart
	g.mu.Unlock()

	if start != nil {
		start <- struct{}{}
	}
	if block != nil {
		<-block
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.activeSaves--
	g.saves = append(g.saves, cfg.Clone())
	if g.saveErr != nil {
		return sitecfg.SaveResult{}, g.saveErr
	}
	if g.saveReject {
		return sitecfg.SaveResult{Success: false, Message: "invalid document"}, nil
	}
	stored := cfg.Clone()
	g.tenant[id.Subject] = &stored
	return sitecfg.SaveResult{Success: true, ConfigID: "cfg-" + id.Subject}, nil
}

func (g *fakeGateway) Migrate(ctx context.Context, id sitecfg.Identity, cfg appearance.Config) (sitecfg.SaveResult, error) {
	g.mu.Lock()
	gate := g.migrateGate
	in := g.migrateIn
	g.mu.Unlock()
	if in != nil {
		in <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.migrations = append(g.migrations, cfg.Clone())
	if g.migrateErr != nil {
		return sitecfg.SaveResult{}, g.migrateErr
	}
	stored := cfg.Clone()
	g.tenant[id.Subject] = &stored
	return sitecfg.SaveResult{Success: true, ConfigID: "migrated-" + id.Subject}, nil
}

func (g *fakeGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.saves)
}

func (g *fakeGateway) lastSave() appearance.Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves[len(g.saves)-1].Clone()
}

func (g *fakeGateway) migrationCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.migrations)
}

type memoryLocal struct {
	mu     sync.Mutex
	saved  *appearance.Config
	writes int
}

func (m *memoryLocal) HasSaved(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved != nil
}

func (m *memoryLocal) ReadSaved(context.Context) *appearance.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return nil
	}
	clone := m.saved.Clone()
	return &clone
}

func (m *memoryLocal) WriteSaved(_ context.Context, cfg appearance.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := cfg.Clone()
	m.saved = &clone
	m.writes++
	return nil
}

func (m *memoryLocal) ClearSaved(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	return nil
}
