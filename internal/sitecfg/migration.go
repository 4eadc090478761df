package sitecfg

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"site-config-dashboard/internal/appearance"
)

// MigrationResult describes one migration attempt.
type MigrationResult struct {
	// Skipped is set when another migration was already in flight.
	Skipped  bool
	Migrated bool
	ConfigID string
	// Config is the sanitized local document, nil when nothing was stored locally.
	Config *appearance.Config
}

// Migrator uploads a document that only exists in the local store to the
// remote authority. At most one migration runs at a time.
type Migrator struct {
	gateway Gateway
	local   LocalStore
	logger  zerolog.Logger

	mu       sync.Mutex
	inFlight bool
	// done counts successful migrations.
	done uint64
}

// NewMigrator creates a migration coordinator.
func NewMigrator(gateway Gateway, local LocalStore, logger zerolog.Logger) *Migrator {
	return &Migrator{
		gateway: gateway,
		local:   local,
		logger:  logger.With().Str("component", "config_migrator").Logger(),
	}
}

// Run reads, sanitizes and uploads the local document for id. On success the
// local copy is cleared; on failure it is kept so a later load can retry.
// Either way the sanitized document is returned for adoption.
// Args:
//   ctx: Request context.
//   id: Authenticated caller identity.
// Returns:
//   MigrationResult: Attempt outcome.
func (m *Migrator) Run(ctx context.Context, id Identity) MigrationResult {
	if !m.begin() {
		m.logger.Debug().Str("subject", id.Subject).Msg("migration already in flight")
		return MigrationResult{Skipped: true, Config: m.readSanitized(ctx)}
	}
	defer m.end()

	cfg := m.readSanitized(ctx)
	if cfg == nil {
		return MigrationResult{}
	}

	result, err := m.gateway.Migrate(ctx, id, *cfg)
	if err != nil {
		m.logger.Warn().Err(err).Str("subject", id.Subject).Msg("migrate local config failed")
		return MigrationResult{Config: cfg}
	}
	if !result.Success {
		m.logger.Warn().Str("subject", id.Subject).Str("message", result.Message).Msg("migrate local config rejected")
		return MigrationResult{Config: cfg}
	}

	m.mu.Lock()
	m.done++
	m.mu.Unlock()
	if err := m.local.ClearSaved(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("clear local config after migration failed")
	}
	m.logger.Info().Str("subject", id.Subject).Str("config_id", result.ConfigID).Msg("local config migrated")
	return MigrationResult{Migrated: true, ConfigID: result.ConfigID, Config: cfg}
}

// InFlight reports whether a migration is running.
func (m *Migrator) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// completions returns the number of successful migrations so far. A load
// compares it across its fetch to notice a migration that landed meanwhile.
func (m *Migrator) completions() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

func (m *Migrator) readSanitized(ctx context.Context) *appearance.Config {
	saved := m.local.ReadSaved(ctx)
	if saved == nil {
		return nil
	}
	cfg := appearance.Sanitize(*saved)
	return &cfg
}

func (m *Migrator) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return false
	}
	m.inFlight = true
	return true
}

func (m *Migrator) end() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}
