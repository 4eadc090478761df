package sitecfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"site-config-dashboard/internal/appearance"
)

var (
	ErrNotReady     = errors.New("config store is not ready")
	ErrSaveRejected = errors.New("save rejected by remote")

	// ErrStaleEdit reports a write skipped because the edits belong to an
	// identity the store no longer serves.
	ErrStaleEdit = errors.New("pending edits belong to a previous identity")
)

// State is the load state of a Store.
type State int

const (
	StateLoading State = iota
	StateMigrating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateMigrating:
		return "migrating"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Source tells where a load cycle took its document from.
type Source string

const (
	SourceRemote           Source = "remote"
	SourceGlobal           Source = "global"
	SourceMigrated         Source = "migrated"
	SourceMigrationFailed  Source = "migration_failed"
	SourceMigrationPending Source = "migration_pending"
	SourceLocal            Source = "local"
	SourceDefaults         Source = "defaults"
	// SourceStale means the identity changed while loading and the result was discarded.
	SourceStale     Source = "stale"
	SourceUnchanged Source = "unchanged"
)

// PersistTarget names where a flush wrote the document.
type PersistTarget string

const (
	TargetRemote PersistTarget = "remote"
	TargetLocal  PersistTarget = "local"
)

// PersistEvent reports the outcome of one flush.
type PersistEvent struct {
	Target   PersistTarget
	ConfigID string
	Err      error
	At       time.Time
}

// Options configures a Store.
type Options struct {
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Store owns the in-memory appearance document of one editor session. It runs
// the load state machine, applies edits and writes them back through a
// debounced scheduler. Consumers only ever receive copies.
type Store struct {
	gateway   Gateway
	local     LocalStore
	migrator  *Migrator
	scheduler *Scheduler
	logger    zerolog.Logger

	mu       sync.RWMutex
	state    State
	config   appearance.Config
	identity Identity
	// editedBy is the identity the pending edits were made under.
	editedBy Identity

	subMu       sync.Mutex
	nextSub     uint64
	subscribers map[uint64]func(appearance.Config)
	persistSubs map[uint64]func(PersistEvent)
}

// NewStore creates a store holding the defaults, in the Loading state, for an
// anonymous caller. Call SetIdentity or Load before editing.
// Args:
//   gateway: Remote persistence gateway.
//   local: Local fallback store.
//   opts: Debounce and logger.
// Returns:
//   *Store: Initialized store.
func NewStore(gateway Gateway, local LocalStore, opts Options) *Store {
	logger := opts.Logger.With().Str("component", "config_store").Logger()
	s := &Store{
		gateway:     gateway,
		local:       local,
		migrator:    NewMigrator(gateway, local, opts.Logger),
		logger:      logger,
		state:       StateLoading,
		config:      appearance.Default(),
		subscribers: make(map[uint64]func(appearance.Config)),
		persistSubs: make(map[uint64]func(PersistEvent)),
	}
	s.scheduler = NewScheduler(context.Background(), opts.Debounce, s.persist, opts.Logger)
	return s
}

// SetIdentity switches the caller identity and re-runs the load state
// machine. Edits still pending for the previous identity are written first;
// new edits are refused with ErrNotReady from here until the load completes.
// Args:
//   ctx: Request context.
//   id: New identity.
// Returns:
//   Source: Load outcome, SourceUnchanged when id equals the current identity.
func (s *Store) SetIdentity(ctx context.Context, id Identity) Source {
	s.mu.Lock()
	if s.identity == id && s.state == StateReady {
		s.mu.Unlock()
		return SourceUnchanged
	}
	s.state = StateLoading
	s.mu.Unlock()

	if err := s.scheduler.Flush(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("flush before identity change failed")
	}

	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
	return s.Load(ctx)
}

// Load runs the load state machine for the current identity. It never fails:
// transport errors fall back to the local store or the defaults.
// Args:
//   ctx: Request context.
// Returns:
//   Source: Where the adopted document came from.
func (s *Store) Load(ctx context.Context) Source {
	s.mu.Lock()
	id := s.identity
	s.state = StateLoading
	s.mu.Unlock()

	var source Source
	if id.Authenticated {
		source = s.loadTenant(ctx, id)
	} else {
		source = s.loadPublic(ctx, id)
	}

	s.logger.Info().
		Str("subject", id.Subject).
		Bool("authenticated", id.Authenticated).
		Str("source", string(source)).
		Msg("config loaded")
	return source
}

func (s *Store) loadTenant(ctx context.Context, id Identity) Source {
	migrated := s.migrator.completions()
	result, err := s.gateway.FetchTenantConfig(ctx, id)
	if err == nil && result.Config == nil && s.migrator.completions() != migrated {
		// a migration finished while the fetch was in flight and has since
		// cleared the local copy; the remote now holds the document
		s.logger.Debug().Str("subject", id.Subject).Msg("refetching after concurrent migration")
		result, err = s.gateway.FetchTenantConfig(ctx, id)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("subject", id.Subject).Msg("fetch tenant config failed")
		return s.adoptLocalOrDefaults(ctx, id)
	}
	if result.Success && result.Config != nil {
		return s.adopt(id, appearance.Sanitize(*result.Config), SourceRemote)
	}
	if !s.local.HasSaved(ctx) {
		return s.adopt(id, appearance.Default(), SourceDefaults)
	}

	if !s.enterMigrating(id) {
		return SourceStale
	}
	migration := s.migrator.Run(ctx, id)
	if migration.Config == nil {
		return s.adopt(id, appearance.Default(), SourceDefaults)
	}

	source := SourceMigrationFailed
	switch {
	case migration.Skipped:
		source = SourceMigrationPending
	case migration.Migrated:
		source = SourceMigrated
	}
	return s.adopt(id, *migration.Config, source)
}

func (s *Store) loadPublic(ctx context.Context, id Identity) Source {
	result, err := s.gateway.FetchGlobalConfig(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("fetch global config failed")
		return s.adoptLocalOrDefaults(ctx, id)
	}
	if result.Success && result.Config != nil {
		return s.adopt(id, appearance.Sanitize(*result.Config), SourceGlobal)
	}
	return s.adoptLocalOrDefaults(ctx, id)
}

func (s *Store) adoptLocalOrDefaults(ctx context.Context, id Identity) Source {
	if saved := s.local.ReadSaved(ctx); saved != nil {
		return s.adopt(id, appearance.Sanitize(*saved), SourceLocal)
	}
	return s.adopt(id, appearance.Default(), SourceDefaults)
}

// adopt installs cfg as current state unless the identity it was loaded for
// is no longer current.
func (s *Store) adopt(id Identity, cfg appearance.Config, source Source) Source {
	s.mu.Lock()
	if s.identity != id {
		s.mu.Unlock()
		s.logger.Debug().Str("subject", id.Subject).Str("source", string(source)).Msg("discarding stale load result")
		return SourceStale
	}
	s.config = cfg
	s.state = StateReady
	snapshot := s.config.Clone()
	s.mu.Unlock()

	s.notify(snapshot)
	return source
}

func (s *Store) enterMigrating(id Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != id {
		return false
	}
	s.state = StateMigrating
	return true
}

// GetConfig returns a copy of the current document.
func (s *Store) GetConfig() appearance.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Clone()
}

// State returns the current load state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the identity the store currently serves.
func (s *Store) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// UpdatePartial merges patch into one section and schedules a write-back.
// Args:
//   section: Top-level key.
//   patch: JSON object (or boolean for flag sections).
// Returns:
//   error: ErrNotReady while loading, or a merge error.
func (s *Store) UpdatePartial(section appearance.Section, patch json.RawMessage) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	if err := s.config.ApplySection(section, patch); err != nil {
		s.mu.Unlock()
		return err
	}
	s.editedBy = s.identity
	snapshot := s.config.Clone()
	s.mu.Unlock()

	s.notify(snapshot)
	s.scheduler.Schedule()
	return nil
}

// ReplaceAll overwrites the whole document, as an explicit reset does.
// Args:
//   cfg: Replacement document.
// Returns:
//   error: ErrNotReady while loading.
func (s *Store) ReplaceAll(cfg appearance.Config) error {
	sanitized := appearance.Sanitize(cfg)

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.config = sanitized
	s.editedBy = s.identity
	snapshot := s.config.Clone()
	s.mu.Unlock()

	s.notify(snapshot)
	s.scheduler.Schedule()
	return nil
}

// Subscribe registers fn to receive a copy of the document after every change.
// Returns:
//   func(): Unsubscribe function.
func (s *Store) Subscribe(fn func(appearance.Config)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	key := s.nextSub
	s.subscribers[key] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subscribers, key)
		s.subMu.Unlock()
	}
}

// OnPersist registers fn to receive the outcome of every flush.
// Returns:
//   func(): Unsubscribe function.
func (s *Store) OnPersist(fn func(PersistEvent)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	key := s.nextSub
	s.persistSubs[key] = fn
	return func() {
		s.subMu.Lock()
		delete(s.persistSubs, key)
		s.subMu.Unlock()
	}
}

// Flush writes pending edits immediately.
func (s *Store) Flush(ctx context.Context) error {
	return s.scheduler.Flush(ctx)
}

// MigrationInFlight reports whether a local document is being uploaded.
func (s *Store) MigrationInFlight() bool {
	return s.migrator.InFlight()
}

// Pending reports whether edits are waiting to be written.
func (s *Store) Pending() bool {
	return s.scheduler.Pending()
}

// Close writes pending edits and stops the scheduler.
func (s *Store) Close(ctx context.Context) error {
	err := s.scheduler.Flush(ctx)
	s.scheduler.Stop()
	return err
}

// persist writes the latest document: remotely when authenticated, to the
// local store otherwise. Failures are reported, never rolled back. Edits made
// under another identity are never written to the current one.
func (s *Store) persist(ctx context.Context) error {
	s.mu.RLock()
	cfg := appearance.Sanitize(s.config)
	id := s.identity
	editedBy := s.editedBy
	s.mu.RUnlock()

	event := PersistEvent{Target: TargetLocal, At: time.Now()}
	if id.Authenticated {
		event.Target = TargetRemote
	}
	if editedBy != id {
		event.Err = fmt.Errorf("%w: edited by %q, current %q", ErrStaleEdit, editedBy.Subject, id.Subject)
	} else if id.Authenticated {
		result, err := s.gateway.SaveConfig(ctx, id, cfg)
		switch {
		case err != nil:
			event.Err = err
		case !result.Success:
			event.Err = fmt.Errorf("%w: %s", ErrSaveRejected, result.Message)
		default:
			event.ConfigID = result.ConfigID
		}
	} else {
		event.Err = s.local.WriteSaved(ctx, cfg)
	}

	if event.Err != nil {
		s.logger.Warn().Err(event.Err).Str("target", string(event.Target)).Msg("persist config failed")
	} else {
		s.logger.Debug().Str("target", string(event.Target)).Str("config_id", event.ConfigID).Msg("config persisted")
	}
	s.emitPersist(event)
	return event.Err
}

func (s *Store) notify(cfg appearance.Config) {
	s.subMu.Lock()
	subs := make([]func(appearance.Config), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(cfg.Clone())
	}
}

func (s *Store) emitPersist(event PersistEvent) {
	s.subMu.Lock()
	subs := make([]func(PersistEvent), 0, len(s.persistSubs))
	for _, fn := range s.persistSubs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}
