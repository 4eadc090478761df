package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"site-config-dashboard/internal/config"
	"site-config-dashboard/internal/sitecfg"
	"site-config-dashboard/internal/store"
)

// session is one editor session of the CLI.
type session struct {
	cfg    *config.ClientConfig
	store  *sitecfg.Store
	source sitecfg.Source
	logger zerolog.Logger
	close  func() error

	mu          sync.Mutex
	persistErrs []error
	lastTarget  sitecfg.PersistTarget
}

// openSession loads the client config, wires the session and runs the
// initial load for the configured identity.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	local, closeLocal, err := newLocalStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	gateway := sitecfg.NewHTTPGateway(cfg.ServerURL, cfg.RequestTimeout)
	s := &session{
		cfg:    cfg,
		store:  sitecfg.NewStore(gateway, local, sitecfg.Options{Debounce: cfg.Debounce, Logger: logger}),
		logger: logger,
		close:  closeLocal,
	}
	s.store.OnPersist(func(event sitecfg.PersistEvent) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastTarget = event.Target
		if event.Err != nil {
			s.persistErrs = append(s.persistErrs, event.Err)
		}
	})

	s.source = s.store.SetIdentity(ctx, identityFor(cfg))
	return s, nil
}

// identityFor maps the configured token to a session identity. The subject
// defaults to the token so switching tokens reloads.
func identityFor(cfg *config.ClientConfig) sitecfg.Identity {
	if cfg.Token == "" {
		return sitecfg.Anonymous
	}
	subject := cfg.Subject
	if subject == "" {
		subject = cfg.Token
	}
	return sitecfg.Identity{Authenticated: true, Subject: subject, Token: cfg.Token}
}

func newLocalStore(cfg *config.ClientConfig, logger zerolog.Logger) (sitecfg.LocalStore, func() error, error) {
	if cfg.LocalDriver != "redis" {
		return sitecfg.NewFileStore(cfg.LocalDir, cfg.LocalKey, logger), func() error { return nil }, nil
	}
	client, err := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect local redis: %w", err)
	}
	return sitecfg.NewRedisStore(client, cfg.LocalKey, logger), client.Close, nil
}

// finish flushes pending edits and reports any failed write of the session.
func (s *session) finish(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout+5*time.Second)
	defer cancel()

	err := s.store.Close(ctx)
	if closeErr := s.close(); closeErr != nil {
		s.logger.Warn().Err(closeErr).Msg("close local store failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.persistErrs) > 0 {
		return errors.Join(s.persistErrs...)
	}
	return err
}

func (s *session) target() sitecfg.PersistTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTarget
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(parsed).
		With().
		Timestamp().
		Logger()
}
