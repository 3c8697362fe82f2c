package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/stampbook/internal/cache"
	"github.com/roach88/stampbook/internal/config"
	"github.com/roach88/stampbook/internal/identity"
	"github.com/roach88/stampbook/internal/remote"
	"github.com/roach88/stampbook/internal/session"
	"github.com/roach88/stampbook/internal/store"
	"github.com/roach88/stampbook/internal/survey"
	"github.com/roach88/stampbook/internal/visit"
)

// app wires the configured stores, remote backend and identity sources.
type app struct {
	cfg    *config.Config
	store  *store.Store
	cache  *cache.Cache
	http   *remote.HTTPSource // nil when no remote is configured
	device identity.Provider
	logger *slog.Logger
}

func openApp(opts *RootOptions, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	path := cfg.Database
	if opts.Database != "" {
		path = opts.Database
	}

	logger.Debug("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a := &app{
		cfg:    cfg,
		store:  st,
		cache:  cache.New(st, cache.WithLogger(logger)),
		logger: logger,
	}
	if cfg.Remote.BaseURL != "" {
		a.http, err = remote.NewHTTPSource(cfg.Remote.BaseURL, cfg.Remote.AuthToken, cfg.Remote.Timeout)
		if err != nil {
			_ = st.Close()
			return nil, WrapExitError(ExitCommandError, "invalid remote configuration", err)
		}
	}
	a.device = identity.NewDevice(a.cache, nil, cfg.Identity.Provision)
	return a, nil
}

func (a *app) Close() error {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// provider prefers an explicit identifier over the device one.
func (a *app) provider(explicit string) identity.Provider {
	if explicit != "" {
		return identity.NewChain(a.logger, identity.Static(explicit), a.device)
	}
	return a.device
}

func (a *app) source() remote.Source {
	if a.http == nil {
		return nil
	}
	return a.http
}

func (a *app) writer() remote.Writer {
	if a.http == nil {
		return nil
	}
	return a.http
}

func (a *app) session(set, explicit string) (*session.Session, error) {
	ts, err := a.cfg.Set(set)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid target set", err)
	}
	s, err := session.Build(ts, a.provider(explicit), a.cache, remote.NewAdapter(a.source(), a.logger), a.logger)
	if err != nil {
		return nil, fmt.Errorf("building session: %w", err)
	}
	return s, nil
}

func (a *app) visitor(explicit string) *visit.Recorder {
	return visit.New(a.provider(explicit), a.cache, a.writer(),
		visit.WithKnownSpots(a.cfg.Spots()...),
		visit.WithLogger(a.logger),
	)
}

func (a *app) surveys(explicit string) *survey.Recorder {
	return survey.New(a.provider(explicit), a.cache, a.writer(), survey.WithLogger(a.logger))
}
