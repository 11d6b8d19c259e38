// Package app wires configuration, logging, telemetry, the outbound HTTP
// client, the domain services and the HTTP server into a runnable process.
package app

import (
	"context"
	"fmt"

	"github.com/gaborage/fieldsadmin/api"
	"github.com/gaborage/fieldsadmin/company"
	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/customfields"
	"github.com/gaborage/fieldsadmin/httpclient"
	"github.com/gaborage/fieldsadmin/logger"
	"github.com/gaborage/fieldsadmin/observability"
	"github.com/gaborage/fieldsadmin/server"
	"github.com/gaborage/fieldsadmin/session"
)

// App is a fully wired fieldsadmin process.
type App struct {
	cfg           *config.Config
	logger        logger.Logger
	server        *server.Server
	runner        ServerRunner
	client        httpclient.Client
	sessions      *session.Service
	companies     *company.Service
	observability observability.Provider
	closers       []namedCloser

	signalHandler   SignalHandler
	timeoutProvider TimeoutProvider
}

// New creates an App from cfg with default options.
func New(cfg *config.Config) (*App, error) {
	return NewWithOptions(cfg, nil)
}

// NewWithOptions creates an App, connecting to redis and postgres when the
// configuration selects them. Anything opened is closed again on failure.
func NewWithOptions(cfg *config.Config, opts *Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	b := newAppBootstrap(cfg, opts)
	log := b.newLogger()

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("version", cfg.App.Version).
		Msg("Starting application")

	provider, err := b.observability()
	if err != nil {
		return nil, err
	}

	a, err := build(context.Background(), b, provider)
	if err != nil {
		b.unwind()
		_ = observability.Shutdown(provider, cfg.Server.Timeout.Shutdown)
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, b *appBootstrap, provider observability.Provider) (*App, error) {
	cfg, log := b.cfg, b.log

	client := b.httpClient(provider)
	fields := customfields.NewService(client, customfields.ConfigFrom(cfg), log)

	tokens, err := b.tokenStore(ctx)
	if err != nil {
		return nil, err
	}
	sessions := session.NewService(tokens, fields, session.Config{
		TokenKey:      cfg.Session.TokenKey,
		TTL:           cfg.Session.TTL,
		AdminEmail:    cfg.Session.AdminEmail,
		AdminPassword: cfg.Session.AdminPassword,
	}, log)

	store, err := b.companyStore(ctx)
	if err != nil {
		return nil, err
	}
	companies := company.NewService(store, log)

	srv, err := server.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	for name, check := range b.checks {
		srv.AddReadinessCheck(name, check)
	}

	api.Register(srv, api.Deps{
		Sessions:     sessions,
		Fields:       fields,
		Companies:    companies,
		Client:       client,
		Logger:       log,
		TokenDomains: cfg.Proxy.Domains,
		SecureCookie: cfg.App.Env == config.EnvProduction,
	})

	a := &App{
		cfg:             cfg,
		logger:          log,
		server:          srv,
		runner:          srv,
		client:          client,
		sessions:        sessions,
		companies:       companies,
		observability:   provider,
		closers:         b.closers,
		signalHandler:   osSignalHandler{},
		timeoutProvider: standardTimeoutProvider{},
	}
	if b.opts.Server != nil {
		a.runner = b.opts.Server
	}
	if b.opts.SignalHandler != nil {
		a.signalHandler = b.opts.SignalHandler
	}
	if b.opts.TimeoutProvider != nil {
		a.timeoutProvider = b.opts.TimeoutProvider
	}
	return a, nil
}

// Server returns the HTTP server with every route registered
func (a *App) Server() *server.Server { return a.server }

// Client returns the shared outbound HTTP client
func (a *App) Client() httpclient.Client { return a.client }

// Sessions returns the session service
func (a *App) Sessions() *session.Service { return a.sessions }

// Companies returns the company service
func (a *App) Companies() *company.Service { return a.companies }
