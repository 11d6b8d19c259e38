package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gaborage/fieldsadmin/company"
	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/httpclient"
	"github.com/gaborage/fieldsadmin/logger"
	"github.com/gaborage/fieldsadmin/observability"
	"github.com/gaborage/fieldsadmin/server"
	"github.com/gaborage/fieldsadmin/session"
)

const (
	instrumentationName = "github.com/gaborage/fieldsadmin"
	redisKeyPrefix      = "fieldsadmin:"
	schemaTimeout       = 10 * time.Second
)

// namedCloser holds a resource with its name for cleanup tracking
type namedCloser struct {
	name   string
	closer interface{ Close() error }
}

// appBootstrap runs the initialization sequence for an App and remembers
// what it opened so a failed bootstrap can be unwound.
type appBootstrap struct {
	cfg     *config.Config
	opts    *Options
	log     logger.Logger
	closers []namedCloser
	checks  map[string]server.ReadinessCheck
}

func newAppBootstrap(cfg *config.Config, opts *Options) *appBootstrap {
	if opts == nil {
		opts = &Options{}
	}
	return &appBootstrap{cfg: cfg, opts: opts, checks: make(map[string]server.ReadinessCheck)}
}

func (b *appBootstrap) newLogger() logger.Logger {
	w := b.opts.LogWriter
	if w == nil {
		w = os.Stdout
	}
	b.log = logger.NewWithWriter(w, b.cfg.Log.Level, b.cfg.Log.Pretty, logger.DefaultFilterConfig())
	return b.log
}

func (b *appBootstrap) observability() (observability.Provider, error) {
	cfg := observability.ConfigFrom(b.cfg)
	if b.opts.LogWriter != nil {
		cfg.Writer = b.opts.LogWriter
	}
	provider, err := observability.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	if cfg.Enabled {
		b.log.Info().Str("exporter", cfg.Exporter).Msg("Observability enabled")
	}
	return provider, nil
}

func (b *appBootstrap) httpClient(provider observability.Provider) httpclient.Client {
	builder := httpclient.BuilderFromConfig(b.cfg, b.log).
		WithTracer(provider.TracerProvider().Tracer(instrumentationName)).
		WithMeter(provider.MeterProvider().Meter(instrumentationName))
	if b.opts.Transport != nil {
		builder = builder.WithTransport(b.opts.Transport)
	}
	return builder.Build()
}

// tokenStore returns the session token store selected by session.store.
func (b *appBootstrap) tokenStore(ctx context.Context) (session.TokenStore, error) {
	if b.cfg.Session.Store != "redis" {
		return session.NewMemoryTokenStore(), nil
	}

	connect := b.opts.RedisConnector
	if connect == nil {
		connect = session.NewRedisClient
	}
	client, err := connect(ctx, b.cfg.Session.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	b.closers = append(b.closers, namedCloser{name: "redis", closer: client})
	b.checks["redis"] = redisCheck(client)

	b.log.Info().
		Str("addr", b.cfg.Session.Redis.Addr).
		Int("db", b.cfg.Session.Redis.DB).
		Msg("Session tokens stored in redis")
	return session.NewRedisTokenStore(client, redisKeyPrefix, b.cfg.Session.TTL), nil
}

// companyStore returns the company store selected by store.type. The
// postgres table is created when missing.
func (b *appBootstrap) companyStore(ctx context.Context) (company.Store, error) {
	if b.cfg.Store.Type != "postgres" {
		return company.NewMemoryStore(), nil
	}

	connect := b.opts.PostgresConnector
	if connect == nil {
		connect = company.OpenPostgres
	}
	db, err := connect(ctx, b.cfg.Store.DSN, b.log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	b.closers = append(b.closers, namedCloser{name: "postgres", closer: db})
	b.checks["postgres"] = postgresCheck(db)

	store := company.NewPostgresStore(db)
	schemaCtx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()
	if err := store.EnsureSchema(schemaCtx); err != nil {
		return nil, err
	}
	return store, nil
}

// unwind closes everything opened so far, newest first.
func (b *appBootstrap) unwind() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].closer.Close(); err != nil && b.log != nil {
			b.log.Warn().Err(err).Msgf("Failed to close %s", b.closers[i].name)
		}
	}
	b.closers = nil
}
