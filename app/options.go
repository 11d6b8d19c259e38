package app

import (
	"context"
	"database/sql"
	"io"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/logger"
)

// Options contains optional dependencies for creating an App instance
type Options struct {
	SignalHandler   SignalHandler
	TimeoutProvider TimeoutProvider
	// Server replaces the HTTP listener. Routes are still registered on the
	// echo instance returned by App.Server.
	Server ServerRunner
	// LogWriter receives log output. Defaults to stdout.
	LogWriter io.Writer
	// Transport is used by the outbound HTTP client.
	Transport         http.RoundTripper
	RedisConnector    func(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error)
	PostgresConnector func(ctx context.Context, dsn string, log logger.Logger) (*sql.DB, error)
}
