package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the complete fieldsadmin configuration. The koanf instance is kept
// for ad-hoc lookups of keys that are not part of the struct.
type Config struct {
	App           AppConfig           `koanf:"app"`
	Server        ServerConfig        `koanf:"server"`
	Log           LogConfig           `koanf:"log"`
	Client        ClientConfig        `koanf:"client"`
	Proxy         ProxyConfig         `koanf:"proxy"`
	API           APIConfig           `koanf:"api"`
	Session       SessionConfig       `koanf:"session"`
	Store         StoreConfig         `koanf:"store"`
	Observability ObservabilityConfig `koanf:"observability"`

	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" validate:"required"`
	Version string `koanf:"version" validate:"required"`
	Env     string `koanf:"env" validate:"oneof=development staging production"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string        `koanf:"host"`
	Port      int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout   TimeoutConfig `koanf:"timeout"`
	RateLimit int           `koanf:"ratelimit" validate:"min=0"`

	// CORSOrigins restricts cross-origin callers. Empty allows any origin.
	CORSOrigins []string `koanf:"corsorigins"`
}

// TimeoutConfig holds server-side timeouts.
type TimeoutConfig struct {
	Read     time.Duration `koanf:"read" validate:"gt=0"`
	Write    time.Duration `koanf:"write" validate:"gt=0"`
	Idle     time.Duration `koanf:"idle"`
	Shutdown time.Duration `koanf:"shutdown" validate:"gt=0"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// ClientConfig configures the outbound HTTP client defaults.
//   - Timeout bounds a whole logical call, retries included. Default: 30s.
//   - Retries is the number of extra attempts after a transport failure. Default: 2.
//   - RetryDelay is the fixed pause between attempts. Default: 1s.
//   - RewriteProxy routes the backend's own calls through proxy.origin. Off by
//     default: a server process dials the SaaS host directly, and its own
//     /api-proxy listener may not be up yet.
type ClientConfig struct {
	BaseURL         string        `koanf:"baseurl" validate:"omitempty,url"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	Retries         int           `koanf:"retries" validate:"min=0,max=10"`
	RetryDelay      time.Duration `koanf:"retrydelay" validate:"min=0"`
	FollowRedirects bool          `koanf:"followredirects"`
	RewriteProxy    bool          `koanf:"rewriteproxy"`
}

// ProxyConfig controls same-origin rewriting of calls to the SaaS API and the
// reverse proxy that serves the rewritten paths.
type ProxyConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Prefix   string   `koanf:"prefix" validate:"omitempty,startswith=/"`
	Domains  []string `koanf:"domains" validate:"dive,hostname|ip"`
	Origin   string   `koanf:"origin" validate:"omitempty,url"`
	Upstream string   `koanf:"upstream" validate:"omitempty,url"`
}

// APIConfig holds the custom-fields API endpoints.
type APIConfig struct {
	CustomFieldsPath string `koanf:"customfieldspath" validate:"required"`
	MePath           string `koanf:"mepath" validate:"required"`
	MockFallback     bool   `koanf:"mockfallback"`
}

// SessionConfig configures session persistence and the built-in admin account.
// Sessions are stored under tokenkey + ":" + id and expire after TTL.
type SessionConfig struct {
	Store         string        `koanf:"store" validate:"oneof=memory redis"`
	TokenKey      string        `koanf:"tokenkey" validate:"required"`
	TTL           time.Duration `koanf:"ttl" validate:"min=0"`
	AdminEmail    string        `koanf:"adminemail" validate:"omitempty,email"`
	AdminPassword string        `koanf:"adminpassword"`
	Redis         RedisConfig   `koanf:"redis"`
}

// RedisConfig holds redis connection settings for the redis token store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

// StoreConfig selects the company store backend.
type StoreConfig struct {
	Type string `koanf:"type" validate:"oneof=memory postgres"`
	DSN  string `koanf:"dsn" validate:"required_if=Type postgres"`
}

// ObservabilityConfig toggles OpenTelemetry providers.
type ObservabilityConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter" validate:"omitempty,oneof=stdout none"`
}
