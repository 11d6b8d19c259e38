// Package config loads fieldsadmin configuration from defaults, YAML files and
// environment variables using koanf.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. FIELDSADMIN_CLIENT_RETRIES=3.
const EnvPrefix = "FIELDSADMIN_"

// Environment names
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// LoadOptions overrides where configuration is read from.
type LoadOptions struct {
	// Files are YAML files loaded in order; missing files are skipped.
	// Default: config.yaml then config.<app.env>.yaml.
	Files []string
	// YAML is an inline document applied after Files and before the
	// environment.
	YAML []byte
	// Environ replaces os.Environ, mainly for tests.
	Environ func() []string
}

// Load loads configuration with priority:
// 1. Environment variables (highest priority)
// 2. Inline YAML (LoadFrom only)
// 3. YAML configuration files
// 4. Default values (lowest priority)
func Load() (*Config, error) {
	return LoadFrom(LoadOptions{})
}

// LoadFrom is Load with explicit sources.
func LoadFrom(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	files := opts.Files
	if files == nil {
		files = []string{"config.yaml"}
		if env := k.String("app.env"); env != "" {
			files = append(files, fmt.Sprintf("config.%s.yaml", env))
		}
	}
	for _, path := range files {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if len(opts.YAML) > 0 {
		if err := k.Load(rawbytes.Provider(opts.YAML), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load inline yaml: %w", err)
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}
	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// transformEnv maps FIELDSADMIN_CLIENT_BASEURL to client.baseurl. List-valued
// keys accept comma-separated values.
func transformEnv(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
	if key == "proxy.domains" || key == "server.corsorigins" {
		parts := strings.Split(value, ",")
		domains := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				domains = append(domains, p)
			}
		}
		return key, domains
	}
	return key, value
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "fieldsadmin",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.timeout.read":     "15s",
		"server.timeout.write":    "45s",
		"server.timeout.idle":     "60s",
		"server.timeout.shutdown": "10s",
		"server.ratelimit":        50,

		"log.level":  "info",
		"log.pretty": false,

		"client.baseurl":         "",
		"client.timeout":         "30s",
		"client.retries":         2,
		"client.retrydelay":      "1s",
		"client.followredirects": true,
		"client.rewriteproxy":    false,

		"proxy.enabled":  true,
		"proxy.prefix":   "/api-proxy",
		"proxy.domains":  []string{"app.estudiokm.com.ar"},
		"proxy.origin":   "http://localhost:8080",
		"proxy.upstream": "https://app.estudiokm.com.ar",

		"api.customfieldspath": "https://app.estudiokm.com.ar/api/accounts/custom_fields",
		"api.mepath":           "https://app.estudiokm.com.ar/api/accounts/me",
		"api.mockfallback":     true,

		"session.store":      "memory",
		"session.tokenkey":   "estudio-km-token",
		"session.ttl":        "12h",
		"session.adminemail": "",
		"session.redis.addr": "localhost:6379",
		"session.redis.db":   0,

		"store.type": "memory",

		"observability.enabled":  false,
		"observability.exporter": "stdout",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// String returns a raw configuration value by dotted key, or def when unset.
func (c *Config) String(key, def string) string {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return def
	}
	return c.k.String(key)
}
