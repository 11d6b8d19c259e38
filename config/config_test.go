package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv() []string { return nil }

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(LoadOptions{Files: []string{}, Environ: noEnv})
	require.NoError(t, err)

	assert.Equal(t, "fieldsadmin", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 2, cfg.Client.Retries)
	assert.Equal(t, time.Second, cfg.Client.RetryDelay)
	assert.True(t, cfg.Client.FollowRedirects)
	assert.True(t, cfg.Proxy.Enabled)
	assert.Equal(t, "/api-proxy", cfg.Proxy.Prefix)
	assert.Equal(t, []string{"app.estudiokm.com.ar"}, cfg.Proxy.Domains)
	assert.Equal(t, "estudio-km-token", cfg.Session.TokenKey)
	assert.Equal(t, "memory", cfg.Store.Type)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
client:
  baseurl: https://api.example.com
  retries: 0
  timeout: 5s
proxy:
  enabled: false
`)

	cfg, err := LoadFrom(LoadOptions{Files: []string{path}, Environ: noEnv})
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Client.BaseURL)
	assert.Equal(t, 0, cfg.Client.Retries)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.False(t, cfg.Proxy.Enabled)
}

func TestLoadMissingFileIsSkipped(t *testing.T) {
	_, err := LoadFrom(LoadOptions{Files: []string{filepath.Join(t.TempDir(), "absent.yaml")}, Environ: noEnv})
	require.NoError(t, err)
}

func TestLoadEnvironmentWins(t *testing.T) {
	path := writeYAML(t, "client:\n  retries: 1\n")

	cfg, err := LoadFrom(LoadOptions{
		Files: []string{path},
		Environ: func() []string {
			return []string{
				"FIELDSADMIN_CLIENT_RETRIES=4",
				"FIELDSADMIN_PROXY_DOMAINS=api.example.com, example.org",
				"FIELDSADMIN_LOG_LEVEL=debug",
				"UNRELATED_VAR=ignored",
			}
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Client.Retries)
	assert.Equal(t, []string{"api.example.com", "example.org"}, cfg.Proxy.Domains)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "debug", cfg.String("log.level", "info"))
	assert.Equal(t, "fallback", cfg.String("does.not.exist", "fallback"))
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{name: "bad env", yaml: "app:\n  env: qa\n", field: "app.env"},
		{name: "negative retries", yaml: "client:\n  retries: -1\n", field: "client.retries"},
		{name: "bad proxy prefix", yaml: "proxy:\n  prefix: api-proxy\n", field: "proxy.prefix"},
		{name: "postgres needs dsn", yaml: "store:\n  type: postgres\n", field: "store.dsn"},
		{name: "redis needs addr", yaml: "session:\n  store: redis\n  redis:\n    addr: \"\"\n", field: "session.redis.addr"},
		{name: "admin needs password", yaml: "session:\n  adminemail: admin@example.com\n", field: "session.adminpassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(LoadOptions{Files: []string{}, YAML: []byte(tt.yaml), Environ: noEnv})
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestConfigErrorFormatting(t *testing.T) {
	err := missingSetting("proxy.upstream")
	assert.Equal(t, "config_missing: proxy.upstream is required (set FIELDSADMIN_PROXY_UPSTREAM or add proxy.upstream to config.yaml)", err.Error())

	invalid := invalidSetting("client.retries", "must be at least 0")
	invalid.Others = []string{"server.port must be at most 65535"}
	assert.Equal(t, "config_invalid: client.retries must be at least 0; also: server.port must be at most 65535", invalid.Error())
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "FIELDSADMIN_SESSION_REDIS_ADDR", EnvVar("session.redis.addr"))
	assert.Equal(t, "FIELDSADMIN_CLIENT_RETRIES", EnvVar("client.retries"))
}

func TestLoadInlineYAMLBetweenFilesAndEnvironment(t *testing.T) {
	path := writeYAML(t, "client:\n  retries: 1\n  timeout: 5s\n")

	cfg, err := LoadFrom(LoadOptions{
		Files: []string{path},
		YAML:  []byte("client:\n  retries: 3\nlog:\n  level: warn\n"),
		Environ: func() []string {
			return []string{"FIELDSADMIN_LOG_LEVEL=debug"}
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Client.Retries)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInlineYAMLSyntaxError(t *testing.T) {
	_, err := LoadFrom(LoadOptions{Files: []string{}, YAML: []byte("client: [unclosed"), Environ: noEnv})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inline yaml")
}
