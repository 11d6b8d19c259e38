package config

import (
	"fmt"
	"strings"
)

// ConfigError names the setting that stopped the dashboard from starting and
// how to supply it.
//
//nolint:revive // config.ConfigError reads better at call sites than config.Error
type ConfigError struct {
	Missing bool     // true when the setting is absent rather than malformed
	Field   string   // dotted path, e.g. "proxy.upstream"
	Reason  string   // what is wrong with it
	Others  []string // further failing settings
}

func (e *ConfigError) Error() string {
	kind := "invalid"
	if e.Missing {
		kind = "missing"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "config_%s: %s %s", kind, e.Field, e.Reason)
	if e.Missing {
		fmt.Fprintf(&b, " (set %s or add %s to config.yaml)", EnvVar(e.Field), e.Field)
	}
	if len(e.Others) > 0 {
		fmt.Fprintf(&b, "; also: %s", strings.Join(e.Others, "; "))
	}
	return b.String()
}

// EnvVar returns the environment variable that overrides a dotted setting.
func EnvVar(field string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(field, ".", "_"))
}

func missingSetting(field string) *ConfigError {
	return &ConfigError{Missing: true, Field: field, Reason: "is required"}
}

func invalidSetting(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}
