package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and cross-field rules that tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fromFieldErrors(fieldErrs)
		}
		return err
	}

	if cfg.Session.Store == "redis" && cfg.Session.Redis.Addr == "" {
		return missingSetting("session.redis.addr")
	}
	if cfg.Session.AdminEmail != "" && cfg.Session.AdminPassword == "" {
		return missingSetting("session.adminpassword")
	}
	if cfg.Proxy.Enabled {
		switch {
		case cfg.Proxy.Prefix == "":
			return missingSetting("proxy.prefix")
		case len(cfg.Proxy.Domains) == 0:
			return missingSetting("proxy.domains")
		case cfg.Proxy.Upstream == "":
			return missingSetting("proxy.upstream")
		}
	}
	return nil
}

// fromFieldErrors reports the first failing field as a ConfigError and lists the rest.
func fromFieldErrors(errs validator.ValidationErrors) *ConfigError {
	first := errs[0]
	out := invalidSetting(fieldPath(first.Namespace()), describe(first))
	for _, fe := range errs[1:] {
		out.Others = append(out.Others, fmt.Sprintf("%s %s", fieldPath(fe.Namespace()), describe(fe)))
	}
	return out
}

// fieldPath turns "Config.Client.RetryDelay" into "client.retrydelay".
func fieldPath(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gt":
		return fmt.Sprintf("must be %s %s", map[string]string{"min": "at least", "gt": "greater than"}[fe.Tag()], fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "hostname":
		return "must be a valid hostname"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
