package httpclient

import (
	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/logger"
)

// BuilderFromConfig returns a builder preloaded with the client and proxy
// sections of cfg. Callers may add a tracer, meter or transport before Build.
// Rewriting through the proxy is enabled only by client.rewriteproxy;
// proxy.enabled mounts the server side of the proxy.
func BuilderFromConfig(cfg *config.Config, log logger.Logger) *Builder {
	b := NewBuilder(log).
		WithBaseURL(cfg.Client.BaseURL).
		WithTimeout(cfg.Client.Timeout).
		WithRetries(cfg.Client.Retries, cfg.Client.RetryDelay).
		WithFollowRedirects(cfg.Client.FollowRedirects)

	p := DefaultProxy()
	if cfg.Proxy.Prefix != "" {
		p.Prefix = cfg.Proxy.Prefix
	}
	if len(cfg.Proxy.Domains) > 0 {
		p.Domains = append([]string(nil), cfg.Proxy.Domains...)
	}
	p.Origin = cfg.Proxy.Origin
	return b.WithProxy(p, cfg.Client.RewriteProxy)
}
