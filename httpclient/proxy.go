package httpclient

import (
	"net/url"
	"strings"
)

const (
	// DefaultProxyPrefix is the same-origin path the reverse proxy listens on
	DefaultProxyPrefix = "/api-proxy"
	// DefaultProxyDomain is the custom-fields API host
	DefaultProxyDomain = "app.estudiokm.com.ar"
)

// Proxy rewrites absolute URLs on proxied domains into same-origin paths
// under Prefix. Origin is the scheme and host that serves Prefix; it is used
// to turn relative request URLs into something the transport can dial.
type Proxy struct {
	Prefix  string
	Domains []string
	Origin  string
}

// DefaultProxy returns the proxy policy for the custom-fields API.
func DefaultProxy() Proxy {
	return Proxy{Prefix: DefaultProxyPrefix, Domains: []string{DefaultProxyDomain}}
}

// Apply rewrites raw to Prefix + path [+ "?" + query] when its host equals a
// proxied domain or is a subdomain of one. Relative URLs, including those
// already under Prefix, are returned unchanged, so Apply is idempotent.
func (p Proxy) Apply(raw string) string {
	if p.Prefix == "" || len(p.Domains) == 0 || !hasScheme(raw) {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || !p.matches(u.Hostname()) {
		return raw
	}

	// Slice the original text so the path and query keep their exact encoding.
	rest := raw[strings.Index(raw, "://")+3:]
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[i:]
	} else {
		rest = ""
	}
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" || rest[0] == '?' {
		rest = "/" + rest
	}
	if p.isProxied(rest) {
		return raw
	}
	return strings.TrimRight(p.Prefix, "/") + rest
}

// Resolve turns a relative URL into an absolute one against Origin.
// Absolute URLs are returned unchanged. ok is false when raw is relative
// and no Origin is configured.
func (p Proxy) Resolve(raw string) (resolved string, ok bool) {
	if hasScheme(raw) {
		return raw, true
	}
	if p.Origin == "" {
		return raw, false
	}
	return joinURL(p.Origin, raw), true
}

// Covers reports whether raw is an absolute URL on one of the proxied
// domains or their subdomains. Prefix is not consulted.
func (p Proxy) Covers(raw string) bool {
	if !hasScheme(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return p.matches(u.Hostname())
}

func (p Proxy) matches(host string) bool {
	host = strings.ToLower(host)
	for _, domain := range p.Domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (p Proxy) isProxied(path string) bool {
	prefix := strings.TrimRight(p.Prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/") || strings.HasPrefix(path, prefix+"?")
}
