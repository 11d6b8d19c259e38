package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProxyApply(t *testing.T) {
	p := DefaultProxy()

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "matched domain keeps path and query",
			in:       "https://app.estudiokm.com.ar/api/accounts/custom_fields?page=2&q=a%20b",
			expected: "/api-proxy/api/accounts/custom_fields?page=2&q=a%20b",
		},
		{
			name:     "subdomain matches",
			in:       "https://eu.app.estudiokm.com.ar/api/accounts/me",
			expected: "/api-proxy/api/accounts/me",
		},
		{
			name:     "host match is case insensitive",
			in:       "https://APP.estudiokm.com.ar/api",
			expected: "/api-proxy/api",
		},
		{
			name:     "bare host becomes prefix root",
			in:       "https://app.estudiokm.com.ar",
			expected: "/api-proxy/",
		},
		{
			name:     "query without path",
			in:       "https://app.estudiokm.com.ar?x=1",
			expected: "/api-proxy/?x=1",
		},
		{
			name:     "fragment is dropped",
			in:       "https://app.estudiokm.com.ar/api#frag",
			expected: "/api-proxy/api",
		},
		{
			name:     "port is stripped with the host",
			in:       "http://app.estudiokm.com.ar:8443/api",
			expected: "/api-proxy/api",
		},
		{
			name:     "other domain untouched",
			in:       "https://api.example.com/items",
			expected: "https://api.example.com/items",
		},
		{
			name:     "lookalike suffix does not match",
			in:       "https://evilapp.estudiokm.com.ar/api",
			expected: "https://evilapp.estudiokm.com.ar/api",
		},
		{
			name:     "relative path untouched",
			in:       "/api/accounts/me",
			expected: "/api/accounts/me",
		},
		{
			name:     "already proxied untouched",
			in:       "/api-proxy/api/accounts/me?x=1",
			expected: "/api-proxy/api/accounts/me?x=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Apply(tt.in))
		})
	}
}

func TestProxyApplyIsIdempotent(t *testing.T) {
	p := DefaultProxy()
	inputs := []string{
		"https://app.estudiokm.com.ar/api/accounts/custom_fields?active=true",
		"https://app.estudiokm.com.ar/",
		"https://api.example.com/x?y=z",
		"/api-proxy/api/x",
		"relative/path",
		"https://app.estudiokm.com.ar/api-proxy/api/x",
	}
	for _, in := range inputs {
		once := p.Apply(in)
		assert.Equal(t, once, p.Apply(once), in)
	}
}

func TestProxyApplyDisabledPolicy(t *testing.T) {
	assert.Equal(t, "https://app.estudiokm.com.ar/api", Proxy{}.Apply("https://app.estudiokm.com.ar/api"))
	assert.Equal(t, "https://app.estudiokm.com.ar/api", Proxy{Prefix: "/p"}.Apply("https://app.estudiokm.com.ar/api"))
}

func TestProxyResolve(t *testing.T) {
	p := Proxy{Origin: "http://localhost:8080/"}

	got, ok := p.Resolve("/api-proxy/api/x?y=1")
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:8080/api-proxy/api/x?y=1", got)

	got, ok = p.Resolve("https://api.example.com/a")
	assert.True(t, ok)
	assert.Equal(t, "https://api.example.com/a", got)

	_, ok = Proxy{}.Resolve("/api-proxy/x")
	assert.False(t, ok)
}

func TestProxyCovers(t *testing.T) {
	p := DefaultProxy()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "https://app.estudiokm.com.ar/api/accounts/me", want: true},
		{in: "https://eu.app.estudiokm.com.ar/api", want: true},
		{in: "http://APP.ESTUDIOKM.COM.AR:8443/x", want: true},
		{in: "https://app.estudiokm.com.ar.evil.example/x", want: false},
		{in: "https://evilapp.estudiokm.com.ar/x", want: false},
		{in: "https://example.org/api", want: false},
		{in: "/api-proxy/api/accounts/me", want: false},
		{in: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Covers(tt.in))
		})
	}
}
