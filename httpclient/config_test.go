package httpclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/logger"
)

func proxyTestConfig(rewrite bool) *config.Config {
	return &config.Config{
		Client: config.ClientConfig{Timeout: time.Second, RewriteProxy: rewrite},
		Proxy: config.ProxyConfig{
			Enabled: true,
			Prefix:  "/api-proxy",
			Domains: []string{"app.estudiokm.com.ar"},
			Origin:  "http://localhost:8080",
		},
	}
}

func TestBuilderFromConfigRewrite(t *testing.T) {
	tests := []struct {
		name    string
		rewrite bool
		wantURL string
	}{
		{name: "direct by default", wantURL: "https://app.estudiokm.com.ar/api/accounts/me"},
		{name: "rewritten when enabled", rewrite: true, wantURL: "http://localhost:8080/api-proxy/api/accounts/me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{body: `{}`}
			c := BuilderFromConfig(proxyTestConfig(tt.rewrite), logger.Nop()).WithTransport(rec).Build()
			assert.Equal(t, tt.rewrite, c.ProxyEnabled())

			_, err := c.Get(context.Background(), "https://app.estudiokm.com.ar/api/accounts/me", nil)
			require.NoError(t, err)
			req, _ := rec.last()
			assert.Equal(t, tt.wantURL, req.URL.String())
		})
	}
}
