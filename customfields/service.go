package customfields

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"sort"

	"github.com/gaborage/fieldsadmin/config"
	"github.com/gaborage/fieldsadmin/httpclient"
	"github.com/gaborage/fieldsadmin/logger"
)

// ErrUnauthorized is returned by Me when the API rejects the token
var ErrUnauthorized = errors.New("customfields: access token rejected")

// Config holds the API endpoints and fallback policy
type Config struct {
	FieldsURL    string
	MeURL        string
	MockFallback bool
}

// ConfigFrom extracts the custom-fields settings from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		FieldsURL:    cfg.API.CustomFieldsPath,
		MeURL:        cfg.API.MePath,
		MockFallback: cfg.API.MockFallback,
	}
}

// Service talks to the custom-fields API through the shared HTTP client.
// Tokens are passed per call; the client carries no credentials of its own.
type Service struct {
	client httpclient.Client
	cfg    Config
	log    logger.Logger
}

// NewService creates a custom-fields service
func NewService(client httpclient.Client, cfg Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{client: client, cfg: cfg, log: log}
}

// List returns the field definitions visible to token, ordered by Order.
// When the API is unavailable and the fallback is enabled, the built-in
// dataset is returned with SourceMock instead of an error.
func (s *Service) List(ctx context.Context, token string) ([]Field, Source, error) {
	headers := map[string]string{"Accept": "application/json"}
	if token != "" {
		headers[httpclient.HeaderAccessToken] = token
	}
	fields, _, err := httpclient.GetJSON[[]Field](ctx, s.client, s.cfg.FieldsURL, &httpclient.RequestOptions{
		Headers: headers,
	})
	if err != nil {
		if s.cfg.MockFallback && shouldFallback(err) {
			s.log.WithContext(ctx).Warn().
				Err(err).
				Str("url", s.cfg.FieldsURL).
				Msg("Custom fields API unavailable, serving built-in fields")
			return MockFields(), SourceMock, nil
		}
		return nil, "", fmt.Errorf("list custom fields: %w", err)
	}

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })
	return fields, SourceAPI, nil
}

// Me returns the account that owns token. It makes a single attempt.
func (s *Service) Me(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	account, _, err := httpclient.GetJSON[Account](ctx, s.client, s.cfg.MeURL, &httpclient.RequestOptions{
		Headers: map[string]string{httpclient.HeaderAccessToken: token},
		Retries: httpclient.Retries(0),
	})
	if err != nil {
		if httpclient.IsStatus(err, nethttp.StatusUnauthorized) || httpclient.IsStatus(err, nethttp.StatusForbidden) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	return &account, nil
}

// shouldFallback reports whether err means the API is unavailable rather
// than the request being wrong.
func shouldFallback(err error) bool {
	clientErr, ok := httpclient.AsError(err)
	if !ok {
		return false
	}
	switch clientErr.Kind {
	case httpclient.KindNetwork, httpclient.KindTimeout, httpclient.KindDecode:
		return true
	case httpclient.KindHTTP:
		return clientErr.Status == nethttp.StatusTooManyRequests || clientErr.Status >= 500
	default:
		return false
	}
}
