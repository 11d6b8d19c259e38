package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/fieldsadmin/httpclient"
	"github.com/gaborage/fieldsadmin/logger"
)

// TokenEnv supplies --token when the flag is not given
const TokenEnv = "FIELDSADMIN_TOKEN"

type requestOptions struct {
	headers    []string
	params     []string
	data       string
	baseURL    string
	origin     string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	noProxy    bool
	strict     bool
	path       string
	token      string
	include    bool
	noColor    bool
	verbose    bool
}

func addRequestFlags(cmd *cobra.Command, o *requestOptions) {
	f := cmd.PersistentFlags()
	f.StringArrayVarP(&o.headers, "header", "H", nil, "Header as 'Name: value' (repeatable)")
	f.StringArrayVarP(&o.params, "param", "q", nil, "Query parameter as name=value (repeatable)")
	f.StringVarP(&o.data, "data", "d", "", "Request body; sent as JSON when it parses as JSON, '@file' reads a file")
	f.StringVar(&o.baseURL, "base-url", "", "Prefix for relative URLs")
	f.StringVar(&o.origin, "origin", "http://localhost:8080", "Origin serving the /api-proxy reverse proxy")
	f.DurationVarP(&o.timeout, "timeout", "t", httpclient.DefaultTimeout, "Timeout for the whole call, retries included")
	f.IntVar(&o.retries, "retries", httpclient.DefaultMaxRetries, "Extra attempts after a transport failure")
	f.DurationVar(&o.retryDelay, "retry-delay", httpclient.DefaultRetryDelay, "Pause between attempts")
	f.BoolVar(&o.noProxy, "no-proxy", false, "Call the custom-fields API directly instead of through the proxy")
	f.BoolVar(&o.strict, "strict", false, "Treat every non-2xx status as an error")
	f.StringVar(&o.path, "path", "", "Print only this gjson path of the JSON response")
	f.StringVar(&o.token, "token", "", "Access token sent as x-access-token (default $"+TokenEnv+")")
	f.BoolVarP(&o.include, "include", "i", false, "Print response headers")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Log requests and responses to stderr")
}

func newMethodCmd(method string, o *requestOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " URL",
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, method, args[0], o)
		},
	}
	if method == "GET" || method == "DELETE" {
		cmd.Long = fmt.Sprintf("Send a %s request. --data is ignored.", method)
	}
	return cmd
}

func runRequest(cmd *cobra.Command, method, url string, o *requestOptions) error {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level, true, logger.DefaultFilterConfig())

	client, err := buildClient(o, log)
	if err != nil {
		return err
	}
	reqOpts, err := buildRequest(method, o, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := client.Request(ctx, url, reqOpts)

	p := newPrinter(cmd.OutOrStdout(), o.noColor)
	if err != nil {
		if clientErr, ok := httpclient.AsError(err); ok && clientErr.Response != nil {
			if perr := p.response(clientErr.Response, o.path, o.include); perr != nil {
				return perr
			}
		}
		return err
	}
	return p.response(resp, o.path, o.include)
}

func buildClient(o *requestOptions, log logger.Logger) (httpclient.Client, error) {
	if o.retries < 0 {
		return nil, fmt.Errorf("--retries must not be negative")
	}
	proxy := httpclient.DefaultProxy()
	proxy.Origin = o.origin

	client := httpclient.NewBuilder(log).
		WithBaseURL(o.baseURL).
		WithTimeout(o.timeout).
		WithRetries(o.retries, o.retryDelay).
		WithProxy(proxy, !o.noProxy).
		Build()

	token := o.token
	if token == "" {
		token = os.Getenv(TokenEnv)
	}
	if token != "" {
		client.SetAuthToken(token)
	}
	return client, nil
}

func buildRequest(method string, o *requestOptions, stdin io.Reader) (*httpclient.RequestOptions, error) {
	headers, err := parseHeaders(o.headers)
	if err != nil {
		return nil, err
	}
	params, err := parseParams(o.params)
	if err != nil {
		return nil, err
	}

	req := &httpclient.RequestOptions{
		Method:                    method,
		Headers:                   headers,
		Params:                    params,
		ResponseType:              httpclient.ResponseText,
		EvaluateAllStatesAsErrors: o.strict,
	}
	if o.data != "" && method != "GET" && method != "DELETE" {
		body, err := readData(o.data, stdin)
		if err != nil {
			return nil, err
		}
		if json.Valid(body) {
			req.Body = json.RawMessage(body)
		} else {
			req.Body = body
		}
	}
	return req, nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want 'Name: value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

func parseParams(raw []string) (httpclient.Params, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(httpclient.Params, len(raw))
	for _, p := range raw {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid param %q, want name=value", p)
		}
		params[name] = value
	}
	return params, nil
}

// readData resolves --data: "@file" reads a file, "@-" reads stdin and
// anything else is the body itself.
func readData(data string, stdin io.Reader) ([]byte, error) {
	if !strings.HasPrefix(data, "@") {
		return []byte(data), nil
	}
	name := data[1:]
	if name == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read body from stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read body file: %w", err)
	}
	return b, nil
}
