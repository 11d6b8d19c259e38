package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/gjson"

	"github.com/gaborage/fieldsadmin/httpclient"
)

// colorScheme holds the colors used for each part of the output
type colorScheme struct {
	statusOK    *color.Color
	statusWarn  *color.Color
	statusError *color.Color
	headerKey   *color.Color
	dim         *color.Color
}

func defaultColorScheme(noColor bool) *colorScheme {
	s := &colorScheme{
		statusOK:    color.New(color.FgGreen, color.Bold),
		statusWarn:  color.New(color.FgYellow, color.Bold),
		statusError: color.New(color.FgRed, color.Bold),
		headerKey:   color.New(color.FgCyan),
		dim:         color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{s.statusOK, s.statusWarn, s.statusError, s.headerKey, s.dim} {
			c.DisableColor()
		}
	}
	return s
}

// status picks the color for a status class: 2xx green, 3xx and 4xx
// yellow, everything else red.
func (s *colorScheme) status(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return s.statusOK
	case code >= 300 && code < 500:
		return s.statusWarn
	default:
		return s.statusError
	}
}

type printer struct {
	w      io.Writer
	colors *colorScheme
}

func newPrinter(w io.Writer, noColor bool) *printer {
	return &printer{w: w, colors: defaultColorScheme(noColor || !isTerminal(w))}
}

// isTerminal reports whether w is a terminal; pipes, files and buffers are not.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// response prints the status line, the headers when include is set, then the
// body or only the value at path when path is set.
func (p *printer) response(resp *httpclient.Response, path string, include bool) error {
	p.colors.status(resp.Status).Fprintf(p.w, "%d %s", resp.Status, resp.StatusText)
	p.colors.dim.Fprintf(p.w, "  %s  attempts=%d\n", resp.Stats.ElapsedTime.Round(time.Millisecond), resp.Stats.Attempts)
	if include {
		p.headers(resp.Headers)
	}

	if path != "" {
		value, err := extract(resp.Body, path)
		if err != nil {
			return err
		}
		fmt.Fprintln(p.w, value)
		return nil
	}

	if len(resp.Body) == 0 {
		return nil
	}
	fmt.Fprintln(p.w, prettyBody(resp.Body))
	return nil
}

// headers prints response headers sorted by name
func (p *printer) headers(h map[string][]string) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.colors.headerKey.Fprintf(p.w, "%s", name)
		fmt.Fprintf(p.w, ": %s\n", strings.Join(h[name], ", "))
	}
}

// extract returns the gjson path from body. Strings are printed without
// quotes; objects and arrays as indented JSON.
func extract(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("response is not JSON, cannot apply --path")
	}
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return "", fmt.Errorf("path %q not found in response", path)
	}
	if result.IsObject() || result.IsArray() {
		return prettyBody([]byte(result.Raw)), nil
	}
	return result.String(), nil
}

func prettyBody(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
