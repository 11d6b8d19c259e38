package httpclient

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// hasScheme reports whether raw is an absolute http(s) URL.
func hasScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// joinURL prepends base to path unless path is already absolute.
func joinURL(base, path string) string {
	if base == "" || hasScheme(path) {
		return path
	}
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// buildURL joins base and path and appends params. Keys are emitted in
// sorted order. A key already present in the query string is replaced by
// the param value so no key appears twice. Nil params are skipped.
func buildURL(base, path string, params Params) string {
	full := joinURL(base, path)

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != nil {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return full
	}
	sort.Strings(keys)

	fragment := ""
	if i := strings.IndexByte(full, '#'); i >= 0 {
		full, fragment = full[:i], full[i:]
	}
	target, rawQuery, _ := strings.Cut(full, "?")

	replaced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		replaced[k] = struct{}{}
	}

	parts := make([]string, 0, len(keys))
	if rawQuery != "" {
		for _, pair := range strings.Split(rawQuery, "&") {
			if pair == "" {
				continue
			}
			name, _, _ := strings.Cut(pair, "=")
			if decoded, err := url.QueryUnescape(name); err == nil {
				name = decoded
			}
			if _, ok := replaced[name]; ok {
				continue
			}
			parts = append(parts, pair)
		}
	}
	for _, k := range keys {
		parts = append(parts, encodeComponent(k)+"="+encodeComponent(fmt.Sprint(params[k])))
	}

	return target + "?" + strings.Join(parts, "&") + fragment
}

// encodeComponent percent-encodes s for use as a query key or value, with
// spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
