package collect

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

var errNotHTTP = errors.New("not an http(s) url")

// trackingParams are dropped from URLs before comparison.
var trackingParams = map[string]bool{
	"gclid":   true,
	"fbclid":  true,
	"msclkid": true,
	"mc_cid":  true,
	"mc_eid":  true,
	"_ga":     true,
	"_gl":     true,
	"ref":     true,
	"ref_src": true,
	"igshid":  true,
	"yclid":   true,
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	return trackingParams[key] || strings.HasPrefix(key, "utm_")
}

// NormalizeURL returns the dedup key for raw: lowercased, without fragment,
// default port, tracking parameters or trailing slash. Search engine redirect
// wrappers are unwrapped first.
func NormalizeURL(raw string) (string, error) {
	u, err := parseHTTP(raw)
	if err != nil {
		return "", err
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}

	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
		}
	}

	path := strings.TrimRight(u.EscapedPath(), "/")

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)
	if enc := q.Encode(); enc != "" {
		b.WriteByte('?')
		b.WriteString(enc)
	}
	return strings.ToLower(b.String()), nil
}

// Domain returns the lowercased host of raw without port or leading "www.".
func Domain(raw string) string {
	u, err := parseHTTP(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Unwrap returns the target of a search engine redirect link, or raw unchanged.
func Unwrap(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.HasSuffix(host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/"):
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	case strings.HasSuffix(host, "google.com") && u.Path == "/url":
		if target := u.Query().Get("q"); target != "" {
			return target
		}
		if target := u.Query().Get("url"); target != "" {
			return target
		}
	}
	return raw
}

func parseHTTP(raw string) (*url.URL, error) {
	raw = Unwrap(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errNotHTTP
	}
	if u.Hostname() == "" {
		return nil, errNotHTTP
	}
	return u, nil
}
