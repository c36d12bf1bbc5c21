package transport

import (
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// Proxy is one proxy rule from the settings document. A rule applies to
// requests whose scheme equals Protocol.
type Proxy struct {
	ID       string
	Protocol string
	Host     string
	Port     int
	Username string
	Password string
	// NonProxyHosts is a "|" or "," separated list of host patterns that
	// bypass the proxy. "*" matches any run of characters.
	NonProxyHosts string
}

// URL returns the proxy URL, credentials included.
func (p Proxy) URL() *url.URL {
	u := &url.URL{Scheme: "http", Host: p.Host}
	if p.Port > 0 {
		u.Host = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// Bypass reports whether host matches one of the NonProxyHosts patterns.
func (p Proxy) Bypass(host string) bool {
	host = strings.ToLower(host)
	for _, pattern := range strings.FieldsFunc(p.NonProxyHosts, func(r rune) bool { return r == '|' || r == ',' }) {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		// path.Match only treats '/' specially, which never appears in a host.
		if ok, err := path.Match(pattern, host); err == nil && ok {
			return true
		}
	}
	return false
}

// proxyFunc builds an http.Transport proxy selector from proxy rules. The
// first rule for the request scheme wins.
func proxyFunc(proxies []Proxy) func(*http.Request) (*url.URL, error) {
	if len(proxies) == 0 {
		return nil
	}
	return func(req *http.Request) (*url.URL, error) {
		for _, p := range proxies {
			if !strings.EqualFold(p.Protocol, req.URL.Scheme) || p.Host == "" {
				continue
			}
			if p.Bypass(req.URL.Hostname()) {
				return nil, nil
			}
			return p.URL(), nil
		}
		return nil, nil
	}
}
