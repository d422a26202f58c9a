// Package proxy selects per-country upstream proxies for the fetch
// strategies. Selection is purely config-driven; an empty selector simply
// answers "no proxy" for every country.
package proxy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/AdilYassar/companies-scrapper/internal/config"
)

// Endpoint describes one upstream proxy.
type Endpoint struct {
	Host     string
	Port     int
	Protocol string
	Username string
	Password string
	Country  string
}

// URL renders the endpoint as a proxy URL usable by http.Transport and as a
// chromedp --proxy-server value.
func (e Endpoint) URL() string {
	u := url.URL{
		Scheme: e.Protocol,
		Host:   fmt.Sprintf("%s:%d", e.Host, e.Port),
	}
	if e.Username != "" {
		u.User = url.UserPassword(e.Username, e.Password)
	}
	return u.String()
}

// Selector answers per-country proxy lookups.
type Selector struct {
	enabled   bool
	byCountry map[string]Endpoint
}

// NewSelector builds a selector from configuration.
func NewSelector(cfg config.ProxyConfig) *Selector {
	byCountry := make(map[string]Endpoint, len(cfg.Countries))
	for code, ep := range cfg.Countries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || ep.Host == "" {
			continue
		}
		protocol := ep.Protocol
		if protocol == "" {
			protocol = "http"
		}
		byCountry[code] = Endpoint{
			Host:     ep.Host,
			Port:     ep.Port,
			Protocol: protocol,
			Username: ep.Username,
			Password: ep.Password,
			Country:  code,
		}
	}
	return &Selector{enabled: cfg.Enabled, byCountry: byCountry}
}

// ForCountry returns the proxy for a country, if one is configured and the
// selector is enabled.
func (s *Selector) ForCountry(country string) (Endpoint, bool) {
	if s == nil || !s.enabled {
		return Endpoint{}, false
	}
	ep, ok := s.byCountry[strings.ToUpper(strings.TrimSpace(country))]
	return ep, ok
}

// URLForCountry is a convenience wrapper returning the rendered proxy URL or
// the empty string.
func (s *Selector) URLForCountry(country string) string {
	ep, ok := s.ForCountry(country)
	if !ok {
		return ""
	}
	return ep.URL()
}
