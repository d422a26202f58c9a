package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures everything required to initialise the scraping pipeline,
// the API server, and the background auto-scraper.
type Config struct {
	DB      SQLConfig       `yaml:"db"`
	Scrape  ScrapeConfig    `yaml:"scrape"`
	Render  RenderConfig    `yaml:"render"`
	Robots  RobotsConfig    `yaml:"robots"`
	Proxy   ProxyConfig     `yaml:"proxy"`
	Auto    AutoConfig      `yaml:"auto"`
	Logging LoggingConfig   `yaml:"logging"`
	Sources []SourceOptions `yaml:"sources"`
}

// SQLConfig describes the relational database used for company persistence.
type SQLConfig struct {
	Driver          string   `yaml:"driver"`
	DSN             string   `yaml:"dsn"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	CreateIfMissing bool     `yaml:"create_if_missing"`
	AutoMigrate     bool     `yaml:"auto_migrate"`
}

// ScrapeConfig controls HTTP behaviour and politeness shared by all sources.
type ScrapeConfig struct {
	UserAgent      string            `yaml:"user_agent"`
	Headers        map[string]string `yaml:"headers"`
	RequestTimeout Duration          `yaml:"request_timeout"`
	MaxBodyBytes   int64             `yaml:"max_body_bytes"`
	MaxRetries     int               `yaml:"max_retries"`
	RetryBackoff   Duration          `yaml:"retry_backoff"`
	PageDelay      Duration          `yaml:"page_delay"`
	UnitDelay      Duration          `yaml:"unit_delay"`
	RateLimit      RateLimitConfig   `yaml:"rate_limit"`
}

// RateLimitConfig applies a token bucket per target host.
type RateLimitConfig struct {
	Requests int      `yaml:"requests"`
	Window   Duration `yaml:"window"`
}

// Enabled reports whether per-host rate limiting is active.
func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0 && !r.Window.IsZero()
}

// RenderConfig controls the headless-browser strategy.
type RenderConfig struct {
	Timeout         Duration `yaml:"timeout"`
	NavigateTimeout Duration `yaml:"navigate_timeout"`
	ScrollDelay     Duration `yaml:"scroll_delay"`
	DisableHeadless bool     `yaml:"disable_headless"`
}

// RobotsConfig configures robots.txt handling.
type RobotsConfig struct {
	Respect   bool     `yaml:"respect"`
	Overrides []string `yaml:"overrides"`
	UserAgent string   `yaml:"user_agent"`
	CacheTTL  Duration `yaml:"cache_ttl"`
}

// ProxyConfig declares optional per-country proxy endpoints consulted by the
// fetch strategies before each network call.
type ProxyConfig struct {
	Enabled   bool                     `yaml:"enabled"`
	Countries map[string]ProxyEndpoint `yaml:"countries"`
}

// ProxyEndpoint is a single upstream proxy.
type ProxyEndpoint struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// AutoConfig controls the background auto-scraper.
type AutoConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	Sources  []string `yaml:"sources"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// SourceOptions overrides the builtin dimensions of one source adapter.
type SourceOptions struct {
	ID         string   `yaml:"id"`
	Cities     []string `yaml:"cities"`
	Regions    []string `yaml:"regions"`
	Counties   []string `yaml:"counties"`
	Categories []string `yaml:"categories"`
	MaxPages   int      `yaml:"max_pages"`
	APIKey     string   `yaml:"api_key"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		DB: SQLConfig{
			AutoMigrate: true,
		},
		Scrape: ScrapeConfig{
			UserAgent:      "companies-scrapper/1.0",
			Headers:        map[string]string{},
			RequestTimeout: DurationFrom(30 * time.Second),
			MaxBodyBytes:   6 * 1024 * 1024,
			MaxRetries:     3,
			RetryBackoff:   DurationFrom(time.Second),
			PageDelay:      DurationFrom(2 * time.Second),
			UnitDelay:      DurationFrom(3 * time.Second),
		},
		Render: RenderConfig{
			Timeout:         DurationFrom(60 * time.Second),
			NavigateTimeout: DurationFrom(15 * time.Second),
			ScrollDelay:     DurationFrom(time.Second),
		},
		Robots: RobotsConfig{
			Respect:   true,
			Overrides: []string{},
			UserAgent: "companies-scrapper/1.0",
			CacheTTL:  DurationFrom(6 * time.Hour),
		},
		Proxy: ProxyConfig{
			Enabled:   false,
			Countries: map[string]ProxyEndpoint{},
		},
		Auto: AutoConfig{
			Enabled:  false,
			Interval: DurationFrom(6 * time.Hour),
			Sources:  []string{"pagine_gialle", "anis"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the pipeline configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Scrape.UserAgent) == "" {
		return errors.New("scrape.user_agent must be set")
	}
	if c.Scrape.RequestTimeout.Duration <= 0 {
		return errors.New("scrape.request_timeout must be > 0")
	}
	if c.Scrape.MaxBodyBytes <= 0 {
		return fmt.Errorf("scrape.max_body_bytes must be > 0 (got %d)", c.Scrape.MaxBodyBytes)
	}
	if c.Scrape.MaxRetries < 0 {
		return fmt.Errorf("scrape.max_retries must be >= 0 (got %d)", c.Scrape.MaxRetries)
	}
	if rl := c.Scrape.RateLimit; rl.Requests < 0 {
		return fmt.Errorf("scrape.rate_limit.requests must be >= 0 (got %d)", rl.Requests)
	}
	if strings.TrimSpace(c.Robots.UserAgent) == "" {
		return errors.New("robots.user_agent must be set")
	}
	if c.Auto.Enabled {
		if c.Auto.Interval.Duration <= 0 {
			return errors.New("auto.interval must be > 0 when auto.enabled is true")
		}
		if len(c.Auto.Sources) == 0 {
			return errors.New("auto.sources must list at least one source id")
		}
	}
	if c.Proxy.Enabled {
		for country, ep := range c.Proxy.Countries {
			if strings.TrimSpace(ep.Host) == "" || ep.Port <= 0 {
				return fmt.Errorf("proxy for %s requires host and port", country)
			}
		}
	}
	for i, src := range c.Sources {
		if strings.TrimSpace(src.ID) == "" {
			return fmt.Errorf("sources[%d] has empty id", i)
		}
		if src.MaxPages < 0 {
			return fmt.Errorf("source %s has invalid max_pages %d", src.ID, src.MaxPages)
		}
	}
	return nil
}

func (c *Config) normalise() {
	c.Scrape.UserAgent = strings.TrimSpace(c.Scrape.UserAgent)
	c.Robots.UserAgent = strings.TrimSpace(c.Robots.UserAgent)
	if c.Scrape.Headers == nil {
		c.Scrape.Headers = map[string]string{}
	}

	if len(c.Robots.Overrides) > 0 {
		c.Robots.Overrides = dedupeLower(c.Robots.Overrides)
	}
	if len(c.Auto.Sources) > 0 {
		c.Auto.Sources = dedupeLower(c.Auto.Sources)
	}

	countries := make(map[string]ProxyEndpoint, len(c.Proxy.Countries))
	for code, ep := range c.Proxy.Countries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if ep.Protocol == "" {
			ep.Protocol = "http"
		}
		ep.Protocol = strings.ToLower(strings.TrimSpace(ep.Protocol))
		countries[code] = ep
	}
	c.Proxy.Countries = countries

	for i := range c.Sources {
		c.Sources[i].ID = strings.ToLower(strings.TrimSpace(c.Sources[i].ID))
	}
}

func dedupeLower(values []string) []string {
	unique := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := unique[v]; ok {
			continue
		}
		unique[v] = struct{}{}
		cleaned = append(cleaned, v)
	}
	sort.Strings(cleaned)
	return cleaned
}
