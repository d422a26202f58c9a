// Package pipeline wires the fetch strategies, normalization,
// deduplication, and storage into runnable scrape jobs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdilYassar/companies-scrapper/internal/config"
	"github.com/AdilYassar/companies-scrapper/internal/dedupe"
	"github.com/AdilYassar/companies-scrapper/internal/fetch"
	"github.com/AdilYassar/companies-scrapper/internal/normalize"
	"github.com/AdilYassar/companies-scrapper/internal/proxy"
	"github.com/AdilYassar/companies-scrapper/internal/robots"
	"github.com/AdilYassar/companies-scrapper/internal/source"
	"github.com/AdilYassar/companies-scrapper/internal/storage"
	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// Runner executes scrape jobs. Sources run sequentially: politeness is per
// run, not per goroutine, and the directories punish parallel clients.
type Runner struct {
	cfg      *config.Config
	registry *source.Registry
	proxies  *proxy.Selector
	robots   *robots.Agent
	store    storage.CompanyStore
	pacer    *fetch.Pacer
	logger   *slog.Logger
}

// NewRunner assembles a runner from configuration. The store may be nil for
// scrape-only runs.
func NewRunner(cfg *config.Config, registry *source.Registry, store storage.CompanyStore, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if registry == nil {
		registry = source.NewRegistry()
	}
	if err := registry.Configure(cfg.Sources); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	robotsClient, err := fetch.NewClient(fetch.ClientOptions{
		UserAgent: cfg.Robots.UserAgent,
		Timeout:   10 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	var rateSettings fetch.RateSettings
	if cfg.Scrape.RateLimit.Enabled() {
		rateSettings = fetch.RateSettings{
			Requests: cfg.Scrape.RateLimit.Requests,
			Window:   cfg.Scrape.RateLimit.Window.Duration,
		}
	}

	return &Runner{
		cfg:      cfg,
		registry: registry,
		proxies:  proxy.NewSelector(cfg.Proxy),
		robots:   robots.NewAgent(cfg.Robots, robotsClient.HTTPClient()),
		store:    store,
		pacer:    fetch.NewPacer(cfg.Scrape.PageDelay.Duration, rateSettings),
		logger:   logger,
	}, nil
}

// Registry exposes the configured source registry.
func (r *Runner) Registry() *source.Registry { return r.registry }

// RunOptions narrows one run without touching the registry: dimension lists
// and the page cap override the adapter's defaults for this call only. The
// zero value leaves the adapter as configured.
type RunOptions struct {
	Cities   []string
	Regions  []string
	Counties []string
	MaxPages int
}

func (o RunOptions) apply(adapter source.Adapter) source.Adapter {
	if len(o.Cities) > 0 {
		adapter.Source.Cities = append([]string(nil), o.Cities...)
	}
	if len(o.Regions) > 0 {
		adapter.Source.Regions = append([]string(nil), o.Regions...)
	}
	if len(o.Counties) > 0 {
		adapter.Source.Counties = append([]string(nil), o.Counties...)
	}
	if o.MaxPages > 0 {
		adapter.Source.MaxPages = o.MaxPages
	}
	return adapter
}

// RunSource scrapes one source end to end and returns its summary. An
// unknown id fails immediately; unit failures inside a known source are
// summarised, not escalated.
func (r *Runner) RunSource(ctx context.Context, id string, opts RunOptions) (types.RunSummary, error) {
	adapter, err := r.registry.Lookup(id)
	if err != nil {
		return types.RunSummary{}, err
	}
	return r.runAdapter(ctx, opts.apply(adapter))
}

// RunSources resolves every id up front, then scrapes each source
// best-effort: a source that fails mid-run is logged and the rest continue.
func (r *Runner) RunSources(ctx context.Context, ids []string, opts RunOptions) ([]types.RunSummary, error) {
	adapters := make([]source.Adapter, 0, len(ids))
	for _, id := range ids {
		adapter, err := r.registry.Lookup(id)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, opts.apply(adapter))
	}

	summaries := make([]types.RunSummary, 0, len(adapters))
	for _, adapter := range adapters {
		if ctx.Err() != nil {
			return summaries, ctx.Err()
		}
		summary, err := r.runAdapter(ctx, adapter)
		if err != nil {
			r.logger.Error("source run failed", "source", adapter.ID(), "error", err)
			summary = types.RunSummary{
				Source:  adapter.ID(),
				Country: adapter.Country(),
				Units:   []types.UnitResult{{Unit: "all", Error: err.Error()}},
			}
			summary.FailedUnits = 1
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// RunCountry scrapes every source registered for a country.
func (r *Runner) RunCountry(ctx context.Context, country string, opts RunOptions) ([]types.RunSummary, error) {
	adapters := r.registry.ForCountry(country)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no sources registered for country %q", country)
	}
	ids := make([]string, 0, len(adapters))
	for _, a := range adapters {
		ids = append(ids, a.ID())
	}
	return r.RunSources(ctx, ids, opts)
}

func (r *Runner) runAdapter(ctx context.Context, adapter source.Adapter) (types.RunSummary, error) {
	summary := types.RunSummary{
		Source:    adapter.ID(),
		Country:   adapter.Country(),
		StartedAt: time.Now(),
	}

	strategy, err := r.strategyFor(adapter)
	if err != nil {
		return summary, err
	}

	r.logger.Info("scraping source", "source", adapter.ID(), "mode", string(adapter.Source.Mode))
	result, err := strategy.Fetch(ctx, adapter.Source)
	summary.Units = result.Units
	for _, unit := range result.Units {
		if unit.Failed() {
			summary.FailedUnits++
		}
	}
	if err != nil {
		summary.FinishedAt = time.Now()
		return summary, err
	}

	summary.Companies = r.normalizeListings(adapter, result.Listings)
	summary.FinishedAt = time.Now()

	r.logger.Info("source complete",
		"source", adapter.ID(),
		"listings", len(result.Listings),
		"companies", len(summary.Companies),
		"failed_units", summary.FailedUnits,
	)
	return summary, nil
}

func (r *Runner) normalizeListings(adapter source.Adapter, listings []types.RawListing) []types.Company {
	companies := make([]types.Company, 0, len(listings))
	for _, raw := range listings {
		rules := adapter.Rules
		if rules.Code == "" {
			// Multi-country platform sources carry the country per record.
			rules = normalize.RulesFor(raw.Country)
		}
		c := normalize.Record(raw, rules)
		if c.CompanyName == "" {
			continue
		}
		companies = append(companies, c)
	}
	return companies
}

func (r *Runner) strategyFor(adapter source.Adapter) (fetch.Strategy, error) {
	scrape := r.cfg.Scrape
	proxyURL := r.proxies.URLForCountry(adapter.Country())

	switch adapter.Source.Mode {
	case fetch.ModeStatic:
		client, err := fetch.NewClient(fetch.ClientOptions{
			UserAgent:    scrape.UserAgent,
			Headers:      scrape.Headers,
			Timeout:      scrape.RequestTimeout.Duration,
			MaxBodyBytes: scrape.MaxBodyBytes,
			ProxyURL:     proxyURL,
			MaxRetries:   scrape.MaxRetries,
			RetryBackoff: scrape.RetryBackoff.Duration,
		})
		if err != nil {
			return nil, err
		}
		return &fetch.Static{
			Client:    client,
			Robots:    r.robots,
			Pacer:     r.pacer,
			PageDelay: scrape.PageDelay.Duration,
			UnitDelay: scrape.UnitDelay.Duration,
			Logger:    r.logger,
		}, nil

	case fetch.ModeRendered:
		return &fetch.Rendered{
			Options: fetch.RenderOptions{
				Timeout:         r.cfg.Render.Timeout.Duration,
				NavigateTimeout: r.cfg.Render.NavigateTimeout.Duration,
				ScrollDelay:     r.cfg.Render.ScrollDelay.Duration,
				UserAgent:       scrape.UserAgent,
				ProxyURL:        proxyURL,
				DisableHeadless: r.cfg.Render.DisableHeadless,
			},
			Robots:    r.robots,
			Pacer:     r.pacer,
			PageDelay: scrape.PageDelay.Duration,
			UnitDelay: scrape.UnitDelay.Duration,
			Logger:    r.logger,
		}, nil

	case fetch.ModeAPI:
		client, err := fetch.NewClient(fetch.ClientOptions{
			UserAgent:    scrape.UserAgent,
			Headers:      scrape.Headers,
			Timeout:      scrape.RequestTimeout.Duration,
			MaxBodyBytes: scrape.MaxBodyBytes,
			ProxyURL:     proxyURL,
			MaxRetries:   scrape.MaxRetries,
			RetryBackoff: scrape.RetryBackoff.Duration,
		})
		if err != nil {
			return nil, err
		}
		return &fetch.APIBased{
			Client:    client,
			Pacer:     r.pacer,
			PageDelay: scrape.PageDelay.Duration,
			UnitDelay: scrape.UnitDelay.Duration,
			Logger:    r.logger,
		}, nil

	default:
		return nil, fmt.Errorf("source %s has unknown mode %q", adapter.ID(), adapter.Source.Mode)
	}
}

// Deduplicate merges duplicate companies across the combined batch.
func (r *Runner) Deduplicate(companies []types.Company) types.DedupResult {
	return dedupe.Process(companies, r.logger)
}

// Report is the outcome of a full scrape-dedupe-store job.
type Report struct {
	Summaries []types.RunSummary `json:"summaries"`
	Dedup     types.DedupResult  `json:"dedup"`
	Stored    int                `json:"stored"`
}

// Run scrapes the given sources, deduplicates the combined results, and
// persists them when a store is configured.
func (r *Runner) Run(ctx context.Context, ids []string, opts RunOptions) (Report, error) {
	var report Report

	summaries, err := r.RunSources(ctx, ids, opts)
	report.Summaries = summaries
	if err != nil {
		return report, err
	}

	var combined []types.Company
	for _, summary := range summaries {
		combined = append(combined, summary.Companies...)
	}
	report.Dedup = r.Deduplicate(combined)

	if r.store != nil && len(report.Dedup.Companies) > 0 {
		stored, err := r.store.SaveCompanies(ctx, report.Dedup.Companies)
		report.Stored = stored
		if err != nil {
			return report, fmt.Errorf("persist companies: %w", err)
		}
	}
	return report, nil
}
