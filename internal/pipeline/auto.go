package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/AdilYassar/companies-scrapper/internal/config"
)

// AutoScraper re-runs a fixed set of sources on an interval. The first cycle
// starts immediately; cancellation of the context stops the loop after the
// current cycle.
type AutoScraper struct {
	runner   *Runner
	interval time.Duration
	sources  []string
	logger   *slog.Logger
}

// NewAutoScraper builds the background scraper from configuration.
func NewAutoScraper(runner *Runner, cfg config.AutoConfig, logger *slog.Logger) *AutoScraper {
	interval := cfg.Interval.Duration
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoScraper{
		runner:   runner,
		interval: interval,
		sources:  append([]string(nil), cfg.Sources...),
		logger:   logger,
	}
}

// Run blocks until the context is cancelled, scraping once per interval.
func (a *AutoScraper) Run(ctx context.Context) {
	a.logger.Info("auto-scraper started", "interval", a.interval.String(), "sources", a.sources)

	a.cycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.cycle(ctx)
		case <-ctx.Done():
			a.logger.Info("auto-scraper stopped")
			return
		}
	}
}

func (a *AutoScraper) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	report, err := a.runner.Run(ctx, a.sources, RunOptions{})
	if err != nil {
		a.logger.Error("auto-scrape cycle failed", "error", err)
		return
	}
	a.logger.Info("auto-scrape cycle complete",
		"duration", time.Since(start).String(),
		"companies", len(report.Dedup.Companies),
		"duplicates", report.Dedup.Duplicates,
		"stored", report.Stored,
	)
}
