package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AdilYassar/companies-scrapper/internal/config"
	"github.com/AdilYassar/companies-scrapper/internal/pipeline"
	"github.com/AdilYassar/companies-scrapper/internal/source"
	"github.com/AdilYassar/companies-scrapper/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to scraper configuration file")
	sources := flag.String("sources", "", "Comma-separated source ids to scrape")
	country := flag.String("country", "", "Scrape every source registered for this country code")
	cities := flag.String("cities", "", "Comma-separated city override for this run")
	maxPages := flag.Int("max-pages", 0, "Page cap override for this run")
	auto := flag.Bool("auto", false, "Run the periodic auto-scraper instead of a one-shot job")
	noStore := flag.Bool("no-store", false, "Skip persistence and print results as JSON")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.CompanyStore
	if !*noStore && cfg.DB.DSN != "" {
		sqlStore, err := storage.NewSQLStore(cfg.DB)
		if err != nil {
			logger.Error("initialise company store failed", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	runner, err := pipeline.NewRunner(cfg, source.NewRegistry(), store, logger)
	if err != nil {
		logger.Error("initialise pipeline failed", "error", err)
		os.Exit(1)
	}

	if *auto || cfg.Auto.Enabled {
		scraper := pipeline.NewAutoScraper(runner, cfg.Auto, logger)
		scraper.Run(ctx)
		return
	}

	ids, err := resolveSources(runner, *sources, *country)
	if err != nil {
		logger.Error("resolve sources failed", "error", err)
		os.Exit(1)
	}

	opts := pipeline.RunOptions{MaxPages: *maxPages}
	for _, city := range strings.Split(*cities, ",") {
		if city = strings.TrimSpace(city); city != "" {
			opts.Cities = append(opts.Cities, city)
		}
	}

	report, err := runner.Run(ctx, ids, opts)
	if err != nil {
		logger.Error("scrape run failed", "error", err)
		os.Exit(1)
	}

	if store == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Dedup.Companies); err != nil {
			logger.Error("encode results failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("run finished",
		"sources", ids,
		"companies", len(report.Dedup.Companies),
		"duplicates", report.Dedup.Duplicates,
		"stored", report.Stored,
	)
}

func resolveSources(runner *pipeline.Runner, sources, country string) ([]string, error) {
	if strings.TrimSpace(sources) != "" {
		var ids []string
		for _, id := range strings.Split(sources, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, err := runner.Registry().Lookup(id); err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
	if strings.TrimSpace(country) != "" {
		adapters := runner.Registry().ForCountry(country)
		if len(adapters) == 0 {
			return nil, fmt.Errorf("no sources registered for country %q", country)
		}
		ids := make([]string, 0, len(adapters))
		for _, a := range adapters {
			ids = append(ids, a.ID())
		}
		return ids, nil
	}
	// Default to everything the registry knows.
	return runner.Registry().IDs(), nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Structured {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
