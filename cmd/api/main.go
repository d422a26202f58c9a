package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AdilYassar/companies-scrapper/internal/api"
	"github.com/AdilYassar/companies-scrapper/internal/config"
	"github.com/AdilYassar/companies-scrapper/internal/jobstate"
	"github.com/AdilYassar/companies-scrapper/internal/pipeline"
	"github.com/AdilYassar/companies-scrapper/internal/source"
	"github.com/AdilYassar/companies-scrapper/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to scraper configuration file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	maxJobsFlag := flag.Int("max-jobs", 0, "Maximum concurrent scrape jobs")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	maxJobs := resolveMaxJobs(*maxJobsFlag)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs, err := jobstate.NewStoreFromEnv()
	if err != nil {
		logger.Error("initialise job store failed, falling back to memory", "error", err)
		jobs = jobstate.NewMemoryStore()
	}
	defer jobs.Close()

	var store storage.CompanyStore
	if cfg.DB.DSN != "" {
		sqlStore, err := storage.NewSQLStore(cfg.DB)
		if err != nil {
			log.Fatalf("failed to initialise company store: %v", err)
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	runner, err := pipeline.NewRunner(cfg, source.NewRegistry(), store, logger)
	if err != nil {
		log.Fatalf("failed to initialise pipeline: %v", err)
	}

	manager := api.NewJobManager(runner, jobs, maxJobs, ctx, logger)
	server := api.NewServer(manager, store, logger)

	if cfg.Auto.Enabled {
		scraper := pipeline.NewAutoScraper(runner, cfg.Auto, logger)
		go scraper.Run(ctx)
	}

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
	}()

	logger.Info("api server listening", "addr", *addr, "max_jobs", maxJobs)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	log.Println("API server stopped")
}

func resolveMaxJobs(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if raw := os.Getenv("SCRAPER_MAX_JOBS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return 2
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
