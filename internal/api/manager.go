package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/AdilYassar/companies-scrapper/internal/jobstate"
	"github.com/AdilYassar/companies-scrapper/internal/pipeline"
)

// ErrTooManyJobs is returned when the concurrent job cap is reached.
var ErrTooManyJobs = errors.New("too many running jobs")

// JobManager starts scrape jobs asynchronously and tracks their snapshots.
type JobManager struct {
	runner  *pipeline.Runner
	jobs    jobstate.Store
	baseCtx context.Context
	logger  *slog.Logger

	slots   chan struct{}
	counter atomic.Int64
}

// NewJobManager builds a manager running at most maxConcurrent jobs at once.
// The base context bounds every job; cancelling it stops running scrapes.
func NewJobManager(runner *pipeline.Runner, jobs jobstate.Store, maxConcurrent int, baseCtx context.Context, logger *slog.Logger) *JobManager {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if jobs == nil {
		jobs = jobstate.NewMemoryStore()
	}
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobManager{
		runner:  runner,
		jobs:    jobs,
		baseCtx: baseCtx,
		logger:  logger,
		slots:   make(chan struct{}, maxConcurrent),
	}
}

// Start validates the request, records a queued snapshot, and launches the
// job in the background. Unknown source ids fail before anything runs.
func (m *JobManager) Start(req ScrapeRequest) (jobstate.Snapshot, error) {
	ids, err := m.resolveSources(req)
	if err != nil {
		return jobstate.Snapshot{}, err
	}

	select {
	case m.slots <- struct{}{}:
	default:
		return jobstate.Snapshot{}, ErrTooManyJobs
	}

	snap := jobstate.Snapshot{
		JobID:     m.newJobID(),
		Sources:   ids,
		Country:   strings.ToUpper(strings.TrimSpace(req.Country)),
		Status:    jobstate.StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.jobs.Save(m.baseCtx, snap); err != nil {
		<-m.slots
		return jobstate.Snapshot{}, fmt.Errorf("save job: %w", err)
	}

	go m.run(snap, req.Options())
	return snap, nil
}

func (m *JobManager) resolveSources(req ScrapeRequest) ([]string, error) {
	registry := m.runner.Registry()

	var ids []string
	switch {
	case len(req.Sources) > 0:
		for _, id := range req.Sources {
			adapter, err := registry.Lookup(id)
			if err != nil {
				return nil, err
			}
			ids = append(ids, adapter.ID())
		}
	case strings.TrimSpace(req.Country) != "":
		for _, adapter := range registry.ForCountry(req.Country) {
			ids = append(ids, adapter.ID())
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("no sources registered for country %q", req.Country)
		}
	default:
		return nil, errors.New("request must name sources or a country")
	}
	return ids, nil
}

func (m *JobManager) run(snap jobstate.Snapshot, opts pipeline.RunOptions) {
	defer func() { <-m.slots }()

	snap.Status = jobstate.StatusRunning
	snap.StartedAt = time.Now().UTC()
	m.save(snap)

	report, err := m.runner.Run(m.baseCtx, snap.Sources, opts)

	for _, summary := range report.Summaries {
		snap.FailedUnits += summary.FailedUnits
	}
	snap.Companies = len(report.Dedup.Companies)
	snap.Duplicates = report.Dedup.Duplicates
	snap.Stored = report.Stored
	snap.FinishedAt = time.Now().UTC()

	if err != nil {
		snap.Status = jobstate.StatusFailed
		snap.Message = err.Error()
		m.logger.Error("scrape job failed", "job", snap.JobID, "error", err)
	} else {
		snap.Status = jobstate.StatusCompleted
		m.logger.Info("scrape job complete",
			"job", snap.JobID,
			"companies", snap.Companies,
			"duplicates", snap.Duplicates,
			"stored", snap.Stored,
		)
	}
	m.save(snap)
}

func (m *JobManager) save(snap jobstate.Snapshot) {
	if err := m.jobs.Save(m.baseCtx, snap); err != nil {
		m.logger.Error("persist job snapshot failed", "job", snap.JobID, "error", err)
	}
}

// Get returns one job snapshot.
func (m *JobManager) Get(ctx context.Context, jobID string) (jobstate.Snapshot, bool, error) {
	return m.jobs.Get(ctx, jobID)
}

// List returns every known job snapshot, newest first.
func (m *JobManager) List(ctx context.Context) ([]jobstate.Snapshot, error) {
	return m.jobs.List(ctx)
}

// Sources lists the registered adapters for discovery.
func (m *JobManager) Sources() []SourceInfo {
	registry := m.runner.Registry()
	infos := make([]SourceInfo, 0)
	for _, id := range registry.IDs() {
		adapter, err := registry.Lookup(id)
		if err != nil {
			continue
		}
		infos = append(infos, SourceInfo{
			ID:      adapter.ID(),
			Country: adapter.Country(),
			Mode:    string(adapter.Source.Mode),
		})
	}
	return infos
}

func (m *JobManager) newJobID() string {
	n := m.counter.Add(1)
	return fmt.Sprintf("job-%s-%04d", time.Now().UTC().Format("20060102-150405"), n)
}
