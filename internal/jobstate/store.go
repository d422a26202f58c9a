// Package jobstate persists scrape-job snapshots so the API can answer
// status queries and jobs survive process restarts when Redis is available.
package jobstate

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// Job lifecycle states.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Snapshot captures the persisted state of one scrape job.
type Snapshot struct {
	JobID       string    `json:"job_id"`
	Sources     []string  `json:"sources"`
	Country     string    `json:"country,omitempty"`
	Status      string    `json:"status"`
	Companies   int       `json:"companies"`
	Duplicates  int       `json:"duplicates"`
	FailedUnits int       `json:"failed_units"`
	Stored      int       `json:"stored"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (s Snapshot) Done() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Store persists job snapshots.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Remove(ctx context.Context, jobID string) error
	Get(ctx context.Context, jobID string) (Snapshot, bool, error)
	List(ctx context.Context) ([]Snapshot, error)
	Close() error
}

// RedisConfig configures a Redis-backed store.
type RedisConfig struct {
	Host     string
	Port     string
	DB       int
	Password string
	Key      string
	Timeout  time.Duration
}

// NewStoreFromEnv returns a Redis store when REDIS_HOST is set and the
// in-memory store otherwise.
func NewStoreFromEnv() (Store, error) {
	host := strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if host == "" {
		return NewMemoryStore(), nil
	}
	port := strings.TrimSpace(os.Getenv("REDIS_PORT"))
	if port == "" {
		port = "6379"
	}
	db := 0
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		db = value
	}
	return NewRedisStore(RedisConfig{
		Host:     host,
		Port:     port,
		DB:       db,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}
