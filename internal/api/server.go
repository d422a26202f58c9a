// Package api exposes the HTTP interface: scrape job management, stored
// company queries, and ad hoc deduplication.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AdilYassar/companies-scrapper/internal/dedupe"
	"github.com/AdilYassar/companies-scrapper/internal/source"
	"github.com/AdilYassar/companies-scrapper/internal/storage"
)

// Server exposes the HTTP API for scrape jobs and company queries.
type Server struct {
	manager *JobManager
	store   storage.CompanyStore
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewServer wires handlers onto an HTTP mux. The store may be nil when the
// server only manages scrape jobs.
func NewServer(manager *JobManager, store storage.CompanyStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		manager: manager,
		store:   store,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/scrape", s.handleScrape)
	s.mux.HandleFunc("/api/scrape/", s.handleScrapeByID)
	s.mux.HandleFunc("/api/sources", s.handleSources)
	s.mux.HandleFunc("/api/companies", s.handleCompanies)
	s.mux.HandleFunc("/api/dedupe", s.handleDedupe)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.startScrape(w, r)
	case http.MethodGet:
		s.listScrapes(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) startScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json payload: %v", err), http.StatusBadRequest)
		return
	}
	snap, err := s.manager.Start(req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooManyJobs):
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		case errors.Is(err, source.ErrUnknownSource):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) listScrapes(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.manager.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleScrapeByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/scrape/"), "/")
	if jobID == "" {
		http.NotFound(w, r)
		return
	}
	snap, found, err := s.manager.Get(r.Context(), jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Sources())
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if s.store == nil {
		http.Error(w, "no company store configured", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	filter := storage.Filter{
		Country:  q.Get("country"),
		City:     q.Get("city"),
		Industry: q.Get("industry"),
		Source:   q.Get("source"),
	}
	if raw := q.Get("min_score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil || score < 0 || score > 100 {
			http.Error(w, "min_score must be an integer in [0,100]", http.StatusBadRequest)
			return
		}
		filter.MinScore = score
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			http.Error(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.Offset = offset
	}

	companies, err := s.store.ListCompanies(r.Context(), filter)
	if err != nil {
		s.logger.Error("list companies failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(companies),
		"companies": companies,
	})
}

// handleDedupe runs a pure deduplication pass over a posted batch without
// touching storage. Useful for previewing merges.
func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req DedupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json payload: %v", err), http.StatusBadRequest)
		return
	}
	result := dedupe.Process(req.Companies, s.logger)
	writeJSON(w, http.StatusOK, result)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
