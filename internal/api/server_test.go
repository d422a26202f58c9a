package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/AdilYassar/companies-scrapper/internal/config"
	"github.com/AdilYassar/companies-scrapper/internal/jobstate"
	"github.com/AdilYassar/companies-scrapper/internal/pipeline"
	"github.com/AdilYassar/companies-scrapper/internal/source"
	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	runner, err := pipeline.NewRunner(&cfg, source.NewRegistry(), nil, logger)
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	manager := NewJobManager(runner, jobstate.NewMemoryStore(), 1, context.Background(), logger)
	return NewServer(manager, nil, logger)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	server := newTestServer(t)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sources", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var infos []SourceInfo
	if err := json.Unmarshal(rr.Body.Bytes(), &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 10 {
		t.Errorf("expected 10 sources, got %d", len(infos))
	}
}

func TestStartScrapeValidation(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown source", `{"sources":["not_a_source"]}`, http.StatusNotFound},
		{"empty request", `{}`, http.StatusBadRequest},
		{"unknown country", `{"country":"DE"}`, http.StatusBadRequest},
		{"broken json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(tt.body))
			server.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body=%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestScrapeRequestOptions(t *testing.T) {
	req := ScrapeRequest{
		Sources:  []string{"pagine_gialle"},
		Cities:   []string{"Milano", "Roma"},
		Regions:  []string{"Lombardia"},
		MaxPages: 2,
	}
	opts := req.Options()
	want := pipeline.RunOptions{
		Cities:   []string{"Milano", "Roma"},
		Regions:  []string{"Lombardia"},
		MaxPages: 2,
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("options = %+v, want %+v", opts, want)
	}
}

func TestListScrapesEmpty(t *testing.T) {
	server := newTestServer(t)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/scrape", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGetScrapeNotFound(t *testing.T) {
	server := newTestServer(t)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/scrape/job-missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestDedupeEndpoint(t *testing.T) {
	server := newTestServer(t)

	payload := DedupRequest{Companies: []types.Company{
		{CompanyName: "Acme Software SRL", TaxID: "12345678901", Country: "IT"},
		{CompanyName: "ACME Software", TaxID: "IT12345678901", Email: "info@acme.it", Country: "IT"},
	}}
	body, _ := json.Marshal(payload)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dedupe", strings.NewReader(string(body))))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body=%s)", rr.Code, rr.Body.String())
	}

	var result types.DedupResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Original != 2 || result.Duplicates != 1 || result.Merged != 1 || len(result.Companies) != 1 {
		t.Errorf("dedup result = %+v", result)
	}
}

func TestCompaniesWithoutStore(t *testing.T) {
	server := newTestServer(t)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/companies", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 without a store", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(t)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/scrape", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Errorf("allow header = %q", allow)
	}
}
