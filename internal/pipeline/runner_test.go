package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdilYassar/companies-scrapper/internal/config"
	"github.com/AdilYassar/companies-scrapper/internal/fetch"
	"github.com/AdilYassar/companies-scrapper/internal/normalize"
	"github.com/AdilYassar/companies-scrapper/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() config.Config {
	cfg := config.Default()
	cfg.Scrape.PageDelay = config.DurationFrom(0)
	cfg.Scrape.UnitDelay = config.DurationFrom(0)
	cfg.Scrape.MaxRetries = 0
	return cfg
}

func TestNewRunnerRejectsUnknownConfiguredSource(t *testing.T) {
	cfg := fastConfig()
	cfg.Sources = []config.SourceOptions{{ID: "not_a_directory"}}

	_, err := NewRunner(&cfg, nil, nil, testLogger())
	if !errors.Is(err, source.ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestRunSourcesFailsFastOnUnknownID(t *testing.T) {
	cfg := fastConfig()
	runner, err := NewRunner(&cfg, nil, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	_, err = runner.RunSources(context.Background(), []string{"pagine_gialle", "bogus"}, RunOptions{})
	if !errors.Is(err, source.ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

const directoryPage = `<html><body>
<div class="listing">
  <h2 class="name">Acme Software SRL</h2>
  <span class="piva">IT 12345678901</span>
  <a class="site" href="https://www.acme.it/chi-siamo">sito</a>
  <a class="mail" href="mailto:info@acme.it">email</a>
  <span class="tel">+39 02 12345678</span>
  <span class="city">Milano</span>
</div>
<div class="listing">
  <h2 class="name">ACME SOFTWARE</h2>
  <span class="piva">12345678901</span>
  <span class="city">Milano</span>
</div>
<div class="listing">
  <h2 class="name">Beta Consulting SPA</h2>
  <span class="city">Roma</span>
</div>
</body></html>`

func TestRunnerEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("p") == "2" {
			io.WriteString(w, `<html><body></body></html>`)
			return
		}
		io.WriteString(w, directoryPage)
	}))
	defer server.Close()

	adapter := source.Adapter{
		Source: fetch.Source{
			ID:        "test_directory",
			Country:   "IT",
			Mode:      fetch.ModeStatic,
			BaseURL:   server.URL,
			PageParam: "p",
			MaxPages:  3,
			Selectors: fetch.Selectors{
				Listing:     ".listing",
				CompanyName: ".name",
				TaxID:       ".piva",
				Website:     ".site",
				Email:       ".mail",
				Phone:       ".tel",
				City:        ".city",
			},
		},
		Rules: normalize.RulesFor("IT"),
	}

	cfg := fastConfig()
	runner, err := NewRunner(&cfg, source.NewRegistryFrom([]source.Adapter{adapter}), nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	report, err := runner.Run(context.Background(), []string{"test_directory"}, RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(report.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(report.Summaries))
	}
	summary := report.Summaries[0]
	if summary.FailedUnits != 0 {
		t.Errorf("failed units = %d: %+v", summary.FailedUnits, summary.Units)
	}
	if len(summary.Companies) != 3 {
		t.Fatalf("expected 3 normalized companies, got %d", len(summary.Companies))
	}

	// The two Acme records share a tax id, so dedupe merges them.
	if report.Dedup.Original != 3 || report.Dedup.Duplicates != 1 || report.Dedup.Merged != 2 {
		t.Fatalf("dedup = original %d, duplicates %d, merged %d",
			report.Dedup.Original, report.Dedup.Duplicates, report.Dedup.Merged)
	}
	if len(report.Dedup.Companies) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(report.Dedup.Companies))
	}

	acme := report.Dedup.Companies[0]
	if acme.TaxID != "12345678901" {
		t.Errorf("tax id = %q", acme.TaxID)
	}
	if acme.Phone != "0212345678" {
		t.Errorf("phone = %q", acme.Phone)
	}
	if acme.Email != "info@acme.it" {
		t.Errorf("email = %q", acme.Email)
	}
	if acme.Country != "IT" {
		t.Errorf("country = %q", acme.Country)
	}

	// No store configured, nothing persisted.
	if report.Stored != 0 {
		t.Errorf("stored = %d", report.Stored)
	}
}

func TestRunSourceOptionsNarrowOneRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `<html><body></body></html>`)
	}))
	defer server.Close()

	adapter := source.Adapter{
		Source: fetch.Source{
			ID:         "test_directory",
			Country:    "IT",
			Mode:       fetch.ModeStatic,
			BaseURL:    server.URL,
			SearchPath: "/{category}/{city_lower}",
			PageParam:  "p",
			MaxPages:   3,
			Categories: []string{"software"},
			Cities:     []string{"Milano", "Roma"},
			Selectors:  fetch.Selectors{Listing: ".listing", CompanyName: ".name"},
		},
		Rules: normalize.RulesFor("IT"),
	}

	cfg := fastConfig()
	runner, err := NewRunner(&cfg, source.NewRegistryFrom([]source.Adapter{adapter}), nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	summary, err := runner.RunSource(context.Background(), "test_directory",
		RunOptions{Cities: []string{"Torino"}, MaxPages: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Units) != 1 {
		t.Fatalf("override should narrow to 1 unit, got %d: %+v", len(summary.Units), summary.Units)
	}
	if summary.Units[0].Unit != "software/Torino" {
		t.Errorf("unit = %q", summary.Units[0].Unit)
	}

	// The override is per call: the registered adapter keeps its defaults.
	summary, err = runner.RunSource(context.Background(), "test_directory", RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Units) != 2 {
		t.Fatalf("registry adapter must be untouched, got %d units: %+v", len(summary.Units), summary.Units)
	}
}

func TestRunCountryUnknown(t *testing.T) {
	cfg := fastConfig()
	runner, err := NewRunner(&cfg, nil, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := runner.RunCountry(context.Background(), "DE", RunOptions{}); err == nil {
		t.Fatal("expected error for a country with no sources")
	}
}
