// Command import bulk-loads company records from a JSON file, normalizes
// them with the import quality scorer, and upserts them into the database.
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
	"github.com/AdilYassar/companies-scrapper/internal/dedupe"
	"github.com/AdilYassar/companies-scrapper/internal/normalize"
	"github.com/AdilYassar/companies-scrapper/internal/storage"
	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// importRecord mirrors the JSON shape of exported prospect lists: snake_case
// keys, list fields, and a LinkedIn URL instead of registry identifiers.
type importRecord struct {
	CompanyName  string   `json:"company_name"`
	LegalName    string   `json:"legal_name"`
	Website      string   `json:"website"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Country      string   `json:"country"`
	Description  string   `json:"description"`
	Industry     string   `json:"industry"`
	Technologies []string `json:"technologies"`
	Specialties  []string `json:"specialties"`
	LinkedIn     string   `json:"linkedin"`
}

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to scraper configuration file")
	filePath := flag.String("file", "", "JSON file containing an array of company records")
	country := flag.String("country", "", "Default country code for records missing one")
	dryRun := flag.Bool("dry-run", false, "Normalize and print without writing to the database")
	flag.Parse()

	_ = godotenv.Load()

	if strings.TrimSpace(*filePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file companies.json [-country RO] [-dry-run]")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	records, err := readRecords(*filePath)
	if err != nil {
		logger.Error("read import file failed", "error", err)
		os.Exit(1)
	}

	companies := make([]types.Company, 0, len(records))
	for _, rec := range records {
		c := normalizeImport(rec, *country)
		if c.CompanyName == "" {
			continue
		}
		companies = append(companies, c)
	}
	logger.Info("normalized import batch", "records", len(records), "companies", len(companies))

	result := dedupe.Process(companies, logger)

	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Companies); err != nil {
			logger.Error("encode results failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLStore(cfg.DB)
	if err != nil {
		logger.Error("initialise company store failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	stored, err := store.SaveCompanies(ctx, result.Companies)
	if err != nil {
		logger.Error("import failed", "stored", stored, "error", err)
		os.Exit(1)
	}
	logger.Info("import complete",
		"companies", len(result.Companies),
		"duplicates", result.Duplicates,
		"stored", stored,
	)
}

func readRecords(path string) ([]importRecord, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer fh.Close()

	var records []importRecord
	if err := json.NewDecoder(fh).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode import file: %w", err)
	}
	return records, nil
}

// normalizeImport runs the standard cleaning rules and then swaps in the
// import scorer, which weighs technology and specialty tags instead of
// registry identifiers.
func normalizeImport(rec importRecord, defaultCountry string) types.Company {
	country := rec.Country
	if strings.TrimSpace(country) == "" {
		country = defaultCountry
	}
	raw := types.RawListing{
		CompanyName:    rec.CompanyName,
		LegalName:      rec.LegalName,
		Website:        rec.Website,
		Email:          rec.Email,
		Phone:          rec.Phone,
		Address:        rec.Address,
		City:           rec.City,
		Description:    rec.Description,
		Industry:       rec.Industry,
		Technologies:   rec.Technologies,
		Specialties:    rec.Specialties,
		LinkedIn:       rec.LinkedIn,
		Country:        country,
		SourcePlatform: "manual_import",
	}
	c := normalize.Record(raw, normalize.RulesFor(country))
	c.DataQualityScore = normalize.ImportScore(c)
	return c
}
