package dedupe

import (
	"io"
	"log/slog"
	"testing"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessEmptyBatch(t *testing.T) {
	result := Process(nil, testLogger())
	if result.Original != 0 || result.Duplicates != 0 || result.Merged != 0 {
		t.Errorf("empty batch should yield zero counters: %+v", result)
	}
	if result.Companies == nil || len(result.Companies) != 0 {
		t.Errorf("companies should be an empty slice, got %v", result.Companies)
	}
}

func TestProcessNoDuplicates(t *testing.T) {
	batch := []types.Company{
		{CompanyName: "Acme Software SRL", TaxID: "12345678901", Country: "IT"},
		{CompanyName: "Zenith Logistics SA", TaxID: "987654", Country: "RO"},
	}
	result := Process(batch, testLogger())
	if result.Duplicates != 0 {
		t.Errorf("distinct companies should pass through: %+v", result)
	}
	// Merged reports the output batch size, so a clean batch passes through
	// with merged == original.
	if result.Merged != 2 || result.Merged != result.Original {
		t.Errorf("merged must equal the output size: %+v", result)
	}
	if len(result.Companies) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(result.Companies))
	}
	if result.Companies[0].CompanyName != "Acme Software SRL" {
		t.Error("input order must be preserved")
	}
}

func TestProcessMergesTaxIDDuplicates(t *testing.T) {
	batch := []types.Company{
		{
			CompanyName:    "Acme Software SRL",
			TaxID:          "12345678901",
			SourcePlatform: "pagine_gialle",
			SourceURL:      "https://paginegialle.it/acme",
			Country:        "IT",
		},
		{
			CompanyName:    "ACME Software",
			TaxID:          "IT12345678901",
			Email:          "info@acme.it",
			Website:        "https://acme.it",
			SourcePlatform: "registro_imprese",
			SourceURL:      "https://registroimprese.it/acme",
			Country:        "IT",
		},
	}
	result := Process(batch, testLogger())
	if len(result.Companies) != 1 {
		t.Fatalf("expected 1 merged company, got %d", len(result.Companies))
	}
	if result.Duplicates != 1 || result.Merged != 1 {
		t.Errorf("counters wrong: %+v", result)
	}

	merged := result.Companies[0]
	if merged.CompanyName != "Acme Software SRL" {
		t.Errorf("primary name must win, got %q", merged.CompanyName)
	}
	if merged.Email != "info@acme.it" || merged.Website != "https://acme.it" {
		t.Error("gaps in the primary must fill from the duplicate")
	}
	if merged.SourcePlatform != "merged" || merged.SourceURL != "multiple_sources" {
		t.Errorf("merge must set sentinels, got %q %q", merged.SourcePlatform, merged.SourceURL)
	}
}

func TestMergePrimaryFieldsWin(t *testing.T) {
	primary := types.Company{
		CompanyName:    "Acme Software SRL",
		Phone:          "0212345678",
		SourcePlatform: "pagine_gialle",
	}
	duplicate := types.Company{
		CompanyName:    "Acme Software",
		Phone:          "0299999999",
		Address:        "Via Roma 1, Milano",
		SourcePlatform: "pagine_gialle",
	}
	merged := Merge(primary, duplicate)
	if merged.Phone != "0212345678" {
		t.Errorf("populated primary field must not be overwritten, got %q", merged.Phone)
	}
	if merged.Address != "Via Roma 1, Milano" {
		t.Errorf("empty primary field must fill, got %q", merged.Address)
	}
}

func TestMergeSetsSentinelsForSamePlatform(t *testing.T) {
	primary := types.Company{CompanyName: "Acme", SourcePlatform: "pagine_gialle", SourceURL: "https://paginegialle.it/a"}
	duplicate := types.Company{CompanyName: "Acme", SourcePlatform: "pagine_gialle", SourceURL: "https://paginegialle.it/b"}
	merged := Merge(primary, duplicate)
	if merged.SourcePlatform != "merged" || merged.SourceURL != "multiple_sources" {
		t.Errorf("sentinels apply on every merge, got %q %q", merged.SourcePlatform, merged.SourceURL)
	}
}

func TestProcessMatchesAgainstPristinePrimary(t *testing.T) {
	// The second record folds into the first by name and brings a tax id
	// with it. The third record shares that tax id but nothing else; it must
	// stay a separate company because the cluster's own primary never
	// carried the id.
	batch := []types.Company{
		{CompanyName: "Acme Software", Country: "IT"},
		{CompanyName: "Acme Software SRL", TaxID: "12345678901", Country: "IT"},
		{CompanyName: "Zeta Industries", TaxID: "12345678901", Country: "IT"},
	}
	result := Process(batch, testLogger())
	if len(result.Companies) != 2 {
		t.Fatalf("expected 2 companies, got %d: %+v", len(result.Companies), result.Companies)
	}
	if result.Companies[1].CompanyName != "Zeta Industries" {
		t.Errorf("unrelated record must survive, got %+v", result.Companies[1])
	}
	if result.Duplicates != 1 || result.Merged != 2 {
		t.Errorf("counters wrong: %+v", result)
	}
}

func TestMergeUnionsListFields(t *testing.T) {
	primary := types.Company{CompanyName: "Acme", Technologies: []string{"Go", "React"}}
	duplicate := types.Company{CompanyName: "Acme", Technologies: []string{"go", "PostgreSQL"}}
	merged := Merge(primary, duplicate)
	if len(merged.Technologies) != 3 {
		t.Errorf("expected case-insensitive union of 3, got %v", merged.Technologies)
	}
}

func TestMergeRecomputesScore(t *testing.T) {
	primary := types.Company{CompanyName: "Acme", DataQualityScore: 20}
	duplicate := types.Company{CompanyName: "Acme", Email: "info@acme.it", Website: "https://acme.it"}
	merged := Merge(primary, duplicate)
	if merged.DataQualityScore <= 20 {
		t.Errorf("merged record gained fields, score must rise: %d", merged.DataQualityScore)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	primary := types.Company{CompanyName: "Acme", Technologies: []string{"Go"}}
	duplicate := types.Company{CompanyName: "Acme", Technologies: []string{"React"}}
	_ = Merge(primary, duplicate)
	if len(primary.Technologies) != 1 || len(duplicate.Technologies) != 1 {
		t.Error("merge inputs were mutated")
	}
}
