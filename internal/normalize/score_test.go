package normalize

import (
	"testing"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

func TestQualityScoreWeights(t *testing.T) {
	tests := []struct {
		name string
		c    types.Company
		want int
	}{
		{"empty", types.Company{}, 0},
		{"name only", types.Company{CompanyName: "Acme"}, 20},
		{"name and tax", types.Company{CompanyName: "Acme", TaxID: "12345678901"}, 35},
		{"contact fields", types.Company{
			CompanyName: "Acme",
			Website:     "https://acme.it",
			Email:       "info@acme.it",
			Phone:       "0212345678",
		}, 60},
		{"everything", types.Company{
			CompanyName: "Acme",
			TaxID:       "12345678901",
			Website:     "https://acme.it",
			Email:       "info@acme.it",
			Phone:       "0212345678",
			Address:     "Via Roma 1",
			City:        "Milano",
			Description: "Software house",
		}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualityScore(tt.c); got != tt.want {
				t.Errorf("QualityScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQualityScoreIgnoresSentinel(t *testing.T) {
	with := QualityScore(types.Company{CompanyName: "Acme", Email: "info@acme.it"})
	sentinel := QualityScore(types.Company{CompanyName: "Acme", Email: "Not publicly listed"})
	if sentinel >= with {
		t.Errorf("sentinel email must not count: with=%d sentinel=%d", with, sentinel)
	}
	if sentinel != 20 {
		t.Errorf("sentinel-only record should score name weight, got %d", sentinel)
	}
}

func TestQualityScoreMonotonic(t *testing.T) {
	c := types.Company{CompanyName: "Acme"}
	base := QualityScore(c)
	c.Website = "https://acme.it"
	if QualityScore(c) <= base {
		t.Error("adding a field must not lower the score")
	}
}

func TestImportScore(t *testing.T) {
	c := types.Company{
		CompanyName:  "Imported Co",
		Website:      "https://imported.ro",
		Email:        "hello@imported.ro",
		City:         "Cluj-Napoca",
		Address:      "Str. Victoriei 10",
		Technologies: []string{"Go", "PostgreSQL"},
		Specialties:  []string{"fintech"},
		LinkedIn:     "https://linkedin.com/company/imported",
	}
	if got := ImportScore(c); got != 100 {
		t.Errorf("full import record should score 100, got %d", got)
	}
	if got := ImportScore(types.Company{CompanyName: "Imported Co"}); got != 20 {
		t.Errorf("name-only import record should score 20, got %d", got)
	}
	// Registry fields carry no weight in the import scorer.
	withTax := ImportScore(types.Company{CompanyName: "Imported Co", TaxID: "12345678901", Phone: "0212345678"})
	if withTax != 20 {
		t.Errorf("tax id and phone must not affect import score, got %d", withTax)
	}
}

func TestClassifyIndustry(t *testing.T) {
	tests := []struct {
		name, description, want string
	}{
		{"Acme Software", "", "Software Development"},
		{"Acme", "externalizare servicii IT", "IT Outsourcing"},
		{"Acme", "consulenza informatica", "IT Consulting"},
		{"Acme Web Agency", "", "Web Development"},
		{"Acme", "sviluppo app mobile", "Software Development"}, // sviluppo wins by order
		{"Acme", "", "IT Services"},
	}
	for _, tt := range tests {
		if got := ClassifyIndustry(tt.name, tt.description); got != tt.want {
			t.Errorf("ClassifyIndustry(%q, %q) = %q, want %q", tt.name, tt.description, got, tt.want)
		}
	}
}
