package normalize

import "testing"

func TestItalyCleanTaxID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"IT12345678901", "12345678901"},
		{"12345678901", "12345678901"},
		{"it 12345678901", "12345678901"},
		{"1234567890", ""},   // 10 digits
		{"123456789012", ""}, // 12 digits
		{"", ""},
	}
	for _, tt := range tests {
		if got := Italy.CleanTaxID(tt.in); got != tt.want {
			t.Errorf("Italy.CleanTaxID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRomaniaCleanTaxID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"RO1234567", "1234567"},
		{"12", "12"},
		{"1234567890", "1234567890"},
		{"1", ""},           // below minimum
		{"12345678901", ""}, // above maximum
	}
	for _, tt := range tests {
		if got := Romania.CleanTaxID(tt.in); got != tt.want {
			t.Errorf("Romania.CleanTaxID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCountryCleanPhone(t *testing.T) {
	tests := []struct {
		rules    CountryRules
		in, want string
	}{
		{Italy, "+39 02 1234 5678", "0212345678"},
		{Italy, "39 0212345678", "0212345678"},
		{Italy, "+39 123", ""},
		{Romania, "+40 721 234 567", "721234567"},
		{Romania, "40212345678", "212345678"},
		{Romania, "+40 12", ""},
	}
	for _, tt := range tests {
		if got := tt.rules.CleanPhone(tt.in); got != tt.want {
			t.Errorf("%s.CleanPhone(%q) = %q, want %q", tt.rules.Code, tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		rules    CountryRules
		in, want string
	}{
		{Italy, "15/03/2018", "2018-03-15"},
		{Italy, "15-03-2018", "2018-03-15"},
		{Italy, "2018-03-15", ""},
		{Romania, "15.03.2018", "2018-03-15"},
		{Romania, "15/03/2018", "2018-03-15"},
		{Romania, "soon", ""},
	}
	for _, tt := range tests {
		if got := tt.rules.ParseDate(tt.in); got != tt.want {
			t.Errorf("%s.ParseDate(%q) = %q, want %q", tt.rules.Code, tt.in, got, tt.want)
		}
	}
}

func TestCityFromAddress(t *testing.T) {
	tests := []struct {
		rules    CountryRules
		in, want string
	}{
		{Italy, "Via Roma 1, 20100 Milano", "Milano"},
		{Italy, "Corso Vittorio, Torino", "Torino"}, // gazetteer fallback
		{Italy, "Somewhere unknown", ""},
		{Romania, "Str. Victoriei 10, Cluj-Napoca, Cluj", "Cluj-Napoca"},
		{Romania, "undeva in Sibiu", "Sibiu"},
		{Romania, "", ""},
	}
	for _, tt := range tests {
		if got := tt.rules.CityFromAddress(tt.in); got != tt.want {
			t.Errorf("%s.CityFromAddress(%q) = %q, want %q", tt.rules.Code, tt.in, got, tt.want)
		}
	}
}

func TestParseShareCapital(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"€ 10.000,00", 10000},
		{"10000", 10000},
		{"1.000.000", 1000000},
		{"12,50 EUR", 12.5},
		{"n/a", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseShareCapital(tt.in); got != tt.want {
			t.Errorf("ParseShareCapital(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRulesFor(t *testing.T) {
	if RulesFor("it").Code != "IT" || RulesFor("Italy").Code != "IT" {
		t.Error("Italian rules not resolved")
	}
	if RulesFor("RO").Code != "RO" || RulesFor("romania").Code != "RO" {
		t.Error("Romanian rules not resolved")
	}
	if RulesFor("DE").Code != "" {
		t.Error("unknown country should resolve to generic rules")
	}
}
