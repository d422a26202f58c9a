package normalize

import (
	"testing"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"  ACME  Software   SRL ", "ACME Software SRL"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
	}
	for _, tt := range tests {
		if got := CleanString(tt.in); got != tt.want {
			t.Errorf("CleanString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"acme.it", "https://acme.it"},
		{"http://acme.it/about", "http://acme.it/about"},
		{"https://acme.ro", "https://acme.ro"},
		{"not a url at all", ""},
	}
	for _, tt := range tests {
		if got := CleanURL(tt.in); got != tt.want {
			t.Errorf("CleanURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Info@Acme.IT", "info@acme.it"},
		{"missing-at.example.com", ""},
		{"a@b", ""},
		{"  office@firma.ro  ", "office@firma.ro"},
	}
	for _, tt := range tests {
		if got := CleanEmail(tt.in); got != tt.want {
			t.Errorf("CleanEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanPhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+39 02 1234 5678", "+390212345678"},
		// The loose international shape rejects a leading zero without +.
		{"(021) 123-4567", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		if got := CleanPhone(tt.in); got != tt.want {
			t.Errorf("CleanPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordItalianListing(t *testing.T) {
	raw := types.RawListing{
		CompanyName:      "  Acme   Software S.r.l. ",
		TaxID:            "IT 12345678901",
		Website:          "acmesoftware.it",
		Email:            "INFO@ACMESOFTWARE.IT",
		Phone:            "+39 02 1234 5678",
		Address:          "Via Roma 1, 20100 Milano",
		RegistrationDate: "15/03/2018",
		ShareCapital:     "€ 10.000,00",
		Country:          "IT",
		SourcePlatform:   "pagine_gialle",
		SourceURL:        "https://www.paginegialle.it/ricerca/software/milano",
	}
	c := Record(raw, Italy)

	if c.CompanyName != "Acme Software S.r.l." {
		t.Errorf("company name = %q", c.CompanyName)
	}
	if c.TaxID != "12345678901" {
		t.Errorf("tax id = %q, want prefix stripped", c.TaxID)
	}
	if c.Website != "https://acmesoftware.it" {
		t.Errorf("website = %q", c.Website)
	}
	if c.Email != "info@acmesoftware.it" {
		t.Errorf("email = %q", c.Email)
	}
	if c.Phone != "0212345678" {
		t.Errorf("phone = %q, want +39 stripped", c.Phone)
	}
	if c.City != "Milano" {
		t.Errorf("city = %q, want extracted from address", c.City)
	}
	if c.RegistrationDate != "2018-03-15" {
		t.Errorf("registration date = %q", c.RegistrationDate)
	}
	if c.ShareCapital != 10000 {
		t.Errorf("share capital = %v", c.ShareCapital)
	}
	if c.Industry != "Software Development" {
		t.Errorf("industry = %q", c.Industry)
	}
	if c.Country != "IT" {
		t.Errorf("country = %q", c.Country)
	}
	if c.DataQualityScore != QualityScore(c) {
		t.Errorf("score must equal recomputed score")
	}
}

func TestRecordMalformedFieldsBecomeAbsent(t *testing.T) {
	raw := types.RawListing{
		CompanyName: "Broken Fields SRL",
		TaxID:       "12AB",
		Website:     "::::",
		Email:       "no-at-sign",
		Phone:       "call us",
		Country:     "IT",
	}
	c := Record(raw, Italy)
	if c.TaxID != "" || c.Website != "" || c.Email != "" || c.Phone != "" {
		t.Errorf("malformed fields should clean to empty: %+v", c)
	}
	if c.CompanyName == "" {
		t.Error("valid name should survive")
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	raw := types.RawListing{
		CompanyName: "Stable SRL",
		TaxID:       "12345678901",
		Address:     "Strada X 5, 10100 Torino",
		Country:     "IT",
	}
	first := Record(raw, Italy)
	second := Record(types.RawListing{
		CompanyName:    first.CompanyName,
		TaxID:          first.TaxID,
		Address:        first.Address,
		City:           first.City,
		Industry:       first.Industry,
		Country:        first.Country,
		SourcePlatform: first.SourcePlatform,
		SourceURL:      first.SourceURL,
	}, Italy)
	if first.TaxID != second.TaxID || first.Address != second.Address || first.City != second.City {
		t.Errorf("re-normalizing normalized output changed it:\n%+v\n%+v", first, second)
	}
}

func TestCountryFromPlatformName(t *testing.T) {
	raw := types.RawListing{CompanyName: "Platform Co", Country: "Romania"}
	c := Record(raw, Generic)
	if c.Country != "RO" {
		t.Errorf("country = %q, want RO resolved from name", c.Country)
	}
}
