// Package normalize turns raw scraped listings into canonical company
// records. Every function is a pure transform: malformed input degrades to
// the empty string, never to an error.
package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

var (
	whitespaceRE  = regexp.MustCompile(`\s+`)
	emailRE       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRE       = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	doubleCommaRE = regexp.MustCompile(`,\s*,`)
)

// CleanString trims and collapses internal whitespace. Empty input stays
// empty, which downstream code reads as "absent".
func CleanString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRE.ReplaceAllString(s, " ")
}

// CleanURL prefixes a missing scheme with https:// and rejects anything that
// does not parse as an absolute URL with a host.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ""
	}
	return raw
}

// CleanEmail lower-cases and validates the local@domain.tld shape.
func CleanEmail(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || !emailRE.MatchString(raw) {
		return ""
	}
	return raw
}

// CleanPhone strips spaces, hyphens, and parentheses and applies a loose
// international shape check. Country adapters tighten this further.
func CleanPhone(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(raw)
	cleaned = strings.TrimSpace(cleaned)
	if !phoneRE.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

// Record normalizes one raw listing using the country rule set. The result's
// quality score is always recomputed, never carried over.
func Record(raw types.RawListing, rules CountryRules) types.Company {
	c := types.Company{
		CompanyName:        CleanString(raw.CompanyName),
		LegalName:          CleanString(raw.LegalName),
		TaxID:              rules.CleanTaxID(raw.TaxID),
		RegistrationNumber: rules.CleanRegistrationNumber(raw.RegistrationNumber),
		Website:            CleanURL(raw.Website),
		Email:              CleanEmail(raw.Email),
		Phone:              rules.CleanPhone(raw.Phone),
		Address:            CleanAddress(raw.Address),
		City:               CleanString(raw.City),
		Description:        CleanString(raw.Description),
		Country:            countryOrDefault(raw.Country, rules.Code),
		SourcePlatform:     CleanString(raw.SourcePlatform),
		SourceURL:          strings.TrimSpace(raw.SourceURL),
		Industry:           CleanString(raw.Industry),
		LegalForm:          CleanString(raw.LegalForm),
		RegistrationDate:   rules.ParseDate(raw.RegistrationDate),
		ShareCapital:       ParseShareCapital(raw.ShareCapital),
		Technologies:       cleanList(raw.Technologies),
		Specialties:        cleanList(raw.Specialties),
		LinkedIn:           CleanURL(raw.LinkedIn),
	}
	if c.City == "" {
		c.City = rules.CityFromAddress(c.Address)
	}
	if c.Industry == "" {
		c.Industry = ClassifyIndustry(c.CompanyName, c.Description)
	}
	c.DataQualityScore = QualityScore(c)
	return c
}

// CleanAddress collapses whitespace and repeated commas left over from
// concatenated address fragments.
func CleanAddress(raw string) string {
	s := CleanString(raw)
	if s == "" {
		return ""
	}
	s = doubleCommaRE.ReplaceAllString(s, ",")
	return strings.Trim(s, " ,")
}

func countryOrDefault(country, fallback string) string {
	if rules := RulesFor(country); rules.Code != "" {
		return rules.Code
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if len(country) == 2 {
		return country
	}
	return fallback
}

func cleanList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = CleanString(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
