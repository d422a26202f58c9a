package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CountryRules carries the source-country specifics applied after generic
// cleaning: tax-id shape, dialing prefixes, date layouts, and the city
// gazetteer used when an address yields no structured match.
type CountryRules struct {
	Code          string
	TaxIDPrefixes []string
	TaxIDPattern  *regexp.Regexp
	PhonePrefixes []string
	PhonePattern  *regexp.Regexp
	DateLayouts   []string
	CityPattern   *regexp.Regexp
	Cities        []string
}

// Italy validates Partita IVA (11 digits, optional IT prefix), 10-11 digit
// phone numbers with the +39 prefix stripped, and DD/MM/YYYY dates.
var Italy = CountryRules{
	Code:          "IT",
	TaxIDPrefixes: []string{"IT"},
	TaxIDPattern:  regexp.MustCompile(`^[0-9]{11}$`),
	PhonePrefixes: []string{"+39", "39"},
	PhonePattern:  regexp.MustCompile(`^[0-9]{10,11}$`),
	DateLayouts:   []string{"02/01/2006", "02-01-2006"},
	// Italian addresses carry "CAP City", e.g. "20100 Milano".
	CityPattern: regexp.MustCompile(`\d{5}\s+([A-Za-zàèéìòù' ]+)`),
	Cities:      []string{"Milano", "Roma", "Torino", "Bologna", "Firenze", "Napoli", "Venezia", "Genova", "Padova"},
}

// Romania validates CUI (2-10 digits, optional RO prefix), 9-10 digit phone
// numbers with the +40 prefix stripped, and DD.MM.YYYY dates.
var Romania = CountryRules{
	Code:          "RO",
	TaxIDPrefixes: []string{"RO"},
	TaxIDPattern:  regexp.MustCompile(`^[0-9]{2,10}$`),
	PhonePrefixes: []string{"+40", "40"},
	PhonePattern:  regexp.MustCompile(`^[0-9]{9,10}$`),
	DateLayouts:   []string{"02.01.2006", "02/01/2006"},
	// Romanian addresses carry "City, County", e.g. "Cluj-Napoca, Cluj".
	CityPattern: regexp.MustCompile(`([A-Za-zăâîșțĂÂÎȘȚ\- ]+),\s*[A-Za-zăâîșțĂÂÎȘȚ ]+$`),
	Cities:      []string{"București", "Cluj-Napoca", "Timișoara", "Iași", "Brașov", "Constanța", "Craiova", "Oradea", "Sibiu"},
}

// Generic applies only the shared cleaning rules; used for platform sources
// that span countries.
var Generic = CountryRules{Code: ""}

// RulesFor returns the rule set for a country code or English country name,
// falling back to the generic rules.
func RulesFor(country string) CountryRules {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "IT", "ITALY":
		return Italy
	case "RO", "ROMANIA":
		return Romania
	default:
		return Generic
	}
}

// CleanTaxID strips the country prefix and whitespace, then validates the
// country pattern. Invalid values become empty, never an error.
func (r CountryRules) CleanTaxID(raw string) string {
	cleaned := strings.ToUpper(CleanString(raw))
	if cleaned == "" {
		return ""
	}
	for _, prefix := range r.TaxIDPrefixes {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if r.TaxIDPattern == nil {
		return cleaned
	}
	if !r.TaxIDPattern.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

// CleanPhone strips separators and the international dialing prefix, then
// validates the country digit-count pattern.
func (r CountryRules) CleanPhone(raw string) string {
	cleaned := CleanPhone(raw)
	if cleaned == "" {
		return ""
	}
	for _, prefix := range r.PhonePrefixes {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimPrefix(cleaned, prefix)
			break
		}
	}
	if r.PhonePattern == nil {
		return cleaned
	}
	if !r.PhonePattern.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

// CleanRegistrationNumber keeps registry numbers like "MI-1234567" or
// "J12/345/2020" with internal whitespace removed.
func (r CountryRules) CleanRegistrationNumber(raw string) string {
	cleaned := CleanString(raw)
	if cleaned == "" {
		return ""
	}
	return strings.ReplaceAll(cleaned, " ", "")
}

// ParseDate converts a source-local date to ISO 8601 (YYYY-MM-DD). Unparsable
// input becomes empty.
func (r CountryRules) ParseDate(raw string) string {
	cleaned := CleanString(raw)
	if cleaned == "" {
		return ""
	}
	layouts := r.DateLayouts
	if len(layouts) == 0 {
		layouts = []string{"2006-01-02", "02/01/2006"}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// CityFromAddress extracts a city name from a free-form address: first via
// the country's structured pattern, then by substring match against the
// gazetteer of known cities.
func (r CountryRules) CityFromAddress(address string) string {
	if address == "" {
		return ""
	}
	if r.CityPattern != nil {
		if m := r.CityPattern.FindStringSubmatch(address); m != nil {
			return CleanString(m[1])
		}
	}
	for _, city := range r.Cities {
		if strings.Contains(address, city) {
			return city
		}
	}
	return ""
}

var capitalRE = regexp.MustCompile(`[\d.,]+`)

// ParseShareCapital extracts a numeric value from a European currency string
// such as "€ 1.000.000,00". Returns 0 when nothing numeric is found.
func ParseShareCapital(raw string) float64 {
	cleaned := CleanString(raw)
	if cleaned == "" {
		return 0
	}
	m := capitalRE.FindString(cleaned)
	if m == "" {
		return 0
	}
	// European format uses dots as thousands separators and a comma for
	// decimals.
	if strings.Contains(m, ",") {
		m = strings.ReplaceAll(m, ".", "")
		m = strings.ReplaceAll(m, ",", ".")
	} else if strings.Count(m, ".") > 1 {
		m = strings.ReplaceAll(m, ".", "")
	}
	value, err := strconv.ParseFloat(strings.Trim(m, "."), 64)
	if err != nil {
		return 0
	}
	return value
}
