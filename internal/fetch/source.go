// Package fetch retrieves raw company listings from directory sites and
// registries. Three strategies share one contract: Static (plain HTTP +
// CSS selectors), Rendered (headless browser), and APIBased (JSON
// endpoints). Per-source behaviour is data, not code: a Source value
// supplies selectors, endpoints, and the dimensions to cross.
package fetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// Mode selects which strategy a source is scraped with.
type Mode string

const (
	ModeStatic   Mode = "static"
	ModeRendered Mode = "rendered"
	ModeAPI      Mode = "api"
)

// Selectors maps record fields to CSS selectors inside one listing element.
// Empty selectors simply yield absent fields.
type Selectors struct {
	Listing            string
	CompanyName        string
	LegalName          string
	TaxID              string
	RegistrationNumber string
	Website            string
	Email              string
	Phone              string
	Address            string
	City               string
	Description        string
	Industry           string
	LegalForm          string
	RegistrationDate   string
	ShareCapital       string
}

// APISpec describes a JSON endpoint source.
type APISpec struct {
	Endpoint       string
	Method         string
	Headers        map[string]string
	Params         map[string]string
	PageSize       int
	DimensionParam string
	APIKey         string
	AuthEndpoint   string
	AuthPayload    map[string]string
}

// Source is the full data-only description of one registry or directory
// site: where to fetch, how to extract, and which dimensions to cross.
type Source struct {
	ID      string
	Country string
	Mode    Mode
	BaseURL string

	// SearchPath is appended to BaseURL with {category}, {city},
	// {city_lower}, {region}, {county}, and {country} placeholders.
	SearchPath string
	PageParam  string
	MaxPages   int

	Selectors     Selectors
	WaitSelectors []string

	Categories []string
	Cities     []string
	Regions    []string
	Counties   []string
	Countries  []string

	API APISpec
}

// Unit is one independently scraped slice of a source, typically a
// category x city crossing or a single region/county.
type Unit struct {
	Label string
	URL   string
	Value string
}

// Units expands the source's dimension lists into the units a strategy
// iterates. Categories and cities cross; regions, counties, and countries
// enumerate; a source with no dimensions yields a single unit.
func (s Source) Units() []Unit {
	switch {
	case len(s.Categories) > 0 && len(s.Cities) > 0:
		units := make([]Unit, 0, len(s.Categories)*len(s.Cities))
		for _, category := range s.Categories {
			for _, city := range s.Cities {
				units = append(units, Unit{
					Label: category + "/" + city,
					URL:   s.expandURL(map[string]string{"category": category, "city": city}),
					Value: category,
				})
			}
		}
		return units
	case len(s.Categories) > 0:
		return s.enumerate("category", s.Categories)
	case len(s.Regions) > 0:
		return s.enumerate("region", s.Regions)
	case len(s.Counties) > 0:
		return s.enumerate("county", s.Counties)
	case len(s.Countries) > 0:
		return s.enumerate("country", s.Countries)
	default:
		return []Unit{{Label: "all", URL: s.expandURL(nil)}}
	}
}

func (s Source) enumerate(placeholder string, values []string) []Unit {
	units := make([]Unit, 0, len(values))
	for _, v := range values {
		units = append(units, Unit{
			Label: v,
			URL:   s.expandURL(map[string]string{placeholder: v}),
			Value: v,
		})
	}
	return units
}

func (s Source) expandURL(values map[string]string) string {
	path := s.SearchPath
	for key, value := range values {
		path = strings.ReplaceAll(path, "{"+key+"}", escapeValue(value))
		if key == "city" {
			path = strings.ReplaceAll(path, "{city_lower}", escapeValue(strings.ToLower(value)))
		}
	}
	return s.BaseURL + path
}

func escapeValue(v string) string {
	return url.PathEscape(v)
}

// Strategy retrieves every listing a source offers. Implementations walk the
// source's units sequentially, recording per-unit failures without aborting
// the run; only resource-acquisition failures surface as errors.
type Strategy interface {
	Fetch(ctx context.Context, src Source) (Result, error)
}

// Result is what one strategy run produces: every extracted listing plus the
// per-unit outcomes, failed units included.
type Result struct {
	Listings []types.RawListing
	Units    []types.UnitResult
}

func (r *Result) record(unit Unit, listings []types.RawListing, err error) {
	res := types.UnitResult{Unit: unit.Label, Listings: len(listings)}
	if err != nil {
		res.Error = err.Error()
	}
	r.Units = append(r.Units, res)
	r.Listings = append(r.Listings, listings...)
}
