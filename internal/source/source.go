// Package source holds the registry of scrapeable directories and
// registries. Each adapter bundles a fetch descriptor with the country rule
// set its listings are normalized under.
package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AdilYassar/companies-scrapper/internal/config"
	"github.com/AdilYassar/companies-scrapper/internal/fetch"
	"github.com/AdilYassar/companies-scrapper/internal/normalize"
)

// ErrUnknownSource reports a source id the registry does not carry.
var ErrUnknownSource = errors.New("unknown source")

// Adapter pairs one source descriptor with its normalization rules.
type Adapter struct {
	Source fetch.Source
	Rules  normalize.CountryRules
}

// ID returns the adapter's source identifier.
func (a Adapter) ID() string { return a.Source.ID }

// Country returns the adapter's ISO country code, empty for multi-country
// platform sources.
func (a Adapter) Country() string { return a.Source.Country }

// Registry resolves source ids to adapters.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry builds a registry over the builtin adapters.
func NewRegistry() *Registry {
	return newRegistry(Builtin())
}

// NewRegistryFrom builds a registry over a custom adapter list. Duplicate
// ids keep the first registration.
func NewRegistryFrom(adapters []Adapter) *Registry {
	return newRegistry(adapters)
}

func newRegistry(adapters []Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		id := strings.ToLower(a.Source.ID)
		if _, dup := r.adapters[id]; dup {
			continue
		}
		r.adapters[id] = a
		r.order = append(r.order, id)
	}
	return r
}

// Lookup resolves a source id. Unknown ids are an error the caller surfaces
// immediately rather than a skipped unit.
func (r *Registry) Lookup(id string) (Adapter, error) {
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Adapter{}, fmt.Errorf("%w: %q", ErrUnknownSource, id)
	}
	return a, nil
}

// IDs lists every registered source id in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// ForCountry lists the adapters registered for an ISO country code.
func (r *Registry) ForCountry(country string) []Adapter {
	country = strings.ToUpper(strings.TrimSpace(country))
	var out []Adapter
	for _, id := range r.order {
		if a := r.adapters[id]; a.Country() == country {
			out = append(out, a)
		}
	}
	return out
}

// Configure applies per-source overrides from configuration: dimension
// lists, page caps, and API keys. Unknown ids fail loudly so a typo in the
// config never silently scrapes defaults.
func (r *Registry) Configure(overrides []config.SourceOptions) error {
	for _, opt := range overrides {
		id := strings.ToLower(strings.TrimSpace(opt.ID))
		a, ok := r.adapters[id]
		if !ok {
			return fmt.Errorf("%w: %q in sources config", ErrUnknownSource, opt.ID)
		}
		if len(opt.Cities) > 0 {
			a.Source.Cities = append([]string(nil), opt.Cities...)
		}
		if len(opt.Regions) > 0 {
			a.Source.Regions = append([]string(nil), opt.Regions...)
		}
		if len(opt.Counties) > 0 {
			a.Source.Counties = append([]string(nil), opt.Counties...)
		}
		if len(opt.Categories) > 0 {
			a.Source.Categories = append([]string(nil), opt.Categories...)
		}
		if opt.MaxPages > 0 {
			a.Source.MaxPages = opt.MaxPages
		}
		if strings.TrimSpace(opt.APIKey) != "" {
			a.Source.API.APIKey = strings.TrimSpace(opt.APIKey)
		}
		r.adapters[id] = a
	}
	return nil
}

// Countries lists the distinct country codes covered by the registry.
func (r *Registry) Countries() []string {
	seen := make(map[string]struct{})
	for _, a := range r.adapters {
		if c := a.Country(); c != "" {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
