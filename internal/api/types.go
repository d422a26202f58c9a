package api

import (
	"github.com/AdilYassar/companies-scrapper/internal/pipeline"
	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// ScrapeRequest starts a scrape job over explicit source ids or every
// source of a country. The optional overrides narrow that job only; the
// registry configuration is untouched.
type ScrapeRequest struct {
	Sources  []string `json:"sources,omitempty"`
	Country  string   `json:"country,omitempty"`
	Cities   []string `json:"cities,omitempty"`
	Regions  []string `json:"regions,omitempty"`
	Counties []string `json:"counties,omitempty"`
	MaxPages int      `json:"max_pages,omitempty"`
}

// Options converts the request overrides into per-run options.
func (r ScrapeRequest) Options() pipeline.RunOptions {
	return pipeline.RunOptions{
		Cities:   r.Cities,
		Regions:  r.Regions,
		Counties: r.Counties,
		MaxPages: r.MaxPages,
	}
}

// DedupRequest runs a pure deduplication pass over the posted batch.
type DedupRequest struct {
	Companies []types.Company `json:"companies"`
}

// SourceInfo describes one registered source for discovery.
type SourceInfo struct {
	ID      string `json:"id"`
	Country string `json:"country,omitempty"`
	Mode    string `json:"mode"`
}
