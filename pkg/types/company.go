package types

import "time"

// RawListing is the verbatim field bag extracted from one listing element or
// API object. Fields may be absent or malformed; normalization decides what
// survives.
type RawListing struct {
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
	Employees          string
	Founded            string
	Revenue            string
	Technologies       []string
	Specialties        []string
	LinkedIn           string

	Country        string
	SourcePlatform string
	SourceURL      string
}

// Company is the canonical normalized record. The empty string means the
// field is absent; every populated field has passed its validation rule.
type Company struct {
	CompanyName        string   `json:"company_name"`
	LegalName          string   `json:"legal_name,omitempty"`
	TaxID              string   `json:"tax_id,omitempty"`
	RegistrationNumber string   `json:"registration_number,omitempty"`
	Website            string   `json:"website,omitempty"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Address            string   `json:"address,omitempty"`
	City               string   `json:"city,omitempty"`
	Description        string   `json:"description,omitempty"`
	Country            string   `json:"country"`
	SourcePlatform     string   `json:"source_platform,omitempty"`
	SourceURL          string   `json:"source_url,omitempty"`
	Industry           string   `json:"industry,omitempty"`
	LegalForm          string   `json:"legal_form,omitempty"`
	RegistrationDate   string   `json:"registration_date,omitempty"`
	ShareCapital       float64  `json:"share_capital,omitempty"`
	Technologies       []string `json:"technologies,omitempty"`
	Specialties        []string `json:"specialties,omitempty"`
	LinkedIn           string   `json:"linkedin,omitempty"`
	DataQualityScore   int      `json:"data_quality_score"`
}

// Clone returns a deep copy so merges never mutate their inputs.
func (c Company) Clone() Company {
	out := c
	if c.Technologies != nil {
		out.Technologies = append([]string(nil), c.Technologies...)
	}
	if c.Specialties != nil {
		out.Specialties = append([]string(nil), c.Specialties...)
	}
	return out
}

// UnitResult records the outcome of one unit of scraping work (a page, a
// category x city crossing, a region or county). Failed units are skipped,
// never escalated to a source-level failure.
type UnitResult struct {
	Unit     string `json:"unit"`
	Listings int    `json:"listings"`
	Error    string `json:"error,omitempty"`
}

// Failed reports whether the unit produced an error.
func (u UnitResult) Failed() bool { return u.Error != "" }

// RunSummary aggregates one source scrape: the normalized records plus the
// per-unit outcomes the pipeline continues past.
type RunSummary struct {
	Source      string       `json:"source"`
	Country     string       `json:"country"`
	Companies   []Company    `json:"-"`
	Units       []UnitResult `json:"units"`
	FailedUnits int          `json:"failed_units"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}

// DedupResult is the outcome of one deduplication pass. Duplicates counts
// the clusters that folded at least one record; Merged is the size of the
// output batch, so a batch with no duplicates reports merged == original.
type DedupResult struct {
	Original   int       `json:"original"`
	Duplicates int       `json:"duplicates"`
	Merged     int       `json:"merged"`
	Companies  []Company `json:"companies"`
}
