package normalize

import (
	"strings"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// Placeholder text some directories emit instead of an empty field; it never
// counts toward completeness.
const notListedSentinel = "not publicly listed"

// QualityScore computes the 0-100 field-completeness score used for scraped
// records. Deterministic in which fields are populated; callers must never
// hand-set the score.
func QualityScore(c types.Company) int {
	score := 0
	if fieldPresent(c.CompanyName) {
		score += 20
	}
	if fieldPresent(c.TaxID) {
		score += 15
	}
	if fieldPresent(c.Website) {
		score += 15
	}
	if fieldPresent(c.Email) {
		score += 15
	}
	if fieldPresent(c.Phone) {
		score += 10
	}
	if fieldPresent(c.Address) {
		score += 10
	}
	if fieldPresent(c.City) {
		score += 10
	}
	if fieldPresent(c.Description) {
		score += 5
	}
	return clampScore(score)
}

// ImportScore is the scorer used for manually imported records, which carry
// technology/specialty tags and a LinkedIn URL instead of registry fields.
func ImportScore(c types.Company) int {
	score := 0
	if fieldPresent(c.CompanyName) {
		score += 20
	}
	if fieldPresent(c.Website) {
		score += 15
	}
	if fieldPresent(c.Email) {
		score += 15
	}
	if fieldPresent(c.City) {
		score += 10
	}
	if fieldPresent(c.Address) {
		score += 10
	}
	if len(c.Technologies) > 0 {
		score += 10
	}
	if len(c.Specialties) > 0 {
		score += 10
	}
	if fieldPresent(c.LinkedIn) {
		score += 10
	}
	return clampScore(score)
}

func fieldPresent(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	return !strings.EqualFold(v, notListedSentinel)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
