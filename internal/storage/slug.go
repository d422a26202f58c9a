package storage

import (
	"regexp"
	"strings"
)

var slugRE = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the stable upsert key for a company: the lower-cased name and
// country joined by hyphens. Re-scraping the same company always lands on
// the same row.
func Slug(name, country string) string {
	joined := strings.ToLower(strings.TrimSpace(name) + " " + strings.TrimSpace(country))
	slug := slugRE.ReplaceAllString(joined, "-")
	return strings.Trim(slug, "-")
}
