// Package dedupe finds and merges records describing the same company across
// sources. Matching blends name, tax-id, website, and address similarity;
// merging keeps the primary record and fills its gaps from the duplicate.
package dedupe

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/xrash/smetrics"

	"golang.org/x/net/publicsuffix"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// Two records at or above this score are the same company.
const matchThreshold = 0.8

// Component weights for the blended score. Renormalized over whichever
// signals both records actually carry.
const (
	weightName    = 0.4
	weightTaxID   = 0.3
	weightWebsite = 0.2
	weightAddress = 0.1
)

var (
	legalFormRE   = regexp.MustCompile(`\b(srl|spa|sa|pfa|snc|sas|inc|ltd|llc|corp|corporation)\b\.?`)
	punctuationRE = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	digitsRE      = regexp.MustCompile(`[^0-9]`)
	spaceRE       = regexp.MustCompile(`\s+`)
)

// Similarity scores two companies in [0, 1]. Identical tax ids short-circuit
// to 1.0; otherwise the available signals blend with renormalized weights.
func Similarity(a, b types.Company) float64 {
	if ta, tb := digitsOnly(a.TaxID), digitsOnly(b.TaxID); ta != "" && ta == tb {
		return 1.0
	}

	var score, total float64

	if a.CompanyName != "" && b.CompanyName != "" {
		score += weightName * NameSimilarity(a.CompanyName, b.CompanyName)
		total += weightName
	}
	if a.TaxID != "" && b.TaxID != "" {
		score += weightTaxID * taxIDSimilarity(a.TaxID, b.TaxID)
		total += weightTaxID
	}
	if a.Website != "" && b.Website != "" {
		score += weightWebsite * websiteSimilarity(a.Website, b.Website)
		total += weightWebsite
	}
	if a.Address != "" && b.Address != "" {
		score += weightAddress * addressSimilarity(a.Address, b.Address)
		total += weightAddress
	}

	if total == 0 {
		return 0
	}
	return score / total
}

// Match reports whether two companies clear the duplicate threshold.
func Match(a, b types.Company) bool {
	return Similarity(a, b) >= matchThreshold
}

// NameSimilarity blends character bigram overlap, word overlap, and edit
// distance over legal-form-stripped names. Robust against "S.R.L." suffixes
// and small spelling drift between directories.
func NameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return 0.4*diceBigrams(na, nb) + 0.3*wordJaccard(na, nb) + 0.3*editSimilarity(na, nb)
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = legalFormRE.ReplaceAllString(name, " ")
	name = punctuationRE.ReplaceAllString(name, " ")
	return spaceRE.ReplaceAllString(strings.TrimSpace(name), " ")
}

func diceBigrams(a, b string) float64 {
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	var shared int
	for gram, count := range ba {
		if other, ok := bb[gram]; ok {
			if other < count {
				count = other
			}
			shared += count
		}
	}
	var sizeA, sizeB int
	for _, c := range ba {
		sizeA += c
	}
	for _, c := range bb {
		sizeB += c
	}
	return 2 * float64(shared) / float64(sizeA+sizeB)
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

func wordJaccard(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	var shared int
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}
	union := len(wa) + len(wb) - shared
	return float64(shared) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func editSimilarity(a, b string) float64 {
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	distance := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(distance)/float64(longest)
}

// taxIDSimilarity compares non-identical tax ids: same digits score 1.0, a
// substring relation (one registry includes the country prefix, another a
// check digit) scores 0.8.
func taxIDSimilarity(a, b string) float64 {
	da, db := digitsOnly(a), digitsOnly(b)
	if da == "" || db == "" {
		return 0
	}
	if da == db {
		return 1.0
	}
	if strings.Contains(da, db) || strings.Contains(db, da) {
		return 0.8
	}
	return 0
}

func digitsOnly(s string) string {
	return digitsRE.ReplaceAllString(s, "")
}

// websiteSimilarity compares registrable domains so www.example.it and
// example.it count as the same site.
func websiteSimilarity(a, b string) float64 {
	da, db := registrableDomain(a), registrableDomain(b)
	if da == "" || db == "" {
		return 0
	}
	if da == db {
		return 1.0
	}
	return 0
}

func registrableDomain(rawurl string) string {
	rawurl = strings.TrimSpace(rawurl)
	if rawurl == "" {
		return ""
	}
	if !strings.Contains(rawurl, "://") {
		rawurl = "https://" + rawurl
	}
	u, err := url.Parse(rawurl)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	return host
}

// addressSimilarity is a word-level Jaccard over lower-cased addresses.
// Street spellings vary too much across directories for anything stricter.
func addressSimilarity(a, b string) float64 {
	na := punctuationRE.ReplaceAllString(strings.ToLower(a), " ")
	nb := punctuationRE.ReplaceAllString(strings.ToLower(b), " ")
	return wordJaccard(na, nb)
}
