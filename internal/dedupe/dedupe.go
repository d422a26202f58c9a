package dedupe

import (
	"log/slog"
	"strings"

	"github.com/AdilYassar/companies-scrapper/internal/normalize"
	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// Sentinel values marking a record assembled from multiple sources.
const (
	mergedPlatform  = "merged"
	mergedSourceURL = "multiple_sources"
)

// Process deduplicates a batch. Input order is preserved: the first record
// of each duplicate cluster stays in place as the merge target; later
// duplicates fold into it. Candidates are always compared against the
// pristine primary of each cluster, so fields adopted from an earlier
// duplicate never widen the cluster. Inputs are never mutated.
//
// In the result, Duplicates counts the clusters that folded at least one
// record and Merged is the size of the output batch.
func Process(companies []types.Company, logger *slog.Logger) types.DedupResult {
	if logger == nil {
		logger = slog.Default()
	}

	result := types.DedupResult{Original: len(companies)}
	if len(companies) == 0 {
		result.Companies = []types.Company{}
		return result
	}

	kept := make([]types.Company, 0, len(companies))
	primaries := make([]types.Company, 0, len(companies))
	clustered := make(map[int]bool)

	for _, candidate := range companies {
		matched := -1
		for i := range primaries {
			if Match(primaries[i], candidate) {
				matched = i
				break
			}
		}
		if matched < 0 {
			kept = append(kept, candidate.Clone())
			primaries = append(primaries, candidate.Clone())
			continue
		}

		kept[matched] = Merge(kept[matched], candidate)
		if !clustered[matched] {
			clustered[matched] = true
			result.Duplicates++
		}
	}

	result.Companies = kept
	result.Merged = len(kept)
	logger.Info("deduplication complete",
		"original", result.Original,
		"merged", result.Merged,
		"duplicates", result.Duplicates,
	)
	return result
}

// Merge folds a duplicate into the primary record. The primary's populated
// fields always win; its gaps fill from the duplicate. List fields union,
// the provenance sentinels mark the record as assembled, and the quality
// score is recomputed for the combined record.
func Merge(primary, duplicate types.Company) types.Company {
	out := primary.Clone()

	fillString(&out.CompanyName, duplicate.CompanyName)
	fillString(&out.LegalName, duplicate.LegalName)
	fillString(&out.TaxID, duplicate.TaxID)
	fillString(&out.RegistrationNumber, duplicate.RegistrationNumber)
	fillString(&out.Website, duplicate.Website)
	fillString(&out.Email, duplicate.Email)
	fillString(&out.Phone, duplicate.Phone)
	fillString(&out.Address, duplicate.Address)
	fillString(&out.City, duplicate.City)
	fillString(&out.Description, duplicate.Description)
	fillString(&out.Country, duplicate.Country)
	fillString(&out.Industry, duplicate.Industry)
	fillString(&out.LegalForm, duplicate.LegalForm)
	fillString(&out.RegistrationDate, duplicate.RegistrationDate)
	fillString(&out.LinkedIn, duplicate.LinkedIn)
	if out.ShareCapital == 0 {
		out.ShareCapital = duplicate.ShareCapital
	}

	out.Technologies = unionList(out.Technologies, duplicate.Technologies)
	out.Specialties = unionList(out.Specialties, duplicate.Specialties)

	out.SourcePlatform = mergedPlatform
	out.SourceURL = mergedSourceURL

	out.DataQualityScore = normalize.QualityScore(out)
	return out
}

func fillString(dst *string, src string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
		*dst = src
	}
}

func unionList(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string(nil), a...), b...) {
		v = strings.TrimSpace(v)
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
	return out
}
