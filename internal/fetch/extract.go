package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// ParseListings extracts every listing matched by the source selectors from a
// parsed document. Listings without a usable company name are dropped here;
// everything else survives untouched for normalization to judge.
func ParseListings(doc *goquery.Document, src Source, sourceURL string) []types.RawListing {
	var listings []types.RawListing
	doc.Find(src.Selectors.Listing).Each(func(_ int, sel *goquery.Selection) {
		raw := extractListing(sel, src, sourceURL)
		if strings.TrimSpace(raw.CompanyName) == "" {
			return
		}
		listings = append(listings, raw)
	})
	return listings
}

func extractListing(sel *goquery.Selection, src Source, sourceURL string) types.RawListing {
	s := src.Selectors
	return types.RawListing{
		CompanyName:        selectText(sel, s.CompanyName),
		LegalName:          selectText(sel, s.LegalName),
		TaxID:              selectText(sel, s.TaxID),
		RegistrationNumber: selectText(sel, s.RegistrationNumber),
		Website:            selectHref(sel, s.Website),
		Email:              selectEmail(sel, s.Email),
		Phone:              selectPhone(sel, s.Phone),
		Address:            selectText(sel, s.Address),
		City:               selectText(sel, s.City),
		Description:        selectText(sel, s.Description),
		Industry:           selectText(sel, s.Industry),
		LegalForm:          selectText(sel, s.LegalForm),
		RegistrationDate:   selectText(sel, s.RegistrationDate),
		ShareCapital:       selectText(sel, s.ShareCapital),
		Country:            src.Country,
		SourcePlatform:     src.ID,
		SourceURL:          sourceURL,
	}
}

func selectText(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(sel.Find(selector).First().Text())
}

// selectHref prefers the href attribute so relative and display-text links
// both resolve to the real URL.
func selectHref(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	node := sel.Find(selector).First()
	if href, ok := node.Attr("href"); ok && strings.TrimSpace(href) != "" {
		return strings.TrimSpace(href)
	}
	return strings.TrimSpace(node.Text())
}

func selectEmail(sel *goquery.Selection, selector string) string {
	v := selectHref(sel, selector)
	return strings.TrimPrefix(v, "mailto:")
}

func selectPhone(sel *goquery.Selection, selector string) string {
	v := selectHref(sel, selector)
	return strings.TrimPrefix(v, "tel:")
}
