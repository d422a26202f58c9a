package fetch

import "testing"

func TestUnitsCrossCategoriesAndCities(t *testing.T) {
	src := Source{
		BaseURL:    "https://example.it",
		SearchPath: "/ricerca/{category}/{city_lower}",
		Categories: []string{"software", "informatica"},
		Cities:     []string{"Milano", "Roma"},
	}
	units := src.Units()
	if len(units) != 4 {
		t.Fatalf("expected 2x2 units, got %d", len(units))
	}
	if units[0].URL != "https://example.it/ricerca/software/milano" {
		t.Errorf("first unit URL = %q", units[0].URL)
	}
	if units[0].Label != "software/Milano" {
		t.Errorf("first unit label = %q", units[0].Label)
	}
}

func TestUnitsSingleDimension(t *testing.T) {
	src := Source{
		BaseURL:    "https://example.it",
		SearchPath: "/search?regione={region}",
		Regions:    []string{"lombardia", "lazio"},
	}
	units := src.Units()
	if len(units) != 2 {
		t.Fatalf("expected one unit per region, got %d", len(units))
	}
	if units[1].Value != "lazio" {
		t.Errorf("unit value = %q", units[1].Value)
	}
}

func TestUnitsNoDimensions(t *testing.T) {
	src := Source{BaseURL: "https://anis.ro", SearchPath: "/membri"}
	units := src.Units()
	if len(units) != 1 || units[0].URL != "https://anis.ro/membri" {
		t.Fatalf("dimensionless source should yield one unit: %+v", units)
	}
}

func TestUnitsEscapeValues(t *testing.T) {
	src := Source{
		BaseURL:    "https://example.ro",
		SearchPath: "/cauta?domeniu={category}",
		Categories: []string{"consultanta IT"},
	}
	units := src.Units()
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if units[0].URL != "https://example.ro/cauta?domeniu=consultanta%20IT" {
		t.Errorf("value should be escaped: %q", units[0].URL)
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base      string
		pageParam string
		page      int
		want      string
	}{
		{"https://example.it/list", "p", 1, "https://example.it/list"},
		{"https://example.it/list", "p", 3, "https://example.it/list?p=3"},
		{"https://example.it/list?q=x", "page", 2, "https://example.it/list?page=2&q=x"},
		{"https://example.it/list", "", 5, "https://example.it/list"},
	}
	for _, tt := range tests {
		if got := PageURL(tt.base, tt.pageParam, tt.page); got != tt.want {
			t.Errorf("PageURL(%q, %q, %d) = %q, want %q", tt.base, tt.pageParam, tt.page, got, tt.want)
		}
	}
}
