package source

import (
	"github.com/AdilYassar/companies-scrapper/internal/fetch"
	"github.com/AdilYassar/companies-scrapper/internal/normalize"
)

var (
	defaultCategories = []string{"informatica", "software", "web-design"}

	italianCities  = []string{"milano", "roma", "torino", "bologna", "firenze"}
	italianRegions = []string{"lombardia", "lazio", "piemonte", "emilia-romagna", "veneto"}

	romanianCategories = []string{"software", "IT", "consultanta-IT"}
	romanianCounties   = []string{"Bucuresti", "Cluj", "Timis", "Iasi", "Brasov"}
)

// Builtin returns the directory and registry adapters shipped with the
// scraper. Configuration can override dimensions and credentials but new
// sources require code: selectors are not expressible in YAML alone.
func Builtin() []Adapter {
	return []Adapter{
		pagineGialle(),
		registroImprese(),
		infocamere(),
		kompassItaly(),
		startupItalia(),
		listaFirme(),
		onrc(),
		anis(),
		kompassRomania(),
		crunchbase(),
	}
}

// pagineGialle is the main Italian yellow-pages directory. Server-rendered,
// category x city search paths, numeric page parameter.
func pagineGialle() Adapter {
	return Adapter{
		Rules: normalize.Italy,
		Source: fetch.Source{
			ID:         "pagine_gialle",
			Country:    "IT",
			Mode:       fetch.ModeStatic,
			BaseURL:    "https://www.paginegialle.it",
			SearchPath: "/ricerca/{category}/{city_lower}",
			PageParam:  "p",
			MaxPages:   5,
			Categories: defaultCategories,
			Cities:     italianCities,
			Selectors: fetch.Selectors{
				Listing:     ".search-itm",
				CompanyName: ".search-itm__rag",
				Phone:       ".search-itm__phone",
				Address:     ".search-itm__adr",
				Website:     ".search-itm__url a",
				Description: ".search-itm__dsc",
			},
		},
	}
}

// registroImprese is the official Italian business register front end, a
// JavaScript application searched per region.
func registroImprese() Adapter {
	return Adapter{
		Rules: normalize.Italy,
		Source: fetch.Source{
			ID:         "registro_imprese",
			Country:    "IT",
			Mode:       fetch.ModeRendered,
			BaseURL:    "https://www.registroimprese.it",
			SearchPath: "/ricerca?settore=J62&regione={region}",
			PageParam:  "pagina",
			MaxPages:   3,
			Regions:    italianRegions,
			Selectors: fetch.Selectors{
				Listing:            ".result-item",
				CompanyName:        ".company-name",
				TaxID:              ".piva",
				RegistrationNumber: ".rea",
				Address:            ".sede",
				LegalForm:          ".natura-giuridica",
				RegistrationDate:   ".data-iscrizione",
				ShareCapital:       ".capitale-sociale",
			},
			WaitSelectors: []string{".results-list", ".search-results", "[data-results]"},
		},
	}
}

// infocamere exposes the chamber-of-commerce data through a JSON API,
// queried per region.
func infocamere() Adapter {
	return Adapter{
		Rules: normalize.Italy,
		Source: fetch.Source{
			ID:       "infocamere",
			Country:  "IT",
			Mode:     fetch.ModeAPI,
			MaxPages: 10,
			Regions:  italianRegions,
			API: fetch.APISpec{
				Endpoint:       "https://api.infocamere.it/companies/search",
				Params:         map[string]string{"ateco": "62", "stato": "attiva"},
				PageSize:       50,
				DimensionParam: "regione",
			},
		},
	}
}

// kompassItaly is the Italian slice of the Kompass B2B directory.
func kompassItaly() Adapter {
	return Adapter{
		Rules: normalize.Italy,
		Source: fetch.Source{
			ID:         "kompass_italy",
			Country:    "IT",
			Mode:       fetch.ModeStatic,
			BaseURL:    "https://it.kompass.com",
			SearchPath: "/searchCompanies?text={category}&localization={city}",
			PageParam:  "page",
			MaxPages:   5,
			Categories: []string{"software", "informatica"},
			Cities:     italianCities,
			Selectors: fetch.Selectors{
				Listing:     ".prod_list",
				CompanyName: ".title a",
				Address:     ".address",
				Phone:       ".phone",
				Website:     ".website a",
				Description: ".activity",
			},
		},
	}
}

// startupItalia lists Italian startups; content arrives via JavaScript.
func startupItalia() Adapter {
	return Adapter{
		Rules: normalize.Italy,
		Source: fetch.Source{
			ID:         "startup_italia",
			Country:    "IT",
			Mode:       fetch.ModeRendered,
			BaseURL:    "https://startupitalia.eu",
			SearchPath: "/database?settore={category}",
			PageParam:  "page",
			MaxPages:   3,
			Categories: []string{"software", "fintech", "ai"},
			Selectors: fetch.Selectors{
				Listing:     ".startup-card",
				CompanyName: ".startup-name",
				City:        ".startup-city",
				Website:     ".startup-link a",
				Description: ".startup-description",
			},
			WaitSelectors: []string{".startup-grid", ".database-results"},
		},
	}
}

// listaFirme is the largest Romanian company directory, server-rendered and
// searched per category x county.
func listaFirme() Adapter {
	return Adapter{
		Rules: normalize.Romania,
		Source: fetch.Source{
			ID:         "listafirme",
			Country:    "RO",
			Mode:       fetch.ModeStatic,
			BaseURL:    "https://www.listafirme.ro",
			SearchPath: "/cauta?domeniu={category}&judet={county}",
			PageParam:  "pagina",
			MaxPages:   5,
			Categories: romanianCategories,
			Counties:   romanianCounties,
			Selectors: fetch.Selectors{
				Listing:            ".firma",
				CompanyName:        ".firma-nume a",
				TaxID:              ".firma-cui",
				RegistrationNumber: ".firma-regcom",
				Address:            ".firma-adresa",
				Phone:              ".firma-telefon",
				Description:        ".firma-obiect",
			},
		},
	}
}

// onrc is the Romanian national trade register, a JavaScript search
// application queried per county.
func onrc() Adapter {
	return Adapter{
		Rules: normalize.Romania,
		Source: fetch.Source{
			ID:         "onrc",
			Country:    "RO",
			Mode:       fetch.ModeRendered,
			BaseURL:    "https://portal.onrc.ro",
			SearchPath: "/cautare?caen=62&judet={county}",
			PageParam:  "pagina",
			MaxPages:   3,
			Counties:   romanianCounties,
			Selectors: fetch.Selectors{
				Listing:            ".rezultat",
				CompanyName:        ".denumire",
				TaxID:              ".cui",
				RegistrationNumber: ".nr-reg",
				Address:            ".sediu",
				LegalForm:          ".forma-juridica",
				RegistrationDate:   ".data-inreg",
			},
			WaitSelectors: []string{".rezultate-cautare", ".lista-rezultate"},
		},
	}
}

// anis is the member directory of the Romanian software industry
// association. Small and JavaScript-rendered; a single unit suffices.
func anis() Adapter {
	return Adapter{
		Rules: normalize.Romania,
		Source: fetch.Source{
			ID:         "anis",
			Country:    "RO",
			Mode:       fetch.ModeRendered,
			BaseURL:    "https://anis.ro",
			SearchPath: "/membri",
			MaxPages:   1,
			Selectors: fetch.Selectors{
				Listing:     ".member-card",
				CompanyName: ".member-name",
				Website:     ".member-website a",
				City:        ".member-city",
				Description: ".member-description",
			},
			WaitSelectors: []string{".members-grid", ".member-list"},
		},
	}
}

// kompassRomania is the Romanian slice of the Kompass B2B directory.
func kompassRomania() Adapter {
	return Adapter{
		Rules: normalize.Romania,
		Source: fetch.Source{
			ID:         "kompass_romania",
			Country:    "RO",
			Mode:       fetch.ModeStatic,
			BaseURL:    "https://ro.kompass.com",
			SearchPath: "/searchCompanies?text={category}&localization={city}",
			PageParam:  "page",
			MaxPages:   5,
			Categories: []string{"software", "IT"},
			Cities:     []string{"Bucuresti", "Cluj-Napoca", "Timisoara"},
			Selectors: fetch.Selectors{
				Listing:     ".prod_list",
				CompanyName: ".title a",
				Address:     ".address",
				Phone:       ".phone",
				Website:     ".website a",
				Description: ".activity",
			},
		},
	}
}

// crunchbase searches the platform API per country; the key comes from
// configuration. Records carry no registry fields, so generic rules apply
// and country is taken from the unit.
func crunchbase() Adapter {
	return Adapter{
		Rules: normalize.Generic,
		Source: fetch.Source{
			ID:        "crunchbase",
			Mode:      fetch.ModeAPI,
			MaxPages:  5,
			Countries: []string{"Italy", "Romania"},
			API: fetch.APISpec{
				Endpoint:       "https://api.crunchbase.com/api/v4/searches/organizations",
				Params:         map[string]string{"categories": "software"},
				PageSize:       50,
				DimensionParam: "location_identifiers",
			},
		},
	}
}
