package normalize

import "strings"

type industryRule struct {
	label    string
	keywords []string
}

// Keyword sets cover both English and the Italian/Romanian terms the
// directories use.
var industryRules = []industryRule{
	{"Software Development", []string{"software", "sviluppo", "dezvoltare"}},
	{"IT Outsourcing", []string{"outsourcing", "externalizare"}},
	{"IT Consulting", []string{"consulenza", "consultanta", "consulting"}},
	{"Web Development", []string{"web", "digital"}},
	{"Mobile Development", []string{"mobile", "app"}},
}

// ClassifyIndustry keyword-matches the combined name and description.
// Defaults to "IT Services" when nothing matches.
func ClassifyIndustry(name, description string) string {
	text := strings.ToLower(name + " " + description)
	for _, rule := range industryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.label
			}
		}
	}
	return "IT Services"
}
