package immoweb

import "strings"

// SaleRule assigns Label when the listing's Flag is true or, failing any
// flag match, when one of Keywords appears in the page headings.
type SaleRule struct {
	Label    string
	Flag     string
	Keywords []string
}

// saleKeywords are heading phrases (en/fr/nl) for the categories that are
// also announced in listing titles.
var saleKeywords = map[string][]string{
	"PublicSale":      {"public sale", "vente publique", "openbare verkoop"},
	"NotarySale":      {"notary sale", "vente notariale", "notariële verkoop"},
	"LifeAnnuitySale": {"life annuity", "viager", "lijfrente"},
	"AnInteractiveSale": {
		"interactive sale", "vente interactive", "interactieve verkoop",
	},
}

// RulesFromFlags builds one rule per flag, in order. The label is the flag
// name without its leading "is".
func RulesFromFlags(flags []string) []SaleRule {
	rules := make([]SaleRule, 0, len(flags))
	for _, flag := range flags {
		label := strings.TrimPrefix(flag, "is")
		rules = append(rules, SaleRule{Label: label, Flag: flag, Keywords: saleKeywords[label]})
	}
	return rules
}

// SaleClassifier maps a listing page to exactly one sale category.
type SaleClassifier struct {
	rules    []SaleRule
	fallback string
}

// NewSaleClassifier creates a classifier. fallback is returned when no rule
// matches.
func NewSaleClassifier(rules []SaleRule, fallback string) *SaleClassifier {
	return &SaleClassifier{rules: rules, fallback: fallback}
}

// Classify returns the first rule whose flag is set; when no flag is set, the
// first rule with a keyword in the page headings; otherwise the fallback.
// It only reads p.
func (c *SaleClassifier) Classify(p *Page) string {
	payload, _ := p.payload()
	for _, r := range c.rules {
		if r.Flag != "" && payload.flag(r.Flag) {
			return r.Label
		}
	}

	headings := p.HeadingText()
	if headings == "" {
		return c.fallback
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(headings, strings.ToLower(kw)) {
				return r.Label
			}
		}
	}
	return c.fallback
}

// Labels returns the closed set of categories Classify can return.
func (c *SaleClassifier) Labels() []string {
	seen := make(map[string]bool, len(c.rules)+1)
	labels := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		if !seen[r.Label] {
			seen[r.Label] = true
			labels = append(labels, r.Label)
		}
	}
	if !seen[c.fallback] {
		labels = append(labels, c.fallback)
	}
	return labels
}
