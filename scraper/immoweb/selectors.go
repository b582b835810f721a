package immoweb

import "regexp"

// Site markup. Everything that depends on the layout of immoweb.be lives
// here.
const (
	// resultLinkSelector matches the title link of each result card on a
	// search page.
	resultLinkSelector = "article.card.card--result div.card--result__body a.card__title-link"

	// classifiedSelector is the custom element carrying the listing JSON in
	// its classifiedAttr attribute.
	classifiedSelector = "iw-load-advertisements"
	classifiedAttr     = ":classified"

	headingSelector = "title, h1"

	// pageParam is the query parameter selecting a search results page.
	pageParam = "page"
)

// windowClassifiedRe matches the older inline-script form of the listing JSON.
var windowClassifiedRe = regexp.MustCompile(`(?s)window\.classified\s*=\s*(\{.*\})\s*;`)
