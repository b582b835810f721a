package immoweb

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkExtractor pulls listing URLs out of a search results page.
type LinkExtractor struct {
	selector string
}

// NewLinkExtractor returns an extractor for the result-card layout.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{selector: resultLinkSelector}
}

// Extract returns the listing URLs on p in document order. A page without
// result cards yields an empty, non-nil slice.
func (e *LinkExtractor) Extract(p *Page) []string {
	links := make([]string, 0)
	if p == nil || p.Doc == nil {
		return links
	}

	p.Doc.Find(e.selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		links = append(links, p.Resolve(href))
	})
	return links
}

// ExtractLinks parses body and extracts its links. Markup that cannot be
// parsed yields zero links together with the parse error, for logging.
func (e *LinkExtractor) ExtractLinks(pageURL string, body []byte) ([]string, error) {
	p, err := ParsePage(pageURL, body)
	if err != nil {
		return []string{}, err
	}
	return e.Extract(p), nil
}
