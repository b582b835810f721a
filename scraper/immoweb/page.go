package immoweb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

var errNoClassified = errors.New("no classified payload in page")

// Page is a fetched document, parsed once and shared by the link extractor,
// the detail extractor and the sale classifier.
type Page struct {
	URL *url.URL
	Doc *goquery.Document

	once          sync.Once
	classified    *classified
	classifiedErr error
}

// ParsePage parses raw HTML fetched from pageURL.
func ParsePage(pageURL string, body []byte) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}
	return &Page{URL: u, Doc: doc}, nil
}

// Resolve turns href into an absolute URL relative to the page.
func (p *Page) Resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil || p.URL == nil {
		return href
	}
	return p.URL.ResolveReference(ref).String()
}

// String returns the page URL.
func (p *Page) String() string {
	if p.URL == nil {
		return ""
	}
	return p.URL.String()
}

// HeadingText returns the lower-cased text of the title and h1 elements.
func (p *Page) HeadingText() string {
	if p == nil || p.Doc == nil {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(p.Doc.Find(headingSelector).Text()), " "))
}

// payload returns the listing JSON embedded in a detail page, decoded once
// per page.
func (p *Page) payload() (*classified, error) {
	if p == nil || p.Doc == nil {
		return nil, errNoClassified
	}
	p.once.Do(func() {
		p.classified, p.classifiedErr = p.decodeClassified()
	})
	return p.classified, p.classifiedErr
}

func (p *Page) decodeClassified() (*classified, error) {
	raw, ok := p.Doc.Find(classifiedSelector).First().Attr(classifiedAttr)
	if !ok || strings.TrimSpace(raw) == "" {
		p.Doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := windowClassifiedRe.FindStringSubmatch(s.Text()); m != nil {
				raw, ok = m[1], true
				return false
			}
			return true
		})
	}
	if !ok {
		return nil, &ParseError{URL: p.String(), Err: errNoClassified}
	}

	var c classified
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, &ParseError{URL: p.String(), Err: fmt.Errorf("decode classified: %w", err)}
		}
		// A mistyped field leaves only that field empty.
	}
	return &c, nil
}

// classified mirrors the subset of the listing JSON that is extracted.
type classified struct {
	ID          flexString       `json:"id"`
	Property    *propertyJSON    `json:"property"`
	Transaction *transactionJSON `json:"transaction"`
	Flags       map[string]any   `json:"flags"`
}

type propertyJSON struct {
	Type                flexString    `json:"type"`
	Subtype             flexString    `json:"subtype"`
	BedroomCount        flexNumber    `json:"bedroomCount"`
	BathroomCount       flexNumber    `json:"bathroomCount"`
	NetHabitableSurface flexNumber    `json:"netHabitableSurface"`
	Location            *locationJSON `json:"location"`
	Building            *struct {
		ConstructionYear flexNumber `json:"constructionYear"`
		Condition        flexString `json:"condition"`
		FacadeCount      flexNumber `json:"facadeCount"`
	} `json:"building"`
	Land *struct {
		Surface flexNumber `json:"surface"`
	} `json:"land"`
	Kitchen *struct {
		Type flexString `json:"type"`
	} `json:"kitchen"`
	HasGarden       *bool `json:"hasGarden"`
	HasTerrace      *bool `json:"hasTerrace"`
	HasSwimmingPool *bool `json:"hasSwimmingPool"`
}

type locationJSON struct {
	Locality   flexString `json:"locality"`
	PostalCode flexString `json:"postalCode"`
	Street     flexString `json:"street"`
	Number     flexString `json:"number"`
	Box        flexString `json:"box"`
}

type transactionJSON struct {
	Type flexString `json:"type"`
	Sale *struct {
		Price flexNumber `json:"price"`
	} `json:"sale"`
	Certificates *struct {
		EPCScore flexString `json:"epcScore"`
	} `json:"certificates"`
}

// identified reports whether the payload names a listing: an id, a property
// type or a location.
func (c *classified) identified() bool {
	if c == nil {
		return false
	}
	if c.ID.valid {
		return true
	}
	return c.Property != nil && (c.Property.Type.valid || c.Property.Location != nil)
}

// flag reports whether the named boolean flag is set to true.
func (c *classified) flag(name string) bool {
	if c == nil {
		return false
	}
	b, ok := c.Flags[name].(bool)
	return ok && b
}

// flexString accepts a JSON string or a scalar literal. The site is not
// consistent about postal codes and house numbers. Objects and arrays are
// ignored.
type flexString struct {
	v     string
	valid bool
}

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" || b[0] == '{' || b[0] == '[' {
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString{v: v, valid: true}
		return nil
	}
	*s = flexString{v: string(b), valid: true}
	return nil
}

func (s flexString) ptr() *string {
	if !s.valid {
		return nil
	}
	v := s.v
	return &v
}

// flexNumber accepts a JSON number or a numeric string. Anything else
// leaves it unset.
type flexNumber struct {
	v     float64
	valid bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(string(b), `"`)), 64)
	if err != nil {
		return nil
	}
	*n = flexNumber{v: f, valid: true}
	return nil
}

func (n flexNumber) ptr() *float64 {
	if !n.valid {
		return nil
	}
	v := n.v
	return &v
}
