package immoweb

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const testSearchURL = "https://www.immoweb.be/en/search/house/for-sale?countries=BE&orderBy=relevance"

// searchPage renders a results page with one card per href.
func searchPage(hrefs ...string) []byte {
	var b strings.Builder
	b.WriteString("<html><head><title>Search</title></head><body><main>")
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<article class="card card--result">
			<div class="card--result__body">
				<h2><a class="card__title-link" href="%s">House</a></h2>
			</div>
		</article>`, href)
	}
	b.WriteString(`<a class="card__title-link" href="/en/not-a-result">ad</a>`)
	b.WriteString("</main></body></html>")
	return []byte(b.String())
}

// listingPage renders a detail page carrying payload in the classified
// attribute.
func listingPage(title, payload string) []byte {
	return []byte(fmt.Sprintf(`<html><head><title>%s</title></head><body>
		<h1>%s</h1>
		<iw-load-advertisements :classified="%s"></iw-load-advertisements>
	</body></html>`, title, title, html.EscapeString(payload)))
}

const fullPayload = `{
	"id": 10950001,
	"property": {
		"type": "HOUSE",
		"subtype": "VILLA",
		"bedroomCount": 4,
		"bathroomCount": "2",
		"netHabitableSurface": 210,
		"location": {
			"locality": "Ixelles",
			"postalCode": "1050",
			"street": "Avenue Louise",
			"number": 120,
			"box": null
		},
		"building": {"constructionYear": 1930, "condition": "GOOD", "facadeCount": 2},
		"land": {"surface": 340.5},
		"kitchen": {"type": "HYPER_EQUIPPED"},
		"hasGarden": true,
		"hasTerrace": false
	},
	"transaction": {
		"type": "FOR_SALE",
		"sale": {"price": 895000},
		"certificates": {"epcScore": "C"}
	},
	"flags": {"isPublicSale": false, "isNotarySale": false, "isNewlyBuilt": false}
}`

type fakeResponse struct {
	body []byte
	err  error
}

// fakeFetcher serves canned responses and records how many fetches ran at
// once.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	fallback  func(url string) ([]byte, error)
	calls     []string
	delay     time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]fakeResponse)}
}

func (f *fakeFetcher) set(url string, body []byte, err error) {
	f.responses[url] = fakeResponse{body: body, err: err}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, url)
	resp, ok := f.responses[url]
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if ok {
		return resp.body, resp.err
	}
	if f.fallback != nil {
		return f.fallback(url)
	}
	return nil, &FetchError{URL: url, StatusCode: 404, Err: errUnexpectedStatus}
}

func (f *fakeFetcher) Close() error { return nil }

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func mustParse(url string, body []byte) *Page {
	p, err := ParsePage(url, body)
	if err != nil {
		panic(err)
	}
	return p
}
