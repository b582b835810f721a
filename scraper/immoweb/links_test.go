package immoweb

import (
	"testing"
)

func TestExtractLinks(t *testing.T) {
	pageURL := "https://www.immoweb.be/en/search/house/for-sale?page=3"
	body := searchPage(
		"https://www.immoweb.be/en/classified/house/for-sale/ixelles/1050/10950001",
		"/en/classified/villa/for-sale/uccle/1180/10950002",
	)

	links, err := NewLinkExtractor().ExtractLinks(pageURL, body)
	if err != nil {
		t.Fatalf("ExtractLinks: %v", err)
	}

	want := []string{
		"https://www.immoweb.be/en/classified/house/for-sale/ixelles/1050/10950001",
		"https://www.immoweb.be/en/classified/villa/for-sale/uccle/1180/10950002",
	}
	if len(links) != len(want) {
		t.Fatalf("links: got %d, want %d (%v)", len(links), len(want), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d]: got %q, want %q", i, links[i], want[i])
		}
	}
}

func TestExtractLinksEmptyPage(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"no cards", searchPage()},
		{"empty body", nil},
		{"not html", []byte("{\"error\": true}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, _ := NewLinkExtractor().ExtractLinks("https://www.immoweb.be/en/search", tt.body)
			if links == nil {
				t.Fatal("expected empty slice, got nil")
			}
			if len(links) != 0 {
				t.Errorf("links: got %d, want 0", len(links))
			}
		})
	}
}

func TestExtractSkipsCardsWithoutHref(t *testing.T) {
	body := []byte(`<article class="card card--result"><div class="card--result__body">
		<a class="card__title-link">no href</a>
		<a class="card__title-link" href="  ">blank</a>
	</div></article>`)

	p := mustParse("https://www.immoweb.be/en/search", body)
	if links := NewLinkExtractor().Extract(p); len(links) != 0 {
		t.Errorf("links: got %v, want none", links)
	}
	if links := NewLinkExtractor().Extract(nil); links == nil || len(links) != 0 {
		t.Errorf("nil page: got %v", links)
	}
}
