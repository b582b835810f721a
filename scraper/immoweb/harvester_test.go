package immoweb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"testing"
	"time"

	"immoweb-scraper/utils"
)

// pageOf returns the page parameter of raw, or -1. Called from workers.
func pageOf(raw string) int {
	u, err := url.Parse(raw)
	if err != nil {
		return -1
	}
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil {
		return -1
	}
	return n
}

func TestPageURL(t *testing.T) {
	got, err := PageURL(testSearchURL, 7)
	if err != nil {
		t.Fatalf("PageURL: %v", err)
	}
	u, _ := url.Parse(got)
	if u.Query().Get("page") != "7" {
		t.Errorf("page: got %q, want 7", u.Query().Get("page"))
	}
	if u.Query().Get("countries") != "BE" {
		t.Errorf("existing query lost: %s", got)
	}

	again, _ := PageURL(got, 8)
	if n := len(mustQuery(t, again)["page"]); n != 1 {
		t.Errorf("page param should be replaced, found %d values", n)
	}
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u.Query()
}

func TestHarvestOnePageFails(t *testing.T) {
	const failing = 42
	f := newFakeFetcher()
	f.fallback = func(raw string) ([]byte, error) {
		page := pageOf(raw)
		if page == failing {
			return nil, &FetchError{URL: raw, Err: context.DeadlineExceeded}
		}
		return searchPage(fmt.Sprintf("/en/classified/%d", page)), nil
	}

	h := NewHarvester(f, NewLinkExtractor(), 10, 0, utils.NewDiscardLogger())
	res, err := h.Harvest(context.Background(), testSearchURL, 1, 333)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	if res.Scheduled != 333 {
		t.Errorf("scheduled: got %d, want 333", res.Scheduled)
	}
	if res.Succeeded != 332 || res.Failed != 1 {
		t.Errorf("succeeded/failed: got %d/%d, want 332/1", res.Succeeded, res.Failed)
	}
	if len(res.FailedPages) != 1 || res.FailedPages[0] != failing {
		t.Errorf("failed pages: got %v, want [%d]", res.FailedPages, failing)
	}
	if len(res.Links) != 332 {
		t.Fatalf("links: got %d, want 332", len(res.Links))
	}

	pages := make([]int, 0, len(res.Links))
	for _, l := range res.Links {
		var n int
		if _, err := fmt.Sscanf(l, "https://www.immoweb.be/en/classified/%d", &n); err != nil {
			t.Fatalf("unexpected link %q", l)
		}
		pages = append(pages, n)
	}
	sort.Ints(pages)
	for i, want := 0, 1; i < len(pages); i, want = i+1, want+1 {
		if want == failing {
			want++
		}
		if pages[i] != want {
			t.Fatalf("links from page %d missing", want)
		}
	}
	if f.callCount() != 333 {
		t.Errorf("fetches: got %d, want 333", f.callCount())
	}
}

func TestHarvestBoundsConcurrency(t *testing.T) {
	f := newFakeFetcher()
	f.delay = 5 * time.Millisecond
	f.fallback = func(string) ([]byte, error) { return searchPage(), nil }

	h := NewHarvester(f, NewLinkExtractor(), 3, 0, utils.NewDiscardLogger())
	res, err := h.Harvest(context.Background(), testSearchURL, 1, 20)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	if got := f.maxInFlight.Load(); got > 3 {
		t.Errorf("max concurrent fetches: got %d, want <= 3", got)
	}
	if res.Succeeded != 20 {
		t.Errorf("succeeded: got %d, want 20", res.Succeeded)
	}
	if res.Links == nil || len(res.Links) != 0 {
		t.Errorf("links: got %v, want empty", res.Links)
	}
}

func TestHarvestEmptyRange(t *testing.T) {
	f := newFakeFetcher()
	h := NewHarvester(f, NewLinkExtractor(), 2, 0, utils.NewDiscardLogger())

	res, err := h.Harvest(context.Background(), testSearchURL, 5, 4)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if res.Scheduled != 0 || f.callCount() != 0 {
		t.Errorf("scheduled %d, fetched %d, want nothing", res.Scheduled, f.callCount())
	}
}

func TestHarvestRecoversFromPanic(t *testing.T) {
	f := newFakeFetcher()
	f.fallback = func(raw string) ([]byte, error) {
		if pageOf(raw) == 2 {
			panic("boom")
		}
		return searchPage("/en/classified/1"), nil
	}

	h := NewHarvester(f, NewLinkExtractor(), 2, 0, utils.NewDiscardLogger())
	res, err := h.Harvest(context.Background(), testSearchURL, 1, 3)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if res.Failed != 1 || res.Succeeded != 2 {
		t.Errorf("succeeded/failed: got %d/%d, want 2/1", res.Succeeded, res.Failed)
	}
}

func TestHarvestBadSearchURL(t *testing.T) {
	h := NewHarvester(newFakeFetcher(), NewLinkExtractor(), 1, 0, utils.NewDiscardLogger())
	if _, err := h.Harvest(context.Background(), "://bad", 1, 1); err == nil {
		t.Fatal("expected error for unparseable search url")
	}
}

func TestHarvestFailedFetchIsFetchError(t *testing.T) {
	f := newFakeFetcher()
	h := NewHarvester(f, NewLinkExtractor(), 1, 0, utils.NewDiscardLogger())

	_, err := h.harvestPage(context.Background(), testSearchURL, 1)
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 404 {
		t.Errorf("expected 404 FetchError, got %v", err)
	}
}

// brokenPages fails to read the markup of the listed pages.
type brokenPages struct {
	broken map[int]bool
}

func (b brokenPages) ExtractLinks(pageURL string, body []byte) ([]string, error) {
	if b.broken[pageOf(pageURL)] {
		return nil, errors.New("unexpected markup")
	}
	return NewLinkExtractor().ExtractLinks(pageURL, body)
}

func TestHarvestCountsUnparsedPages(t *testing.T) {
	f := newFakeFetcher()
	f.fallback = func(raw string) ([]byte, error) {
		return searchPage(fmt.Sprintf("/en/classified/%d", pageOf(raw))), nil
	}

	h := NewHarvester(f, brokenPages{broken: map[int]bool{2: true}}, 2, 0, utils.NewDiscardLogger())
	res, err := h.Harvest(context.Background(), testSearchURL, 1, 3)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if res.Scheduled != 3 || res.Succeeded != 2 || res.Unparsed != 1 || res.Failed != 0 {
		t.Errorf("scheduled/ok/unparsed/failed: got %d/%d/%d/%d, want 3/2/1/0",
			res.Scheduled, res.Succeeded, res.Unparsed, res.Failed)
	}
	if len(res.Links) != 2 {
		t.Errorf("links: got %d, want 2", len(res.Links))
	}

	_, err = h.harvestPage(context.Background(), testSearchURL, 2)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected ParseError, got %v", err)
	}
}
