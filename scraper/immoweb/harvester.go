package immoweb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"immoweb-scraper/utils"
)

// HarvestResult is the outcome of harvesting one page range.
type HarvestResult struct {
	// Links in arrival order, not page order.
	Links       []string
	Scheduled   int
	Succeeded   int
	Failed      int
	FailedPages []int
	// Unparsed pages were fetched but their markup could not be read.
	Unparsed int
}

// PageLinks extracts listing links from a fetched search page.
type PageLinks interface {
	ExtractLinks(pageURL string, body []byte) ([]string, error)
}

// Harvester fans a range of search pages out to a bounded worker pool.
type Harvester struct {
	fetcher     Fetcher
	links       PageLinks
	poolSize    int
	rateLimitMs int
	logger      *utils.Logger
}

// NewHarvester creates a Harvester running at most poolSize fetches at once.
func NewHarvester(fetcher Fetcher, links PageLinks, poolSize, rateLimitMs int, logger *utils.Logger) *Harvester {
	return &Harvester{
		fetcher:     fetcher,
		links:       links,
		poolSize:    poolSize,
		rateLimitMs: rateLimitMs,
		logger:      logger,
	}
}

// PageURL returns searchURL with its page parameter set to page.
func PageURL(searchURL string, page int) (string, error) {
	u, err := url.Parse(searchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url %q: %w", searchURL, err)
	}
	q := u.Query()
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Harvest schedules one task per page in [first, last] and waits for all of
// them. A failed page contributes no links and is counted, never returned.
// The error is non-nil only when searchURL itself cannot be parsed.
func (h *Harvester) Harvest(ctx context.Context, searchURL string, first, last int) (*HarvestResult, error) {
	if _, err := url.Parse(searchURL); err != nil {
		return nil, fmt.Errorf("harvester: %w", err)
	}

	res := &HarvestResult{Links: make([]string, 0)}
	if last < first {
		return res, nil
	}

	var mu sync.Mutex
	pool := utils.NewWorkerPool(h.poolSize, h.rateLimitMs)

	for page := first; page <= last; page++ {
		page := page
		res.Scheduled++

		pool.Submit(func() {
			start := time.Now()
			links, err := h.harvestPage(ctx, searchURL, page)

			mu.Lock()
			defer mu.Unlock()

			var pe *ParseError
			if errors.As(err, &pe) {
				res.Unparsed++
				h.logger.Warn("[harvester] Page %d could not be parsed: %v", page, err)
				return
			}
			if err != nil {
				res.Failed++
				res.FailedPages = append(res.FailedPages, page)
				h.logger.Warn("[harvester] Failed to process page %d: %v", page, err)
				return
			}
			res.Succeeded++
			res.Links = append(res.Links, links...)
			h.logger.Debug("[harvester] Page %d processed in %.4f seconds (%d links)",
				page, time.Since(start).Seconds(), len(links))
		})
	}
	pool.Wait()

	sort.Ints(res.FailedPages)
	h.logger.Info("[harvester] %d pages scheduled: %d ok, %d failed, %d unparsed, %d links",
		res.Scheduled, res.Succeeded, res.Failed, res.Unparsed, len(res.Links))
	return res, nil
}

func (h *Harvester) harvestPage(ctx context.Context, searchURL string, page int) (links []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: panic: %v", page, r)
		}
	}()

	pageURL, err := PageURL(searchURL, page)
	if err != nil {
		return nil, err
	}

	body, err := h.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	links, err = h.links.ExtractLinks(pageURL, body)
	if err != nil {
		var pe *ParseError
		if !errors.As(err, &pe) {
			err = &ParseError{URL: pageURL, Err: err}
		}
		return nil, err
	}
	return links, nil
}
