package immoweb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"immoweb-scraper/config"
	"immoweb-scraper/models"
	"immoweb-scraper/storage"
	"immoweb-scraper/utils"
)

// DetailResult is the outcome of the detail stage.
type DetailResult struct {
	// Records in completion order.
	Records    []models.PropertyRecord
	Scheduled  int
	Extracted  int
	Unparsed   int
	Failed     int
	Duplicates int
}

// Scraper runs the two scraping phases: harvest listing links from the
// search pages, then extract one record per listing.
type Scraper struct {
	cfg       *config.Config
	logger    *utils.Logger
	fetcher   Fetcher
	harvester *Harvester
	extractor *DetailExtractor
	sleep     utils.SleepFunc
}

// New wires a Scraper around fetcher. The fetcher is owned by the caller.
func New(cfg *config.Config, fetcher Fetcher, logger *utils.Logger) *Scraper {
	classifier := NewSaleClassifier(RulesFromFlags(cfg.SaleFlags), cfg.SaleDefaultLabel)
	return &Scraper{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		harvester: NewHarvester(fetcher, NewLinkExtractor(), cfg.PoolSize, cfg.RateLimitMs, logger),
		extractor: NewDetailExtractor(classifier),
		sleep:     utils.Sleep,
	}
}

// SetSleep replaces the pause used between the two phases.
func (s *Scraper) SetSleep(fn utils.SleepFunc) {
	s.sleep = fn
}

// HarvestAll harvests every configured search and concatenates the links.
func (s *Scraper) HarvestAll(ctx context.Context) ([]string, error) {
	links := make([]string, 0)
	for _, searchURL := range s.cfg.SearchURLs {
		s.logger.Info("[scraper] Harvesting pages %d-%d of %s", s.cfg.StartPage, s.cfg.EndPage, searchURL)
		res, err := s.harvester.Harvest(ctx, searchURL, s.cfg.StartPage, s.cfg.EndPage)
		if err != nil {
			return nil, err
		}
		if res.Failed > 0 {
			s.logger.Warn("[scraper] %d pages failed: %v", res.Failed, res.FailedPages)
		}
		links = append(links, res.Links...)
	}
	return links, nil
}

// ExtractDetails fetches every listing in urls on the worker pool. Failed
// fetches are counted and skipped; pages without a listing payload still
// produce an all-null record.
func (s *Scraper) ExtractDetails(ctx context.Context, urls []string) *DetailResult {
	res := &DetailResult{Records: make([]models.PropertyRecord, 0, len(urls))}

	var mu sync.Mutex
	seen := utils.NewURLSet()
	pool := utils.NewWorkerPool(s.cfg.PoolSize, s.cfg.RateLimitMs)
	pool.OnPanic(func(err error) {
		mu.Lock()
		res.Failed++
		mu.Unlock()
		s.logger.Error("[scraper] %v", err)
	})

	for _, u := range urls {
		if !seen.Add(u) {
			res.Duplicates++
			continue
		}
		u := u
		res.Scheduled++

		pool.Submit(func() {
			rec, parsed, err := s.extractOne(ctx, u)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				res.Failed++
				var fe *FetchError
				if errors.As(err, &fe) && fe.StatusCode != 0 {
					s.logger.Warn("[scraper] Skipping %s: status %d", u, fe.StatusCode)
				} else {
					s.logger.Warn("[scraper] Skipping %s: %v", u, err)
				}
				return
			}
			if parsed {
				res.Extracted++
			} else {
				res.Unparsed++
			}
			res.Records = append(res.Records, rec)
		})
	}
	pool.Wait()
	s.logger.Debug("[scraper] Detail pool finished %d of %d tasks", pool.Completed(), pool.Submitted())

	s.logger.Info("[scraper] %d unique listings scheduled: %d extracted, %d without details, %d failed, %d duplicate urls",
		seen.Size(), res.Extracted, res.Unparsed, res.Failed, res.Duplicates)
	return res
}

func (s *Scraper) extractOne(ctx context.Context, listingURL string) (models.PropertyRecord, bool, error) {
	body, err := s.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return models.PropertyRecord{}, false, err
	}

	p, err := ParsePage(listingURL, body)
	if err != nil {
		s.logger.Debug("[scraper] %v", err)
		return models.PropertyRecord{}, false, nil
	}

	rec := s.extractor.Extract(p)
	return rec, !rec.IsEmpty(), nil
}

// Harvest runs the link phase and writes the links file.
func (s *Scraper) Harvest(ctx context.Context) ([]string, error) {
	start := time.Now()
	links, err := s.HarvestAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := storage.WriteLinks(s.cfg.LinksPath(), links); err != nil {
		return nil, err
	}
	s.logger.Info("[scraper] %d links written to %s in %.2f seconds",
		len(links), s.cfg.LinksPath(), time.Since(start).Seconds())
	return links, nil
}

// Extract reads the links file, extracts every listing and writes the raw
// property file.
func (s *Scraper) Extract(ctx context.Context) (*DetailResult, error) {
	start := time.Now()
	links, err := storage.ReadLinks(s.cfg.LinksPath())
	if err != nil {
		return nil, err
	}

	res := s.ExtractDetails(ctx, links)

	w, err := storage.NewCSVWriter(s.cfg.RawOutputPath(), models.RecordColumns)
	if err != nil {
		return nil, err
	}
	if err := writeRecords(w, res.Records); err != nil {
		return nil, err
	}

	s.logger.Info("[scraper] %d records written to %s in %.2f seconds",
		len(res.Records), s.cfg.RawOutputPath(), time.Since(start).Seconds())
	return res, nil
}

func writeRecords(w storage.RecordWriter, records []models.PropertyRecord) error {
	if err := w.WriteRecords(records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Run harvests, pauses for the configured phase delay and extracts.
func (s *Scraper) Run(ctx context.Context) (*DetailResult, error) {
	if _, err := s.Harvest(ctx); err != nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}

	if s.cfg.PhaseDelay > 0 {
		s.logger.Info("[scraper] Waiting %v before extracting details", s.cfg.PhaseDelay)
	}
	if err := s.sleep(ctx, s.cfg.PhaseDelay); err != nil {
		return nil, fmt.Errorf("phase delay: %w", err)
	}

	res, err := s.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return res, nil
}
