package immoweb

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"immoweb-scraper/config"
	"immoweb-scraper/utils"
)

// Fetcher retrieves the raw content of one page. Implementations never retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Close() error
}

// FetcherConfig holds the request settings shared by all fetchers.
type FetcherConfig struct {
	UserAgent string
	Headers   map[string]string
	Timeout   time.Duration
	ChromeBin string
}

// FetcherConfigFrom extracts the fetcher settings from the application config.
func FetcherConfigFrom(cfg *config.Config) FetcherConfig {
	return FetcherConfig{
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers(),
		Timeout:   cfg.RequestTimeout,
		ChromeBin: cfg.ChromeBin,
	}
}

// NewFetcher returns the fetcher selected by cfg.FetchMode.
func NewFetcher(cfg *config.Config, logger *utils.Logger) (Fetcher, error) {
	fc := FetcherConfigFrom(cfg)
	switch cfg.FetchMode {
	case config.FetchModeBrowser:
		return NewBrowserFetcher(fc, logger)
	case config.FetchModeStatic, "":
		return NewCollyFetcher(fc), nil
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", cfg.FetchMode)
	}
}

// CollyFetcher fetches static HTML with a fresh colly collector per request.
type CollyFetcher struct {
	cfg FetcherConfig
}

// NewCollyFetcher creates a static fetcher. A zero timeout means 30s.
func NewCollyFetcher(cfg FetcherConfig) *CollyFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CollyFetcher{cfg: cfg}
}

// Fetch performs one GET. Network failures, timeouts and non-2xx statuses
// are returned as *FetchError.
func (f *CollyFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	c := colly.NewCollector(
		colly.UserAgent(f.cfg.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.cfg.Timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range f.cfg.Headers {
			if k == "User-Agent" {
				continue
			}
			r.Headers.Set(k, v)
		}
	})

	var (
		body     []byte
		status   int
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(target); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		return nil, &FetchError{URL: target, StatusCode: status, Err: fetchErr}
	}
	if status < 200 || status > 299 {
		return nil, &FetchError{URL: target, StatusCode: status, Err: errUnexpectedStatus}
	}
	return body, nil
}

// Close releases resources. The static fetcher holds none.
func (f *CollyFetcher) Close() error { return nil }
