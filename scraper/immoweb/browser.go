package immoweb

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"immoweb-scraper/utils"
)

// BrowserFetcher renders pages in headless Chrome. One browser is shared;
// every fetch opens its own tab.
type BrowserFetcher struct {
	cfg    FetcherConfig
	logger *utils.Logger

	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewBrowserFetcher starts the browser.
func NewBrowserFetcher(cfg FetcherConfig, logger *utils.Logger) (*BrowserFetcher, error) {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	return &BrowserFetcher{
		cfg:           cfg,
		logger:        logger,
		browserCtx:    browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
	}, nil
}

// Fetch navigates a new tab to target and returns the rendered HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.cfg.Timeout)
	defer cancelTimeout()

	headers := network.Headers{}
	for k, v := range f.cfg.Headers {
		if k != "User-Agent" {
			headers[k] = v
		}
	}
	if len(headers) > 0 {
		if err := chromedp.Run(tabCtx, network.Enable(), network.SetExtraHTTPHeaders(headers)); err != nil {
			return nil, &FetchError{URL: target, Err: fmt.Errorf("set headers: %w", err)}
		}
	}

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(target))
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	if resp != nil && (resp.Status < 200 || resp.Status > 299) {
		return nil, &FetchError{URL: target, StatusCode: int(resp.Status), Err: errUnexpectedStatus}
	}

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, &FetchError{URL: target, Err: fmt.Errorf("read document: %w", err)}
	}
	return []byte(html), nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	f.cancelBrowser()
	f.cancelAlloc()
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
