package fetch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"homecrawl/models"
)

// BrowserFetcher renders pages through headless Chromium for platforms
// that serve empty shells to plain HTTP clients. Lazily initialized;
// one browser context is reused across fetches.
type BrowserFetcher struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	userAgent   string
	initialized bool
}

func NewBrowserFetcher(userAgent string) *BrowserFetcher {
	return &BrowserFetcher{userAgent: userAgent}
}

func (b *BrowserFetcher) init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	var err error
	b.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	b.browser, err = b.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	b.initialized = true
	return nil
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, models.PageMeta, error) {
	meta := models.PageMeta{RequestedURL: url}

	if err := b.init(); err != nil {
		return nil, meta, err
	}

	page, err := b.browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(b.userAgent),
	})
	if err != nil {
		return nil, meta, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, meta, fmt.Errorf("goto %s: %w", url, err)
	}

	// Give late script blocks a moment to land in the DOM.
	page.WaitForTimeout(2000)

	html, err := page.Content()
	if err != nil {
		return nil, meta, fmt.Errorf("read content: %w", err)
	}

	meta.FinalURL = page.URL()
	meta.Status = http.StatusOK
	if resp != nil {
		meta.Status = resp.Status()
	}
	meta.FetchedAt = time.Now().UTC().Truncate(time.Second)

	return []byte(html), meta, nil
}

func (b *BrowserFetcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		b.browser.Close()
	}
	if b.pw != nil {
		b.pw.Stop()
	}
	b.initialized = false
}
