// Package fetch retrieves pages and persists them with their metadata.
// It sits outside the extraction core: the parser only ever sees
// already-saved bytes.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"homecrawl/config"
	"homecrawl/httputil"
	"homecrawl/models"
)

// PageFetcher retrieves one URL and reports the fetch metadata saved
// alongside the raw bytes.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, models.PageMeta, error)
}

// Fetcher is the plain-HTTP implementation with polite pacing and
// bounded retries on 429/5xx.
type Fetcher struct {
	client *http.Client
	cfg    config.FetchConfig
}

func NewFetcher(clients *httputil.Clients, cfg config.FetchConfig) *Fetcher {
	return &Fetcher{client: clients.Scraping, cfg: cfg}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, models.PageMeta, error) {
	meta := models.PageMeta{RequestedURL: url}

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			log.Printf("Retry %d for %s after %s", attempt, url, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, meta, ctx.Err()
			}
		}

		body, finalURL, status, err := f.get(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		meta.FinalURL = finalURL
		meta.Status = status
		meta.FetchedAt = time.Now().UTC().Truncate(time.Second)

		if shouldRetry(status) {
			lastErr = fmt.Errorf("status %d from %s", status, url)
			continue
		}
		return body, meta, nil
	}

	return nil, meta, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("DNT", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", 0, fmt.Errorf("read body: %w", err)
	}

	return body, resp.Request.URL.String(), resp.StatusCode, nil
}

// Sleep pauses for a jittered interval between requests.
func (f *Fetcher) Sleep() {
	min, max := f.cfg.SleepMinMS, f.cfg.SleepMaxMS
	if max <= min {
		time.Sleep(time.Duration(min) * time.Millisecond)
		return
	}
	ms := min + rand.Intn(max-min)
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Retry on rate limiting and server errors only.
func shouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}
