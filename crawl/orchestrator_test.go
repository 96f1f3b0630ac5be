package crawl

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"homecrawl/config"
	"homecrawl/harvest"
	"homecrawl/models"
	"homecrawl/storage"
)

// scriptedFetcher fails configured URLs and records every request.
type scriptedFetcher struct {
	failing map[string]bool
	calls   []string
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string) ([]byte, models.PageMeta, error) {
	f.calls = append(f.calls, url)
	if f.failing[url] {
		return nil, models.PageMeta{RequestedURL: url}, errors.New("connection reset")
	}
	meta := models.PageMeta{
		RequestedURL: url,
		FinalURL:     url,
		Status:       200,
		FetchedAt:    time.Now().UTC().Truncate(time.Second),
	}
	return []byte("<html></html>"), meta, nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *scriptedFetcher) {
	t.Helper()

	cfg := &config.Config{
		BatchRoot:    t.TempDir(),
		ParseWorkers: 2,
		Platforms: map[string]*config.PlatformConfig{
			"redfin": {
				ID:         "redfin",
				Name:       "Redfin",
				URLPattern: "redfin.com",
				ZipSearch:  "https://www.redfin.com/zipcode/{ZIP}",
			},
		},
		Areas: []config.Area{
			{City: "Austin", State: "TX", Zips: []string{"78701", "78702", "78703"}},
		},
	}

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "ops.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	o := NewOrchestrator(cfg, store)
	fake := &scriptedFetcher{failing: map[string]bool{}}
	o.fetcher = fake
	return o, fake
}

func TestRunFetchSearchRetriesFailedSeed(t *testing.T) {
	o, fake := newTestOrchestrator(t)
	ctx := context.Background()

	batchID, err := o.InitBatch(ctx)
	if err != nil {
		t.Fatalf("init batch: %v", err)
	}

	failURL := "https://www.redfin.com/zipcode/78702"
	fake.failing[failURL] = true
	if err := o.RunFetchSearch(ctx, batchID, 0); err != nil {
		t.Fatalf("first fetch pass: %v", err)
	}

	fs, err := storage.NewBatchFS(o.cfg.BatchRoot, batchID)
	if err != nil {
		t.Fatalf("open batch: %v", err)
	}
	indices, err := fs.SearchIndices(0)
	if err != nil {
		t.Fatalf("search indices: %v", err)
	}
	if len(indices) != 2 {
		t.Fatalf("expected 2 saved pages after failure, got %d", len(indices))
	}

	delete(fake.failing, failURL)
	fake.calls = nil
	if err := o.RunFetchSearch(ctx, batchID, 0); err != nil {
		t.Fatalf("second fetch pass: %v", err)
	}
	if len(fake.calls) != 1 || fake.calls[0] != failURL {
		t.Fatalf("expected rerun to fetch only the failed seed, got %v", fake.calls)
	}

	indices, err = fs.SearchIndices(0)
	if err != nil {
		t.Fatalf("search indices: %v", err)
	}
	fetched := fs.FetchedURLs(indices)
	for _, zip := range []string{"78701", "78702", "78703"} {
		url := "https://www.redfin.com/zipcode/" + zip
		if !fetched[url] {
			t.Fatalf("seed %s never saved", url)
		}
	}

	fake.calls = nil
	if err := o.RunFetchSearch(ctx, batchID, 0); err != nil {
		t.Fatalf("third fetch pass: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no refetches once all seeds saved, got %v", fake.calls)
	}
}

func TestRunFetchDetailsRetriesFailedURL(t *testing.T) {
	o, fake := newTestOrchestrator(t)
	ctx := context.Background()

	batchID, err := o.InitBatch(ctx)
	if err != nil {
		t.Fatalf("init batch: %v", err)
	}
	fs, err := storage.NewBatchFS(o.cfg.BatchRoot, batchID)
	if err != nil {
		t.Fatalf("open batch: %v", err)
	}

	listings := []harvest.ListingURL{
		{PlatformID: "redfin", SourceURL: "https://www.redfin.com/TX/Austin/home/111", ExternalID: "111"},
		{PlatformID: "redfin", SourceURL: "https://www.redfin.com/TX/Austin/home/222", ExternalID: "222"},
		{PlatformID: "redfin", SourceURL: "https://www.redfin.com/TX/Austin/home/333", ExternalID: "333"},
	}
	if err := fs.WriteJSON(listingURLsFile, listings); err != nil {
		t.Fatalf("write listing urls: %v", err)
	}

	failURL := listings[1].SourceURL
	fake.failing[failURL] = true
	if err := o.RunFetchDetails(ctx, batchID, 0); err != nil {
		t.Fatalf("first fetch pass: %v", err)
	}

	delete(fake.failing, failURL)
	fake.calls = nil
	if err := o.RunFetchDetails(ctx, batchID, 0); err != nil {
		t.Fatalf("second fetch pass: %v", err)
	}
	if len(fake.calls) != 1 || fake.calls[0] != failURL {
		t.Fatalf("expected rerun to fetch only the failed listing, got %v", fake.calls)
	}

	indices, err := fs.DetailIndices(0)
	if err != nil {
		t.Fatalf("detail indices: %v", err)
	}
	if len(indices) != 3 {
		t.Fatalf("expected 3 saved detail pages, got %d", len(indices))
	}
	fetched := fs.FetchedURLs(indices)
	for _, l := range listings {
		if !fetched[l.SourceURL] {
			t.Fatalf("listing %s never saved", l.SourceURL)
		}
	}
}
