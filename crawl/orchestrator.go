// Package crawl sequences the batch operations: seed a batch, fetch
// search pages, harvest detail URLs, fetch detail pages, parse them
// into canonical records. Each operation is resumable; progress lives
// in the batch folder itself, so a rerun picks up where the last one
// stopped.
package crawl

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"homecrawl/config"
	"homecrawl/extract"
	"homecrawl/fetch"
	"homecrawl/harvest"
	"homecrawl/httputil"
	"homecrawl/models"
	"homecrawl/services"
	"homecrawl/storage"
	"homecrawl/workers"
)

const (
	seedPagesFile   = "seed_search_pages.json"
	listingURLsFile = "listing_urls.json"
	listingsFile    = "listings.json"
	locationsFile   = "locations.json"
	mediaFile       = "media.json"
)

// SeedPage is one search URL queued for fetching, in fetch order.
type SeedPage struct {
	PlatformID string `json:"platform_id"`
	Zip        string `json:"zip"`
	URL        string `json:"url"`
}

type Orchestrator struct {
	cfg      *config.Config
	store    *storage.SQLiteStore
	fetcher  fetch.PageFetcher
	pipeline *extract.Pipeline

	pgStore  *storage.PostgresStore
	archiver *storage.PageArchiver
}

func NewOrchestrator(cfg *config.Config, store *storage.SQLiteStore) *Orchestrator {
	var fetcher fetch.PageFetcher
	if cfg.Fetch.UseBrowser {
		fetcher = fetch.NewBrowserFetcher(cfg.Fetch.UserAgent)
	} else {
		clients := httputil.NewClients(cfg.Fetch.ProxyURL, time.Duration(cfg.Fetch.TimeoutSec)*time.Second)
		fetcher = fetch.NewFetcher(clients, cfg.Fetch)
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		fetcher:  fetcher,
		pipeline: extract.NewPipeline(cfg.PatternMap()),
	}
}

// SetPostgres enables canonical-record upserts into the relational
// schema in addition to the batch folder output.
func (o *Orchestrator) SetPostgres(pg *storage.PostgresStore) {
	o.pgStore = pg
}

// SetArchiver enables mirroring raw pages to S3 after fetch runs.
func (o *Orchestrator) SetArchiver(a *storage.PageArchiver) {
	o.archiver = a
}

// InitBatch creates a new batch folder and seeds it with one search
// page per configured area ZIP per platform. Returns the batch id.
func (o *Orchestrator) InitBatch(ctx context.Context) (string, error) {
	batchID := time.Now().UTC().Format("20060102_150405")
	fs, err := storage.NewBatchFS(o.cfg.BatchRoot, batchID)
	if err != nil {
		return "", err
	}

	platformIDs := make([]string, 0, len(o.cfg.Platforms))
	for id := range o.cfg.Platforms {
		platformIDs = append(platformIDs, id)
	}
	sort.Strings(platformIDs)

	var seeds []SeedPage
	for _, platformID := range platformIDs {
		platform := o.cfg.Platforms[platformID]
		if platform.ZipSearch == "" {
			continue
		}
		for _, area := range o.cfg.Areas {
			for _, zip := range area.Zips {
				seeds = append(seeds, SeedPage{
					PlatformID: platformID,
					Zip:        zip,
					URL:        strings.ReplaceAll(platform.ZipSearch, "{ZIP}", zip),
				})
			}
		}
	}
	if len(seeds) == 0 {
		return "", fmt.Errorf("no areas configured, nothing to seed")
	}

	if err := fs.WriteJSON(seedPagesFile, seeds); err != nil {
		return "", err
	}

	log.Printf("Batch %s initialized with %d seed search pages", batchID, len(seeds))
	return batchID, nil
}

// RunFetchSearch fetches up to limit pending seed search pages.
// Fetched seeds are matched by requested URL against saved page
// metadata, so a seed whose fetch failed stays pending and is retried
// on rerun.
func (o *Orchestrator) RunFetchSearch(ctx context.Context, batchID string, limit int) error {
	fs, err := storage.NewBatchFS(o.cfg.BatchRoot, batchID)
	if err != nil {
		return err
	}

	var seeds []SeedPage
	if err := fs.ReadJSON(seedPagesFile, &seeds); err != nil {
		return fmt.Errorf("batch %s has no seed pages, run init-batch first: %w", batchID, err)
	}

	done, err := fs.SearchIndices(0)
	if err != nil {
		return err
	}
	fetched := fs.FetchedURLs(done)

	var pending []SeedPage
	for _, seed := range seeds {
		if !fetched[seed.URL] {
			pending = append(pending, seed)
		}
	}
	if len(pending) == 0 {
		log.Printf("All %d search pages already fetched for batch %s", len(seeds), batchID)
		return nil
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	run := o.startRun(ctx, batchID, models.RunKindFetch)
	defer o.finishRun(run)

	for _, seed := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		idx := fs.NextSearchIndex()
		run.PagesTotal++
		if err := o.fetchPage(ctx, fs, idx, seed.URL); err != nil {
			run.PagesFailed++
			o.logRun(run, models.LogLevelError, fmt.Sprintf("Search page %d (%s): %v", idx, seed.URL, err))
			continue
		}
		o.logRun(run, models.LogLevelInfo, fmt.Sprintf("Fetched search page %d: %s %s", idx, seed.PlatformID, seed.Zip))
		o.pace()
	}

	run.Status = models.RunStatusCompleted
	o.archiveBatch(ctx, fs)
	return nil
}

// RunHarvest extracts detail-page URLs from every saved search page and
// writes the deduplicated list to the batch folder.
func (o *Orchestrator) RunHarvest(ctx context.Context, batchID string) error {
	fs, err := storage.NewBatchFS(o.cfg.BatchRoot, batchID)
	if err != nil {
		return err
	}

	indices, err := fs.SearchIndices(0)
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		return fmt.Errorf("batch %s has no search pages, run fetch-search first", batchID)
	}

	run := o.startRun(ctx, batchID, models.RunKindHarvest)
	defer o.finishRun(run)

	var links []string
	for _, idx := range indices {
		run.PagesTotal++
		page, err := fs.ReadPage(idx)
		if err != nil {
			run.PagesFailed++
			o.logRun(run, models.LogLevelWarn, fmt.Sprintf("Search page %d: %v", idx, err))
			continue
		}
		links = append(links, harvest.CollectLinks(page.HTML, page.SourceURL())...)
	}

	listings := harvest.FilterListings(links)
	if err := fs.WriteJSON(listingURLsFile, listings); err != nil {
		return err
	}

	run.Status = models.RunStatusCompleted
	run.RecordsWritten = len(listings)
	o.logRun(run, models.LogLevelInfo,
		fmt.Sprintf("Harvested %d listing URLs from %d search pages", len(listings), len(indices)))
	return nil
}

// RunFetchDetails fetches up to limit pending detail pages from the
// harvested URL list. Like RunFetchSearch, pending pages are the URLs
// without a saved page, so failed fetches are retried on rerun.
func (o *Orchestrator) RunFetchDetails(ctx context.Context, batchID string, limit int) error {
	fs, err := storage.NewBatchFS(o.cfg.BatchRoot, batchID)
	if err != nil {
		return err
	}

	var listings []harvest.ListingURL
	if err := fs.ReadJSON(listingURLsFile, &listings); err != nil {
		return fmt.Errorf("batch %s has no listing URLs, run harvest first: %w", batchID, err)
	}

	done, err := fs.DetailIndices(0)
	if err != nil {
		return err
	}
	fetched := fs.FetchedURLs(done)

	var pending []harvest.ListingURL
	for _, listing := range listings {
		if !fetched[listing.SourceURL] {
			pending = append(pending, listing)
		}
	}
	if len(pending) == 0 {
		log.Printf("All %d detail pages already fetched for batch %s", len(listings), batchID)
		return nil
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	run := o.startRun(ctx, batchID, models.RunKindFetch)
	defer o.finishRun(run)

	for _, listing := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		idx := fs.NextDetailIndex()
		run.PagesTotal++
		if err := o.fetchPage(ctx, fs, idx, listing.SourceURL); err != nil {
			run.PagesFailed++
			o.logRun(run, models.LogLevelError, fmt.Sprintf("Detail page %d (%s): %v", idx, listing.SourceURL, err))
			continue
		}
		o.pace()
	}

	run.Status = models.RunStatusCompleted
	o.logRun(run, models.LogLevelInfo,
		fmt.Sprintf("Fetched %d detail pages (%d failed)", run.PagesTotal-run.PagesFailed, run.PagesFailed))
	o.archiveBatch(ctx, fs)
	return nil
}

// RunParseDetails parses up to limit saved detail pages into canonical
// records: one JSON document per page plus batch-level listings,
// locations, and media dumps. Records also upsert into Postgres when
// configured. A page that fails to read or write is logged and skipped.
func (o *Orchestrator) RunParseDetails(ctx context.Context, batchID string, limit int) error {
	fs, err := storage.NewBatchFS(o.cfg.BatchRoot, batchID)
	if err != nil {
		return err
	}

	indices, err := fs.DetailIndices(limit)
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		return fmt.Errorf("batch %s has no detail pages, run fetch-details first", batchID)
	}

	if last, err := o.store.GetLastRunTime(batchID, models.RunKindParse); err == nil && !last.IsZero() {
		log.Printf("Batch %s last parsed at %s, re-parsing", batchID, last.Format(time.RFC3339))
	}

	run := o.startRun(ctx, batchID, models.RunKindParse)
	defer o.finishRun(run)

	locations := services.NewLocationSet()
	worker := workers.NewParseWorker(o.pipeline, locations, o.cfg.ParseWorkers)
	records, stats := worker.Run(ctx, fs, fs, batchID, indices)

	run.PagesTotal = len(indices)
	run.PagesFailed = stats.Failed
	run.RecordsWritten = stats.Parsed

	media := make([]models.MediaRow, 0, len(records))
	for _, rec := range records {
		media = append(media, rec.Media...)
	}

	if err := fs.WriteJSON(listingsFile, records); err != nil {
		return err
	}
	if err := fs.WriteJSON(locationsFile, locations.Rows()); err != nil {
		return err
	}
	if err := fs.WriteJSON(mediaFile, media); err != nil {
		return err
	}

	for _, loc := range locations.Rows() {
		if err := o.store.UpsertLocation(&loc); err != nil {
			o.logRun(run, models.LogLevelWarn, fmt.Sprintf("Location upsert %s: %v", loc.LocationID, err))
		}
	}

	if o.pgStore != nil {
		for _, rec := range records {
			if err := o.pgStore.UpsertRecord(ctx, rec); err != nil {
				o.logRun(run, models.LogLevelError, fmt.Sprintf("Postgres upsert %s: %v", rec.ListingID, err))
			}
		}
	}

	run.Status = models.RunStatusCompleted
	known, err := o.store.GetLocationCount()
	if err != nil {
		known = locations.Len()
	}
	o.logRun(run, models.LogLevelInfo,
		fmt.Sprintf("Parsed %d/%d pages (%d missing), %d locations (%d known overall)",
			stats.Parsed, len(indices), stats.Missing, locations.Len(), known))
	return nil
}

// RunAll drives one full pass: init, fetch all search pages, harvest,
// fetch all details, parse. Used by the scheduler.
func (o *Orchestrator) RunAll(ctx context.Context) error {
	batchID, err := o.InitBatch(ctx)
	if err != nil {
		return err
	}
	if err := o.RunFetchSearch(ctx, batchID, 0); err != nil {
		return err
	}
	if err := o.RunHarvest(ctx, batchID); err != nil {
		return err
	}
	if err := o.RunFetchDetails(ctx, batchID, 0); err != nil {
		return err
	}
	return o.RunParseDetails(ctx, batchID, 0)
}

// ResolveBatch maps an empty batch argument to the most recent batch.
func (o *Orchestrator) ResolveBatch(batchID string) (string, error) {
	if batchID != "" {
		return batchID, nil
	}
	return storage.LatestBatchID(o.cfg.BatchRoot)
}

func (o *Orchestrator) Close() {
	if c, ok := o.fetcher.(interface{ Close() }); ok {
		c.Close()
	}
}

func (o *Orchestrator) fetchPage(ctx context.Context, fs *storage.BatchFS, idx int, url string) error {
	body, meta, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return fs.WritePage(idx, body, meta)
}

// pace defers between-request pacing to fetchers that implement it.
// The browser fetcher paces itself through page load time.
func (o *Orchestrator) pace() {
	if p, ok := o.fetcher.(interface{ Sleep() }); ok {
		p.Sleep()
	}
}

func (o *Orchestrator) archiveBatch(ctx context.Context, fs *storage.BatchFS) {
	if o.archiver == nil {
		return
	}
	aw := workers.NewArchiveWorker(fs, o.archiver)
	if n := aw.Sweep(ctx); n > 0 {
		log.Printf("Archived %d raw pages for batch %s", n, fs.ID())
	}
}

// startRun opens a run record in SQLite, mirrored into Postgres when
// configured so downstream joins see the same run ids.
func (o *Orchestrator) startRun(ctx context.Context, batchID string, kind models.RunKind) *models.Run {
	run := &models.Run{
		ID:        uuid.New(),
		BatchID:   batchID,
		Kind:      kind,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := o.store.CreateRun(run); err != nil {
		log.Printf("Warning: failed to create run record: %v", err)
	}
	if o.pgStore != nil {
		if err := o.pgStore.CreateRun(ctx, run); err != nil {
			log.Printf("Warning: failed to mirror run to Postgres: %v", err)
		}
	}
	return run
}

// finishRun closes the run record. It uses a fresh context so the final
// state still lands when the crawl context was canceled.
func (o *Orchestrator) finishRun(run *models.Run) {
	now := time.Now()
	run.FinishedAt = &now
	if run.Status == models.RunStatusRunning {
		run.Status = models.RunStatusFailed
	}
	if err := o.store.UpdateRun(run); err != nil {
		log.Printf("Warning: failed to update run record: %v", err)
	}
	if o.pgStore != nil {
		if err := o.pgStore.FinishRun(context.Background(), run); err != nil {
			log.Printf("Warning: failed to mirror run update to Postgres: %v", err)
		}
	}
}

func (o *Orchestrator) logRun(run *models.Run, level models.LogLevel, message string) {
	log.Printf("[%s] %s: %s", level, run.BatchID, message)
	id := run.ID.String()
	o.store.Log(&id, level, message, run.BatchID)
}
