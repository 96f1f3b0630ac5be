// Package workers holds the background and batch-parallel loops: the
// per-page parse pool and the raw-page archive uploader.
package workers

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"homecrawl/extract"
	"homecrawl/models"
	"homecrawl/services"
	"homecrawl/storage"
)

// PageSource yields saved pages by index.
type PageSource interface {
	ReadPage(idx int) (*models.RawPage, error)
}

// RecordSink receives the canonical record for one page index.
type RecordSink interface {
	WriteRecord(idx int, rec *models.CanonicalRecord) error
}

// ParseStats summarizes one parallel parse pass.
type ParseStats struct {
	Parsed  int
	Failed  int
	Missing int
}

// ParseWorker runs the extraction pipeline over many pages with bounded
// concurrency. Pages are independent; the only shared state is the
// location set, which serializes internally. A failed page is logged
// and skipped, never fatal to the batch.
type ParseWorker struct {
	pipeline   *extract.Pipeline
	locations  *services.LocationSet
	maxWorkers int
}

func NewParseWorker(pipeline *extract.Pipeline, locations *services.LocationSet, maxWorkers int) *ParseWorker {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &ParseWorker{
		pipeline:   pipeline,
		locations:  locations,
		maxWorkers: maxWorkers,
	}
}

// Run parses the given page indices and writes one canonical record per
// page to the sink. Returns the records in index order plus stats.
func (w *ParseWorker) Run(ctx context.Context, src PageSource, sink RecordSink, batchID string, indices []int) ([]*models.CanonicalRecord, ParseStats) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		stats   ParseStats
		byIndex = make(map[int]*models.CanonicalRecord)
	)
	sem := make(chan struct{}, w.maxWorkers)

	for _, idx := range indices {
		select {
		case <-ctx.Done():
			wg.Wait()
			return sortedRecords(byIndex), stats
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			rec, err := w.parseOne(src, sink, batchID, idx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, storage.ErrPageMissing) {
					stats.Missing++
				}
				stats.Failed++
				log.Printf("[%d] parse failed: %v", idx, err)
				return
			}
			stats.Parsed++
			byIndex[idx] = rec
		}(idx)
	}

	wg.Wait()
	return sortedRecords(byIndex), stats
}

func (w *ParseWorker) parseOne(src PageSource, sink RecordSink, batchID string, idx int) (*models.CanonicalRecord, error) {
	page, err := src.ReadPage(idx)
	if err != nil {
		return nil, err
	}

	partial := w.pipeline.Run(page)
	rec := services.BuildRecord(partial, page, batchID)
	w.locations.Add(rec.Location())

	if err := sink.WriteRecord(idx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func sortedRecords(byIndex map[int]*models.CanonicalRecord) []*models.CanonicalRecord {
	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]*models.CanonicalRecord, 0, len(indices))
	for _, idx := range indices {
		out = append(out, byIndex[idx])
	}
	return out
}
