package workers

import (
	"context"
	"log"
	"time"

	"homecrawl/storage"
)

// Archiver uploads one raw page to remote storage.
type Archiver interface {
	ArchivePage(ctx context.Context, batchID string, idx int, html []byte) error
}

// ArchiveWorker periodically mirrors a batch's raw pages to S3 so the
// local batch folder can be pruned without losing replayability.
type ArchiveWorker struct {
	fs       *storage.BatchFS
	archiver Archiver
	uploaded map[int]struct{}
}

func NewArchiveWorker(fs *storage.BatchFS, archiver Archiver) *ArchiveWorker {
	return &ArchiveWorker{
		fs:       fs,
		archiver: archiver,
		uploaded: make(map[int]struct{}),
	}
}

// Run uploads new raw pages every interval until the context ends.
func (w *ArchiveWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := w.Sweep(ctx); n > 0 {
				log.Printf("Archived %d raw pages for batch %s", n, w.fs.ID())
			}
		}
	}
}

// Sweep uploads every raw page not yet mirrored and reports how many
// went up. Safe to call repeatedly; already-uploaded pages are skipped.
func (w *ArchiveWorker) Sweep(ctx context.Context) int {
	indices, err := w.allIndices()
	if err != nil {
		log.Printf("Archive sweep failed: %v", err)
		return 0
	}

	uploaded := 0
	for _, idx := range indices {
		if _, done := w.uploaded[idx]; done {
			continue
		}
		page, err := w.fs.ReadPage(idx)
		if err != nil {
			continue
		}
		if err := w.archiver.ArchivePage(ctx, w.fs.ID(), idx, page.HTML); err != nil {
			log.Printf("Archive page %d failed: %v", idx, err)
			continue
		}
		w.uploaded[idx] = struct{}{}
		uploaded++
	}
	return uploaded
}

func (w *ArchiveWorker) allIndices() ([]int, error) {
	search, err := w.fs.SearchIndices(0)
	if err != nil {
		return nil, err
	}
	detail, err := w.fs.DetailIndices(0)
	if err != nil {
		return nil, err
	}
	return append(search, detail...), nil
}
