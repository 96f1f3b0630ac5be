package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"homecrawl/models"
)

// ErrPageMissing marks the one per-page failure class that is fatal for
// that page: the raw HTML or its metadata is absent from the batch. The
// orchestrator logs it and moves on; it never aborts the batch.
var ErrPageMissing = errors.New("page not found in batch")

// Detail pages are numbered from 1001 so they sort after search pages
// (0001..) in the same raw directory.
const (
	firstSearchIndex = 1
	firstDetailIndex = 1001
)

// BatchFS is the on-disk layout of one batch:
// <root>/<batch-id>/{raw,structured,qa}. Raw pages live as
// NNNN_raw.html + NNNN_meta.json; structured output as JSON documents.
type BatchFS struct {
	base string
	id   string
}

func NewBatchFS(root, batchID string) (*BatchFS, error) {
	base := filepath.Join(root, batchID)
	for _, dir := range []string{"raw", "structured", "qa"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0755); err != nil {
			return nil, fmt.Errorf("create batch dirs: %w", err)
		}
	}
	return &BatchFS{base: base, id: batchID}, nil
}

// LatestBatchID returns the most recently modified batch directory
// under root.
func LatestBatchID(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read batches root: %w", err)
	}

	var latest string
	var latestMod int64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().UnixNano() > latestMod {
			latest = e.Name()
			latestMod = info.ModTime().UnixNano()
		}
	}
	if latest == "" {
		return "", errors.New("no batches found, run init-batch first")
	}
	return latest, nil
}

func (b *BatchFS) ID() string            { return b.id }
func (b *BatchFS) RawDir() string        { return filepath.Join(b.base, "raw") }
func (b *BatchFS) StructuredDir() string { return filepath.Join(b.base, "structured") }

// WritePage persists one fetched page and its metadata.
func (b *BatchFS) WritePage(idx int, html []byte, meta models.PageMeta) error {
	htmlPath := filepath.Join(b.RawDir(), fmt.Sprintf("%04d_raw.html", idx))
	if err := os.WriteFile(htmlPath, html, 0644); err != nil {
		return fmt.Errorf("write raw html %d: %w", idx, err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta %d: %w", idx, err)
	}
	metaPath := filepath.Join(b.RawDir(), fmt.Sprintf("%04d_meta.json", idx))
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return fmt.Errorf("write meta %d: %w", idx, err)
	}
	return nil
}

// ReadPage loads one saved page. A missing HTML or metadata file is
// reported as ErrPageMissing.
func (b *BatchFS) ReadPage(idx int) (*models.RawPage, error) {
	html, err := os.ReadFile(filepath.Join(b.RawDir(), fmt.Sprintf("%04d_raw.html", idx)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("page %d: %w", idx, ErrPageMissing)
		}
		return nil, fmt.Errorf("read page %d: %w", idx, err)
	}

	metaData, err := os.ReadFile(filepath.Join(b.RawDir(), fmt.Sprintf("%04d_meta.json", idx)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("meta %d: %w", idx, ErrPageMissing)
		}
		return nil, fmt.Errorf("read meta %d: %w", idx, err)
	}

	var meta models.PageMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("decode meta %d: %w", idx, err)
	}

	return &models.RawPage{Index: idx, HTML: html, Meta: meta}, nil
}

// FetchedURLs reports the requested URL of every saved page in indices.
// A page whose metadata cannot be read is skipped, so its URL counts as
// unfetched and gets retried on the next run.
func (b *BatchFS) FetchedURLs(indices []int) map[string]bool {
	fetched := make(map[string]bool, len(indices))
	for _, idx := range indices {
		page, err := b.ReadPage(idx)
		if err != nil {
			continue
		}
		fetched[page.Meta.RequestedURL] = true
	}
	return fetched
}

// DetailIndices lists saved detail page indices (1001..), ascending,
// up to limit (0 means all).
func (b *BatchFS) DetailIndices(limit int) ([]int, error) {
	return b.indices(func(n int) bool { return n >= firstDetailIndex }, limit)
}

// SearchIndices lists saved search page indices (0001..1000).
func (b *BatchFS) SearchIndices(limit int) ([]int, error) {
	return b.indices(func(n int) bool { return n >= firstSearchIndex && n < firstDetailIndex }, limit)
}

func (b *BatchFS) indices(keep func(int) bool, limit int) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(b.RawDir(), "????_raw.html"))
	if err != nil {
		return nil, fmt.Errorf("glob raw pages: %w", err)
	}

	var out []int
	for _, m := range matches {
		n, err := strconv.Atoi(filepath.Base(m)[:4])
		if err != nil || !keep(n) {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// NextDetailIndex returns the index the next fetched detail page should
// be saved under.
func (b *BatchFS) NextDetailIndex() int {
	return b.nextIndex(firstDetailIndex, func(n int) bool { return n >= firstDetailIndex })
}

func (b *BatchFS) NextSearchIndex() int {
	return b.nextIndex(firstSearchIndex, func(n int) bool { return n >= firstSearchIndex && n < firstDetailIndex })
}

func (b *BatchFS) nextIndex(first int, keep func(int) bool) int {
	existing, err := b.indices(keep, 0)
	if err != nil || len(existing) == 0 {
		return first
	}
	return existing[len(existing)-1] + 1
}

// WriteJSON writes a structured document (indent 2, stable field order)
// under structured/.
func (b *BatchFS) WriteJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(b.StructuredDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (b *BatchFS) ReadJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(b.StructuredDir(), name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// WriteRecord writes the canonical record for one page as
// structured/NNNN.json. Overwrites on re-parse; the build is
// deterministic so the bytes come out identical.
func (b *BatchFS) WriteRecord(idx int, rec *models.CanonicalRecord) error {
	return b.WriteJSON(fmt.Sprintf("%04d.json", idx), rec)
}
