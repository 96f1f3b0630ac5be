package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"homecrawl/models"
)

func newTestBatch(t *testing.T) *BatchFS {
	t.Helper()
	fs, err := NewBatchFS(t.TempDir(), "20260314_093000")
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return fs
}

func TestWriteReadPage(t *testing.T) {
	fs := newTestBatch(t)

	meta := models.PageMeta{
		RequestedURL: "https://www.redfin.com/zipcode/78704",
		FinalURL:     "https://www.redfin.com/zipcode/78704",
		Status:       200,
		FetchedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	if err := fs.WritePage(1001, []byte("<html>hi</html>"), meta); err != nil {
		t.Fatalf("write page: %v", err)
	}

	page, err := fs.ReadPage(1001)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if string(page.HTML) != "<html>hi</html>" {
		t.Fatalf("unexpected html %q", page.HTML)
	}
	if page.Index != 1001 {
		t.Fatalf("unexpected index %d", page.Index)
	}
	if !page.Meta.FetchedAt.Equal(meta.FetchedAt) {
		t.Fatalf("fetch timestamp did not round-trip: %s", page.Meta.FetchedAt)
	}
	if page.Meta.Status != 200 {
		t.Fatalf("unexpected status %d", page.Meta.Status)
	}
}

func TestFetchedURLs(t *testing.T) {
	fs := newTestBatch(t)

	urls := []string{
		"https://www.redfin.com/zipcode/78704",
		"https://www.redfin.com/zipcode/78745",
	}
	for i, u := range urls {
		meta := models.PageMeta{RequestedURL: u, Status: 200}
		if err := fs.WritePage(i+1, []byte("<html></html>"), meta); err != nil {
			t.Fatalf("write page: %v", err)
		}
	}

	indices, err := fs.SearchIndices(0)
	if err != nil {
		t.Fatalf("search indices: %v", err)
	}
	fetched := fs.FetchedURLs(indices)
	if len(fetched) != 2 {
		t.Fatalf("expected 2 fetched urls, got %d", len(fetched))
	}
	for _, u := range urls {
		if !fetched[u] {
			t.Fatalf("missing url %s", u)
		}
	}
	if fetched["https://www.redfin.com/zipcode/78748"] {
		t.Fatal("unfetched url reported as fetched")
	}
}

func TestFetchedURLsSkipsUnreadableMeta(t *testing.T) {
	fs := newTestBatch(t)

	meta := models.PageMeta{RequestedURL: "https://www.zillow.com/homes/78704_rb/", Status: 200}
	if err := fs.WritePage(1, []byte("<html></html>"), meta); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if err := os.Remove(filepath.Join(fs.RawDir(), "0001_meta.json")); err != nil {
		t.Fatalf("remove meta: %v", err)
	}

	fetched := fs.FetchedURLs([]int{1})
	if len(fetched) != 0 {
		t.Fatalf("expected page without metadata to count as unfetched, got %v", fetched)
	}
}

func TestReadPageMissing(t *testing.T) {
	fs := newTestBatch(t)

	_, err := fs.ReadPage(1001)
	if !errors.Is(err, ErrPageMissing) {
		t.Fatalf("expected ErrPageMissing, got %v", err)
	}
}

func TestIndexRanges(t *testing.T) {
	fs := newTestBatch(t)

	for _, idx := range []int{1, 2, 1001, 1002, 1003} {
		if err := fs.WritePage(idx, []byte("x"), models.PageMeta{}); err != nil {
			t.Fatalf("write page %d: %v", idx, err)
		}
	}

	search, err := fs.SearchIndices(0)
	if err != nil {
		t.Fatalf("search indices: %v", err)
	}
	if len(search) != 2 || search[0] != 1 || search[1] != 2 {
		t.Fatalf("unexpected search indices %v", search)
	}

	detail, err := fs.DetailIndices(0)
	if err != nil {
		t.Fatalf("detail indices: %v", err)
	}
	if len(detail) != 3 || detail[0] != 1001 || detail[2] != 1003 {
		t.Fatalf("unexpected detail indices %v", detail)
	}

	limited, err := fs.DetailIndices(2)
	if err != nil {
		t.Fatalf("detail indices limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit not applied: %v", limited)
	}

	if got := fs.NextSearchIndex(); got != 3 {
		t.Fatalf("expected next search index 3, got %d", got)
	}
	if got := fs.NextDetailIndex(); got != 1004 {
		t.Fatalf("expected next detail index 1004, got %d", got)
	}
}

func TestNextIndicesOnEmptyBatch(t *testing.T) {
	fs := newTestBatch(t)

	if got := fs.NextSearchIndex(); got != 1 {
		t.Fatalf("expected first search index 1, got %d", got)
	}
	if got := fs.NextDetailIndex(); got != 1001 {
		t.Fatalf("expected first detail index 1001, got %d", got)
	}
}

func TestWriteRecordDeterministicBytes(t *testing.T) {
	fs := newTestBatch(t)

	rec := &models.CanonicalRecord{
		ListingID:   "abc",
		PropertyID:  "abc",
		BatchID:     "20260314_093000",
		Platform:    models.PlatformRedfin,
		SourceURL:   "https://www.redfin.com/tx/austin/home/1",
		ListingType: "sale",
		ScrapedAt:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	if err := fs.WriteRecord(1001, rec); err != nil {
		t.Fatalf("write record: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(fs.StructuredDir(), "1001.json"))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}

	if err := fs.WriteRecord(1001, rec); err != nil {
		t.Fatalf("rewrite record: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(fs.StructuredDir(), "1001.json"))
	if err != nil {
		t.Fatalf("reread record: %v", err)
	}

	if string(first) != string(second) {
		t.Fatalf("re-writing the same record changed the bytes")
	}
}

func TestReadJSONRoundTrip(t *testing.T) {
	fs := newTestBatch(t)

	in := []string{"a", "b"}
	if err := fs.WriteJSON("listing_urls.json", in); err != nil {
		t.Fatalf("write json: %v", err)
	}

	var out []string
	if err := fs.ReadJSON("listing_urls.json", &out); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if len(out) != 2 || out[0] != "a" || out[1] != "b" {
		t.Fatalf("unexpected round trip %v", out)
	}
}

func TestLatestBatchID(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"20260101_000000", "20260301_000000"} {
		if _, err := NewBatchFS(root, id); err != nil {
			t.Fatalf("create batch %s: %v", id, err)
		}
	}

	// Make modification times unambiguous.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(root, "20260101_000000"), old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	latest, err := LatestBatchID(root)
	if err != nil {
		t.Fatalf("latest batch: %v", err)
	}
	if latest != "20260301_000000" {
		t.Fatalf("expected newest batch, got %s", latest)
	}
}

func TestLatestBatchIDEmptyRoot(t *testing.T) {
	if _, err := LatestBatchID(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty root")
	}
}
