package extract

import (
	"os"
	"path/filepath"
	"testing"

	"homecrawl/models"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return data
}

func fixturePage(t *testing.T, name, url string) *models.RawPage {
	t.Helper()
	return &models.RawPage{
		Index: 1001,
		HTML:  loadFixture(t, name),
		Meta:  models.PageMeta{RequestedURL: url, FinalURL: url, Status: 200},
	}
}

func TestClassify(t *testing.T) {
	p := NewPipeline(nil)

	cases := []struct {
		url  string
		want models.Platform
	}{
		{"https://www.redfin.com/TX/Austin/home/17843025", models.PlatformRedfin},
		{"https://WWW.REDFIN.COM/TX/Austin/home/17843025", models.PlatformRedfin},
		{"https://www.zillow.com/homedetails/29412099_zpid/", models.PlatformZillow},
		{"https://homes.example.org/listing/42", models.PlatformUnknown},
		{"", models.PlatformUnknown},
	}

	for _, c := range cases {
		if got := p.Classify(c.url); got != c.want {
			t.Fatalf("Classify(%q) = %s, want %s", c.url, got, c.want)
		}
	}
}

func TestRun_RedfinEmbeddedData(t *testing.T) {
	p := NewPipeline(nil)
	page := fixturePage(t, "redfin_detail.html", "https://www.redfin.com/TX/Austin/1200-Barton-Springs-Rd-78704/home/17843025")

	rec := p.Run(page)

	if rec.Platform != models.PlatformRedfin {
		t.Fatalf("expected redfin platform, got %s", rec.Platform)
	}
	if rec.ExternalID == nil || *rec.ExternalID != "17843025" {
		t.Fatalf("unexpected external id %v", rec.ExternalID)
	}
	if rec.ListPrice == nil || *rec.ListPrice != 725000 {
		t.Fatalf("unexpected price %v", rec.ListPrice)
	}
	if rec.Beds == nil || *rec.Beds != 3 {
		t.Fatalf("unexpected beds %v", rec.Beds)
	}
	if rec.Baths == nil || *rec.Baths != 2.5 {
		t.Fatalf("unexpected baths %v", rec.Baths)
	}
	if rec.InteriorSqFt == nil || *rec.InteriorSqFt != 1854 {
		t.Fatalf("unexpected sqft %v", rec.InteriorSqFt)
	}
	if rec.YearBuilt == nil || *rec.YearBuilt != 1998 {
		t.Fatalf("unexpected year built %v", rec.YearBuilt)
	}
	if rec.Address.Street == nil || *rec.Address.Street != "1200 Barton Springs Rd" {
		t.Fatalf("unexpected street %v", rec.Address.Street)
	}
	if rec.Address.Unit == nil || *rec.Address.Unit != "4B" {
		t.Fatalf("unexpected unit %v", rec.Address.Unit)
	}
	if rec.Address.City == nil || *rec.Address.City != "Austin" {
		t.Fatalf("unexpected city %v", rec.Address.City)
	}
	if rec.Address.PostalCode == nil || *rec.Address.PostalCode != "78704" {
		t.Fatalf("unexpected postal code %v", rec.Address.PostalCode)
	}
	if rec.Latitude == nil || *rec.Latitude != 30.2637 {
		t.Fatalf("unexpected latitude %v", rec.Latitude)
	}
	if rec.Longitude == nil || *rec.Longitude != -97.7563 {
		t.Fatalf("unexpected longitude %v", rec.Longitude)
	}
	if len(rec.Photos) != 2 {
		t.Fatalf("expected 2 photos after dedup, got %d", len(rec.Photos))
	}
	if rec.Photos[0] != "https://ssl.cdn-redfin.com/photo/1.jpg" {
		t.Fatalf("unexpected first photo %s", rec.Photos[0])
	}
}

func TestRun_ZillowEmbeddedData(t *testing.T) {
	p := NewPipeline(nil)
	page := fixturePage(t, "zillow_detail.html", "https://www.zillow.com/homedetails/2201-Willow-Creek-Dr-Austin-TX-78741/29412099_zpid/")

	rec := p.Run(page)

	if rec.Platform != models.PlatformZillow {
		t.Fatalf("expected zillow platform, got %s", rec.Platform)
	}
	if rec.ExternalID == nil || *rec.ExternalID != "29412099" {
		t.Fatalf("unexpected external id %v", rec.ExternalID)
	}
	if rec.ListPrice == nil || *rec.ListPrice != 410000 {
		t.Fatalf("unexpected price %v", rec.ListPrice)
	}
	if rec.Beds == nil || *rec.Beds != 2 {
		t.Fatalf("unexpected beds %v", rec.Beds)
	}
	if rec.InteriorSqFt == nil || *rec.InteriorSqFt != 980 {
		t.Fatalf("unexpected sqft %v", rec.InteriorSqFt)
	}
	if rec.Address.Street == nil || *rec.Address.Street != "2201 Willow Creek Dr" {
		t.Fatalf("unexpected street %v", rec.Address.Street)
	}
	if rec.Latitude == nil || *rec.Latitude != 30.2336 {
		t.Fatalf("unexpected latitude %v", rec.Latitude)
	}
	if len(rec.Photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(rec.Photos))
	}
	if rec.Photos[0] != "https://photos.zillowstatic.com/1.jpg" {
		t.Fatalf("unexpected first photo %s", rec.Photos[0])
	}
	if rec.Photos[1] != "https://photos.zillowstatic.com/h.jpg" {
		t.Fatalf("unexpected second photo %s", rec.Photos[1])
	}
}

// A malformed embedded payload yields nothing from the primary
// extractor, so the schema.org block fills what it can. The platform
// classification survives the fallback.
func TestRun_SchemaOrgFallback(t *testing.T) {
	p := NewPipeline(nil)
	page := fixturePage(t, "redfin_broken_embed.html", "https://www.redfin.com/TX/Austin/500-E-5th-St/home/999")

	rec := p.Run(page)

	if rec.Platform != models.PlatformRedfin {
		t.Fatalf("expected redfin platform, got %s", rec.Platform)
	}
	if rec.ListPrice != nil {
		t.Fatalf("expected nil price, got %v", *rec.ListPrice)
	}
	if rec.Beds == nil || *rec.Beds != 2 {
		t.Fatalf("unexpected beds %v", rec.Beds)
	}
	if rec.InteriorSqFt == nil || *rec.InteriorSqFt != 1100 {
		t.Fatalf("unexpected sqft %v", rec.InteriorSqFt)
	}
	if rec.YearBuilt == nil || *rec.YearBuilt != 2005 {
		t.Fatalf("unexpected year built %v", rec.YearBuilt)
	}
	if rec.Address.Street == nil || *rec.Address.Street != "500 E 5th St" {
		t.Fatalf("unexpected street %v", rec.Address.Street)
	}
	if rec.Latitude == nil || *rec.Latitude != 30.2621 {
		t.Fatalf("unexpected latitude %v", rec.Latitude)
	}
	if rec.Longitude == nil || *rec.Longitude != -97.7382 {
		t.Fatalf("unexpected longitude %v", rec.Longitude)
	}
	if len(rec.Photos) != 1 || rec.Photos[0] != "https://photos.example.com/a.jpg" {
		t.Fatalf("unexpected photos %v", rec.Photos)
	}
}

// No structured data at all: the regex net over the page text is the
// only thing standing.
func TestRun_TextFallback(t *testing.T) {
	p := NewPipeline(nil)
	page := fixturePage(t, "text_only.html", "https://www.zillow.com/homedetails/somewhere/1234_zpid/")

	rec := p.Run(page)

	if rec.Platform != models.PlatformZillow {
		t.Fatalf("expected zillow platform, got %s", rec.Platform)
	}
	if rec.ListPrice == nil || *rec.ListPrice != 550000 {
		t.Fatalf("unexpected price %v", rec.ListPrice)
	}
	if rec.Beds == nil || *rec.Beds != 4 {
		t.Fatalf("unexpected beds %v", rec.Beds)
	}
	if rec.Baths == nil || *rec.Baths != 3 {
		t.Fatalf("unexpected baths %v", rec.Baths)
	}
	if rec.InteriorSqFt == nil || *rec.InteriorSqFt != 2450 {
		t.Fatalf("unexpected sqft %v", rec.InteriorSqFt)
	}
	if rec.YearBuilt == nil || *rec.YearBuilt != 2001 {
		t.Fatalf("unexpected year built %v", rec.YearBuilt)
	}
}

// Unknown URL with redfin-shaped data: both extractors run and the one
// that recovered more signal fields wins.
func TestRun_UnknownURLPicksRicherExtraction(t *testing.T) {
	p := NewPipeline(nil)
	page := fixturePage(t, "unknown_redfin_shaped.html", "https://homes.example.org/listing/42")

	rec := p.Run(page)

	if rec.Platform != models.PlatformRedfin {
		t.Fatalf("expected redfin result to win, got %s", rec.Platform)
	}
	if rec.ListPrice == nil || *rec.ListPrice != 300000 {
		t.Fatalf("unexpected price %v", rec.ListPrice)
	}
	if rec.Beds == nil || *rec.Beds != 2 {
		t.Fatalf("unexpected beds %v", rec.Beds)
	}
}

// A page that defeats every strategy still produces a record; ties in
// the dual extraction favor the first extractor evaluated.
func TestRun_EmptyPage(t *testing.T) {
	p := NewPipeline(nil)
	page := &models.RawPage{
		HTML: []byte("<html><body><p>nothing here</p></body></html>"),
		Meta: models.PageMeta{RequestedURL: "https://homes.example.org/empty"},
	}

	rec := p.Run(page)

	if rec.Platform != models.PlatformRedfin {
		t.Fatalf("expected tie to favor first extractor, got %s", rec.Platform)
	}
	if rec.CoreFieldCount() != 0 {
		t.Fatalf("expected no signal fields, got %d", rec.CoreFieldCount())
	}
}
