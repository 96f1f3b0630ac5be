package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homecrawl/models"
)

// DefaultPatterns maps each platform to the URL substring that
// identifies it. Overridable from config; matching is case-insensitive.
var DefaultPatterns = map[models.Platform]string{
	models.PlatformRedfin: "redfin.com",
	models.PlatformZillow: "zillow.com",
}

// Pipeline runs the full multi-strategy extraction for one page:
// classify by URL, run the platform extractor, then back-fill from
// progressively weaker strategies while fields remain nil. One pipeline
// is safe for concurrent use; the extractors are stateless.
type Pipeline struct {
	patterns map[models.Platform]string

	// Evaluation order matters: classification ties favor the first.
	redfin  RedfinExtractor
	zillow  ZillowExtractor
	generic SchemaOrgExtractor
}

func NewPipeline(patterns map[models.Platform]string) *Pipeline {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Pipeline{patterns: patterns}
}

// Classify picks the platform from the page URL. Unknown is not an
// error; Run resolves it by trying both extractors.
func (p *Pipeline) Classify(sourceURL string) models.Platform {
	u := strings.ToLower(sourceURL)
	for _, platform := range []models.Platform{models.PlatformRedfin, models.PlatformZillow} {
		if pat := p.patterns[platform]; pat != "" && strings.Contains(u, pat) {
			return platform
		}
	}
	return models.PlatformUnknown
}

// Run executes CLASSIFY -> PRIMARY_EXTRACT -> [GENERIC_FALLBACK] ->
// [TEXT_FALLBACK] and returns the merged result. It never fails: a page
// that defeats every strategy yields a record with only the platform.
func (p *Pipeline) Run(page *models.RawPage) *models.PartialRecord {
	htmlText := string(page.HTML)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		// Unparseable bytes: the structured strategies have nothing to
		// walk, but the text net still applies.
		rec := ScanText(htmlText)
		rec.Platform = p.Classify(page.SourceURL())
		return rec
	}

	var rec *models.PartialRecord
	switch p.Classify(page.SourceURL()) {
	case models.PlatformRedfin:
		rec = p.redfin.Extract(doc, htmlText)
	case models.PlatformZillow:
		rec = p.zillow.Extract(doc, htmlText)
	default:
		// Try both and keep whichever recovered more signal fields.
		a := p.redfin.Extract(doc, htmlText)
		b := p.zillow.Extract(doc, htmlText)
		if a.CoreFieldCount() >= b.CoreFieldCount() {
			rec = a
		} else {
			rec = b
		}
	}

	if rec.CoreFieldCount() == 0 {
		Backfill(rec, p.generic.Extract(doc, htmlText))
	}
	if rec.CoreFieldCount() < 4 {
		Backfill(rec, ScanText(htmlText))
	}

	return rec
}
