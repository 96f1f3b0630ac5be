package extract

import (
	"regexp"

	"homecrawl/models"
	"homecrawl/normalize"
)

var (
	rePriceDollar  = regexp.MustCompile(`\$\s*([\d,]+)`)
	rePriceLabeled = regexp.MustCompile(`(?i)price[:\s]*\$?\s*([\d,.]+)`)
	reBeds         = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*beds?`)
	reBaths        = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*baths?`)
	reSqFt         = regexp.MustCompile(`(?i)([\d,.]+)\s*(?:sq\s*ft|sqft)`)
	reYearBuilt    = regexp.MustCompile(`(?i)year\s*built[:\s]*([12]\d{3})`)
)

// ScanText is the last-resort strategy: five independent regex scans
// over the raw page text. It never inspects structure; any field whose
// pattern does not match stays nil.
func ScanText(htmlText string) *models.PartialRecord {
	rec := &models.PartialRecord{Platform: models.PlatformUnknown}

	if m := rePriceDollar.FindStringSubmatch(htmlText); m != nil {
		rec.ListPrice = normalize.ParseFloat(m[1])
	}
	if m := reBeds.FindStringSubmatch(htmlText); m != nil {
		rec.Beds = normalize.ParseFloat(m[1])
	}
	if m := reBaths.FindStringSubmatch(htmlText); m != nil {
		rec.Baths = normalize.ParseFloat(m[1])
	}
	if m := reSqFt.FindStringSubmatch(htmlText); m != nil {
		rec.InteriorSqFt = normalize.ParseInt(m[1])
	}
	if m := reYearBuilt.FindStringSubmatch(htmlText); m != nil {
		rec.YearBuilt = normalize.ParseInt(m[1])
	}

	return rec
}

// recoverPriceArea is the bounded in-extractor recovery shared by the
// platform extractors: when the structured walk found neither price nor
// interior area, try the visible text before giving up on both.
func recoverPriceArea(rec *models.PartialRecord, htmlText string) {
	if rec.ListPrice != nil || rec.InteriorSqFt != nil {
		return
	}
	if m := reSqFt.FindStringSubmatch(htmlText); m != nil {
		rec.InteriorSqFt = normalize.ParseInt(m[1])
	}
	if m := rePriceLabeled.FindStringSubmatch(htmlText); m != nil {
		rec.ListPrice = normalize.ParseFloat(m[1])
	}
}
