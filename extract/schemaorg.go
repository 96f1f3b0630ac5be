package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homecrawl/models"
)

// Type markers that make a JSON-LD block worth reading. Sites disagree
// on whether the listing is a Residence, an Offer, or both.
var schemaOrgTypes = []string{
	"residence", "singlefamily", "house", "apartment", "offer", "realestatelisting",
}

// SchemaOrgExtractor is the source-agnostic fallback: it reads
// application/ld+json blocks using the schema.org vocabulary instead of
// either platform's internal one. Runs only when the primary extractor
// came back empty on all four signal fields.
type SchemaOrgExtractor struct{}

func (SchemaOrgExtractor) Platform() models.Platform { return models.PlatformUnknown }

func (e SchemaOrgExtractor) Extract(doc *goquery.Document, htmlText string) *models.PartialRecord {
	rec := &models.PartialRecord{Platform: models.PlatformUnknown}

	for _, payload := range scriptJSON(doc, `script[type="application/ld+json"]`) {
		walk(payload, func(m map[string]any) {
			e.visit(rec, m)
		})
	}

	return rec
}

func (SchemaOrgExtractor) visit(rec *models.PartialRecord, m map[string]any) {
	t, _ := firstPresent(m, "@type", "type")
	typ := strings.ToLower(stringValue(t))
	if !matchesSchemaType(typ) {
		return
	}

	if offer, ok := m["offers"].(map[string]any); ok {
		if v, ok := firstPresent(offer, "price", "lowPrice", "highPrice"); ok {
			fillFloat(&rec.ListPrice, v)
		}
	}

	if addr, ok := m["address"].(map[string]any); ok {
		fillString(&rec.Address.Street, addr["streetAddress"])
		fillString(&rec.Address.City, addr["addressLocality"])
		fillString(&rec.Address.State, addr["addressRegion"])
		fillString(&rec.Address.PostalCode, addr["postalCode"])
	}

	if geo, ok := m["geo"].(map[string]any); ok {
		fillCoord(&rec.Latitude, geo["latitude"])
		fillCoord(&rec.Longitude, geo["longitude"])
	}

	if v, ok := firstPresent(m, "numberOfRooms", "bedrooms"); ok {
		fillFloat(&rec.Beds, v)
	}
	if v, ok := firstPresent(m, "bathroomCount", "bathrooms"); ok {
		fillFloat(&rec.Baths, v)
	}
	if area, ok := m["floorSize"].(map[string]any); ok {
		fillInt(&rec.InteriorSqFt, area["value"])
	}
	fillYear(&rec.YearBuilt, m["yearBuilt"])

	switch imgs := m["image"].(type) {
	case []any:
		for _, u := range imgs {
			if s, ok := u.(string); ok {
				rec.AddPhoto(strings.TrimSpace(s))
			}
		}
	case string:
		rec.AddPhoto(strings.TrimSpace(imgs))
	}
}

func matchesSchemaType(typ string) bool {
	for _, marker := range schemaOrgTypes {
		if strings.Contains(typ, marker) {
			return true
		}
	}
	return false
}
