package extract

import (
	"github.com/PuerkitoBio/goquery"

	"homecrawl/models"
)

// Alias tables for the zillow embedded data model (shared-data blocks
// and the Apollo preload cache use overlapping but not identical names).
var (
	zillowIDKeys    = []string{"zpid", "zillowId", "propertyId"}
	zillowPriceKeys = []string{"price", "listPrice", "priceForHDP"}
	zillowBedKeys   = []string{"bedrooms", "beds"}
	zillowBathKeys  = []string{"bathrooms", "baths"}
	zillowAreaKeys  = []string{"livingArea", "livingAreaValue", "area", "finishedSqFt", "finishedArea"}
	zillowPhotoKeys = []string{"photos", "media", "photoGallery", "hiResImageLink"}
)

// ZillowExtractor pulls fields out of zillow's shared-data script blocks
// and the hdpApolloPreloadedData cache.
type ZillowExtractor struct{}

func (ZillowExtractor) Platform() models.Platform { return models.PlatformZillow }

func (e ZillowExtractor) Extract(doc *goquery.Document, htmlText string) *models.PartialRecord {
	rec := &models.PartialRecord{Platform: models.PlatformZillow}

	payloads := scriptJSON(doc, `script[data-zrr-shared-data-key]`)
	payloads = append(payloads, scriptJSON(doc, `script#hdpApolloPreloadedData[type="application/json"]`)...)

	for _, payload := range payloads {
		walk(payload, func(m map[string]any) {
			e.visit(rec, m)
		})
	}

	recoverPriceArea(rec, htmlText)
	return rec
}

func (ZillowExtractor) visit(rec *models.PartialRecord, m map[string]any) {
	for _, k := range zillowIDKeys {
		if v, ok := m[k]; ok {
			fillExternalID(&rec.ExternalID, v)
		}
	}

	if hasAnyKey(m, "streetAddress", "city", "state", "zipcode", "postalCode", "unitNumber", "unit") {
		fillString(&rec.Address.Street, m["streetAddress"])
		if v, ok := firstPresent(m, "unitNumber", "unit"); ok {
			fillString(&rec.Address.Unit, v)
		}
		fillString(&rec.Address.City, m["city"])
		fillString(&rec.Address.State, m["state"])
		if v, ok := firstPresent(m, "zipcode", "postalCode"); ok {
			fillString(&rec.Address.PostalCode, v)
		}
	}

	fillCoord(&rec.Latitude, m["latitude"])
	fillCoord(&rec.Longitude, m["longitude"])

	if v, ok := firstPresent(m, zillowPriceKeys...); ok {
		fillFloat(&rec.ListPrice, v)
	}
	if v, ok := firstPresent(m, zillowBedKeys...); ok {
		fillFloat(&rec.Beds, v)
	}
	if v, ok := firstPresent(m, zillowBathKeys...); ok {
		fillFloat(&rec.Baths, v)
	}
	if v, ok := firstPresent(m, zillowAreaKeys...); ok {
		fillInt(&rec.InteriorSqFt, v)
	}
	fillYear(&rec.YearBuilt, m["yearBuilt"])

	for _, key := range zillowPhotoKeys {
		switch v := m[key].(type) {
		case []any:
			for _, p := range v {
				if obj, ok := p.(map[string]any); ok {
					if u, ok := firstPresent(obj, "url", "href", "rawUrl", "hiRes"); ok {
						rec.AddPhoto(stringValue(u))
					}
				}
			}
		case string:
			rec.AddPhoto(stringValue(v))
		}
	}
}
