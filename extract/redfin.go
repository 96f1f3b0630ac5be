package extract

import (
	"github.com/PuerkitoBio/goquery"

	"homecrawl/models"
)

// Alias tables for the redfin embedded data model. The schema has
// drifted over the years; each list is every key name observed carrying
// the field, in preference order.
var (
	redfinIDKeys    = []string{"propertyId", "propertyIdStr", "id"}
	redfinAreaKeys  = []string{"squareFeet", "sqFt", "livingArea", "livingAreaSqFt", "aboveGradeFinishedArea"}
	redfinPriceKeys = []string{"price", "listPrice"}
	redfinBathKeys  = []string{"baths", "bathsTotal"}
)

// RedfinExtractor pulls fields out of the __NEXT_DATA__ payload redfin
// embeds in every detail page.
type RedfinExtractor struct{}

func (RedfinExtractor) Platform() models.Platform { return models.PlatformRedfin }

func (e RedfinExtractor) Extract(doc *goquery.Document, htmlText string) *models.PartialRecord {
	rec := &models.PartialRecord{Platform: models.PlatformRedfin}

	for _, payload := range scriptJSON(doc, `script#__NEXT_DATA__[type="application/json"]`) {
		walk(payload, func(m map[string]any) {
			e.visit(rec, m)
		})
	}

	recoverPriceArea(rec, htmlText)
	return rec
}

func (RedfinExtractor) visit(rec *models.PartialRecord, m map[string]any) {
	for _, k := range redfinIDKeys {
		if v, ok := m[k]; ok {
			fillExternalID(&rec.ExternalID, v)
		}
	}

	// Address keys fill independently; one object may carry only the
	// city while a deeper one carries the street.
	if hasAnyKey(m, "streetLine", "city", "zip", "postalCode", "state", "stateCode", "unitNumber", "unit") {
		fillString(&rec.Address.Street, m["streetLine"])
		if v, ok := firstPresent(m, "unitNumber", "unit"); ok {
			fillString(&rec.Address.Unit, v)
		}
		fillString(&rec.Address.City, m["city"])
		if v, ok := firstPresent(m, "state", "stateCode"); ok {
			fillString(&rec.Address.State, v)
		}
		if v, ok := firstPresent(m, "zip", "postalCode"); ok {
			fillString(&rec.Address.PostalCode, v)
		}
	}

	fillCoord(&rec.Latitude, m["latitude"])
	fillCoord(&rec.Longitude, m["longitude"])

	if v, ok := firstPresent(m, redfinPriceKeys...); ok {
		fillFloat(&rec.ListPrice, v)
	}
	fillFloat(&rec.Beds, m["beds"])
	if v, ok := firstPresent(m, redfinBathKeys...); ok {
		fillFloat(&rec.Baths, v)
	}
	if v, ok := firstPresent(m, redfinAreaKeys...); ok {
		fillInt(&rec.InteriorSqFt, v)
	}
	fillYear(&rec.YearBuilt, m["yearBuilt"])

	if photos, ok := m["photos"].([]any); ok {
		for _, p := range photos {
			if obj, ok := p.(map[string]any); ok {
				if u, ok := firstPresent(obj, "url", "href", "src"); ok {
					rec.AddPhoto(stringValue(u))
				}
			}
		}
	}
}
