// Package services turns merged extraction output into canonical
// records and tracks batch-level location dedup.
package services

import (
	"math"
	"strings"

	"homecrawl/identity"
	"homecrawl/models"
)

// BuildRecord maps a merged PartialRecord into the canonical output
// schema: deterministic identifiers, derived price-per-area, media rows.
// Pure function of its inputs — the timestamp comes from the page's
// fetch metadata, so re-processing the same page reproduces the record
// exactly.
func BuildRecord(rec *models.PartialRecord, page *models.RawPage, batchID string) *models.CanonicalRecord {
	sourceURL := strings.ToLower(page.SourceURL())
	listingID := identity.ListingID(rec.Platform, rec.ExternalID, sourceURL)

	out := &models.CanonicalRecord{
		ListingID:    listingID,
		PropertyID:   identity.PropertyID(listingID),
		BatchID:      batchID,
		Platform:     rec.Platform,
		SourceURL:    sourceURL,
		ExternalID:   rec.ExternalID,
		ScrapedAt:    page.Meta.FetchedAt.UTC(),
		Address:      rec.Address,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		Beds:         rec.Beds,
		Baths:        rec.Baths,
		InteriorSqFt: rec.InteriorSqFt,
		YearBuilt:    rec.YearBuilt,
		ListingType:  "sale",
		ListPrice:    rec.ListPrice,
	}
	out.LocationID = identity.LocationID(out.Address, out.Latitude, out.Longitude)

	if out.ListPrice != nil && out.InteriorSqFt != nil && *out.ListPrice > 0 && *out.InteriorSqFt > 0 {
		ppsf := math.Round(*out.ListPrice/float64(*out.InteriorSqFt)*100) / 100
		out.PricePerSqFt = &ppsf
	}

	photos := rec.Photos
	if len(photos) > models.MaxPhotos {
		photos = photos[:models.MaxPhotos]
	}
	for i, u := range photos {
		out.Media = append(out.Media, models.MediaRow{
			ListingID:    listingID,
			URL:          u,
			DisplayOrder: i,
			IsPrimary:    i == 0,
			MediaType:    "image",
		})
	}

	return out
}
