package extract

import "homecrawl/models"

// Backfill adopts src's value for every field dst still has nil,
// field by field. It never overwrites a populated field, which makes
// the whole fallback ladder monotonic: values only go from nil to
// populated, never populated to different-populated.
func Backfill(dst, src *models.PartialRecord) {
	if dst.ExternalID == nil {
		dst.ExternalID = src.ExternalID
	}

	if dst.Address.Street == nil {
		dst.Address.Street = src.Address.Street
	}
	if dst.Address.Unit == nil {
		dst.Address.Unit = src.Address.Unit
	}
	if dst.Address.City == nil {
		dst.Address.City = src.Address.City
	}
	if dst.Address.State == nil {
		dst.Address.State = src.Address.State
	}
	if dst.Address.PostalCode == nil {
		dst.Address.PostalCode = src.Address.PostalCode
	}

	if dst.Latitude == nil {
		dst.Latitude = src.Latitude
	}
	if dst.Longitude == nil {
		dst.Longitude = src.Longitude
	}

	if dst.ListPrice == nil {
		dst.ListPrice = src.ListPrice
	}
	if dst.Beds == nil {
		dst.Beds = src.Beds
	}
	if dst.Baths == nil {
		dst.Baths = src.Baths
	}
	if dst.InteriorSqFt == nil {
		dst.InteriorSqFt = src.InteriorSqFt
	}
	if dst.YearBuilt == nil {
		dst.YearBuilt = src.YearBuilt
	}

	if len(dst.Photos) == 0 {
		dst.Photos = src.Photos
	}
}
