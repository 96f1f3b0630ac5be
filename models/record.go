package models

import "time"

// MediaRow is one photo attached to a canonical record. Display order
// follows extraction walk order; row 0 is primary.
type MediaRow struct {
	ListingID    string `json:"listing_id" db:"listing_id"`
	URL          string `json:"url" db:"url"`
	DisplayOrder int    `json:"display_order" db:"display_order"`
	IsPrimary    bool   `json:"is_primary" db:"is_primary"`
	MediaType    string `json:"media_type" db:"media_type"`
}

// LocationRow is the address-keyed row used to deduplicate locations
// across listings. Its identity is independent of listing identity.
type LocationRow struct {
	LocationID string   `json:"location_id" db:"location_id"`
	Street     *string  `json:"street" db:"street"`
	Unit       *string  `json:"unit" db:"unit"`
	City       *string  `json:"city" db:"city"`
	State      *string  `json:"state" db:"state"`
	PostalCode *string  `json:"postal_code" db:"postal_code"`
	Latitude   *float64 `json:"latitude" db:"latitude"`
	Longitude  *float64 `json:"longitude" db:"longitude"`
}

// CanonicalRecord is the final, self-contained output for one parsed
// page. It carries no behavior; re-processing the same page with the
// same batch id reproduces it byte for byte.
type CanonicalRecord struct {
	ListingID  string `json:"listing_id"`
	PropertyID string `json:"property_id"`
	LocationID string `json:"location_id"`

	BatchID    string    `json:"batch_id"`
	Platform   Platform  `json:"platform_id"`
	SourceURL  string    `json:"source_url"`
	ExternalID *string   `json:"external_property_id"`
	ScrapedAt  time.Time `json:"scraped_timestamp"`

	Address   Address  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	Beds         *float64 `json:"beds"`
	Baths        *float64 `json:"baths"`
	InteriorSqFt *int     `json:"interior_area_sqft"`
	YearBuilt    *int     `json:"year_built"`

	ListingType  string   `json:"listing_type"`
	ListPrice    *float64 `json:"list_price"`
	PricePerSqFt *float64 `json:"price_per_sqft"`

	Media []MediaRow `json:"media"`
}

// Location projects the record's address identity into a LocationRow.
func (r *CanonicalRecord) Location() LocationRow {
	return LocationRow{
		LocationID: r.LocationID,
		Street:     r.Address.Street,
		Unit:       r.Address.Unit,
		City:       r.Address.City,
		State:      r.Address.State,
		PostalCode: r.Address.PostalCode,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
	}
}
