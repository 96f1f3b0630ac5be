package models

// Platform identifies which listing site produced a page.
type Platform string

const (
	PlatformRedfin  Platform = "redfin"
	PlatformZillow  Platform = "zillow"
	PlatformUnknown Platform = "unknown"
)

// MaxPhotos caps the photo sequence carried through extraction.
const MaxPhotos = 50

// Address holds the granular address parts an extractor managed to
// recover. Parts fill independently; a partial address is fine.
type Address struct {
	Street     *string `json:"street"`
	Unit       *string `json:"unit"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
}

// PartialRecord is the bag of optional fields a single extraction
// strategy produces. Nil means the strategy could not recover the field
// with confidence; extractors never guess.
type PartialRecord struct {
	Platform     Platform
	ExternalID   *string
	Address      Address
	Latitude     *float64
	Longitude    *float64
	ListPrice    *float64
	Beds         *float64
	Baths        *float64
	InteriorSqFt *int
	YearBuilt    *int
	Photos       []string
}

// CoreFieldCount reports how many of the four signal fields (price,
// beds, baths, interior area) are populated. Used both to score the
// dual-extraction tie-break and to trigger fallbacks.
func (r *PartialRecord) CoreFieldCount() int {
	n := 0
	if r.ListPrice != nil {
		n++
	}
	if r.Beds != nil {
		n++
	}
	if r.Baths != nil {
		n++
	}
	if r.InteriorSqFt != nil {
		n++
	}
	return n
}

// AddPhoto appends a photo URL, deduplicating by exact string and
// enforcing the cap. Walk order is preserved.
func (r *PartialRecord) AddPhoto(url string) {
	if url == "" || len(r.Photos) >= MaxPhotos {
		return
	}
	for _, u := range r.Photos {
		if u == url {
			return
		}
	}
	r.Photos = append(r.Photos, url)
}
