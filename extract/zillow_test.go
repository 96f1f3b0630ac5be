package extract

import "testing"

func zillowShared(payload string) string {
	return `<html><head><script data-zrr-shared-data-key="mobileSearchPageStore"><!--` +
		payload + `--></script></head><body></body></html>`
}

func TestZillowApolloPayload(t *testing.T) {
	html := `<html><head><script id="hdpApolloPreloadedData" type="application/json">` +
		`{"zpid": 5551212, "livingAreaValue": 1320, "bedrooms": 3}` +
		`</script></head><body></body></html>`
	rec := ZillowExtractor{}.Extract(docFromString(t, html), html)

	if rec.ExternalID == nil || *rec.ExternalID != "5551212" {
		t.Fatalf("unexpected external id %v", rec.ExternalID)
	}
	if rec.InteriorSqFt == nil || *rec.InteriorSqFt != 1320 {
		t.Fatalf("unexpected sqft %v", rec.InteriorSqFt)
	}
	if rec.Beds == nil || *rec.Beds != 3 {
		t.Fatalf("unexpected beds %v", rec.Beds)
	}
}

func TestZillowCommentWrapperStripped(t *testing.T) {
	html := zillowShared(`{"price": 385000, "bathrooms": 1.5}`)
	rec := ZillowExtractor{}.Extract(docFromString(t, html), html)

	if rec.ListPrice == nil || *rec.ListPrice != 385000 {
		t.Fatalf("unexpected price %v", rec.ListPrice)
	}
	if rec.Baths == nil || *rec.Baths != 1.5 {
		t.Fatalf("unexpected baths %v", rec.Baths)
	}
}

func TestZillowIDAliasOrder(t *testing.T) {
	// zpid outranks propertyId when both are present.
	html := zillowShared(`{"propertyId": 111, "zpid": 222}`)
	rec := ZillowExtractor{}.Extract(docFromString(t, html), html)

	if rec.ExternalID == nil || *rec.ExternalID != "222" {
		t.Fatalf("expected zpid to win, got %v", rec.ExternalID)
	}
}

func TestZillowPhotoShapes(t *testing.T) {
	html := zillowShared(`{"photos": [{"url": "https://p.example.com/1.jpg"}, {"hiRes": "https://p.example.com/2.jpg"}], "hiResImageLink": "https://p.example.com/3.jpg"}`)
	rec := ZillowExtractor{}.Extract(docFromString(t, html), html)

	want := []string{
		"https://p.example.com/1.jpg",
		"https://p.example.com/2.jpg",
		"https://p.example.com/3.jpg",
	}
	if len(rec.Photos) != len(want) {
		t.Fatalf("expected %d photos, got %d: %v", len(want), len(rec.Photos), rec.Photos)
	}
	for i, u := range want {
		if rec.Photos[i] != u {
			t.Fatalf("photo %d: expected %s, got %s", i, u, rec.Photos[i])
		}
	}
}

func TestZillowStringNumbers(t *testing.T) {
	html := zillowShared(`{"price": "$625,000", "livingArea": "1,780 sqft"}`)
	rec := ZillowExtractor{}.Extract(docFromString(t, html), html)

	if rec.ListPrice == nil || *rec.ListPrice != 625000 {
		t.Fatalf("unexpected price %v", rec.ListPrice)
	}
	if rec.InteriorSqFt == nil || *rec.InteriorSqFt != 1780 {
		t.Fatalf("unexpected sqft %v", rec.InteriorSqFt)
	}
}
