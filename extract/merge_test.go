package extract

import (
	"testing"

	"homecrawl/models"
)

func TestBackfillFillsOnlyNilFields(t *testing.T) {
	price := 100000.0
	otherPrice := 999999.0
	beds := 2.0
	street := "1 Main St"

	dst := &models.PartialRecord{ListPrice: &price}
	src := &models.PartialRecord{
		ListPrice: &otherPrice,
		Beds:      &beds,
		Address:   models.Address{Street: &street},
		Photos:    []string{"https://p.example.com/1.jpg"},
	}

	Backfill(dst, src)

	if *dst.ListPrice != 100000 {
		t.Fatalf("populated price was overwritten: %v", *dst.ListPrice)
	}
	if dst.Beds == nil || *dst.Beds != 2 {
		t.Fatalf("nil beds not backfilled: %v", dst.Beds)
	}
	if dst.Address.Street == nil || *dst.Address.Street != "1 Main St" {
		t.Fatalf("nil street not backfilled: %v", dst.Address.Street)
	}
	if len(dst.Photos) != 1 {
		t.Fatalf("empty photos not adopted: %v", dst.Photos)
	}
}

func TestBackfillKeepsExistingPhotos(t *testing.T) {
	dst := &models.PartialRecord{Photos: []string{"https://p.example.com/keep.jpg"}}
	src := &models.PartialRecord{Photos: []string{"https://p.example.com/drop.jpg"}}

	Backfill(dst, src)

	if len(dst.Photos) != 1 || dst.Photos[0] != "https://p.example.com/keep.jpg" {
		t.Fatalf("photo sequence was replaced: %v", dst.Photos)
	}
}

func TestBackfillCoordinates(t *testing.T) {
	lat := 30.25
	lng := -97.75

	dst := &models.PartialRecord{}
	src := &models.PartialRecord{Latitude: &lat, Longitude: &lng}

	Backfill(dst, src)

	if dst.Latitude == nil || *dst.Latitude != 30.25 {
		t.Fatalf("latitude not backfilled: %v", dst.Latitude)
	}
	if dst.Longitude == nil || *dst.Longitude != -97.75 {
		t.Fatalf("longitude not backfilled: %v", dst.Longitude)
	}
}
