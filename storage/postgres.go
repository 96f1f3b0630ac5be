package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homecrawl/models"
)

// PostgresStore persists canonical records into the relational schema
// (properties, listings, media, locations). All writes are idempotent
// upserts keyed on the deterministic identifiers.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// UpsertRecord fans one canonical record out to properties, listings,
// media, and locations inside a single transaction.
func (s *PostgresStore) UpsertRecord(ctx context.Context, rec *models.CanonicalRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.upsertProperty(ctx, tx, rec); err != nil {
		return fmt.Errorf("upsert property: %w", err)
	}
	if err := s.upsertListing(ctx, tx, rec); err != nil {
		return fmt.Errorf("upsert listing: %w", err)
	}
	if err := s.upsertLocation(ctx, tx, rec.Location()); err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	if err := s.replaceMedia(ctx, tx, rec.ListingID, rec.Media); err != nil {
		return fmt.Errorf("replace media: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) upsertProperty(ctx context.Context, tx pgx.Tx, rec *models.CanonicalRecord) error {
	query := `
		INSERT INTO properties (
			id, location_id, street, unit, city, state, postal_code,
			latitude, longitude, beds, baths, interior_area_sqft, year_built, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (id) DO UPDATE SET
			location_id = EXCLUDED.location_id,
			street = COALESCE(EXCLUDED.street, properties.street),
			unit = COALESCE(EXCLUDED.unit, properties.unit),
			city = COALESCE(EXCLUDED.city, properties.city),
			state = COALESCE(EXCLUDED.state, properties.state),
			postal_code = COALESCE(EXCLUDED.postal_code, properties.postal_code),
			latitude = COALESCE(EXCLUDED.latitude, properties.latitude),
			longitude = COALESCE(EXCLUDED.longitude, properties.longitude),
			beds = COALESCE(EXCLUDED.beds, properties.beds),
			baths = COALESCE(EXCLUDED.baths, properties.baths),
			interior_area_sqft = COALESCE(EXCLUDED.interior_area_sqft, properties.interior_area_sqft),
			year_built = COALESCE(EXCLUDED.year_built, properties.year_built),
			updated_at = NOW()`

	_, err := tx.Exec(ctx, query,
		rec.PropertyID, rec.LocationID,
		rec.Address.Street, rec.Address.Unit, rec.Address.City, rec.Address.State, rec.Address.PostalCode,
		rec.Latitude, rec.Longitude, rec.Beds, rec.Baths, rec.InteriorSqFt, rec.YearBuilt)
	return err
}

func (s *PostgresStore) upsertListing(ctx context.Context, tx pgx.Tx, rec *models.CanonicalRecord) error {
	query := `
		INSERT INTO listings (
			id, property_id, batch_id, platform_id, source_url, external_id,
			listing_type, list_price, price_per_sqft, scraped_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE SET
			batch_id = EXCLUDED.batch_id,
			source_url = EXCLUDED.source_url,
			external_id = COALESCE(EXCLUDED.external_id, listings.external_id),
			list_price = COALESCE(EXCLUDED.list_price, listings.list_price),
			price_per_sqft = COALESCE(EXCLUDED.price_per_sqft, listings.price_per_sqft),
			scraped_at = EXCLUDED.scraped_at,
			updated_at = NOW()`

	_, err := tx.Exec(ctx, query,
		rec.ListingID, rec.PropertyID, rec.BatchID, string(rec.Platform), rec.SourceURL,
		rec.ExternalID, rec.ListingType, rec.ListPrice, rec.PricePerSqFt, rec.ScrapedAt)
	return err
}

func (s *PostgresStore) upsertLocation(ctx context.Context, tx pgx.Tx, loc models.LocationRow) error {
	query := `
		INSERT INTO locations (
			location_id, street, unit, city, state, postal_code, latitude, longitude
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (location_id) DO UPDATE SET
			street = COALESCE(EXCLUDED.street, locations.street),
			unit = COALESCE(EXCLUDED.unit, locations.unit),
			city = COALESCE(EXCLUDED.city, locations.city),
			state = COALESCE(EXCLUDED.state, locations.state),
			postal_code = COALESCE(EXCLUDED.postal_code, locations.postal_code),
			latitude = COALESCE(EXCLUDED.latitude, locations.latitude),
			longitude = COALESCE(EXCLUDED.longitude, locations.longitude)`

	_, err := tx.Exec(ctx, query,
		loc.LocationID, loc.Street, loc.Unit, loc.City, loc.State, loc.PostalCode,
		loc.Latitude, loc.Longitude)
	return err
}

// replaceMedia deletes and reinserts the listing's media rows so
// display order always mirrors the latest parse.
func (s *PostgresStore) replaceMedia(ctx context.Context, tx pgx.Tx, listingID string, media []models.MediaRow) error {
	if _, err := tx.Exec(ctx, `DELETE FROM media WHERE listing_id = $1`, listingID); err != nil {
		return err
	}
	for _, m := range media {
		_, err := tx.Exec(ctx, `
			INSERT INTO media (listing_id, url, display_order, is_primary, media_type)
			VALUES ($1, $2, $3, $4, $5)`,
			m.ListingID, m.URL, m.DisplayOrder, m.IsPrimary, m.MediaType)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateRun mirrors run bookkeeping into Postgres for downstream joins.
func (s *PostgresStore) CreateRun(ctx context.Context, run *models.Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runs (id, batch_id, kind, started_at, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		run.ID, run.BatchID, string(run.Kind), run.StartedAt, string(run.Status))
	return err
}

func (s *PostgresStore) FinishRun(ctx context.Context, run *models.Run) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE runs SET finished_at = $2, status = $3, pages_total = $4, pages_failed = $5, records_written = $6
		WHERE id = $1`,
		run.ID, run.FinishedAt, string(run.Status), run.PagesTotal, run.PagesFailed, run.RecordsWritten)
	return err
}
