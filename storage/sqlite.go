package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"homecrawl/models"
)

// SQLiteStore holds operational data: fetch/parse run bookkeeping,
// run logs, and the persisted location dedup table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_total INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		records_written INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY,
		run_id TEXT,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		batch_id TEXT
	);

	CREATE TABLE IF NOT EXISTS locations (
		location_id TEXT PRIMARY KEY,
		street TEXT,
		unit TEXT,
		city TEXT,
		state TEXT,
		postal_code TEXT,
		latitude REAL,
		longitude REAL,
		updated_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_batch ON runs(batch_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON run_logs(run_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, batch_id, kind, started_at, status, pages_total, pages_failed, records_written)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.BatchID, string(run.Kind), run.StartedAt, string(run.Status),
		run.PagesTotal, run.PagesFailed, run.RecordsWritten)
	return err
}

func (s *SQLiteStore) UpdateRun(run *models.Run) error {
	_, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, pages_total = ?, pages_failed = ?, records_written = ?
		WHERE id = ?`,
		run.FinishedAt, string(run.Status), run.PagesTotal, run.PagesFailed, run.RecordsWritten,
		run.ID.String())
	return err
}

func (s *SQLiteStore) Log(runID *string, level models.LogLevel, message, batchID string) error {
	_, err := s.db.Exec(`
		INSERT INTO run_logs (run_id, timestamp, level, message, batch_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), string(level), message, batchID)
	return err
}

func (s *SQLiteStore) UpsertLocation(loc *models.LocationRow) error {
	_, err := s.db.Exec(`
		INSERT INTO locations (location_id, street, unit, city, state, postal_code, latitude, longitude, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id) DO UPDATE SET
			street = COALESCE(excluded.street, street),
			unit = COALESCE(excluded.unit, unit),
			city = COALESCE(excluded.city, city),
			state = COALESCE(excluded.state, state),
			postal_code = COALESCE(excluded.postal_code, postal_code),
			latitude = COALESCE(excluded.latitude, latitude),
			longitude = COALESCE(excluded.longitude, longitude),
			updated_at = excluded.updated_at`,
		loc.LocationID, loc.Street, loc.Unit, loc.City, loc.State, loc.PostalCode,
		loc.Latitude, loc.Longitude, time.Now())
	return err
}

func (s *SQLiteStore) GetLocationCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM locations`).Scan(&n)
	return n, err
}

// RecentLogs returns the newest run log lines for a batch, newest
// first.
func (s *SQLiteStore) RecentLogs(batchID string, limit int) ([]models.RunLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, batch_id
		FROM run_logs WHERE batch_id = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?`,
		batchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.RunLog
	for rows.Next() {
		var l models.RunLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &l.BatchID); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetLastRunTime returns when the newest completed run of the given
// kind finished, or the zero time when the batch has none.
func (s *SQLiteStore) GetLastRunTime(batchID string, kind models.RunKind) (time.Time, error) {
	var t time.Time
	err := s.db.QueryRow(`
		SELECT finished_at FROM runs
		WHERE batch_id = ? AND kind = ? AND status = ? AND finished_at IS NOT NULL
		ORDER BY finished_at DESC LIMIT 1`,
		batchID, string(kind), string(models.RunStatusCompleted)).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	return t, err
}
