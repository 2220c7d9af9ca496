package measure

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the measurement
// schema applied. The file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "measure-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE series (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			unit TEXT NOT NULL,
			min_value REAL NOT NULL,
			max_value REAL NOT NULL,
			color TEXT NOT NULL,
			icon TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			CHECK (min_value < max_value)
		) STRICT;

		CREATE TABLE sensors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			series_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			api_key TEXT NOT NULL UNIQUE,
			is_active INTEGER NOT NULL DEFAULT 1,
			last_seen TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (series_id) REFERENCES series(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE measurements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			series_id INTEGER NOT NULL,
			sensor_id INTEGER,
			value REAL NOT NULL,
			timestamp TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (series_id) REFERENCES series(id) ON DELETE CASCADE,
			FOREIGN KEY (sensor_id) REFERENCES sensors(id) ON DELETE SET NULL
		) STRICT;
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying test schema: %v", err)
	}

	return db
}

// seedTestSeries inserts a series with the given bounds and returns it.
func seedTestSeries(t *testing.T, db *sql.DB, name string, min, max float64) *Series {
	t.Helper()

	repo := NewSeriesRepository(db)
	s := &Series{
		Name:     name,
		Unit:     "u",
		MinValue: min,
		MaxValue: max,
		Color:    "#33AAFF",
	}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("creating test series %s: %v", name, err)
	}
	return s
}

// seedTestSensor inserts an active sensor bound to seriesID. The
// returned sensor has its raw API key populated.
func seedTestSensor(t *testing.T, db *sql.DB, seriesID int64, name string) *Sensor {
	t.Helper()

	repo := NewSensorRepository(db)
	s := &Sensor{
		SeriesID: seriesID,
		Name:     name,
		IsActive: true,
	}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("creating test sensor %s: %v", name, err)
	}
	return s
}

// testIngestor wires an Ingestor over the test database.
func testIngestor(db *sql.DB) *Ingestor {
	return NewIngestor(db,
		NewSeriesRepository(db),
		NewSensorRepository(db),
		NewMeasurementRepository(db),
		nil, discardLogger())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parsing time %q: %v", s, err)
	}
	return ts
}
