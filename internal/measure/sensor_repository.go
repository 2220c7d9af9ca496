package measure

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SensorRepository defines persistence operations for sensors.
type SensorRepository interface {
	// Create inserts a new sensor, generating its API key when the
	// caller did not supply one. The raw key is populated on the
	// returned struct; this is the only time it leaves the store.
	Create(ctx context.Context, s *Sensor) error

	// GetByID retrieves a sensor without its API key.
	GetByID(ctx context.Context, id int64) (*Sensor, error)

	// GetByIDAndKey authenticates a sensor by (id, key) in a single
	// lookup. A missing sensor and a wrong key are indistinguishable:
	// both return ErrInvalidAPIKey.
	GetByIDAndKey(ctx context.Context, id int64, apiKey string) (*Sensor, error)

	// List retrieves all sensors, optionally restricted to one series.
	// API keys are never included.
	List(ctx context.Context, seriesID *int64) ([]Sensor, error)

	// Update applies a partial update (name, is_active).
	Update(ctx context.Context, id int64, patch *SensorUpdate) (*Sensor, error)

	// Delete removes a sensor. Its measurements survive with sensor_id
	// cleared by the schema's SET NULL rule.
	Delete(ctx context.Context, id int64) error

	// TouchLastSeen stamps the sensor's last_seen, typically inside
	// the same transaction as a measurement insert.
	TouchLastSeen(ctx context.Context, ex execer, id int64, seen time.Time) error
}

// SQLiteSensorRepository implements SensorRepository using SQLite.
type SQLiteSensorRepository struct {
	db *sql.DB
}

// NewSensorRepository creates a sensor repository backed by db.
func NewSensorRepository(db *sql.DB) *SQLiteSensorRepository {
	return &SQLiteSensorRepository{db: db}
}

const sensorColumns = `id, series_id, name, is_active, last_seen, created_at, updated_at`

func (r *SQLiteSensorRepository) Create(ctx context.Context, s *Sensor) error {
	if err := ValidateSensor(s); err != nil {
		return err
	}

	// Reject unknown series up front rather than surfacing a foreign
	// key violation to the caller.
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM series WHERE id = ?`, s.SeriesID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking series %d: %w", s.SeriesID, err)
	}
	if exists == 0 {
		return ErrSeriesNotFound
	}

	if s.APIKey == "" {
		key, err := GenerateAPIKey()
		if err != nil {
			return err
		}
		s.APIKey = key
	}

	ts := now()
	s.CreatedAt = ts
	s.UpdatedAt = ts
	s.Name = strings.TrimSpace(s.Name)

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO sensors (series_id, name, api_key, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.SeriesID, s.Name, s.APIKey, boolToInt(s.IsActive),
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("creating sensor: %w", err)
	}

	s.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading sensor id: %w", err)
	}
	return nil
}

func (r *SQLiteSensorRepository) GetByID(ctx context.Context, id int64) (*Sensor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sensorColumns+` FROM sensors WHERE id = ?`, id)

	s, err := scanSensor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSensorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting sensor %d: %w", id, err)
	}
	return s, nil
}

func (r *SQLiteSensorRepository) GetByIDAndKey(ctx context.Context, id int64, apiKey string) (*Sensor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, series_id, name, api_key, is_active, last_seen, created_at, updated_at
		FROM sensors WHERE id = ?`, id)

	var (
		s                    Sensor
		storedKey            string
		lastSeen             sql.NullString
		active               int
		createdAt, updatedAt string
	)
	err := row.Scan(&s.ID, &s.SeriesID, &s.Name, &storedKey, &active,
		&lastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Same error as a key mismatch so probes cannot learn which
		// sensor ids exist.
		return nil, ErrInvalidAPIKey
	}
	if err != nil {
		return nil, fmt.Errorf("authenticating sensor %d: %w", id, err)
	}

	if subtle.ConstantTimeCompare([]byte(storedKey), []byte(apiKey)) != 1 {
		return nil, ErrInvalidAPIKey
	}

	s.IsActive = active != 0
	if lastSeen.Valid {
		t, err := parseTime(lastSeen.String)
		if err != nil {
			return nil, err
		}
		s.LastSeen = &t
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteSensorRepository) List(ctx context.Context, seriesID *int64) ([]Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors`
	var args []interface{}
	if seriesID != nil {
		query += ` WHERE series_id = ?`
		args = append(args, *seriesID)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sensors: %w", err)
	}
	defer rows.Close()

	var out []Sensor
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sensor: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SQLiteSensorRepository) Update(ctx context.Context, id int64, patch *SensorUpdate) (*Sensor, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidSensor)
		}
		if len(name) > maxNameLength {
			return nil, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidSensor, maxNameLength)
		}
		s.Name = name
	}
	if patch.IsActive != nil {
		s.IsActive = *patch.IsActive
	}

	s.UpdatedAt = now()
	_, err = r.db.ExecContext(ctx, `
		UPDATE sensors SET name = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		s.Name, boolToInt(s.IsActive), formatTime(s.UpdatedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating sensor %d: %w", id, err)
	}
	return s, nil
}

func (r *SQLiteSensorRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sensors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting sensor %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking sensor delete: %w", err)
	}
	if affected == 0 {
		return ErrSensorNotFound
	}
	return nil
}

func (r *SQLiteSensorRepository) TouchLastSeen(ctx context.Context, ex execer, id int64, seen time.Time) error {
	_, err := ex.ExecContext(ctx,
		`UPDATE sensors SET last_seen = ? WHERE id = ?`,
		formatTime(seen), id)
	if err != nil {
		return fmt.Errorf("stamping last_seen for sensor %d: %w", id, err)
	}
	return nil
}

func scanSensor(sc scanner) (*Sensor, error) {
	var (
		s                    Sensor
		lastSeen             sql.NullString
		active               int
		createdAt, updatedAt string
	)

	err := sc.Scan(&s.ID, &s.SeriesID, &s.Name, &active, &lastSeen,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.IsActive = active != 0
	if lastSeen.Valid {
		t, err := parseTime(lastSeen.String)
		if err != nil {
			return nil, err
		}
		s.LastSeen = &t
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
