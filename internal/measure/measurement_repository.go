package measure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// MeasurementRepository defines persistence operations for measurements.
// Range validation lives in the Ingestor; the repository only stores.
type MeasurementRepository interface {
	// Insert writes a measurement. ex is *sql.DB for standalone
	// writes or *sql.Tx when the caller pairs the insert with other
	// statements.
	Insert(ctx context.Context, ex execer, m *Measurement) error

	// GetByID retrieves a measurement. Returns ErrMeasurementNotFound
	// if absent.
	GetByID(ctx context.Context, id int64) (*Measurement, error)

	// List retrieves measurements matching the filter, ordered by
	// timestamp ascending. The limit defaults to DefaultListLimit and
	// is clamped to MaxListLimit.
	List(ctx context.Context, f Filter) ([]Measurement, error)

	// Update writes back a modified measurement record.
	Update(ctx context.Context, m *Measurement) error

	// Delete removes a measurement.
	Delete(ctx context.Context, id int64) error
}

// SQLiteMeasurementRepository implements MeasurementRepository using SQLite.
type SQLiteMeasurementRepository struct {
	db *sql.DB
}

// NewMeasurementRepository creates a measurement repository backed by db.
func NewMeasurementRepository(db *sql.DB) *SQLiteMeasurementRepository {
	return &SQLiteMeasurementRepository{db: db}
}

const measurementColumns = `id, series_id, sensor_id, value, timestamp, created_at`

func (r *SQLiteMeasurementRepository) Insert(ctx context.Context, ex execer, m *Measurement) error {
	if ex == nil {
		ex = r.db
	}

	m.CreatedAt = now()
	if m.Timestamp.IsZero() {
		m.Timestamp = m.CreatedAt
	}

	var sensorID interface{}
	if m.SensorID != nil {
		sensorID = *m.SensorID
	}

	result, err := ex.ExecContext(ctx, `
		INSERT INTO measurements (series_id, sensor_id, value, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.SeriesID, sensorID, m.Value,
		formatTime(m.Timestamp), formatTime(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting measurement: %w", err)
	}

	m.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading measurement id: %w", err)
	}
	return nil
}

func (r *SQLiteMeasurementRepository) GetByID(ctx context.Context, id int64) (*Measurement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+measurementColumns+` FROM measurements WHERE id = ?`, id)

	m, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMeasurementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting measurement %d: %w", id, err)
	}
	return m, nil
}

func (r *SQLiteMeasurementRepository) List(ctx context.Context, f Filter) ([]Measurement, error) {
	var (
		where []string
		args  []interface{}
	)

	if len(f.SeriesIDs) > 0 {
		placeholders := strings.Repeat("?,", len(f.SeriesIDs))
		where = append(where, fmt.Sprintf("series_id IN (%s)", placeholders[:len(placeholders)-1]))
		for _, id := range f.SeriesIDs {
			args = append(args, id)
		}
	}
	if f.Start != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTime(*f.Start))
	}
	if f.End != nil {
		where = append(where, "timestamp <= ?")
		args = append(args, formatTime(*f.End))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `SELECT ` + measurementColumns + ` FROM measurements`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY timestamp ASC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing measurements: %w", err)
	}
	defer rows.Close()

	var out []Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *SQLiteMeasurementRepository) Update(ctx context.Context, m *Measurement) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE measurements SET value = ?, timestamp = ? WHERE id = ?`,
		m.Value, formatTime(m.Timestamp), m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating measurement %d: %w", m.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking measurement update: %w", err)
	}
	if affected == 0 {
		return ErrMeasurementNotFound
	}
	return nil
}

func (r *SQLiteMeasurementRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting measurement %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking measurement delete: %w", err)
	}
	if affected == 0 {
		return ErrMeasurementNotFound
	}
	return nil
}

func scanMeasurement(sc scanner) (*Measurement, error) {
	var (
		m                    Measurement
		sensorID             sql.NullInt64
		timestamp, createdAt string
	)

	err := sc.Scan(&m.ID, &m.SeriesID, &sensorID, &m.Value, &timestamp, &createdAt)
	if err != nil {
		return nil, err
	}

	if sensorID.Valid {
		id := sensorID.Int64
		m.SensorID = &id
	}
	if m.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}
