package measure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SeriesRepository defines persistence operations for series.
type SeriesRepository interface {
	// Create inserts a new series after validating it.
	Create(ctx context.Context, s *Series) error

	// GetByID retrieves a series. Returns ErrSeriesNotFound if absent.
	GetByID(ctx context.Context, id int64) (*Series, error)

	// List retrieves all series ordered by name.
	List(ctx context.Context) ([]Series, error)

	// Update applies a partial update and re-validates the merged
	// record. Returns ErrSeriesNotFound if the series does not exist.
	Update(ctx context.Context, id int64, patch *SeriesUpdate) (*Series, error)

	// Delete removes a series. Sensors and measurements bound to it
	// are removed by the schema's cascade rules.
	Delete(ctx context.Context, id int64) error
}

// SQLiteSeriesRepository implements SeriesRepository using SQLite.
type SQLiteSeriesRepository struct {
	db *sql.DB
}

// NewSeriesRepository creates a series repository backed by db.
func NewSeriesRepository(db *sql.DB) *SQLiteSeriesRepository {
	return &SQLiteSeriesRepository{db: db}
}

const seriesColumns = `id, name, description, unit, min_value, max_value, color, icon, created_at, updated_at`

func (r *SQLiteSeriesRepository) Create(ctx context.Context, s *Series) error {
	if err := ValidateSeries(s); err != nil {
		return err
	}

	ts := now()
	s.CreatedAt = ts
	s.UpdatedAt = ts
	s.Name = strings.TrimSpace(s.Name)
	s.Unit = strings.TrimSpace(s.Unit)

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO series (name, description, unit, min_value, max_value, color, icon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Description, s.Unit, s.MinValue, s.MaxValue, s.Color, s.Icon,
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("creating series: %w", err)
	}

	s.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading series id: %w", err)
	}
	return nil
}

func (r *SQLiteSeriesRepository) GetByID(ctx context.Context, id int64) (*Series, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)

	s, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeriesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting series %d: %w", id, err)
	}
	return s, nil
}

func (r *SQLiteSeriesRepository) List(ctx context.Context) ([]Series, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seriesColumns+` FROM series ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing series: %w", err)
	}
	defer rows.Close()

	var out []Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning series: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SQLiteSeriesRepository) Update(ctx context.Context, id int64, patch *SeriesUpdate) (*Series, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		s.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Unit != nil {
		s.Unit = strings.TrimSpace(*patch.Unit)
	}
	if patch.MinValue != nil {
		s.MinValue = *patch.MinValue
	}
	if patch.MaxValue != nil {
		s.MaxValue = *patch.MaxValue
	}
	if patch.Color != nil {
		s.Color = *patch.Color
	}
	if patch.Icon != nil {
		s.Icon = *patch.Icon
	}

	// The merged record must still be a valid series, including the
	// min < max invariant when only one bound changed.
	if err := ValidateSeries(s); err != nil {
		return nil, err
	}

	s.UpdatedAt = now()
	_, err = r.db.ExecContext(ctx, `
		UPDATE series
		SET name = ?, description = ?, unit = ?, min_value = ?, max_value = ?, color = ?, icon = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.Description, s.Unit, s.MinValue, s.MaxValue, s.Color, s.Icon,
		formatTime(s.UpdatedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating series %d: %w", id, err)
	}
	return s, nil
}

func (r *SQLiteSeriesRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM series WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting series %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking series delete: %w", err)
	}
	if affected == 0 {
		return ErrSeriesNotFound
	}
	return nil
}

func scanSeries(s scanner) (*Series, error) {
	var (
		out                  Series
		description, icon    sql.NullString
		createdAt, updatedAt string
	)

	err := s.Scan(&out.ID, &out.Name, &description, &out.Unit,
		&out.MinValue, &out.MaxValue, &out.Color, &icon,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	out.Description = description.String
	out.Icon = icon.String

	if out.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if out.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
