package measure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Ingestion paths, used for logging and metrics labels.
const (
	PathAdmin  = "admin"
	PathDevice = "device"
	PathMQTT   = "mqtt"
)

// IngestMetrics counts ingestion outcomes. Implementations must be
// safe for concurrent use.
type IngestMetrics interface {
	Accepted(path string)
	Rejected(path, reason string)
}

type nopMetrics struct{}

func (nopMetrics) Accepted(string)         {}
func (nopMetrics) Rejected(string, string) {}

// Ingestor owns both measurement entry paths and the validation
// pipeline in front of them. Nothing is written until every check has
// passed.
type Ingestor struct {
	db           *sql.DB
	series       SeriesRepository
	sensors      SensorRepository
	measurements MeasurementRepository
	metrics      IngestMetrics
	logger       *slog.Logger
}

// NewIngestor wires an ingestion service. metrics may be nil.
func NewIngestor(db *sql.DB, series SeriesRepository, sensors SensorRepository,
	measurements MeasurementRepository, metrics IngestMetrics, logger *slog.Logger) *Ingestor {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Ingestor{
		db:           db,
		series:       series,
		sensors:      sensors,
		measurements: measurements,
		metrics:      metrics,
		logger:       logger,
	}
}

// IngestAdmin records a measurement entered by an operator. The series
// must exist and the value must sit inside its inclusive range.
func (i *Ingestor) IngestAdmin(ctx context.Context, seriesID int64, value float64, timestamp time.Time) (*Measurement, error) {
	s, err := i.series.GetByID(ctx, seriesID)
	if err != nil {
		i.metrics.Rejected(PathAdmin, rejectReason(err))
		return nil, err
	}

	if err := checkRange(s, value); err != nil {
		i.metrics.Rejected(PathAdmin, rejectReason(err))
		return nil, err
	}

	m := &Measurement{
		SeriesID:  seriesID,
		Value:     value,
		Timestamp: timestamp,
	}
	if err := i.measurements.Insert(ctx, nil, m); err != nil {
		return nil, err
	}

	i.metrics.Accepted(PathAdmin)
	i.logger.Debug("measurement ingested",
		"path", PathAdmin, "series_id", seriesID, "measurement_id", m.ID)
	return m, nil
}

// IngestDevice records a measurement submitted by a sensor. path
// distinguishes HTTP device ingestion from the MQTT bridge in logs and
// metrics; the semantics are identical.
//
// The order of checks is part of the contract: credentials first
// (absence and mismatch indistinguishable), then the active flag, then
// the payload's series against the sensor's binding, then the range.
// On success the insert and the last_seen stamp commit together.
func (i *Ingestor) IngestDevice(ctx context.Context, path string, sensorID int64, apiKey string,
	seriesID int64, value float64, timestamp time.Time) (*Measurement, error) {

	sensor, err := i.sensors.GetByIDAndKey(ctx, sensorID, apiKey)
	if err != nil {
		i.metrics.Rejected(path, rejectReason(err))
		return nil, err
	}

	if !sensor.IsActive {
		i.metrics.Rejected(path, rejectReason(ErrSensorDisabled))
		return nil, ErrSensorDisabled
	}

	// The payload's series must match the sensor's binding even when
	// the named series exists. Sensors cannot write across streams.
	if seriesID != sensor.SeriesID {
		i.metrics.Rejected(path, rejectReason(ErrSeriesMismatch))
		return nil, fmt.Errorf("%w: sensor %d is bound to series %d",
			ErrSeriesMismatch, sensor.ID, sensor.SeriesID)
	}

	s, err := i.series.GetByID(ctx, sensor.SeriesID)
	if err != nil {
		i.metrics.Rejected(path, rejectReason(err))
		return nil, err
	}
	if err := checkRange(s, value); err != nil {
		i.metrics.Rejected(path, rejectReason(err))
		return nil, err
	}

	m := &Measurement{
		SeriesID:  sensor.SeriesID,
		SensorID:  &sensor.ID,
		Value:     value,
		Timestamp: timestamp,
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ingest transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := i.measurements.Insert(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := i.sensors.TouchLastSeen(ctx, tx, sensor.ID, now()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ingest transaction: %w", err)
	}

	i.metrics.Accepted(path)
	i.logger.Debug("measurement ingested",
		"path", path, "sensor_id", sensor.ID, "series_id", sensor.SeriesID,
		"measurement_id", m.ID)
	return m, nil
}

// UpdateAdmin applies a partial update to a measurement. The series
// binding is immutable; a changed value is re-checked against the
// measurement's existing series.
func (i *Ingestor) UpdateAdmin(ctx context.Context, id int64, patch *MeasurementUpdate) (*Measurement, error) {
	m, err := i.measurements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Value != nil {
		s, err := i.series.GetByID(ctx, m.SeriesID)
		if err != nil {
			return nil, err
		}
		if err := checkRange(s, *patch.Value); err != nil {
			return nil, err
		}
		m.Value = *patch.Value
	}
	if patch.Timestamp != nil {
		m.Timestamp = *patch.Timestamp
	}

	if err := i.measurements.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// rejectReason maps a domain error to a stable metrics label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAPIKey):
		return "invalid_credentials"
	case errors.Is(err, ErrSensorDisabled):
		return "sensor_disabled"
	case errors.Is(err, ErrSeriesMismatch):
		return "series_mismatch"
	case errors.Is(err, ErrValueOutOfRange):
		return "value_out_of_range"
	case errors.Is(err, ErrSeriesNotFound):
		return "series_not_found"
	default:
		return "error"
	}
}
