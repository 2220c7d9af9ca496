package measure

import (
	"errors"
	"fmt"
)

// Sentinel errors for the measurement domain. Callers match with
// errors.Is and map them to transport status codes at the edge.
var (
	ErrSeriesNotFound      = errors.New("series not found")
	ErrSensorNotFound      = errors.New("sensor not found")
	ErrMeasurementNotFound = errors.New("measurement not found")
	ErrInvalidSeries       = errors.New("invalid series")
	ErrInvalidSensor       = errors.New("invalid sensor")
	ErrValueOutOfRange     = errors.New("value out of range")
	ErrSeriesMismatch      = errors.New("series does not match sensor binding")
	ErrSensorDisabled      = errors.New("sensor is disabled")
	ErrInvalidAPIKey       = errors.New("invalid sensor credentials")
)

// RangeError reports a value outside a series' acceptable range. It
// wraps ErrValueOutOfRange and carries enough detail for a useful
// client-facing message.
type RangeError struct {
	SeriesName string
	Value      float64
	Min        float64
	Max        float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %g is outside the acceptable range [%g, %g] for series %q",
		e.Value, e.Min, e.Max, e.SeriesName)
}

func (e *RangeError) Unwrap() error { return ErrValueOutOfRange }

// checkRange validates a value against a series' inclusive bounds.
func checkRange(s *Series, value float64) error {
	if value < s.MinValue || value > s.MaxValue {
		return &RangeError{
			SeriesName: s.Name,
			Value:      value,
			Min:        s.MinValue,
			Max:        s.MaxValue,
		}
	}
	return nil
}
