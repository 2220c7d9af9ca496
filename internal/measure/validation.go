package measure

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants.
const (
	maxNameLength        = 100
	maxUnitLength        = 20
	maxIconLength        = 50
	maxDescriptionLength = 500

	colorPattern = `^#[0-9A-Fa-f]{6}$`
)

var colorRegex = regexp.MustCompile(colorPattern)

// ValidateSeries checks a series definition before it is written.
// Returns an error wrapping ErrInvalidSeries describing the first
// failure found.
func ValidateSeries(s *Series) error {
	if s == nil {
		return ErrInvalidSeries
	}

	name := strings.TrimSpace(s.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSeries)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidSeries, maxNameLength)
	}

	unit := strings.TrimSpace(s.Unit)
	if unit == "" {
		return fmt.Errorf("%w: unit is required", ErrInvalidSeries)
	}
	if len(unit) > maxUnitLength {
		return fmt.Errorf("%w: unit exceeds %d characters", ErrInvalidSeries, maxUnitLength)
	}

	if !colorRegex.MatchString(s.Color) {
		return fmt.Errorf("%w: color must be a hex value like #33AAFF", ErrInvalidSeries)
	}

	if s.MinValue >= s.MaxValue {
		return fmt.Errorf("%w: min_value %g must be below max_value %g",
			ErrInvalidSeries, s.MinValue, s.MaxValue)
	}

	if len(s.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidSeries, maxDescriptionLength)
	}
	if len(s.Icon) > maxIconLength {
		return fmt.Errorf("%w: icon exceeds %d characters", ErrInvalidSeries, maxIconLength)
	}

	return nil
}

// ValidateSensor checks a sensor before it is written. Series existence
// is checked separately against the store.
func ValidateSensor(s *Sensor) error {
	if s == nil {
		return ErrInvalidSensor
	}

	name := strings.TrimSpace(s.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSensor)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidSensor, maxNameLength)
	}
	if s.SeriesID <= 0 {
		return fmt.Errorf("%w: series_id is required", ErrInvalidSensor)
	}

	return nil
}
