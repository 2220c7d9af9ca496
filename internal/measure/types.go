package measure

import "time"

// Series defines a measurement stream: what is measured, in what unit,
// and the inclusive range of values it will accept.
type Series struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Unit        string    `json:"unit"`
	MinValue    float64   `json:"min_value"`
	MaxValue    float64   `json:"max_value"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Sensor is a physical or simulated device bound to exactly one series.
// The API key is never serialised; the create handler returns it once.
type Sensor struct {
	ID        int64      `json:"id"`
	SeriesID  int64      `json:"series_id"`
	Name      string     `json:"name"`
	APIKey    string     `json:"-"`
	IsActive  bool       `json:"is_active"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Measurement is a single reading. SensorID is nil for admin-entered
// readings and for readings whose sensor has since been deleted.
type Measurement struct {
	ID        int64     `json:"id"`
	SeriesID  int64     `json:"series_id"`
	SensorID  *int64    `json:"sensor_id"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// SeriesUpdate is a partial update. Nil fields are left unchanged, so
// "not sent" and "set to zero" stay distinguishable.
type SeriesUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Unit        *string  `json:"unit"`
	MinValue    *float64 `json:"min_value"`
	MaxValue    *float64 `json:"max_value"`
	Color       *string  `json:"color"`
	Icon        *string  `json:"icon"`
}

// SensorUpdate is a partial update for a sensor. The bound series and
// the API key are immutable after creation.
type SensorUpdate struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// MeasurementUpdate is a partial update for a measurement. The series
// binding is immutable; a changed value is re-checked against the
// measurement's existing series.
type MeasurementUpdate struct {
	Value     *float64   `json:"value"`
	Timestamp *time.Time `json:"timestamp"`
}

// List limits for measurement queries.
const (
	DefaultListLimit = 1000
	MaxListLimit     = 10000
)

// Filter narrows a measurement listing. Zero values mean "no filter".
type Filter struct {
	SeriesIDs []int64
	Start     *time.Time
	End       *time.Time
	Limit     int
}
