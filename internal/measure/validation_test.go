package measure

import (
	"errors"
	"strings"
	"testing"
)

func validSeries() *Series {
	return &Series{
		Name:     "Temperature",
		Unit:     "°C",
		MinValue: -40,
		MaxValue: 85,
		Color:    "#FF6600",
	}
}

func TestValidateSeries(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Series)
		wantErr bool
	}{
		{"valid", func(s *Series) {}, false},
		{"valid lowercase color", func(s *Series) { s.Color = "#ff6600" }, false},
		{"valid with optional fields", func(s *Series) {
			s.Description = "outdoor probe"
			s.Icon = "thermometer"
		}, false},
		{"empty name", func(s *Series) { s.Name = "" }, true},
		{"whitespace name", func(s *Series) { s.Name = "   " }, true},
		{"name too long", func(s *Series) { s.Name = strings.Repeat("x", 101) }, true},
		{"empty unit", func(s *Series) { s.Unit = "" }, true},
		{"unit too long", func(s *Series) { s.Unit = strings.Repeat("u", 21) }, true},
		{"missing hash", func(s *Series) { s.Color = "FF6600" }, true},
		{"short color", func(s *Series) { s.Color = "#FFF" }, true},
		{"non-hex color", func(s *Series) { s.Color = "#GGGGGG" }, true},
		{"min equals max", func(s *Series) { s.MinValue, s.MaxValue = 10, 10 }, true},
		{"min above max", func(s *Series) { s.MinValue, s.MaxValue = 50, 0 }, true},
		{"description too long", func(s *Series) { s.Description = strings.Repeat("d", 501) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSeries()
			tt.mutate(s)

			err := ValidateSeries(s)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSeries) {
					t.Errorf("error = %v, want ErrInvalidSeries", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSeries_Nil(t *testing.T) {
	if err := ValidateSeries(nil); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("error = %v, want ErrInvalidSeries", err)
	}
}

func TestValidateSensor(t *testing.T) {
	tests := []struct {
		name    string
		sensor  *Sensor
		wantErr bool
	}{
		{"valid", &Sensor{SeriesID: 1, Name: "probe-1"}, false},
		{"nil", nil, true},
		{"empty name", &Sensor{SeriesID: 1}, true},
		{"missing series", &Sensor{Name: "probe-1"}, true},
		{"name too long", &Sensor{SeriesID: 1, Name: strings.Repeat("x", 101)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSensor(tt.sensor)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSensor) {
					t.Errorf("error = %v, want ErrInvalidSensor", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRangeError(t *testing.T) {
	err := checkRange(&Series{Name: "Temperature", MinValue: 0, MaxValue: 50}, 50.01)
	if !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("error = %v, want ErrValueOutOfRange", err)
	}

	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatal("error should be a *RangeError")
	}
	if re.Min != 0 || re.Max != 50 || re.Value != 50.01 {
		t.Errorf("RangeError = %+v, want value 50.01 in [0, 50]", re)
	}

	msg := re.Error()
	for _, want := range []string{"50.01", "[0, 50]", "Temperature"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}
}

func TestCheckRange_BoundsInclusive(t *testing.T) {
	s := &Series{Name: "Humidity", MinValue: 0, MaxValue: 100}

	for _, v := range []float64{0, 50, 100} {
		if err := checkRange(s, v); err != nil {
			t.Errorf("checkRange(%g) = %v, want nil (bounds are inclusive)", v, err)
		}
	}
	for _, v := range []float64{-0.001, 100.001} {
		if err := checkRange(s, v); err == nil {
			t.Errorf("checkRange(%g) should fail", v)
		}
	}
}

func TestGenerateAPIKey(t *testing.T) {
	k1, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	if !strings.HasPrefix(k1, "sensor_") {
		t.Errorf("key %q should carry the sensor_ prefix", k1)
	}
	if len(k1) < 40 {
		t.Errorf("key length = %d, want at least 40", len(k1))
	}

	k2, _ := GenerateAPIKey()
	if k1 == k2 {
		t.Error("two generated keys should differ")
	}
}
