package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/measurelab/measurand/internal/measure"
)

// deviceIngest posts a reading on the device path with the X-API-Key
// header set.
func (ts *testServer) deviceIngest(t *testing.T, sensorID int64, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("POST",
		fmt.Sprintf("/api/v1/sensors/%d/measurements", sensorID),
		strings.NewReader(mustJSON(t, body)))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshalling: %v", err)
	}
	return string(b)
}

func TestSensorCRUD(t *testing.T) {
	ts := newTestServer(t)
	_, admin := ts.seedUser(t, "admin", true)
	series := ts.seedSeries(t, "temperature", -20, 60)

	var sensorID int64

	t.Run("create returns key exactly once", func(t *testing.T) {
		rec := ts.request(t, "POST", "/api/v1/sensors", admin, map[string]any{
			"series_id": series.ID,
			"name":      "attic probe",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var body struct {
			ID       int64  `json:"id"`
			APIKey   string `json:"api_key"`
			IsActive bool   `json:"is_active"`
		}
		decode(t, rec, &body)
		if body.ID == 0 {
			t.Fatal("id should be assigned")
		}
		if !strings.HasPrefix(body.APIKey, "sensor_") {
			t.Errorf("api_key = %q, want sensor_ prefix", body.APIKey)
		}
		if !body.IsActive {
			t.Error("sensors should default to active")
		}
		sensorID = body.ID
	})

	t.Run("get never returns the key", func(t *testing.T) {
		rec := ts.request(t, "GET", fmt.Sprintf("/api/v1/sensors/%d", sensorID), admin, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "sensor_") {
			t.Errorf("get response leaks the api key: %s", rec.Body.String())
		}
	})

	t.Run("list never returns the key", func(t *testing.T) {
		rec := ts.request(t, "GET", "/api/v1/sensors", admin, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "sensor_") {
			t.Errorf("list response leaks the api key: %s", rec.Body.String())
		}
	})

	t.Run("list filtered by series", func(t *testing.T) {
		other := ts.seedSeries(t, "humidity", 0, 100)
		ts.seedSensor(t, other.ID, "bathroom probe")

		rec := ts.request(t, "GET", fmt.Sprintf("/api/v1/sensors?series_id=%d", series.ID), admin, nil)
		var list []measure.Sensor
		decode(t, rec, &list)
		if len(list) != 1 || list[0].ID != sensorID {
			t.Errorf("filtered list = %+v", list)
		}
	})

	t.Run("patch deactivates", func(t *testing.T) {
		rec := ts.request(t, "PATCH", fmt.Sprintf("/api/v1/sensors/%d", sensorID), admin,
			map[string]any{"is_active": false})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var got measure.Sensor
		decode(t, rec, &got)
		if got.IsActive {
			t.Error("sensor should be inactive")
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := ts.request(t, "DELETE", fmt.Sprintf("/api/v1/sensors/%d", sensorID), admin, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestSensorCreateUnknownSeries(t *testing.T) {
	ts := newTestServer(t)
	_, admin := ts.seedUser(t, "admin", true)

	rec := ts.request(t, "POST", "/api/v1/sensors", admin, map[string]any{
		"series_id": 999,
		"name":      "orphan",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

// TestDeviceIngestion walks the full device path: bounds are inclusive,
// the id/key pair is opaque on failure, and last_seen moves with every
// accepted reading.
func TestDeviceIngestion(t *testing.T) {
	ts := newTestServer(t)
	series := ts.seedSeries(t, "tank level", 0, 50)
	sensor := ts.seedSensor(t, series.ID, "tank probe")

	t.Run("value at the upper bound is accepted", func(t *testing.T) {
		rec := ts.deviceIngest(t, sensor.ID, sensor.APIKey, map[string]any{
			"series_id": series.ID,
			"value":     50.0,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var m measure.Measurement
		decode(t, rec, &m)
		if m.Value != 50.0 || m.SeriesID != series.ID {
			t.Errorf("measurement = %+v", m)
		}
		if m.SensorID == nil || *m.SensorID != sensor.ID {
			t.Errorf("sensor_id = %v, want %d", m.SensorID, sensor.ID)
		}
	})

	t.Run("last_seen stamped on accept", func(t *testing.T) {
		got, err := ts.sensors.GetByID(context.Background(), sensor.ID)
		if err != nil {
			t.Fatalf("fetching sensor: %v", err)
		}
		if got.LastSeen == nil {
			t.Fatal("last_seen should be set after an accepted reading")
		}
		if time.Since(*got.LastSeen) > time.Minute {
			t.Errorf("last_seen = %v, want recent", *got.LastSeen)
		}
	})

	t.Run("value just above the bound is rejected", func(t *testing.T) {
		rec := ts.deviceIngest(t, sensor.ID, sensor.APIKey, map[string]any{
			"series_id": series.ID,
			"value":     50.01,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var body Error
		decode(t, rec, &body)
		if body.Code != ErrCodeValueRange {
			t.Errorf("code = %q", body.Code)
		}
		if !strings.Contains(body.Message, "[0, 50]") {
			t.Errorf("message should cite the bounds: %q", body.Message)
		}
	})

	t.Run("wrong key and unknown sensor are indistinguishable", func(t *testing.T) {
		payload := map[string]any{"series_id": series.ID, "value": 10.0}

		wrongKey := ts.deviceIngest(t, sensor.ID, "sensor_wrong", payload)
		unknown := ts.deviceIngest(t, 9999, sensor.APIKey, payload)

		if wrongKey.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
			t.Fatalf("codes = %d, %d, want 401 for both", wrongKey.Code, unknown.Code)
		}
		if wrongKey.Body.String() != unknown.Body.String() {
			t.Errorf("bodies differ: %q vs %q", wrongKey.Body.String(), unknown.Body.String())
		}
	})

	t.Run("missing key header", func(t *testing.T) {
		rec := ts.deviceIngest(t, sensor.ID, "", map[string]any{
			"series_id": series.ID, "value": 10.0})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("series mismatch beats existence", func(t *testing.T) {
		other := ts.seedSeries(t, "other", 0, 100)

		rec := ts.deviceIngest(t, sensor.ID, sensor.APIKey, map[string]any{
			"series_id": other.ID,
			"value":     10.0,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("disabled sensor reveals existence", func(t *testing.T) {
		inactive := false
		if _, err := ts.sensors.Update(context.Background(), sensor.ID, &measure.SensorUpdate{IsActive: &inactive}); err != nil {
			t.Fatalf("deactivating sensor: %v", err)
		}

		rec := ts.deviceIngest(t, sensor.ID, sensor.APIKey, map[string]any{
			"series_id": series.ID, "value": 10.0})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := ts.deviceIngest(t, sensor.ID, sensor.APIKey, `{"series_id":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestDeviceIngestionTimestamp(t *testing.T) {
	ts := newTestServer(t)
	series := ts.seedSeries(t, "temperature", -20, 60)
	sensor := ts.seedSensor(t, series.ID, "probe")

	t.Run("client timestamp preserved", func(t *testing.T) {
		rec := ts.deviceIngest(t, sensor.ID, sensor.APIKey, map[string]any{
			"series_id": series.ID,
			"value":     21.5,
			"timestamp": "2026-03-01T08:30:00Z",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var m measure.Measurement
		decode(t, rec, &m)
		want := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
		if !m.Timestamp.Equal(want) {
			t.Errorf("timestamp = %v, want %v", m.Timestamp, want)
		}
	})

	t.Run("defaults to server time", func(t *testing.T) {
		rec := ts.deviceIngest(t, sensor.ID, sensor.APIKey, map[string]any{
			"series_id": series.ID,
			"value":     22.0,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var m measure.Measurement
		decode(t, rec, &m)
		if time.Since(m.Timestamp) > time.Minute {
			t.Errorf("timestamp = %v, want recent", m.Timestamp)
		}
	})
}
