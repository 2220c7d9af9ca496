package simulator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// capture records the requests a simulator sends.
type capture struct {
	mu       sync.Mutex
	paths    []string
	keys     []string
	payloads []measurementRequest
}

func captureServer(t *testing.T, c *capture, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req measurementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding payload: %v", err)
		}

		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.keys = append(c.keys, r.Header.Get("X-API-Key"))
		c.payloads = append(c.payloads, req)
		c.mu.Unlock()

		w.WriteHeader(status)
	}))
}

func TestSendReading(t *testing.T) {
	var c capture
	srv := captureServer(t, &c, http.StatusCreated)
	defer srv.Close()

	sensor := SensorConfig{
		ID: 7, Name: "probe", APIKey: "sensor_test_key", SeriesID: 3,
		Type: "temperature", MinValue: 18, MaxValue: 28, Interval: 10,
	}
	sim := New(&Config{APIBaseURL: srv.URL, Sensors: []SensorConfig{sensor}}, discardLogger())

	gen := newGenerator(sensor, rand.New(rand.NewSource(1)))
	sim.sendReading(context.Background(), sensor, gen)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.paths) != 1 {
		t.Fatalf("requests = %d, want 1", len(c.paths))
	}
	if c.paths[0] != "/api/v1/sensors/7/measurements" {
		t.Errorf("path = %q", c.paths[0])
	}
	if c.keys[0] != "sensor_test_key" {
		t.Errorf("X-API-Key = %q", c.keys[0])
	}

	p := c.payloads[0]
	if p.SeriesID != 3 {
		t.Errorf("series_id = %d, want 3", p.SeriesID)
	}
	if p.Value < 18 || p.Value > 28 {
		t.Errorf("value = %v, want within [18, 28]", p.Value)
	}
	if _, err := time.Parse(time.RFC3339, p.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", p.Timestamp, err)
	}
}

func TestSendReadingRejectionIsNonFatal(t *testing.T) {
	var c capture
	srv := captureServer(t, &c, http.StatusBadRequest)
	defer srv.Close()

	sensor := SensorConfig{
		ID: 1, Name: "probe", APIKey: "sensor_k", SeriesID: 1,
		Type: "generic", MinValue: 0, MaxValue: 1, Interval: 1,
	}
	sim := New(&Config{APIBaseURL: srv.URL, Sensors: []SensorConfig{sensor}}, discardLogger())

	gen := newGenerator(sensor, rand.New(rand.NewSource(1)))
	// Must not panic or abort; the loop retries on the next tick.
	sim.sendReading(context.Background(), sensor, gen)
	sim.sendReading(context.Background(), sensor, gen)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.paths) != 2 {
		t.Errorf("requests = %d, want 2", len(c.paths))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	var c capture
	srv := captureServer(t, &c, http.StatusCreated)
	defer srv.Close()

	cfg := &Config{
		APIBaseURL: srv.URL,
		Sensors: []SensorConfig{
			{ID: 1, Name: "a", APIKey: "sensor_a", SeriesID: 1,
				Type: "generic", MinValue: 0, MaxValue: 1, Interval: 60},
			{ID: 2, Name: "b", APIKey: "sensor_b", SeriesID: 2,
				Type: "generic", MinValue: 0, MaxValue: 1, Interval: 60},
		},
	}
	sim := New(cfg, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sim.Run(ctx)
		close(done)
	}()

	// Each sensor sends once immediately, then waits out its interval.
	deadline := time.After(5 * time.Second)
	for {
		c.mu.Lock()
		n := len(c.paths)
		c.mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for initial readings")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
