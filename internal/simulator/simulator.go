package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// requestTimeout bounds each measurement POST.
const requestTimeout = 5 * time.Second

// measurementRequest is the device ingestion payload.
type measurementRequest struct {
	SeriesID  int64   `json:"series_id"`
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp"`
}

// Simulator posts synthetic readings for a set of configured sensors.
type Simulator struct {
	cfg    *Config
	client *http.Client
	logger *slog.Logger
}

// New creates a simulator. Call Run to start posting.
func New(cfg *Config, logger *slog.Logger) *Simulator {
	return &Simulator{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

// Run starts one goroutine per sensor and blocks until the context is
// cancelled and all senders have drained.
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("simulator starting",
		"api", s.cfg.APIBaseURL,
		"sensors", len(s.cfg.Sensors),
	)

	var wg sync.WaitGroup
	for _, sensor := range s.cfg.Sensors {
		wg.Add(1)
		go func(sensor SensorConfig) {
			defer wg.Done()
			s.runSensor(ctx, sensor)
		}(sensor)
	}

	wg.Wait()
	s.logger.Info("simulator stopped")
	return nil
}

// runSensor is one sensor's send loop. Each sensor gets its own RNG so
// readings do not correlate across sensors.
func (s *Simulator) runSensor(ctx context.Context, sensor SensorConfig) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + sensor.ID))
	gen := newGenerator(sensor, rng)

	s.logger.Info("sensor started",
		"sensor", sensor.Name,
		"interval_seconds", sensor.Interval,
	)

	for {
		s.sendReading(ctx, sensor, gen)

		select {
		case <-ctx.Done():
			return
		case <-time.After(jitteredInterval(sensor.Interval, rng)):
		}
	}
}

// sendReading generates and posts one measurement. Failures log and
// move on; the next tick retries with a fresh value.
func (s *Simulator) sendReading(ctx context.Context, sensor SensorConfig, gen Generator) {
	now := time.Now()
	value := gen.Next(now)

	body, err := json.Marshal(measurementRequest{
		SeriesID:  sensor.SeriesID,
		Value:     value,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Error("marshalling reading failed", "sensor", sensor.Name, "error", err)
		return
	}

	url := fmt.Sprintf("%s/api/v1/sensors/%d/measurements", s.cfg.APIBaseURL, sensor.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("building request failed", "sensor", sensor.Name, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", sensor.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("posting reading failed", "sensor", sensor.Name, "error", err)
		return
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only response body

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("reading rejected",
			"sensor", sensor.Name,
			"status", resp.StatusCode,
			"response", string(detail),
		)
		return
	}

	s.logger.Info("reading sent", "sensor", sensor.Name, "value", value)
}

// jitteredInterval spreads sends across sensors by scheduling each tick
// at 90 to 110 percent of the configured interval.
func jitteredInterval(seconds int, rng *rand.Rand) time.Duration {
	base := float64(seconds) * float64(time.Second)
	return time.Duration(base * (0.9 + 0.2*rng.Float64()))
}
