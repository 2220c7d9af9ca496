package mqttingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/measurelab/measurand/internal/infrastructure/mqtt"
	"github.com/measurelab/measurand/internal/measure"
)

// Subscriber is the broker surface the bridge needs. Satisfied by
// *mqtt.Client and mockable in tests.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	PublishJSON(topic string, qos byte, retained bool, v any) error
}

// Ingestor is the measurement entry point. Satisfied by
// *measure.Ingestor.
type Ingestor interface {
	IngestDevice(ctx context.Context, path string, sensorID int64, apiKey string,
		seriesID int64, value float64, timestamp time.Time) (*measure.Measurement, error)
}

// payload is the wire format sensors publish. The API key travels in
// the body because MQTT has no per-message headers.
type payload struct {
	APIKey    string   `json:"api_key"`
	SeriesID  int64    `json:"series_id"`
	Value     *float64 `json:"value"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// Bridge subscribes to sensor measurement topics and feeds readings
// through the ingestion pipeline.
type Bridge struct {
	subscriber Subscriber
	ingestor   Ingestor
	qos        byte
	logger     *slog.Logger

	mu      sync.Mutex
	started bool
}

// New creates a bridge. Call Start to begin consuming.
func New(subscriber Subscriber, ingestor Ingestor, qos byte, logger *slog.Logger) *Bridge {
	return &Bridge{
		subscriber: subscriber,
		ingestor:   ingestor,
		qos:        qos,
		logger:     logger,
	}
}

// Start subscribes to the measurement wildcard topic.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	topic := mqtt.Topics{}.AllSensorMeasurements()
	if err := b.subscriber.Subscribe(topic, b.qos, b.handleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	b.started = true
	b.logger.Info("mqtt ingest bridge started", "topic", topic, "qos", b.qos)
	return nil
}

// Stop unsubscribes from the measurement topic.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.started = false

	topic := mqtt.Topics{}.AllSensorMeasurements()
	if err := b.subscriber.Unsubscribe(topic); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", topic, err)
	}
	return nil
}

// handleMessage processes one published reading. Errors are returned
// for the client wrapper to log; the message is acknowledged either
// way, as a malformed reading will not improve on redelivery.
func (b *Bridge) handleMessage(topic string, raw []byte) error {
	sensorID, ok := mqtt.Topics{}.ParseSensorID(topic)
	if !ok {
		return fmt.Errorf("unexpected topic shape %q", topic)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("sensor %d: malformed payload: %w", sensorID, err)
	}
	if p.Value == nil {
		return fmt.Errorf("sensor %d: payload missing value", sensorID)
	}

	timestamp := time.Now().UTC()
	if p.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			return fmt.Errorf("sensor %d: bad timestamp %q: %w", sensorID, p.Timestamp, err)
		}
		timestamp = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, err := b.ingestor.IngestDevice(ctx, measure.PathMQTT,
		sensorID, p.APIKey, p.SeriesID, *p.Value, timestamp)
	if err != nil {
		// Domain rejections are expected traffic, not bridge faults.
		// Log at warn and swallow so the wrapper does not double-log.
		if isDomainRejection(err) {
			b.logger.Warn("mqtt reading rejected",
				"sensor_id", sensorID, "error", err)
			b.publishAck(topic, map[string]any{
				"status": "rejected",
				"error":  err.Error(),
			})
			return nil
		}
		return fmt.Errorf("sensor %d: ingest failed: %w", sensorID, err)
	}

	b.logger.Debug("mqtt reading ingested",
		"sensor_id", sensorID, "measurement_id", m.ID)
	b.publishAck(topic, map[string]any{
		"status":         "accepted",
		"measurement_id": m.ID,
	})
	return nil
}

// publishAck reports the outcome on the reading's ack subtopic. Acks
// are best-effort; a publish failure only logs.
func (b *Bridge) publishAck(topic string, body map[string]any) {
	if err := b.subscriber.PublishJSON(topic+"/ack", b.qos, false, body); err != nil {
		b.logger.Warn("mqtt ack publish failed", "topic", topic, "error", err)
	}
}

func isDomainRejection(err error) bool {
	return errors.Is(err, measure.ErrInvalidAPIKey) ||
		errors.Is(err, measure.ErrSensorDisabled) ||
		errors.Is(err, measure.ErrSeriesMismatch) ||
		errors.Is(err, measure.ErrValueOutOfRange)
}
