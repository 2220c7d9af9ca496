package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/measurelab/measurand/internal/audit"
	"github.com/measurelab/measurand/internal/measure"
)

// createSensorRequest is the request body for POST /sensors.
type createSensorRequest struct {
	SeriesID int64  `json:"series_id"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// sensorCreatedResponse carries the raw API key alongside the sensor.
// This is the only response that ever includes the key.
type sensorCreatedResponse struct {
	*measure.Sensor
	RawAPIKey string `json:"api_key"`
}

// ingestRequest is the measurement payload for both the device path
// and admin creation.
type ingestRequest struct {
	SeriesID  int64    `json:"series_id"`
	Value     *float64 `json:"value"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// parseIngestRequest decodes and validates the shared payload shape.
func parseIngestRequest(r *http.Request) (*ingestRequest, time.Time, string) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, time.Time{}, "invalid JSON body"
	}
	if req.SeriesID <= 0 {
		return nil, time.Time{}, "series_id is required"
	}
	if req.Value == nil {
		return nil, time.Time{}, "value is required"
	}

	timestamp := time.Now().UTC()
	if req.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return nil, time.Time{}, "timestamp must be RFC3339"
		}
		timestamp = t
	}
	return &req, timestamp, ""
}

func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	var seriesID *int64
	if v := r.URL.Query().Get("series_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeBadRequest(w, "series_id must be a positive integer")
			return
		}
		seriesID = &id
	}

	sensors, err := s.sensors.List(r.Context(), seriesID)
	if err != nil {
		s.logger.Error("listing sensors failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if sensors == nil {
		sensors = []measure.Sensor{}
	}
	writeJSON(w, http.StatusOK, sensors)
}

func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid sensor id")
		return
	}

	sensor, err := s.sensors.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sensor)
}

func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	var req createSensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	sensor := &measure.Sensor{
		SeriesID: req.SeriesID,
		Name:     req.Name,
		IsActive: true,
	}
	if req.IsActive != nil {
		sensor.IsActive = *req.IsActive
	}

	if err := s.sensors.Create(r.Context(), sensor); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionCreate, audit.EntitySensor,
		strconv.FormatInt(sensor.ID, 10), auditUserID(r),
		map[string]any{"name": sensor.Name, "series_id": sensor.SeriesID})

	writeJSON(w, http.StatusCreated, sensorCreatedResponse{
		Sensor:    sensor,
		RawAPIKey: sensor.APIKey,
	})
}

func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid sensor id")
		return
	}

	var patch measure.SensorUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	sensor, err := s.sensors.Update(r.Context(), id, &patch)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUpdate, audit.EntitySensor,
		strconv.FormatInt(id, 10), auditUserID(r), nil)

	writeJSON(w, http.StatusOK, sensor)
}

func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid sensor id")
		return
	}

	if err := s.sensors.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionDelete, audit.EntitySensor,
		strconv.FormatInt(id, 10), auditUserID(r), nil)

	w.WriteHeader(http.StatusNoContent)
}

// handleDeviceIngest accepts a reading from a sensor authenticated by
// X-API-Key. The id/key pair is checked as one unit; on success the
// reading and the sensor's last_seen commit together.
func (s *Server) handleDeviceIngest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		// Unparseable ids get the same response as unknown sensors.
		writeUnauthorized(w, "invalid sensor credentials")
		return
	}

	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		writeUnauthorized(w, "missing X-API-Key header")
		return
	}

	req, timestamp, errMsg := parseIngestRequest(r)
	if errMsg != "" {
		writeBadRequest(w, errMsg)
		return
	}

	m, err := s.ingestor.IngestDevice(r.Context(), measure.PathDevice,
		id, apiKey, req.SeriesID, *req.Value, timestamp)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.mirrorMeasurement(m)

	writeJSON(w, http.StatusCreated, m)
}

// mirrorMeasurement forwards an accepted measurement to the InfluxDB
// mirror when one is configured. Failures are invisible to clients.
func (s *Server) mirrorMeasurement(m *measure.Measurement) {
	if s.influx == nil || !s.influx.IsConnected() {
		return
	}

	unit := ""
	if series, err := s.series.GetByID(context.Background(), m.SeriesID); err == nil {
		unit = series.Unit
	}
	s.influx.WriteMeasurement(m.SeriesID, m.SensorID, unit, m.Value, m.Timestamp)
}
