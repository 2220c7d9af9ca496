package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/measurelab/measurand/internal/audit"
	"github.com/measurelab/measurand/internal/measure"
)

// parseMeasurementFilter builds a repository filter from query
// parameters. Malformed values are reported, not silently ignored.
func parseMeasurementFilter(r *http.Request) (measure.Filter, string) {
	q := r.URL.Query()
	var f measure.Filter

	if v := q.Get("series_ids"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				return f, "series_ids must be a comma-separated list of positive integers"
			}
			f.SeriesIDs = append(f.SeriesIDs, id)
		}
	}
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "start must be RFC3339"
		}
		f.Start = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "end must be RFC3339"
		}
		f.End = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, "limit must be a positive integer"
		}
		if n > measure.MaxListLimit {
			return f, "limit exceeds the maximum of " + strconv.Itoa(measure.MaxListLimit)
		}
		f.Limit = n
	}

	return f, ""
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	filter, errMsg := parseMeasurementFilter(r)
	if errMsg != "" {
		writeBadRequest(w, errMsg)
		return
	}

	measurements, err := s.measurements.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing measurements failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if measurements == nil {
		measurements = []measure.Measurement{}
	}
	writeJSON(w, http.StatusOK, measurements)
}

func (s *Server) handleGetMeasurement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid measurement id")
		return
	}

	m, err := s.measurements.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleCreateMeasurement is the admin entry path: no sensor identity,
// value validated against the named series.
func (s *Server) handleCreateMeasurement(w http.ResponseWriter, r *http.Request) {
	req, timestamp, errMsg := parseIngestRequest(r)
	if errMsg != "" {
		writeBadRequest(w, errMsg)
		return
	}

	m, err := s.ingestor.IngestAdmin(r.Context(), req.SeriesID, *req.Value, timestamp)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionCreate, audit.EntityMeasurement,
		strconv.FormatInt(m.ID, 10), auditUserID(r), nil)
	s.mirrorMeasurement(m)

	writeJSON(w, http.StatusCreated, m)
}

// updateMeasurementRequest is the request body for PUT /measurements/{id}.
type updateMeasurementRequest struct {
	Value     *float64 `json:"value"`
	Timestamp *string  `json:"timestamp"`
}

func (s *Server) handleUpdateMeasurement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid measurement id")
		return
	}

	var req updateMeasurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil && req.Timestamp == nil {
		writeBadRequest(w, "nothing to update")
		return
	}

	patch := measure.MeasurementUpdate{Value: req.Value}
	if req.Timestamp != nil {
		t, err := time.Parse(time.RFC3339, *req.Timestamp)
		if err != nil {
			writeBadRequest(w, "timestamp must be RFC3339")
			return
		}
		patch.Timestamp = &t
	}

	m, err := s.ingestor.UpdateAdmin(r.Context(), id, &patch)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUpdate, audit.EntityMeasurement,
		strconv.FormatInt(id, 10), auditUserID(r), nil)

	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid measurement id")
		return
	}

	if err := s.measurements.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionDelete, audit.EntityMeasurement,
		strconv.FormatInt(id, 10), auditUserID(r), nil)

	w.WriteHeader(http.StatusNoContent)
}
