package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mattn/go-sqlite3"
	"github.com/measurelab/measurand/internal/auth"
	"github.com/measurelab/measurand/internal/measure"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeValidation   = "validation_error"
	ErrCodeValueRange   = "value_out_of_range"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeUnavailable  = "service_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

func writeServiceUnavailable(w http.ResponseWriter, message string) {
	writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// writeDomainError maps domain sentinels to transport responses. The
// fallthrough is a 500 with a generic message so internals never leak.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var rangeErr *measure.RangeError

	switch {
	case errors.As(err, &rangeErr):
		writeError(w, http.StatusBadRequest, ErrCodeValueRange, rangeErr.Error())
	case errors.Is(err, measure.ErrInvalidSeries),
		errors.Is(err, measure.ErrInvalidSensor),
		errors.Is(err, measure.ErrSeriesMismatch):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, measure.ErrInvalidAPIKey):
		// Absence and mismatch share this body deliberately.
		writeUnauthorized(w, "invalid sensor credentials")
	case errors.Is(err, measure.ErrSensorDisabled):
		writeForbidden(w, "sensor is disabled")
	case errors.Is(err, measure.ErrSeriesNotFound):
		writeNotFound(w, "series not found")
	case errors.Is(err, measure.ErrSensorNotFound):
		writeNotFound(w, "sensor not found")
	case errors.Is(err, measure.ErrMeasurementNotFound):
		writeNotFound(w, "measurement not found")
	case errors.Is(err, auth.ErrUserNotFound):
		writeNotFound(w, "user not found")
	case errors.Is(err, auth.ErrUsernameExists):
		writeConflict(w, "username already taken")
	case errors.Is(err, auth.ErrEmailExists):
		writeConflict(w, "email already taken")
	case errors.Is(err, auth.ErrWeakPassword):
		writeBadRequest(w, "password does not meet the minimum length")
	case isStorageUnavailable(err):
		s.logger.Error("storage unavailable", "error", err)
		writeServiceUnavailable(w, "storage unavailable")
	default:
		s.logger.Error("unhandled domain error", "error", err)
		writeInternalError(w, "internal server error")
	}
}

// isStorageUnavailable reports whether err signals that the database is
// unreachable or locked rather than a fault in the request itself.
// These surface as 503 so clients know to retry.
func isStorageUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen:
			return true
		}
	}
	return false
}
