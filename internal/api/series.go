package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/measurelab/measurand/internal/audit"
	"github.com/measurelab/measurand/internal/measure"
)

// idParam parses the {id} URL parameter as a positive integer.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// createSeriesRequest is the request body for POST /series.
type createSeriesRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	MinValue    float64 `json:"min_value"`
	MaxValue    float64 `json:"max_value"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.series.List(r.Context())
	if err != nil {
		s.logger.Error("listing series failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if series == nil {
		series = []measure.Series{}
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid series id")
		return
	}

	series, err := s.series.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req createSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	series := &measure.Series{
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		MinValue:    req.MinValue,
		MaxValue:    req.MaxValue,
		Color:       req.Color,
		Icon:        req.Icon,
	}
	if err := s.series.Create(r.Context(), series); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionCreate, audit.EntitySeries,
		strconv.FormatInt(series.ID, 10), auditUserID(r),
		map[string]any{"name": series.Name})

	writeJSON(w, http.StatusCreated, series)
}

func (s *Server) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid series id")
		return
	}

	var patch measure.SeriesUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	series, err := s.series.Update(r.Context(), id, &patch)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUpdate, audit.EntitySeries,
		strconv.FormatInt(id, 10), auditUserID(r), nil)

	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeBadRequest(w, "invalid series id")
		return
	}

	if err := s.series.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionDelete, audit.EntitySeries,
		strconv.FormatInt(id, 10), auditUserID(r), nil)

	w.WriteHeader(http.StatusNoContent)
}
