package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/measurelab/measurand/internal/measure"
)

func TestAdminMeasurementCRUD(t *testing.T) {
	ts := newTestServer(t)
	_, admin := ts.seedUser(t, "admin", true)
	series := ts.seedSeries(t, "pressure", 900, 1100)

	var created measure.Measurement

	t.Run("create", func(t *testing.T) {
		rec := ts.request(t, "POST", "/api/v1/measurements", admin, map[string]any{
			"series_id": series.ID,
			"value":     1013.25,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		decode(t, rec, &created)
		if created.ID == 0 || created.Value != 1013.25 {
			t.Errorf("created = %+v", created)
		}
		if created.SensorID != nil {
			t.Error("admin-path measurements carry no sensor identity")
		}
	})

	t.Run("create out of range", func(t *testing.T) {
		rec := ts.request(t, "POST", "/api/v1/measurements", admin, map[string]any{
			"series_id": series.ID,
			"value":     1100.5,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var body Error
		decode(t, rec, &body)
		if body.Code != ErrCodeValueRange {
			t.Errorf("code = %q", body.Code)
		}
	})

	t.Run("create for unknown series", func(t *testing.T) {
		rec := ts.request(t, "POST", "/api/v1/measurements", admin, map[string]any{
			"series_id": 999,
			"value":     1.0,
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("get is public", func(t *testing.T) {
		rec := ts.request(t, "GET", fmt.Sprintf("/api/v1/measurements/%d", created.ID), "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("update revalidates against the series", func(t *testing.T) {
		rec := ts.request(t, "PUT", fmt.Sprintf("/api/v1/measurements/%d", created.ID), admin,
			map[string]any{"value": 5000.0})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}

		rec = ts.request(t, "PUT", fmt.Sprintf("/api/v1/measurements/%d", created.ID), admin,
			map[string]any{"value": 990.0})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var got measure.Measurement
		decode(t, rec, &got)
		if got.Value != 990.0 {
			t.Errorf("value = %v", got.Value)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := ts.request(t, "DELETE", fmt.Sprintf("/api/v1/measurements/%d", created.ID), admin, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		rec = ts.request(t, "GET", fmt.Sprintf("/api/v1/measurements/%d", created.ID), "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status after delete = %d, want 404", rec.Code)
		}
	})
}

func TestListMeasurements(t *testing.T) {
	ts := newTestServer(t)
	_, admin := ts.seedUser(t, "admin", true)
	temp := ts.seedSeries(t, "temperature", -20, 60)
	humidity := ts.seedSeries(t, "humidity", 0, 100)

	seed := []struct {
		seriesID  int64
		value     float64
		timestamp string
	}{
		{temp.ID, 20.0, "2026-05-01T10:00:00Z"},
		{temp.ID, 21.0, "2026-05-01T11:00:00Z"},
		{temp.ID, 22.0, "2026-05-01T12:00:00Z"},
		{humidity.ID, 55.0, "2026-05-01T11:30:00Z"},
	}
	for _, m := range seed {
		rec := ts.request(t, "POST", "/api/v1/measurements", admin, map[string]any{
			"series_id": m.seriesID, "value": m.value, "timestamp": m.timestamp})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seeding measurement: %d %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("unfiltered, ascending", func(t *testing.T) {
		rec := ts.request(t, "GET", "/api/v1/measurements", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var list []measure.Measurement
		decode(t, rec, &list)
		if len(list) != 4 {
			t.Fatalf("len = %d, want 4", len(list))
		}
		for i := 1; i < len(list); i++ {
			if list[i].Timestamp.Before(list[i-1].Timestamp) {
				t.Errorf("results not in ascending timestamp order at %d", i)
			}
		}
	})

	t.Run("series filter", func(t *testing.T) {
		rec := ts.request(t, "GET", fmt.Sprintf("/api/v1/measurements?series_ids=%d", humidity.ID), "", nil)
		var list []measure.Measurement
		decode(t, rec, &list)
		if len(list) != 1 || list[0].Value != 55.0 {
			t.Errorf("list = %+v", list)
		}
	})

	t.Run("multi series filter", func(t *testing.T) {
		rec := ts.request(t, "GET",
			fmt.Sprintf("/api/v1/measurements?series_ids=%d,%d", temp.ID, humidity.ID), "", nil)
		var list []measure.Measurement
		decode(t, rec, &list)
		if len(list) != 4 {
			t.Errorf("len = %d, want 4", len(list))
		}
	})

	t.Run("time range is inclusive", func(t *testing.T) {
		rec := ts.request(t, "GET",
			"/api/v1/measurements?start=2026-05-01T11:00:00Z&end=2026-05-01T12:00:00Z", "", nil)
		var list []measure.Measurement
		decode(t, rec, &list)
		if len(list) != 3 {
			t.Errorf("len = %d, want 3 (boundary rows included)", len(list))
		}
	})

	t.Run("limit", func(t *testing.T) {
		rec := ts.request(t, "GET", "/api/v1/measurements?limit=2", "", nil)
		var list []measure.Measurement
		decode(t, rec, &list)
		if len(list) != 2 {
			t.Errorf("len = %d, want 2", len(list))
		}
	})

	t.Run("limit above maximum", func(t *testing.T) {
		rec := ts.request(t, "GET", "/api/v1/measurements?limit=10001", "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("malformed filters", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/measurements?series_ids=abc",
			"/api/v1/measurements?series_ids=1,,2",
			"/api/v1/measurements?start=yesterday",
			"/api/v1/measurements?limit=-5",
		} {
			rec := ts.request(t, "GET", path, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", path, rec.Code)
			}
		}
	})
}
