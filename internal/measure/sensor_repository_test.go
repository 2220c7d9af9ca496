package measure

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSensorRepository_Create(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)
	ctx := context.Background()

	series := seedTestSeries(t, db, "Temperature", -40, 85)

	s := &Sensor{SeriesID: series.ID, Name: "attic probe", IsActive: true}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if s.ID == 0 {
		t.Fatal("Create() should assign an id")
	}
	if s.APIKey == "" {
		t.Fatal("Create() should generate an api key")
	}

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.APIKey != "" {
		t.Error("GetByID() must not expose the api key")
	}
	if got.LastSeen != nil {
		t.Error("a fresh sensor should have no last_seen")
	}
	if !got.IsActive {
		t.Error("IsActive should survive a round trip")
	}
}

func TestSensorRepository_Create_UnknownSeries(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)

	err := repo.Create(context.Background(), &Sensor{SeriesID: 999, Name: "orphan"})
	if !errors.Is(err, ErrSeriesNotFound) {
		t.Errorf("error = %v, want ErrSeriesNotFound", err)
	}
}

func TestSensorRepository_GetByIDAndKey(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)
	ctx := context.Background()

	series := seedTestSeries(t, db, "Temperature", -40, 85)
	sensor := seedTestSensor(t, db, series.ID, "probe")

	got, err := repo.GetByIDAndKey(ctx, sensor.ID, sensor.APIKey)
	if err != nil {
		t.Fatalf("GetByIDAndKey() error = %v", err)
	}
	if got.ID != sensor.ID || got.SeriesID != series.ID {
		t.Errorf("got sensor %d/series %d, want %d/%d", got.ID, got.SeriesID, sensor.ID, series.ID)
	}
}

func TestSensorRepository_GetByIDAndKey_Indistinguishable(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)
	ctx := context.Background()

	series := seedTestSeries(t, db, "Temperature", -40, 85)
	sensor := seedTestSensor(t, db, series.ID, "probe")

	// Wrong key on an existing sensor and a nonexistent sensor must
	// yield the same error.
	_, errWrongKey := repo.GetByIDAndKey(ctx, sensor.ID, "sensor_bogus")
	_, errNoSensor := repo.GetByIDAndKey(ctx, 9999, sensor.APIKey)

	if !errors.Is(errWrongKey, ErrInvalidAPIKey) {
		t.Errorf("wrong key error = %v, want ErrInvalidAPIKey", errWrongKey)
	}
	if !errors.Is(errNoSensor, ErrInvalidAPIKey) {
		t.Errorf("missing sensor error = %v, want ErrInvalidAPIKey", errNoSensor)
	}
}

func TestSensorRepository_List(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)
	ctx := context.Background()

	s1 := seedTestSeries(t, db, "Temperature", -40, 85)
	s2 := seedTestSeries(t, db, "Humidity", 0, 100)
	seedTestSensor(t, db, s1.ID, "t1")
	seedTestSensor(t, db, s1.ID, "t2")
	seedTestSensor(t, db, s2.ID, "h1")

	all, err := repo.List(ctx, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(nil) = %d, want 3", len(all))
	}
	for _, s := range all {
		if s.APIKey != "" {
			t.Errorf("List() must not expose api keys, sensor %d has one", s.ID)
		}
	}

	bySeries, err := repo.List(ctx, &s1.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(bySeries) != 2 {
		t.Errorf("List(series %d) = %d, want 2", s1.ID, len(bySeries))
	}
}

func TestSensorRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)
	ctx := context.Background()

	series := seedTestSeries(t, db, "Temperature", -40, 85)
	sensor := seedTestSensor(t, db, series.ID, "probe")

	inactive := false
	name := "renamed probe"
	got, err := repo.Update(ctx, sensor.ID, &SensorUpdate{Name: &name, IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Name != "renamed probe" {
		t.Errorf("Name = %q, want renamed", got.Name)
	}
	if got.IsActive {
		t.Error("IsActive should be false after update")
	}

	// An empty patch changes nothing.
	got, err = repo.Update(ctx, sensor.ID, &SensorUpdate{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Name != "renamed probe" || got.IsActive {
		t.Errorf("empty patch should leave fields alone, got %+v", got)
	}
}

func TestSensorRepository_Update_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)

	_, err := repo.Update(context.Background(), 999, &SensorUpdate{})
	if !errors.Is(err, ErrSensorNotFound) {
		t.Errorf("error = %v, want ErrSensorNotFound", err)
	}
}

func TestSensorRepository_Delete_PreservesMeasurements(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)
	measurements := NewMeasurementRepository(db)
	ctx := context.Background()

	series := seedTestSeries(t, db, "Temperature", -40, 85)
	sensor := seedTestSensor(t, db, series.ID, "probe")

	m := &Measurement{SeriesID: series.ID, SensorID: &sensor.ID, Value: 21.5}
	if err := measurements.Insert(ctx, nil, m); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := repo.Delete(ctx, sensor.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := measurements.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("measurement should survive its sensor, got %v", err)
	}
	if got.SensorID != nil {
		t.Errorf("SensorID = %v, want nil after sensor delete", *got.SensorID)
	}
}

func TestSensorRepository_TouchLastSeen(t *testing.T) {
	db := testDB(t)
	repo := NewSensorRepository(db)
	ctx := context.Background()

	series := seedTestSeries(t, db, "Temperature", -40, 85)
	sensor := seedTestSensor(t, db, series.ID, "probe")

	seen := time.Now().UTC().Truncate(time.Second)
	if err := repo.TouchLastSeen(ctx, db, sensor.ID, seen); err != nil {
		t.Fatalf("TouchLastSeen() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, sensor.ID)
	if got.LastSeen == nil || !got.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, seen)
	}
}
