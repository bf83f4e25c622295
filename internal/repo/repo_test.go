package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func TestUpsertCar_CreatesThenOverwrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := UpsertCar(ctx, db, "GY8822C", "MAZDA 3", "30 Jun 2023", first); err != nil {
		t.Fatalf("UpsertCar: %v", err)
	}

	second := first.Add(48 * time.Hour)
	if err := UpsertCar(ctx, db, "GY8822C", "MAZDA 3 MILD HYBRID", "30 Jun 2024", second); err != nil {
		t.Fatalf("UpsertCar (overwrite): %v", err)
	}

	car, err := FindCar(ctx, db, "GY8822C")
	if err != nil {
		t.Fatalf("FindCar: %v", err)
	}
	if car == nil {
		t.Fatal("FindCar returned nil after upsert")
	}
	if car.CarMake != "MAZDA 3 MILD HYBRID" || car.Tax != "30 Jun 2024" {
		t.Errorf("car = %+v; upsert did not overwrite", car)
	}

	total, err := CountCars(ctx, db)
	if err != nil {
		t.Fatalf("CountCars: %v", err)
	}
	if total != 1 {
		t.Errorf("CountCars = %d; want 1 (upsert, not insert)", total)
	}
}

func TestFindCar_MissReturnsNil(t *testing.T) {
	db := openTestDB(t)

	car, err := FindCar(context.Background(), db, "SJX1234A")
	if err != nil {
		t.Fatalf("FindCar: %v", err)
	}
	if car != nil {
		t.Errorf("FindCar = %+v; want nil on miss", car)
	}
}

func TestTrimCarWhitespace(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	dirty := domain.Car{License: " GY8822C ", CarMake: " MAZDA 3 ", Tax: "30 Jun 2024", LastUpdated: time.Now().UTC()}
	clean := domain.Car{License: "EL1A", CarMake: "HONDA CIVIC", Tax: "01 Jan 2025", LastUpdated: time.Now().UTC()}
	if err := db.Create(&dirty).Error; err != nil {
		t.Fatalf("seed dirty: %v", err)
	}
	if err := db.Create(&clean).Error; err != nil {
		t.Fatalf("seed clean: %v", err)
	}

	fixed, err := TrimCarWhitespace(ctx, db)
	if err != nil {
		t.Fatalf("TrimCarWhitespace: %v", err)
	}
	if fixed != 1 {
		t.Errorf("fixed = %d; want 1", fixed)
	}

	car, err := FindCar(ctx, db, "GY8822C")
	if err != nil || car == nil {
		t.Fatalf("FindCar after trim: car=%v err=%v", car, err)
	}
	if car.CarMake != "MAZDA 3" {
		t.Errorf("CarMake = %q; want trimmed", car.CarMake)
	}
}

func TestImageSet_FindByNameOrHash(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := CreateImageSet(ctx, db, "mazda 3", "abc123", `[{"low":"a","hd":"b"}]`); err != nil {
		t.Fatalf("CreateImageSet: %v", err)
	}

	byName, err := FindImageSet(ctx, db, "mazda 3")
	if err != nil || byName == nil {
		t.Fatalf("FindImageSet by name: set=%v err=%v", byName, err)
	}
	byHash, err := FindImageSet(ctx, db, "abc123")
	if err != nil || byHash == nil {
		t.Fatalf("FindImageSet by hash: set=%v err=%v", byHash, err)
	}
	if byName.ID != byHash.ID {
		t.Error("name and hash lookups resolved different sets")
	}

	miss, err := FindImageSet(ctx, db, "nope")
	if err != nil {
		t.Fatalf("FindImageSet miss: %v", err)
	}
	if miss != nil {
		t.Errorf("miss = %+v; want nil", miss)
	}
}

func TestTrackedListings_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := InsertTracked(ctx, db, []domain.TrackedListing{
		{ExternalID: "1001", Name: "Mazda 3", Snapshot: `{"price":90000}`, SearchTermID: "term-1"},
		{ExternalID: "1002", Name: "Mazda 3 HEV", Snapshot: `{"price":95000}`, SearchTermID: "term-1"},
	})
	if err != nil {
		t.Fatalf("InsertTracked: %v", err)
	}

	got, err := ListTrackedByExternalIDs(ctx, db, []string{"1001", "1002", "9999"})
	if err != nil {
		t.Fatalf("ListTrackedByExternalIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d; want 2", len(got))
	}

	if err := UpdateTrackedSnapshot(ctx, db, "1001", `{"price":88000}`); err != nil {
		t.Fatalf("UpdateTrackedSnapshot: %v", err)
	}
	byTerm, err := ListTrackedBySearchTerm(ctx, db, "term-1")
	if err != nil {
		t.Fatalf("ListTrackedBySearchTerm: %v", err)
	}
	if byTerm[0].ExternalID != "1002" {
		t.Errorf("order: first = %s; want 1002 (external_id DESC)", byTerm[0].ExternalID)
	}
	for _, l := range byTerm {
		if l.ExternalID == "1001" && l.Snapshot != `{"price":88000}` {
			t.Errorf("snapshot not overwritten: %s", l.Snapshot)
		}
	}

	// Empty id list short-circuits without touching the database.
	none, err := ListTrackedByExternalIDs(ctx, db, nil)
	if err != nil || none != nil {
		t.Errorf("empty ids: got %v, %v", none, err)
	}
}

func TestHistory_AppendOnlyOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := AppendHistory(ctx, db, "1001", `{"price":90000}`, `{"price":88000}`, t0); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if _, err := AppendHistory(ctx, db, "1001", `{"price":88000}`, `{"price":85000}`, t0.Add(time.Hour)); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	rows, err := ListHistory(ctx, db, "1001")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d; want 2", len(rows))
	}
	if rows[0].To != `{"price":88000}` || rows[1].To != `{"price":85000}` {
		t.Error("history not ordered oldest first")
	}
}
