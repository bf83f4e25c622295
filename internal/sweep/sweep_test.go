package sweep

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/diff"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/repo"
)

type fakeClient struct {
	pages map[int][]Listing
	info  map[string]map[string]any

	pageCalls int
	infoCalls int
}

func (f *fakeClient) LatestUsed(_ context.Context, _ domain.SearchTerm, page int) ([]Listing, error) {
	f.pageCalls++
	return f.pages[page], nil
}

func (f *fakeClient) ListingInfo(_ context.Context, id string) (map[string]any, error) {
	f.infoCalls++
	return f.info[id], nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedTerm(t *testing.T, db *gorm.DB, perPage int) domain.SearchTerm {
	t.Helper()
	term := domain.SearchTerm{ID: "term-1", Term: "mazda 3", ItemsPerPage: perPage}
	if err := db.Create(&term).Error; err != nil {
		t.Fatal(err)
	}
	return term
}

func TestRun_NewListingsTracked(t *testing.T) {
	db := openTestDB(t)
	seedTerm(t, db, 20)
	client := &fakeClient{
		pages: map[int][]Listing{0: {
			{ExternalID: "101", Name: "Mazda 3 1.5A"},
			{ExternalID: "102", Name: "Mazda 3 Sedan"},
		}},
		info: map[string]map[string]any{
			"101": {"price": "$80,000", "views": "1"},
			"102": {"price": "$91,500", "views": "9"},
		},
	}
	s := New(db, client, diff.New(DefaultIgnorableFields...), 20, zerolog.Nop())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tracked, err := repo.ListTrackedBySearchTerm(context.Background(), db, "term-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tracked) != 2 {
		t.Fatalf("tracked = %d listings; want 2", len(tracked))
	}
	if tracked[0].ExternalID != "102" {
		t.Errorf("ordering = %q first; want newest id first", tracked[0].ExternalID)
	}
	if !strings.Contains(tracked[1].Snapshot, "$80,000") {
		t.Errorf("snapshot = %q", tracked[1].Snapshot)
	}
}

func TestRun_MaterialChangeAppendsHistory(t *testing.T) {
	db := openTestDB(t)
	seedTerm(t, db, 20)
	ctx := context.Background()

	if err := repo.InsertTracked(ctx, db, []domain.TrackedListing{{
		ExternalID:   "101",
		Name:         "Mazda 3 1.5A",
		Snapshot:     `{"price":"$80,000","views":"1"}`,
		SearchTermID: "term-1",
	}}); err != nil {
		t.Fatal(err)
	}

	client := &fakeClient{
		pages: map[int][]Listing{0: {{ExternalID: "101", Name: "Mazda 3 1.5A"}}},
		info:  map[string]map[string]any{"101": {"price": "$78,000", "views": "2"}},
	}
	s := New(db, client, diff.New(DefaultIgnorableFields...), 20, zerolog.Nop())

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	history, err := repo.ListHistory(ctx, db, "101")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d; want 1", len(history))
	}
	if !strings.Contains(history[0].From, "$80,000") || !strings.Contains(history[0].To, "$78,000") {
		t.Errorf("history = %+v", history[0])
	}

	tracked, err := repo.ListTrackedBySearchTerm(ctx, db, "term-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tracked[0].Snapshot, "$78,000") {
		t.Errorf("snapshot not refreshed: %q", tracked[0].Snapshot)
	}
}

func TestRun_IgnorableChurnLeavesNoTrace(t *testing.T) {
	db := openTestDB(t)
	seedTerm(t, db, 20)
	ctx := context.Background()

	old := `{"price":"$80,000","depreciation":"$9,500 /yr"}`
	if err := repo.InsertTracked(ctx, db, []domain.TrackedListing{{
		ExternalID: "101", Name: "Mazda 3", Snapshot: old, SearchTermID: "term-1",
	}}); err != nil {
		t.Fatal(err)
	}

	client := &fakeClient{
		pages: map[int][]Listing{0: {{ExternalID: "101", Name: "Mazda 3"}}},
		info:  map[string]map[string]any{"101": {"price": "$80,000", "depreciation": "$9,200 /yr"}},
	}
	s := New(db, client, diff.New(DefaultIgnorableFields...), 20, zerolog.Nop())

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	history, err := repo.ListHistory(ctx, db, "101")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Errorf("history rows = %d for depreciation churn; want 0", len(history))
	}
	tracked, _ := repo.ListTrackedBySearchTerm(ctx, db, "term-1")
	if tracked[0].Snapshot != old {
		t.Errorf("snapshot rewritten on non-material change: %q", tracked[0].Snapshot)
	}
}

func TestSweepTerm_ShortPageStopsPagination(t *testing.T) {
	db := openTestDB(t)
	term := seedTerm(t, db, 2)
	client := &fakeClient{
		pages: map[int][]Listing{
			0: {{ExternalID: "201", Name: "A"}, {ExternalID: "202", Name: "B"}},
			1: {{ExternalID: "203", Name: "C"}},
			2: {{ExternalID: "204", Name: "D"}},
		},
		info: map[string]map[string]any{
			"201": {"price": "1"}, "202": {"price": "2"},
			"203": {"price": "3"}, "204": {"price": "4"},
		},
	}
	s := New(db, client, diff.New(), 20, zerolog.Nop())

	if err := s.sweepTerm(context.Background(), term); err != nil {
		t.Fatalf("sweepTerm: %v", err)
	}
	if client.pageCalls != 2 {
		t.Errorf("page fetches = %d; short page must stop pagination", client.pageCalls)
	}
}

func TestSweepTerm_PageCap(t *testing.T) {
	db := openTestDB(t)
	term := seedTerm(t, db, 1)
	// Every page is full, so only the cap can stop the loop.
	client := &fakeClient{
		pages: map[int][]Listing{},
		info:  map[string]map[string]any{"1": {"price": "1"}},
	}
	for i := 0; i < 50; i++ {
		client.pages[i] = []Listing{{ExternalID: "1", Name: "X"}}
	}
	s := New(db, client, diff.New(), 3, zerolog.Nop())

	if err := s.sweepTerm(context.Background(), term); err != nil {
		t.Fatalf("sweepTerm: %v", err)
	}
	if client.pageCalls != 3 {
		t.Errorf("page fetches = %d; want cap of 3", client.pageCalls)
	}
}
