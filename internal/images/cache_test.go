package images

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/repo"
)

type fakeSearcher struct {
	variants []Variant
	err      error
	calls    int
}

func (f *fakeSearcher) SearchImages(_ context.Context, _ string) ([]Variant, error) {
	f.calls++
	return f.variants, f.err
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

func newTestCache(t *testing.T, search Searcher) *Cache {
	t.Helper()
	return NewCache(openTestDB(t), search, nil, t.TempDir(), zerolog.Nop())
}

func TestResolve_DefaultSearchesOncePerName(t *testing.T) {
	search := &fakeSearcher{variants: []Variant{
		{Low: "mazda-0.jpg", HD: "https://img.example/mazda-0.jpg?sig=abc"},
		{Low: "https://cdn.example/mazda-1.jpg", HD: "https://img.example/mazda-1.jpg"},
	}}
	c := newTestCache(t, search)
	ctx := context.Background()

	res, err := c.Resolve(ctx, "  Mazda 3 ", Default, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Index != 0 || res.Total != 2 {
		t.Errorf("index/total = %d/%d; want 0/2", res.Index, res.Total)
	}
	if res.Caption != "Mazda 3" {
		t.Errorf("caption = %q; want %q", res.Caption, "Mazda 3")
	}
	if res.URL != serpImagePrefix+"mazda-0.jpg" {
		t.Errorf("URL = %q; relative preview path not restored", res.URL)
	}

	// Second request for the same name, differently cased, must be a cache
	// hit.
	if _, err := c.Resolve(ctx, "MAZDA 3", Default, 0); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if search.calls != 1 {
		t.Errorf("search calls = %d; want 1", search.calls)
	}
}

func TestResolve_AnotherRandomAvoidsPrevious(t *testing.T) {
	search := &fakeSearcher{variants: []Variant{
		{Low: "a.jpg", HD: "https://img.example/a.jpg"},
		{Low: "b.jpg", HD: "https://img.example/b.jpg"},
		{Low: "c.jpg", HD: "https://img.example/c.jpg"},
	}}
	c := newTestCache(t, search)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		res, err := c.Resolve(ctx, "honda civic", AnotherRandom, 1)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if res.Index == 1 {
			t.Fatal("AnotherRandom returned the previous index")
		}
	}
}

func TestResolve_AnotherRandomSingleVariant(t *testing.T) {
	search := &fakeSearcher{variants: []Variant{
		{Low: "only.jpg", HD: "https://img.example/only.jpg"},
	}}
	c := newTestCache(t, search)

	res, err := c.Resolve(context.Background(), "bmw", AnotherRandom, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Index != 0 {
		t.Errorf("index = %d; single-variant set must serve index 0", res.Index)
	}
}

func TestResolve_ForceHDStripsQuery(t *testing.T) {
	search := &fakeSearcher{variants: []Variant{
		{Low: "a.jpg", HD: "https://img.example/a.jpg?token=xyz&w=1200"},
		{Low: "b.jpg", HD: "https://img.example/b.jpg#frag"},
	}}
	c := newTestCache(t, search)
	ctx := context.Background()

	res, err := c.Resolve(ctx, "toyota", ForceHD, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.URL != "https://img.example/a.jpg" {
		t.Errorf("URL = %q; query string not stripped", res.URL)
	}

	res, err = c.Resolve(ctx, "toyota", ForceHD, 1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.URL != "https://img.example/b.jpg" {
		t.Errorf("URL = %q; fragment not stripped", res.URL)
	}
}

func TestResolve_NoVariants(t *testing.T) {
	c := newTestCache(t, &fakeSearcher{})
	if _, err := c.Resolve(context.Background(), "unknown make", Default, 0); !errors.Is(err, ErrNoVariants) {
		t.Errorf("err = %v; want ErrNoVariants", err)
	}
}

func TestResolve_SearchErrorPropagates(t *testing.T) {
	boom := errors.New("engine down")
	c := newTestCache(t, &fakeSearcher{err: boom})
	if _, err := c.Resolve(context.Background(), "audi", Default, 0); !errors.Is(err, boom) {
		t.Errorf("err = %v; want wrapped search error", err)
	}
}

func TestPickAnotherBounded(t *testing.T) {
	c := newTestCache(t, &fakeSearcher{})
	// Exhausting the draw bound must still return a non-previous index.
	for i := 0; i < 100; i++ {
		if got := c.pickAnother(2, 1); got == 1 {
			t.Fatal("pickAnother returned previous index")
		}
	}
}
