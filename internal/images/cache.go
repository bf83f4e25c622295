package images

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/queue"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/repo"
)

// ErrNoVariants is returned when the search engine has no usable photos for
// the key.
var ErrNoVariants = errors.New("no image variants found")

var cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "image_cache_lookups_total",
	Help: "Image variant set lookups by outcome.",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(cacheLookups)
}

// Mode selects which variant of a cached set to surface.
type Mode int

const (
	// Default serves the primary (index 0) variant, populating the cache on
	// first request.
	Default Mode = iota
	// AnotherRandom serves a random variant different from the one already
	// shown, when the set has more than one.
	AnotherRandom
	// ForceHD serves the original source URL of the current variant, with
	// any query-string suffix stripped.
	ForceHD
)

// Resolution is one servable photo picked from a variant set.
type Resolution struct {
	Caption string
	URL     string
	Index   int
	Total   int
}

// Cache resolves photo variants for vehicle names. The first request for a
// name triggers one search; the resulting set is persisted and every variant
// is handed to the download lane for local warm-up.
type Cache struct {
	db        *gorm.DB
	search    Searcher
	downloads *queue.Downloads
	dir       string
	rand      *rand.Rand
	log       zerolog.Logger
}

// NewCache builds the variant cache. downloads may be nil; local warm-up is
// then skipped.
func NewCache(db *gorm.DB, search Searcher, downloads *queue.Downloads, dir string, log zerolog.Logger) *Cache {
	return &Cache{
		db:        db,
		search:    search,
		downloads: downloads,
		dir:       dir,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:       log,
	}
}

// Resolve returns a photo for name according to mode. previousIndex is the
// variant currently shown in the chat; it is only consulted by AnotherRandom
// and ForceHD.
func (c *Cache) Resolve(ctx context.Context, name string, mode Mode, previousIndex int) (*Resolution, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	variants, err := c.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}
	if previousIndex < 0 || previousIndex >= len(variants) {
		previousIndex = 0
	}

	caption := cases.Title(language.English).String(key)
	switch mode {
	case AnotherRandom:
		idx := c.pickAnother(len(variants), previousIndex)
		return &Resolution{Caption: caption, URL: lowURL(variants[idx]), Index: idx, Total: len(variants)}, nil
	case ForceHD:
		return &Resolution{Caption: caption, URL: stripQuery(variants[previousIndex].HD), Index: previousIndex, Total: len(variants)}, nil
	default:
		return &Resolution{Caption: caption, URL: lowURL(variants[0]), Index: 0, Total: len(variants)}, nil
	}
}

// load fetches the persisted set for key, searching and persisting it on the
// first miss.
func (c *Cache) load(ctx context.Context, key string) ([]Variant, error) {
	hash := hashKey(key)
	set, err := repo.FindImageSet(ctx, c.db, key)
	if err != nil {
		return nil, err
	}
	if set != nil {
		cacheLookups.WithLabelValues("hit").Inc()
		var variants []Variant
		if err := json.Unmarshal([]byte(set.Raw), &variants); err != nil {
			return nil, fmt.Errorf("corrupt variant set %s: %w", set.ID, err)
		}
		return variants, nil
	}

	cacheLookups.WithLabelValues("miss").Inc()
	variants, err := c.search.SearchImages(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}

	raw, err := json.Marshal(variants)
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateImageSet(ctx, c.db, key, hash, string(raw)); err != nil {
		return nil, err
	}
	c.warm(hash, variants)
	return variants, nil
}

// warm hands every variant to the background download lane.
func (c *Cache) warm(hash string, variants []Variant) {
	if c.downloads == nil {
		return
	}
	for i, v := range variants {
		c.downloads.Submit(queue.Download{
			URL:  lowURL(v),
			Dest: filepath.Join(c.dir, "images", fmt.Sprintf("%s-%d.jpg", hash, i)),
		})
	}
}

// pickAnother draws a random index different from previous. A single-variant
// set short-circuits, and the draw loop is bounded so a pathological RNG can
// never spin forever.
func (c *Cache) pickAnother(total, previous int) int {
	if total < 2 {
		return 0
	}
	for i := 0; i < 16; i++ {
		if idx := c.rand.Intn(total); idx != previous {
			return idx
		}
	}
	return (previous + 1) % total
}

// lowURL restores the search-engine prefix on relative preview paths.
func lowURL(v Variant) string {
	if strings.HasPrefix(v.Low, "http") {
		return v.Low
	}
	return serpImagePrefix + v.Low
}

// stripQuery cuts a URL at its query string or fragment. Some hosts refuse
// signed parameters when replayed, while the bare path still serves the
// original file.
func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

func hashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
