// Package images resolves and caches vehicle photo variants. Search results
// are fetched once per vehicle name, persisted as a JSON set, and served from
// the database on every later request.
package images

import (
	"context"
	"errors"
	"strings"

	g "github.com/serpapi/google-search-results-golang"
)

// serpImagePrefix is stripped from relative result URLs before persisting
// and restored when serving.
const serpImagePrefix = "https://serpapi.com/searches/"

// thumbnailPrefix marks encrypted Google thumbnail URLs, which are too low
// quality to serve.
const thumbnailPrefix = "https://encrypted-tbn0.gstatic.com/images"

// maxVariants caps how many results are kept per vehicle.
const maxVariants = 5

// Variant is one cached photo with its low-resolution preview and original
// source URL.
type Variant struct {
	Low string `json:"low"`
	HD  string `json:"hd"`
}

// Searcher finds photo variants for a vehicle name.
type Searcher interface {
	SearchImages(ctx context.Context, query string) ([]Variant, error)
}

// SerpSearcher queries the Google Images engine through SerpAPI.
type SerpSearcher struct {
	apiKey string
}

// NewSerpSearcher builds the production searcher.
func NewSerpSearcher(apiKey string) *SerpSearcher {
	return &SerpSearcher{apiKey: apiKey}
}

// SearchImages runs one image search and returns the usable variants:
// encrypted thumbnails are dropped and at most five results are kept.
func (s *SerpSearcher) SearchImages(_ context.Context, query string) ([]Variant, error) {
	params := map[string]string{
		"engine": "google_images",
		"q":      query,
		"hl":     "en",
		"gl":     "sg",
	}
	search := g.NewGoogleSearch(params, s.apiKey)
	data, err := search.GetJSON()
	if err != nil {
		return nil, err
	}

	raw, ok := data["images_results"].([]interface{})
	if !ok {
		return nil, errors.New("image search returned no results block")
	}

	var variants []Variant
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		low, _ := entry["thumbnail"].(string)
		hd, _ := entry["original"].(string)
		if hd == "" || strings.HasPrefix(low, thumbnailPrefix) {
			continue
		}
		variants = append(variants, Variant{
			Low: strings.TrimPrefix(low, serpImagePrefix),
			HD:  hd,
		})
		if len(variants) == maxVariants {
			break
		}
	}
	return variants, nil
}
