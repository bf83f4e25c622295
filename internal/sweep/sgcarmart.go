// Package sweep implements the periodic listings ingestion pass: walk the
// marketplace search results for every operator-configured term, snapshot
// each listing, and record material changes against the tracked copies.
package sweep

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
)

const marketBase = "https://www.sgcarmart.com"

// Listing is one search result row: the marketplace id and display name.
type Listing struct {
	ExternalID string
	Name       string
}

// Client fetches marketplace pages. Satisfied by *HTTPClient; tests inject a
// fake.
type Client interface {
	LatestUsed(ctx context.Context, term domain.SearchTerm, page int) ([]Listing, error)
	ListingInfo(ctx context.Context, externalID string) (map[string]any, error)
}

// HTTPClient scrapes the public marketplace pages.
type HTTPClient struct {
	base   string
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPClient builds the production marketplace client.
func NewHTTPClient(log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		base: marketBase,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// LatestUsed fetches one page of used-car search results for the term. Pages
// are zero-based.
func (c *HTTPClient) LatestUsed(ctx context.Context, term domain.SearchTerm, page int) ([]Listing, error) {
	perPage := term.ItemsPerPage
	if perPage < 1 {
		perPage = 20
	}

	q := url.Values{
		"AVL":  {"2"},
		"KW":   {term.Term},
		"RPG":  {strconv.Itoa(perPage)},
		"BRSR": {strconv.Itoa(page * perPage)},
	}
	if term.RegistrationDate != "" && term.RegistrationDate != "0" {
		q.Set("RGD", term.RegistrationDate)
	}
	if term.YearFrom > 0 {
		q.Set("FR_MFG", strconv.Itoa(term.YearFrom))
	}
	if term.YearTo > 0 {
		q.Set("TO_MFG", strconv.Itoa(term.YearTo))
	}

	body, err := c.get(ctx, c.base+"/used_cars/listing.php?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseListingPage(body)
}

// ListingInfo fetches the detail page of one listing and flattens its spec
// table into a snapshot document.
func (c *HTTPClient) ListingInfo(ctx context.Context, externalID string) (map[string]any, error) {
	body, err := c.get(ctx, c.base+"/used_cars/info.php?ID="+url.QueryEscape(externalID))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseListingInfo(body)
}

func (c *HTTPClient) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("marketplace fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

// parseListingPage extracts the listing links from a search results page.
// Duplicate anchors to the same listing (photo plus title) collapse to one
// entry, keeping the first non-empty name.
func parseListingPage(r io.Reader) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var out []Listing
	doc.Find(`a[href*="info.php?ID="]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		id := listingID(href)
		if id == "" {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if pos, dup := seen[id]; dup {
			if out[pos].Name == "" {
				out[pos].Name = name
			}
			return
		}
		seen[id] = len(out)
		out = append(out, Listing{ExternalID: id, Name: name})
	})
	return out, nil
}

// parseListingInfo flattens the detail page's label/value rows into a
// document keyed by the lower-cased label.
func parseListingInfo(r io.Reader) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	info := make(map[string]any)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		label := normalizeLabel(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		info[label] = value
	})

	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		info["name"] = title
	}
	return info, nil
}

func listingID(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("ID")
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ":")
	return strings.ReplaceAll(s, " ", "_")
}
