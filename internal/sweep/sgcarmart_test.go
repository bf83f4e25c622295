package sweep

import (
	"strings"
	"testing"
)

const listingPageHTML = `
<html><body>
<div class="result">
  <a href="/used_cars/info.php?ID=1361338&DL=1000"><img src="thumb1.jpg"></a>
  <a href="/used_cars/info.php?ID=1361338&DL=1000">Mazda 3 1.5A Sunroof</a>
</div>
<div class="result">
  <a href="/used_cars/info.php?ID=1361204&DL=2640">Mazda 3 Sedan 1.6A</a>
</div>
<a href="/used_cars/listing.php?BRSR=20">Next</a>
</body></html>`

func TestParseListingPage(t *testing.T) {
	listings, err := parseListingPage(strings.NewReader(listingPageHTML))
	if err != nil {
		t.Fatalf("parseListingPage: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("listings = %+v; want 2 after dedupe", listings)
	}
	if listings[0].ExternalID != "1361338" || listings[0].Name != "Mazda 3 1.5A Sunroof" {
		t.Errorf("first = %+v; photo anchor must not shadow the title", listings[0])
	}
	if listings[1].ExternalID != "1361204" {
		t.Errorf("second = %+v", listings[1])
	}
}

func TestParseListingPage_Empty(t *testing.T) {
	listings, err := parseListingPage(strings.NewReader(`<html><body><p>No vehicles found.</p></body></html>`))
	if err != nil {
		t.Fatalf("parseListingPage: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("listings = %+v; want none", listings)
	}
}

const infoPageHTML = `
<html><body>
<h1> Mazda 3 1.5A Sunroof </h1>
<table>
  <tr><td>Price:</td><td>$80,000</td></tr>
  <tr><td>Depreciation:</td><td>$9,500 /yr</td></tr>
  <tr><td>Reg Date:</td><td>15-Jun-2019</td></tr>
  <tr><td>Views:</td><td>1,234</td></tr>
  <tr><td>Empty Row:</td><td></td></tr>
  <tr><td>one</td><td>two</td><td>three</td></tr>
</table>
</body></html>`

func TestParseListingInfo(t *testing.T) {
	info, err := parseListingInfo(strings.NewReader(infoPageHTML))
	if err != nil {
		t.Fatalf("parseListingInfo: %v", err)
	}

	want := map[string]string{
		"name":         "Mazda 3 1.5A Sunroof",
		"price":        "$80,000",
		"depreciation": "$9,500 /yr",
		"reg_date":     "15-Jun-2019",
		"views":        "1,234",
	}
	for k, v := range want {
		if got, ok := info[k]; !ok || got != v {
			t.Errorf("info[%q] = %v; want %q", k, got, v)
		}
	}
	if _, ok := info["empty_row"]; ok {
		t.Error("empty value row should be skipped")
	}
	if _, ok := info["one"]; ok {
		t.Error("three-cell row should be skipped")
	}
}

func TestListingID(t *testing.T) {
	tests := []struct {
		href, want string
	}{
		{"/used_cars/info.php?ID=1361338&DL=1000", "1361338"},
		{"https://www.sgcarmart.com/used_cars/info.php?ID=42", "42"},
		{"/used_cars/listing.php?BRSR=20", ""},
		{"::bad::url", ""},
	}
	for _, tt := range tests {
		if got := listingID(tt.href); got != tt.want {
			t.Errorf("listingID(%q) = %q; want %q", tt.href, got, tt.want)
		}
	}
}
