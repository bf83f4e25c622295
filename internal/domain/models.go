// Package domain defines the persistence models for vehicle records, change
// history, cached image variant sets, tracked marketplace listings, and
// operator-configured search terms. These types are mapped with GORM and form
// the core data layer of the bot.
package domain

import (
	"time"
)

// Car is a scraped road-tax record, keyed by the checksum-normalized license
// plate. Rows are upserted by a successful portal scrape and read on cache
// hits.
type Car struct {
	License     string    `json:"license"      gorm:"type:varchar(16);primaryKey"`
	CarMake     string    `json:"car_make"     gorm:"type:varchar(128);not null"`
	Tax         string    `json:"tax"          gorm:"type:varchar(64)"`
	LastUpdated time.Time `json:"last_updated" gorm:"not null"`
}

// TableName returns the database table name for Car.
func (Car) TableName() string { return "cars" }

// CarHistory is an append-only record of one material change on a tracked
// listing. From and To hold the full JSON snapshots on either side of the
// change; rows are never mutated or deleted.
type CarHistory struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	CarID     string    `json:"car_id"     gorm:"type:varchar(32);not null;index:idx_history_car"`
	From      string    `json:"from"       gorm:"type:text;not null"`
	To        string    `json:"to"         gorm:"type:text;not null"`
	ChangedAt time.Time `json:"changed_at" gorm:"not null"`
}

// TableName returns the database table name for CarHistory.
func (CarHistory) TableName() string { return "car_history" }

// CarImageSet caches the image search results for one key. Name is the
// semantic key (usually a car make), Hash an optional content-hash alias.
// Raw holds the ordered JSON list of {low, hd} variant pairs; index 0 is the
// default variant and indices stay stable for the lifetime of the set.
type CarImageSet struct {
	ID        string    `json:"id"   gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(128);not null;uniqueIndex"`
	Hash      string    `json:"hash" gorm:"type:varchar(64);index"`
	Raw       string    `json:"raw"  gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for CarImageSet.
func (CarImageSet) TableName() string { return "car_images" }

// TrackedListing is one marketplace listing discovered by the ingestion
// sweep. Snapshot is overwritten in place when a material diff is found; the
// row itself is never deleted by the pipeline.
type TrackedListing struct {
	ID           string    `json:"id"             gorm:"type:char(36);primaryKey"`
	ExternalID   string    `json:"external_id"    gorm:"type:varchar(32);not null;uniqueIndex"`
	Name         string    `json:"name"           gorm:"type:varchar(255);not null"`
	Snapshot     string    `json:"snapshot"       gorm:"type:text"`
	SearchTermID string    `json:"search_term_id" gorm:"type:char(36);index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for TrackedListing.
func (TrackedListing) TableName() string { return "tracked_listings" }

// SearchTerm is an operator-configured query the sweep iterates. Read-only
// input to the pipeline.
type SearchTerm struct {
	ID               string `json:"id"                gorm:"type:char(36);primaryKey"`
	Term             string `json:"term"              gorm:"type:varchar(128);not null"`
	RegistrationDate string `json:"registration_date" gorm:"type:varchar(16);default:'0'"`
	ItemsPerPage     int    `json:"items_per_page"    gorm:"default:20"`
	YearFrom         int    `json:"year_from"         gorm:"default:0"`
	YearTo           int    `json:"year_to"           gorm:"default:0"`
}

// TableName returns the database table name for SearchTerm.
func (SearchTerm) TableName() string { return "search_terms" }
