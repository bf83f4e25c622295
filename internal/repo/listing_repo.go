// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for tracked
// marketplace listings and operator-configured search terms.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
)

// ListTrackedByExternalIDs fetches the tracked listings matching any of the
// given marketplace ids.
func ListTrackedByExternalIDs(ctx context.Context, db *gorm.DB, externalIDs []string) ([]domain.TrackedListing, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	var out []domain.TrackedListing
	err := db.WithContext(ctx).
		Where("external_id IN ?", externalIDs).
		Find(&out).Error
	return out, err
}

// ListTrackedBySearchTerm returns all listings discovered under one search
// term, newest marketplace id first.
func ListTrackedBySearchTerm(ctx context.Context, db *gorm.DB, searchTermID string) ([]domain.TrackedListing, error) {
	var out []domain.TrackedListing
	err := db.WithContext(ctx).
		Where("search_term_id = ?", searchTermID).
		Order("external_id DESC").
		Find(&out).Error
	return out, err
}

// InsertTracked inserts listings that appeared for the first time in a sweep.
func InsertTracked(ctx context.Context, db *gorm.DB, listings []domain.TrackedListing) error {
	if len(listings) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range listings {
		if listings[i].ID == "" {
			listings[i].ID = uuid.NewString()
		}
		listings[i].CreatedAt = now
		listings[i].UpdatedAt = now
	}
	return db.WithContext(ctx).Create(&listings).Error
}

// UpdateTrackedSnapshot overwrites the live snapshot of one tracked listing.
func UpdateTrackedSnapshot(ctx context.Context, db *gorm.DB, externalID, snapshot string) error {
	return db.WithContext(ctx).
		Model(&domain.TrackedListing{}).
		Where("external_id = ?", externalID).
		Updates(map[string]any{
			"snapshot":   snapshot,
			"updated_at": time.Now().UTC(),
		}).Error
}

// ListSearchTerms returns every operator-configured search term.
func ListSearchTerms(ctx context.Context, db *gorm.DB) ([]domain.SearchTerm, error) {
	var out []domain.SearchTerm
	err := db.WithContext(ctx).Order("term ASC").Find(&out).Error
	return out, err
}
