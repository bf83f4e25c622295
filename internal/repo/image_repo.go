// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for cached image
// variant sets.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
)

// FindImageSet fetches a variant set by key, matching either the semantic
// name or the content-hash alias. Returns (nil, nil) when no set exists.
func FindImageSet(ctx context.Context, db *gorm.DB, key string) (*domain.CarImageSet, error) {
	var set domain.CarImageSet
	err := db.WithContext(ctx).
		Where("name = ? OR hash = ?", key, key).
		First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// CreateImageSet persists a new variant set. The set's variant list is
// immutable after creation; repeat lookups only change which index is
// surfaced.
func CreateImageSet(ctx context.Context, db *gorm.DB, name, hash, raw string) (*domain.CarImageSet, error) {
	set := &domain.CarImageSet{
		ID:        uuid.NewString(),
		Name:      name,
		Hash:      hash,
		Raw:       raw,
		CreatedAt: time.Now().UTC(),
	}
	return set, db.WithContext(ctx).Create(set).Error
}
