// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for scraped vehicle
// records.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
)

// FindCar fetches a cached vehicle record by its normalized license plate.
// Returns (nil, nil) when no record exists.
func FindCar(ctx context.Context, db *gorm.DB, license string) (*domain.Car, error) {
	var car domain.Car
	err := db.WithContext(ctx).Where("license = ?", license).First(&car).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &car, nil
}

// UpsertCar creates or overwrites the record for a license plate. Only a
// successful scrape writes here.
func UpsertCar(ctx context.Context, db *gorm.DB, license, carMake, tax string, now time.Time) error {
	car := domain.Car{
		License:     license,
		CarMake:     carMake,
		Tax:         tax,
		LastUpdated: now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "license"}},
		DoUpdates: clause.AssignmentColumns([]string{"car_make", "tax", "last_updated"}),
	}).Create(&car).Error
}

// CountCars returns the number of cached vehicle records.
func CountCars(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Car{}).Count(&total).Error
	return total, err
}

// TrimCarWhitespace rewrites every car row with leading/trailing whitespace
// stripped from its text fields. Returns the number of rows actually changed.
// One-off repair for records persisted before text cleaning was in place.
func TrimCarWhitespace(ctx context.Context, db *gorm.DB) (int, error) {
	var cars []domain.Car
	if err := db.WithContext(ctx).Find(&cars).Error; err != nil {
		return 0, err
	}

	fixed := 0
	for _, car := range cars {
		license := strings.TrimSpace(car.License)
		carMake := strings.TrimSpace(car.CarMake)
		tax := strings.TrimSpace(car.Tax)
		if license == car.License && carMake == car.CarMake && tax == car.Tax {
			continue
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if license != car.License {
				// Primary key changed; replace the row instead of updating in place.
				if err := tx.Delete(&domain.Car{}, "license = ?", car.License).Error; err != nil {
					return err
				}
			}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "license"}},
				DoUpdates: clause.AssignmentColumns([]string{"car_make", "tax", "last_updated"}),
			}).Create(&domain.Car{
				License:     license,
				CarMake:     carMake,
				Tax:         tax,
				LastUpdated: car.LastUpdated,
			}).Error
		})
		if err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}
