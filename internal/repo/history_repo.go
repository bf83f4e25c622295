// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// listing change history.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/domain"
)

// AppendHistory records one material change on a tracked listing. History
// rows are append-only; there are no update or delete operations.
func AppendHistory(ctx context.Context, db *gorm.DB, carID, fromSnapshot, toSnapshot string, changedAt time.Time) (*domain.CarHistory, error) {
	h := &domain.CarHistory{
		ID:        uuid.NewString(),
		CarID:     carID,
		From:      fromSnapshot,
		To:        toSnapshot,
		ChangedAt: changedAt,
	}
	return h, db.WithContext(ctx).Create(h).Error
}

// ListHistory returns the change history for one listing, oldest first.
func ListHistory(ctx context.Context, db *gorm.DB, carID string) ([]domain.CarHistory, error) {
	var out []domain.CarHistory
	err := db.WithContext(ctx).
		Where("car_id = ?", carID).
		Order("changed_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
