package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
)

// GormActivityRepository is the GORM implementation of ActivityRepository.
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a GormActivityRepository instance.
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	if db == nil {
		panic("database connection cannot be nil for GormActivityRepository")
	}
	return &GormActivityRepository{db: db}
}

// SaveBatch persists a batch of activity records in one insert.
func (r *GormActivityRepository) SaveBatch(ctx context.Context, activities []domain.RoomActivity) error {
	if len(activities) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&activities).Error; err != nil {
		return fmt.Errorf("gorm: save activity batch (size %d): %w", len(activities), err)
	}
	return nil
}

// FindRecentByRoom returns the newest activity records for a room.
func (r *GormActivityRepository) FindRecentByRoom(ctx context.Context, roomID uint, limit int) ([]domain.RoomActivity, error) {
	var activities []domain.RoomActivity
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find activity for room %d: %w", roomID, err)
	}
	return activities, nil
}

// DeleteOlderThan removes activity records created before the cutoff.
func (r *GormActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.RoomActivity{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: delete activity older than %v: %w", cutoff, result.Error)
	}
	return result.RowsAffected, nil
}
