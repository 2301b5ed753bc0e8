package repository

import (
	"context"
	"time"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
)

// ActivityRepository stores the durable room activity log.
type ActivityRepository interface {
	// SaveBatch persists a batch of activity records.
	SaveBatch(ctx context.Context, activities []domain.RoomActivity) error

	// FindRecentByRoom returns the newest records for a room, newest first.
	FindRecentByRoom(ctx context.Context, roomID uint, limit int) ([]domain.RoomActivity, error)

	// DeleteOlderThan removes records created before the cutoff and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
