package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
)

// GormRoomRepository is the GORM implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a GormRoomRepository instance.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindByID looks a room up by primary key.
func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

// FindAll lists rooms ordered by creation time descending.
func (r *GormRoomRepository) FindAll(ctx context.Context, activeOnly bool) ([]domain.Room, error) {
	var rooms []domain.Room
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("gorm: find rooms (activeOnly=%t): %w", activeOnly, err)
	}
	return rooms, nil
}

// Save creates or updates the room record.
func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Save(room).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d): %w", room.ID, err)
	}
	return nil
}

// SaveVersioned writes the room with a compare-and-swap on the version
// column. Zero rows affected means another writer updated the room after it
// was read, so the caller must retry with fresh state.
func (r *GormRoomRepository) SaveVersioned(ctx context.Context, room *domain.Room) error {
	readVersion := room.Version
	result := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("id = ? AND version = ?", room.ID, readVersion).
		Updates(map[string]interface{}{
			"name":             room.Name,
			"description":      room.Description,
			"is_active":        room.IsActive,
			"queue_data":       room.QueueData,
			"current_track_id": room.CurrentTrackID,
			"version":          readVersion + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: versioned save room (id: %d, version: %d): %w",
			room.ID, readVersion, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrVersionConflict
	}
	room.Version = readVersion + 1
	return nil
}
