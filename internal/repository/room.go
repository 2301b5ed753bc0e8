package repository

import (
	"context"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
)

// RoomRepository defines storage and retrieval of rooms.
type RoomRepository interface {
	// FindByID looks a room up by id. Returns ErrRoomNotFound when absent.
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindAll returns rooms ordered by creation time, newest first.
	// With activeOnly set, ended rooms are excluded.
	FindAll(ctx context.Context, activeOnly bool) ([]domain.Room, error)

	// Save creates the room when its id is zero, otherwise updates it.
	Save(ctx context.Context, room *domain.Room) error

	// SaveVersioned persists the room only if the stored version still equals
	// the version the room was read at, then bumps it. Returns
	// ErrVersionConflict when another writer got there first.
	SaveVersioned(ctx context.Context, room *domain.Room) error
}
