package dto

import (
	"time"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
)

// RoomResponse is the API and room-state representation of a room, with the
// queue expanded and the live listener count attached.
type RoomResponse struct {
	ID             uint           `json:"id"`
	HostID         uint           `json:"host_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	IsActive       bool           `json:"is_active"`
	Queue          []domain.Track `json:"queue"`
	CurrentTrackID *string        `json:"current_track_id"`
	Listeners      int            `json:"listeners"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewRoomResponse expands a room record into its API shape.
func NewRoomResponse(room *domain.Room, listeners int) (RoomResponse, error) {
	queue, err := room.ParseQueue()
	if err != nil {
		return RoomResponse{}, err
	}
	return RoomResponse{
		ID:             room.ID,
		HostID:         room.HostID,
		Name:           room.Name,
		Description:    room.Description,
		IsActive:       room.IsActive,
		Queue:          queue,
		CurrentTrackID: room.CurrentTrackID,
		Listeners:      listeners,
		CreatedAt:      room.CreatedAt,
	}, nil
}
