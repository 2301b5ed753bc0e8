package domain

import "time"

// Activity kinds recorded for a room.
const (
	ActivityTrackAdded   = "track_added"
	ActivityTrackRemoved = "track_removed"
	ActivityTrackSet     = "track_set"
	ActivityRoomEnded    = "room_ended"
)

// RoomActivity is a durable audit record of a queue or lifecycle mutation.
// Written asynchronously by the worker, off the request path.
type RoomActivity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"index;not null" json:"room_id"`
	ActorID   uint      `gorm:"index;not null" json:"actor_id"`
	Kind      string    `gorm:"size:50;not null" json:"kind"`
	TrackID   string    `gorm:"size:191" json:"track_id,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
