package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Room is a collaborative listening session. The track queue is stored as a
// JSON-encoded text column so the whole record stays the unit of persistence
// and of concurrency control.
type Room struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	HostID         uint    `gorm:"index;not null" json:"host_id"`
	Name           string  `gorm:"size:191;not null" json:"name"`
	Description    string  `gorm:"type:text" json:"description"`
	IsActive       bool    `gorm:"index;not null;default:true" json:"is_active"`
	QueueData      string  `gorm:"type:text" json:"-"`
	CurrentTrackID *string `gorm:"size:191" json:"current_track_id"`
	// Version guards read-modify-write cycles on the queue. Every queue
	// mutation must go through a compare-and-swap on this column.
	Version   uint      `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ParseQueue decodes the QueueData column. An empty column is an empty queue.
func (r *Room) ParseQueue() ([]Track, error) {
	if r.QueueData == "" || r.QueueData == "null" {
		return []Track{}, nil
	}
	var queue []Track
	if err := json.Unmarshal([]byte(r.QueueData), &queue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room queue: %w", err)
	}
	return queue, nil
}

// SetQueue encodes the given tracks into the QueueData column.
func (r *Room) SetQueue(queue []Track) error {
	if queue == nil {
		queue = []Track{}
	}
	bytes, err := json.Marshal(queue)
	if err != nil {
		return fmt.Errorf("failed to marshal room queue: %w", err)
	}
	r.QueueData = string(bytes)
	return nil
}

// End marks the room inactive. The transition is one-way; ending an already
// ended room is a no-op.
func (r *Room) End() {
	r.IsActive = false
}
