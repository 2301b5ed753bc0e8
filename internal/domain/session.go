package domain

import "time"

// Participant is the ephemeral record of one connection's membership in one
// room. It lives only in the presence tracker for the lifetime of the
// connection and is never persisted.
type Participant struct {
	ConnectionID string    `json:"connection_id"`
	RoomID       uint      `json:"room_id"`
	ActorID      uint      `json:"actor_id"`
	DisplayName  string    `json:"display_name"`
	JoinedAt     time.Time `json:"joined_at"`
}

// ChatMessage is broadcast to a room's participants and lost once every
// participant disconnects. Sequence is monotonic per room.
type ChatMessage struct {
	RoomID     uint      `json:"room_id"`
	Sequence   uint64    `json:"sequence"`
	AuthorID   uint      `json:"author_id"`
	AuthorName string    `json:"author"`
	Text       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
