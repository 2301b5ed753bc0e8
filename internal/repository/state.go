package repository

import "context"

// StateRepository covers the shared realtime state that must be consistent
// across process instances, implemented on Redis.
type StateRepository interface {
	// NextChatSequence atomically increments and returns the per-room chat
	// sequence counter.
	NextChatSequence(ctx context.Context, roomID uint) (uint64, error)

	// PublishEvent publishes an already-encoded broadcast envelope to the
	// room's event channel. Every gateway instance subscribed to the room
	// fans it out to its local connections.
	PublishEvent(ctx context.Context, roomID uint, payload []byte) error

	// EventChannel returns the pub/sub channel name for a room. The gateway
	// uses it to subscribe.
	EventChannel(roomID uint) string

	// CleanupRoomState removes the room's realtime keys once the room ends.
	CleanupRoomState(ctx context.Context, roomID uint) error
}
