package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
)

// Event types sent by clients.
const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventChatMessage  = "chat-message"
	EventTypingStart  = "typing-start"
	EventTypingStop   = "typing-stop"
	EventQueueUpdate  = "queue-update"
	EventTrackControl = "track-control-update"
)

// Event types broadcast to clients. EventTrackControl is used in both
// directions.
const (
	EventNewChatMessage    = "new-chat-message"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventUserDisconnected  = "user-disconnected"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
	EventQueueUpdated      = "queue-updated"
	EventRoomState         = "room-state"
	EventError             = "error"
)

// Queue operations carried by EventQueueUpdate.
const (
	QueueOpAppend = "append"
	QueueOpRemove = "remove"
)

// Event is the wire envelope in both directions on the WebSocket.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Envelope wraps a client-facing event for transport over the Redis event
// bus. Exclude names a connection the originating instance does not want the
// event delivered to (the sender).
type Envelope struct {
	RoomID  uint            `json:"room_id"`
	Exclude string          `json:"exclude,omitempty"`
	Message json.RawMessage `json:"message"`
}

// EncodeEvent marshals an event envelope for delivery to a client.
func EncodeEvent(eventType string, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		raw = bytes
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}

// EncodeEnvelope builds the publication envelope for the room event bus.
func EncodeEnvelope(roomID uint, exclude string, eventType string, payload interface{}) ([]byte, error) {
	message, err := EncodeEvent(eventType, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{RoomID: roomID, Exclude: exclude, Message: message})
}

// DecodeEnvelope parses an envelope received from the room event bus.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	return &env, nil
}

// --- Client event payloads ---

type JoinRoomPayload struct {
	RoomID uint `json:"room_id"`
}

type LeaveRoomPayload struct {
	RoomID uint `json:"room_id"`
}

type ChatMessagePayload struct {
	RoomID  uint   `json:"room_id"`
	Message string `json:"message"`
}

type TypingPayload struct {
	RoomID uint `json:"room_id"`
}

type QueueUpdatePayload struct {
	RoomID  uint          `json:"room_id"`
	Op      string        `json:"op"`
	Track   *domain.Track `json:"track,omitempty"`
	TrackID string        `json:"track_id,omitempty"`
}

type TrackControlPayload struct {
	RoomID uint          `json:"room_id"`
	Action string        `json:"action"`
	Track  *domain.Track `json:"track,omitempty"`
}

// --- Broadcast payloads ---

type UserJoinedPayload struct {
	ConnectionID string `json:"connection_id"`
	DisplayName  string `json:"display_name"`
}

type UserLeftPayload struct {
	ConnectionID string `json:"connection_id"`
}

type UserDisconnectedPayload struct {
	ConnectionID string    `json:"connection_id"`
	Timestamp    time.Time `json:"timestamp"`
}

type TypingBroadcastPayload struct {
	Author string `json:"author"`
}

type QueueUpdatedPayload struct {
	Queue          []domain.Track `json:"queue"`
	CurrentTrackID *string        `json:"current_track_id"`
}

type TrackControlBroadcastPayload struct {
	Action string        `json:"action"`
	Track  *domain.Track `json:"track,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
