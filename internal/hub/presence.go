package hub

import (
	"sync"
	"time"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
)

// PresenceTracker is the in-memory bidirectional index of which connections
// are in which rooms. It is the sole source of truth for listener counts.
// Nothing here is persisted: a process restart clears all presence, which is
// acceptable because presence is advisory.
type PresenceTracker struct {
	mu sync.RWMutex
	// connection id -> room id -> membership record
	conns map[string]map[uint]*domain.Participant
	// room id -> set of connection ids
	rooms map[uint]map[string]struct{}
}

// NewPresenceTracker creates a PresenceTracker instance.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		conns: make(map[string]map[uint]*domain.Participant),
		rooms: make(map[uint]map[string]struct{}),
	}
}

// Join records a connection's membership in a room. Returns false when the
// connection was already a member.
func (t *PresenceTracker) Join(connID string, roomID, actorID uint, displayName string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.conns[connID]; !ok {
		t.conns[connID] = make(map[uint]*domain.Participant)
	}
	if _, ok := t.conns[connID][roomID]; ok {
		return false
	}
	t.conns[connID][roomID] = &domain.Participant{
		ConnectionID: connID,
		RoomID:       roomID,
		ActorID:      actorID,
		DisplayName:  displayName,
		JoinedAt:     time.Now().UTC(),
	}
	if _, ok := t.rooms[roomID]; !ok {
		t.rooms[roomID] = make(map[string]struct{})
	}
	t.rooms[roomID][connID] = struct{}{}
	return true
}

// Leave removes a connection's membership in a room. Returns false when the
// connection was not a member.
func (t *PresenceTracker) Leave(connID string, roomID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(connID, roomID)
}

func (t *PresenceTracker) leaveLocked(connID string, roomID uint) bool {
	memberships, ok := t.conns[connID]
	if !ok {
		return false
	}
	if _, ok := memberships[roomID]; !ok {
		return false
	}
	delete(memberships, roomID)
	if len(memberships) == 0 {
		delete(t.conns, connID)
	}
	if members, ok := t.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(t.rooms, roomID)
		}
	}
	return true
}

// IsMember reports whether a connection has joined a room.
func (t *PresenceTracker) IsMember(connID string, roomID uint) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	memberships, ok := t.conns[connID]
	if !ok {
		return false
	}
	_, ok = memberships[roomID]
	return ok
}

// Count returns the number of connections in a room.
func (t *PresenceTracker) Count(roomID uint) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms[roomID])
}

// Connections returns the connection ids currently in a room.
func (t *PresenceTracker) Connections(roomID uint) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members := t.rooms[roomID]
	connIDs := make([]string, 0, len(members))
	for connID := range members {
		connIDs = append(connIDs, connID)
	}
	return connIDs
}

// DropConnection removes a connection from every room it joined and returns
// the affected room ids, for disconnect cleanup broadcasts.
func (t *PresenceTracker) DropConnection(connID string) []uint {
	t.mu.Lock()
	defer t.mu.Unlock()

	memberships, ok := t.conns[connID]
	if !ok {
		return nil
	}
	roomIDs := make([]uint, 0, len(memberships))
	for roomID := range memberships {
		roomIDs = append(roomIDs, roomID)
	}
	for _, roomID := range roomIDs {
		t.leaveLocked(connID, roomID)
	}
	return roomIDs
}
