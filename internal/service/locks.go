package service

import "sync"

// RoomLocker hands out one mutex per room id so queue and lifecycle mutations
// on the same room never interleave their read-modify-write within this
// process. Cross-process writers are caught by the versioned save.
type RoomLocker struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewRoomLocker creates a RoomLocker instance.
func NewRoomLocker() *RoomLocker {
	return &RoomLocker{locks: make(map[uint]*sync.Mutex)}
}

// Lock acquires the mutex for the given room, creating it on first use, and
// returns the unlock function.
func (l *RoomLocker) Lock(roomID uint) func() {
	l.mu.Lock()
	roomMu, ok := l.locks[roomID]
	if !ok {
		roomMu = &sync.Mutex{}
		l.locks[roomID] = roomMu
	}
	l.mu.Unlock()

	roomMu.Lock()
	return roomMu.Unlock
}
