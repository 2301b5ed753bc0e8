package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceTracker_JoinAndCount(t *testing.T) {
	tracker := NewPresenceTracker()

	assert.True(t, tracker.Join("conn-a", 1, 42, "dana"))
	assert.True(t, tracker.Join("conn-b", 1, 7, "kim"))
	assert.Equal(t, 2, tracker.Count(1))
	assert.True(t, tracker.IsMember("conn-a", 1))
	assert.False(t, tracker.IsMember("conn-a", 2))
}

func TestPresenceTracker_DuplicateJoinIsNoOp(t *testing.T) {
	tracker := NewPresenceTracker()

	require.True(t, tracker.Join("conn-a", 1, 42, "dana"))
	assert.False(t, tracker.Join("conn-a", 1, 42, "dana"), "a second join of the same room must not double-count")
	assert.Equal(t, 1, tracker.Count(1))
}

func TestPresenceTracker_Leave(t *testing.T) {
	tracker := NewPresenceTracker()
	tracker.Join("conn-a", 1, 42, "dana")

	assert.True(t, tracker.Leave("conn-a", 1))
	assert.False(t, tracker.Leave("conn-a", 1), "leaving twice reports no membership")
	assert.Equal(t, 0, tracker.Count(1))
	assert.False(t, tracker.IsMember("conn-a", 1))
}

func TestPresenceTracker_LeaveUnknownConnection(t *testing.T) {
	tracker := NewPresenceTracker()

	assert.False(t, tracker.Leave("conn-missing", 1))
}

func TestPresenceTracker_MultiRoomMembership(t *testing.T) {
	tracker := NewPresenceTracker()
	tracker.Join("conn-a", 1, 42, "dana")
	tracker.Join("conn-a", 2, 42, "dana")

	assert.True(t, tracker.IsMember("conn-a", 1))
	assert.True(t, tracker.IsMember("conn-a", 2))

	tracker.Leave("conn-a", 1)
	assert.False(t, tracker.IsMember("conn-a", 1))
	assert.True(t, tracker.IsMember("conn-a", 2), "leaving one room keeps the other membership")
}

func TestPresenceTracker_Connections(t *testing.T) {
	tracker := NewPresenceTracker()
	tracker.Join("conn-a", 1, 42, "dana")
	tracker.Join("conn-b", 1, 7, "kim")

	connIDs := tracker.Connections(1)
	assert.ElementsMatch(t, []string{"conn-a", "conn-b"}, connIDs)
	assert.Empty(t, tracker.Connections(2))
}

func TestPresenceTracker_DropConnection(t *testing.T) {
	tracker := NewPresenceTracker()
	tracker.Join("conn-a", 1, 42, "dana")
	tracker.Join("conn-a", 2, 42, "dana")
	tracker.Join("conn-b", 1, 7, "kim")

	roomIDs := tracker.DropConnection("conn-a")

	assert.ElementsMatch(t, []uint{1, 2}, roomIDs)
	assert.False(t, tracker.IsMember("conn-a", 1))
	assert.False(t, tracker.IsMember("conn-a", 2))
	assert.Equal(t, 1, tracker.Count(1), "other connections stay untouched")
	assert.Equal(t, 0, tracker.Count(2))

	assert.Nil(t, tracker.DropConnection("conn-a"), "dropping an unknown connection touches no rooms")
}
