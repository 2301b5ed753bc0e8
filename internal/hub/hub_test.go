package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/dto"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository/mocks"
	"github.com/Raunaq22/Musicbrew-sub000/internal/service"
)

// newTestHub wires a Hub with mock-backed services. The Redis client is never
// dialed: these tests avoid the subscribe path by joining presence directly.
func newTestHub(t *testing.T) (*Hub, *mocks.StateRepository) {
	t.Helper()
	roomRepo := new(mocks.RoomRepository)
	activityRepo := new(mocks.ActivityRepository)
	stateRepo := new(mocks.StateRepository)
	locker := service.NewRoomLocker()
	roomService := service.NewRoomService(roomRepo, activityRepo, stateRepo, nil, locker)
	queueService := service.NewQueueService(roomRepo, stateRepo, nil, locker)
	chatService := service.NewChatService(stateRepo, service.DefaultTypingTTL)
	t.Cleanup(chatService.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	t.Cleanup(func() { _ = redisClient.Close() })

	return NewHub(NewPresenceTracker(), roomService, queueService, chatService, stateRepo, redisClient), stateRepo
}

func captureBusEnvelopes(stateRepo *mocks.StateRepository) <-chan *dto.Envelope {
	published := make(chan *dto.Envelope, 64)
	stateRepo.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			env, err := dto.DecodeEnvelope(args.Get(2).([]byte))
			if err == nil {
				published <- env
			}
		}).Return(nil)
	return published
}

func waitBusEnvelope(t *testing.T, published <-chan *dto.Envelope) *dto.Envelope {
	t.Helper()
	select {
	case env := <-published:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a published envelope")
		return nil
	}
}

func busEventType(t *testing.T, env *dto.Envelope) string {
	t.Helper()
	var event dto.Event
	require.NoError(t, json.Unmarshal(env.Message, &event))
	return event.Type
}

func TestHub_DisconnectBroadcastsToEachRoom(t *testing.T) {
	h, stateRepo := newTestHub(t)
	published := captureBusEnvelopes(stateRepo)

	client := NewClient(h, nil, 42, "dana")
	h.registerClient(client)
	h.presence.Join(client.id, 1, 42, "dana")
	h.presence.Join(client.id, 2, 42, "dana")

	h.unregisterClient(client)

	seen := map[uint]int{}
	for i := 0; i < 2; i++ {
		env := waitBusEnvelope(t, published)
		seen[env.RoomID]++
		assert.Equal(t, dto.EventUserDisconnected, busEventType(t, env))
		assert.Equal(t, client.id, env.Exclude, "the dropped connection never hears about itself")
	}
	assert.Equal(t, map[uint]int{1: 1, 2: 1}, seen, "exactly one broadcast per affected room")

	select {
	case env := <-published:
		t.Fatalf("unexpected extra broadcast: %s", string(env.Message))
	default:
	}
	assert.Equal(t, 0, h.presence.Count(1))
	assert.Equal(t, 0, h.presence.Count(2))
}

func TestHub_UnregisterUnknownClientIsNoOp(t *testing.T) {
	h, stateRepo := newTestHub(t)

	h.unregisterClient(NewClient(h, nil, 42, "dana"))

	stateRepo.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestHub_MalformedEventEchoesError(t *testing.T) {
	h, _ := newTestHub(t)

	client := NewClient(h, nil, 42, "dana")
	h.registerClient(client)

	h.handleEvent(HubMessage{Type: MessageEvent, Client: client, RawData: []byte(`{"type":`)})

	select {
	case raw := <-client.send:
		var event dto.Event
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, dto.EventError, event.Type)
		var payload dto.ErrorPayload
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.NotEmpty(t, payload.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error event on the originating connection")
	}
}

// Regression: events from one connection must be handled in arrival order. A
// hub that fans each event into its own goroutine lets a later chat message
// grab an earlier sequence number.
func TestHub_EventsFromOneConnectionKeepOrder(t *testing.T) {
	h, stateRepo := newTestHub(t)
	published := captureBusEnvelopes(stateRepo)

	var seq uint64
	stateRepo.On("NextChatSequence", mock.Anything, uint(1)).
		Return(func(ctx context.Context, roomID uint) uint64 {
			return atomic.AddUint64(&seq, 1)
		}, nil).Maybe()

	client := NewClient(h, nil, 42, "dana")
	h.registerClient(client)
	h.presence.Join(client.id, 1, 42, "dana")

	const messages = 25
	for i := 0; i < messages; i++ {
		payload, err := json.Marshal(dto.ChatMessagePayload{RoomID: 1, Message: fmt.Sprintf("m-%d", i)})
		require.NoError(t, err)
		raw, err := json.Marshal(dto.Event{Type: dto.EventChatMessage, Payload: payload})
		require.NoError(t, err)
		h.enqueueEvent(HubMessage{Type: MessageEvent, Client: client, RawData: raw})
	}

	for i := 0; i < messages; i++ {
		env := waitBusEnvelope(t, published)
		var event dto.Event
		require.NoError(t, json.Unmarshal(env.Message, &event))
		require.Equal(t, dto.EventNewChatMessage, event.Type)
		var got domain.ChatMessage
		require.NoError(t, json.Unmarshal(event.Payload, &got))
		assert.Equal(t, fmt.Sprintf("m-%d", i), got.Text, "broadcast %d out of order", i)
		assert.Equal(t, uint64(i+1), got.Sequence, "sequence %d assigned out of order", i)
	}
}
