package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository/mocks"
	"github.com/Raunaq22/Musicbrew-sub000/internal/service"
)

// fakeRoomStore is an in-memory RoomRepository with the same versioned
// compare-and-swap semantics as the real one. It backs the concurrency tests,
// where a mock with canned returns cannot express lost updates.
type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[uint]domain.Room
}

func newFakeRoomStore(rooms ...*domain.Room) *fakeRoomStore {
	store := &fakeRoomStore{rooms: make(map[uint]domain.Room)}
	for _, room := range rooms {
		store.rooms[room.ID] = *room
	}
	return store
}

func (s *fakeRoomStore) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	copied := room
	return &copied, nil
}

func (s *fakeRoomStore) FindAll(ctx context.Context, activeOnly bool) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []domain.Room
	for _, room := range s.rooms {
		if activeOnly && !room.IsActive {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *fakeRoomStore) Save(ctx context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID == 0 {
		room.ID = uint(len(s.rooms) + 1)
	}
	s.rooms[room.ID] = *room
	return nil
}

func (s *fakeRoomStore) SaveVersioned(ctx context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok {
		return repository.ErrRoomNotFound
	}
	if stored.Version != room.Version {
		return repository.ErrVersionConflict
	}
	room.Version++
	s.rooms[room.ID] = *room
	return nil
}

func newQueueService(t *testing.T, rooms ...*domain.Room) (*service.QueueService, *fakeRoomStore, *mocks.StateRepository) {
	t.Helper()
	store := newFakeRoomStore(rooms...)
	stateRepo := new(mocks.StateRepository)
	svc := service.NewQueueService(store, stateRepo, nil, service.NewRoomLocker())
	return svc, store, stateRepo
}

func TestQueueService_Append(t *testing.T) {
	room := activeRoom(t, 1, 42, []domain.Track{{ID: "track-a", Name: "A"}})
	svc, store, stateRepo := newQueueService(t, room)
	stateRepo.On("PublishEvent", mock.Anything, uint(1), mock.Anything).Return(nil)
	ctx := context.Background()

	updated, err := svc.Append(ctx, 1, 7, domain.Track{ID: "track-b", Name: "B", Artist: "Someone"})

	require.NoError(t, err)
	queue, err := updated.ParseQueue()
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "track-a", queue[0].ID, "existing entries keep their position")
	assert.Equal(t, "track-b", queue[1].ID, "new track lands at the tail")
	assert.Equal(t, uint(7), queue[1].AddedBy)

	stored, _ := store.FindByID(ctx, 1)
	assert.Equal(t, updated.QueueData, stored.QueueData)
	stateRepo.AssertCalled(t, "PublishEvent", mock.Anything, uint(1), mock.Anything)
}

func TestQueueService_Append_RequiresTrackID(t *testing.T) {
	room := activeRoom(t, 1, 42, nil)
	svc, _, _ := newQueueService(t, room)

	_, err := svc.Append(context.Background(), 1, 7, domain.Track{Name: "no id"})

	assert.True(t, errors.Is(err, service.ErrValidation))
}

func TestQueueService_Append_RejectedOnEndedRoom(t *testing.T) {
	room := activeRoom(t, 1, 42, nil)
	room.End()
	svc, _, stateRepo := newQueueService(t, room)

	_, err := svc.Append(context.Background(), 1, 7, domain.Track{ID: "track-a"})

	assert.True(t, errors.Is(err, service.ErrRoomEnded))
	stateRepo.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueueService_Remove_PreservesOrder(t *testing.T) {
	room := activeRoom(t, 1, 42, []domain.Track{
		{ID: "track-a"}, {ID: "track-b"}, {ID: "track-c"},
	})
	svc, _, stateRepo := newQueueService(t, room)
	stateRepo.On("PublishEvent", mock.Anything, uint(1), mock.Anything).Return(nil)

	updated, err := svc.Remove(context.Background(), 1, 7, "track-b")

	require.NoError(t, err)
	queue, err := updated.ParseQueue()
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "track-a", queue[0].ID)
	assert.Equal(t, "track-c", queue[1].ID)
}

func TestQueueService_Remove_ClearsCurrentTrack(t *testing.T) {
	current := "track-b"
	room := activeRoom(t, 1, 42, []domain.Track{{ID: "track-a"}, {ID: "track-b"}})
	room.CurrentTrackID = &current
	svc, _, stateRepo := newQueueService(t, room)
	stateRepo.On("PublishEvent", mock.Anything, uint(1), mock.Anything).Return(nil)

	updated, err := svc.Remove(context.Background(), 1, 7, "track-b")

	require.NoError(t, err)
	assert.Nil(t, updated.CurrentTrackID, "removing the playing track clears the current track")
}

func TestQueueService_Remove_UnknownTrack(t *testing.T) {
	room := activeRoom(t, 1, 42, []domain.Track{{ID: "track-a"}})
	svc, _, _ := newQueueService(t, room)

	_, err := svc.Remove(context.Background(), 1, 7, "track-z")

	assert.True(t, errors.Is(err, service.ErrTrackNotFound))
}

func TestQueueService_SetCurrentTrack_HostOnly(t *testing.T) {
	room := activeRoom(t, 1, 42, []domain.Track{{ID: "track-a"}})
	svc, _, stateRepo := newQueueService(t, room)

	_, err := svc.SetCurrentTrack(context.Background(), 1, 7, "track-a")

	assert.True(t, errors.Is(err, service.ErrForbidden))
	stateRepo.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueueService_SetCurrentTrack_MustBeQueued(t *testing.T) {
	room := activeRoom(t, 1, 42, []domain.Track{{ID: "track-a"}})
	svc, _, _ := newQueueService(t, room)

	_, err := svc.SetCurrentTrack(context.Background(), 1, 42, "track-z")

	assert.True(t, errors.Is(err, service.ErrTrackNotFound))
}

func TestQueueService_SetCurrentTrack_Success(t *testing.T) {
	room := activeRoom(t, 1, 42, []domain.Track{{ID: "track-a"}})
	svc, store, stateRepo := newQueueService(t, room)
	stateRepo.On("PublishEvent", mock.Anything, uint(1), mock.Anything).Return(nil)
	ctx := context.Background()

	updated, err := svc.SetCurrentTrack(ctx, 1, 42, "track-a")

	require.NoError(t, err)
	require.NotNil(t, updated.CurrentTrackID)
	assert.Equal(t, "track-a", *updated.CurrentTrackID)

	stored, _ := store.FindByID(ctx, 1)
	require.NotNil(t, stored.CurrentTrackID)
	assert.Equal(t, "track-a", *stored.CurrentTrackID)
}

func TestQueueService_RelayTrackControl_PlayHostOnly(t *testing.T) {
	room := activeRoom(t, 1, 42, nil)
	svc, _, stateRepo := newQueueService(t, room)

	_, err := svc.RelayTrackControl(context.Background(), 1, 7, service.ControlPlay, nil)

	assert.True(t, errors.Is(err, service.ErrForbidden))
	stateRepo.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueueService_RelayTrackControl_UnknownAction(t *testing.T) {
	room := activeRoom(t, 1, 42, nil)
	svc, _, _ := newQueueService(t, room)

	_, err := svc.RelayTrackControl(context.Background(), 1, 42, "rewind", nil)

	assert.True(t, errors.Is(err, service.ErrValidation))
}

// Regression: concurrent appends to the same room must each land exactly
// once. A naive read-modify-write without per-room serialization loses
// entries here.
func TestQueueService_ConcurrentAppends(t *testing.T) {
	room := activeRoom(t, 1, 42, nil)
	svc, store, stateRepo := newQueueService(t, room)
	stateRepo.On("PublishEvent", mock.Anything, uint(1), mock.Anything).Return(nil)
	ctx := context.Background()

	const appenders = 20
	var wg sync.WaitGroup
	for i := 0; i < appenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Append(ctx, 1, uint(n+1), domain.Track{ID: fmt.Sprintf("track-%d", n)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := store.FindByID(ctx, 1)
	require.NoError(t, err)
	queue, err := stored.ParseQueue()
	require.NoError(t, err)
	require.Len(t, queue, appenders, "every append must survive")

	seen := make(map[string]bool, appenders)
	for _, track := range queue {
		assert.False(t, seen[track.ID], "track %s appended twice", track.ID)
		seen[track.ID] = true
	}
}

func TestQueueService_VersionConflictExhaustsRetries(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	stateRepo := new(mocks.StateRepository)
	svc := service.NewQueueService(roomRepo, stateRepo, nil, service.NewRoomLocker())
	ctx := context.Background()

	// Another instance keeps winning the write race.
	roomRepo.On("FindByID", ctx, uint(1)).Return(activeRoom(t, 1, 42, nil), nil).Times(3)
	roomRepo.On("SaveVersioned", ctx, mock.AnythingOfType("*domain.Room")).
		Return(repository.ErrVersionConflict).Times(3)

	_, err := svc.Append(ctx, 1, 7, domain.Track{ID: "track-a"})

	assert.True(t, errors.Is(err, service.ErrConflict))
	roomRepo.AssertExpectations(t)
	stateRepo.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything)
}
