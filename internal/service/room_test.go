package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository/mocks"
	"github.com/Raunaq22/Musicbrew-sub000/internal/service"
)

func newRoomService(t *testing.T) (*service.RoomService, *mocks.RoomRepository, *mocks.ActivityRepository, *mocks.StateRepository) {
	t.Helper()
	roomRepo := new(mocks.RoomRepository)
	activityRepo := new(mocks.ActivityRepository)
	stateRepo := new(mocks.StateRepository)
	svc := service.NewRoomService(roomRepo, activityRepo, stateRepo, nil, service.NewRoomLocker())
	return svc, roomRepo, activityRepo, stateRepo
}

func activeRoom(t *testing.T, id, hostID uint, queue []domain.Track) *domain.Room {
	t.Helper()
	room := &domain.Room{ID: id, HostID: hostID, Name: "late night tracks", IsActive: true, Version: 1}
	require.NoError(t, room.SetQueue(queue))
	return room
}

func TestRoomService_Create_Success(t *testing.T) {
	svc, roomRepo, _, _ := newRoomService(t)
	ctx := context.Background()

	roomRepo.On("Save", ctx, mock.MatchedBy(func(room *domain.Room) bool {
		assert.Equal(t, uint(42), room.HostID)
		assert.Equal(t, "friday session", room.Name)
		assert.True(t, room.IsActive)
		queue, err := room.ParseQueue()
		assert.NoError(t, err)
		assert.Empty(t, queue)
		assert.Nil(t, room.CurrentTrackID)
		return true
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Room).ID = 7
	}).Return(nil).Once()

	room, err := svc.Create(ctx, 42, "friday session", "chill only")

	require.NoError(t, err)
	assert.Equal(t, uint(7), room.ID)
	roomRepo.AssertExpectations(t)
}

func TestRoomService_Create_Validation(t *testing.T) {
	svc, roomRepo, _, _ := newRoomService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "", "")
	assert.True(t, errors.Is(err, service.ErrValidation), "empty name should be rejected")

	_, err = svc.Create(ctx, 1, strings.Repeat("x", 101), "")
	assert.True(t, errors.Is(err, service.ErrValidation), "overlong name should be rejected")

	_, err = svc.Create(ctx, 1, "ok", strings.Repeat("x", 501))
	assert.True(t, errors.Is(err, service.ErrValidation), "overlong description should be rejected")

	roomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoomService_Get_NotFound(t *testing.T) {
	svc, roomRepo, _, _ := newRoomService(t)
	ctx := context.Background()

	roomRepo.On("FindByID", ctx, uint(99)).Return(nil, repository.ErrRoomNotFound).Once()

	_, err := svc.Get(ctx, 99)
	assert.True(t, errors.Is(err, service.ErrRoomNotFound))
	roomRepo.AssertExpectations(t)
}

func TestRoomService_Update_HostOnly(t *testing.T) {
	svc, roomRepo, _, _ := newRoomService(t)
	ctx := context.Background()
	room := activeRoom(t, 1, 42, nil)

	roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()

	name := "renamed"
	_, err := svc.Update(ctx, 1, 7, service.RoomPatch{Name: &name})

	assert.True(t, errors.Is(err, service.ErrForbidden))
	roomRepo.AssertNotCalled(t, "SaveVersioned", mock.Anything, mock.Anything)
}

func TestRoomService_Update_CurrentTrackMustBeQueued(t *testing.T) {
	svc, roomRepo, _, _ := newRoomService(t)
	ctx := context.Background()
	room := activeRoom(t, 1, 42, []domain.Track{{ID: "track-a", Name: "A"}})

	roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()

	trackID := "track-missing"
	_, err := svc.Update(ctx, 1, 42, service.RoomPatch{CurrentTrackID: &trackID})

	assert.True(t, errors.Is(err, service.ErrTrackNotFound))
	roomRepo.AssertNotCalled(t, "SaveVersioned", mock.Anything, mock.Anything)
}

func TestRoomService_Update_ClearsCurrentTrack(t *testing.T) {
	svc, roomRepo, _, _ := newRoomService(t)
	ctx := context.Background()
	current := "track-a"
	room := activeRoom(t, 1, 42, []domain.Track{{ID: "track-a", Name: "A"}})
	room.CurrentTrackID = &current

	roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()
	roomRepo.On("SaveVersioned", ctx, mock.AnythingOfType("*domain.Room")).Return(nil).Once()

	empty := ""
	updated, err := svc.Update(ctx, 1, 42, service.RoomPatch{CurrentTrackID: &empty})

	require.NoError(t, err)
	assert.Nil(t, updated.CurrentTrackID)
	roomRepo.AssertExpectations(t)
}

func TestRoomService_Update_RejectedOnEndedRoom(t *testing.T) {
	svc, roomRepo, _, _ := newRoomService(t)
	ctx := context.Background()
	room := activeRoom(t, 1, 42, nil)
	room.End()

	roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()

	name := "renamed"
	_, err := svc.Update(ctx, 1, 42, service.RoomPatch{Name: &name})

	assert.True(t, errors.Is(err, service.ErrRoomEnded))
	roomRepo.AssertNotCalled(t, "SaveVersioned", mock.Anything, mock.Anything)
}

func TestRoomService_End_Success(t *testing.T) {
	svc, roomRepo, _, stateRepo := newRoomService(t)
	ctx := context.Background()
	room := activeRoom(t, 1, 42, nil)

	roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()
	roomRepo.On("SaveVersioned", ctx, mock.MatchedBy(func(r *domain.Room) bool {
		return !r.IsActive
	})).Return(nil).Once()
	stateRepo.On("CleanupRoomState", ctx, uint(1)).Return(nil).Once()

	ended, err := svc.End(ctx, 1, 42)

	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	roomRepo.AssertExpectations(t)
	stateRepo.AssertExpectations(t)
}

func TestRoomService_End_HostOnly(t *testing.T) {
	svc, roomRepo, _, stateRepo := newRoomService(t)
	ctx := context.Background()
	room := activeRoom(t, 1, 42, nil)

	roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()

	_, err := svc.End(ctx, 1, 99)

	assert.True(t, errors.Is(err, service.ErrForbidden))
	roomRepo.AssertNotCalled(t, "SaveVersioned", mock.Anything, mock.Anything)
	stateRepo.AssertNotCalled(t, "CleanupRoomState", mock.Anything, mock.Anything)
}

func TestRoomService_End_Idempotent(t *testing.T) {
	svc, roomRepo, _, stateRepo := newRoomService(t)
	ctx := context.Background()
	room := activeRoom(t, 1, 42, nil)
	room.End()

	roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()

	ended, err := svc.End(ctx, 1, 42)

	require.NoError(t, err, "ending an ended room should succeed as a no-op")
	assert.False(t, ended.IsActive)
	roomRepo.AssertNotCalled(t, "SaveVersioned", mock.Anything, mock.Anything)
	stateRepo.AssertNotCalled(t, "CleanupRoomState", mock.Anything, mock.Anything)
}

func TestRoomService_RecentActivity(t *testing.T) {
	svc, roomRepo, activityRepo, _ := newRoomService(t)
	ctx := context.Background()
	room := activeRoom(t, 1, 42, nil)

	records := []domain.RoomActivity{
		{ID: 2, RoomID: 1, ActorID: 5, Kind: domain.ActivityTrackAdded, TrackID: "track-b"},
		{ID: 1, RoomID: 1, ActorID: 5, Kind: domain.ActivityTrackAdded, TrackID: "track-a"},
	}
	roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()
	activityRepo.On("FindRecentByRoom", ctx, uint(1), 50).Return(records, nil).Once()

	got, err := svc.RecentActivity(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, records, got)
	activityRepo.AssertExpectations(t)
}
