package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
	"github.com/Raunaq22/Musicbrew-sub000/internal/tasks"
)

const (
	maxRoomNameLen        = 100
	maxRoomDescriptionLen = 500
	defaultActivityLimit  = 50
)

// RoomService owns the room lifecycle: creation, listing, host-gated updates
// and the one-way active→ended transition.
type RoomService struct {
	roomRepo     repository.RoomRepository
	activityRepo repository.ActivityRepository
	stateRepo    repository.StateRepository
	asynqClient  *asynq.Client
	locker       *RoomLocker
}

// NewRoomService creates a RoomService instance. asynqClient may be nil, in
// which case activity recording is skipped.
func NewRoomService(
	roomRepo repository.RoomRepository,
	activityRepo repository.ActivityRepository,
	stateRepo repository.StateRepository,
	asynqClient *asynq.Client,
	locker *RoomLocker,
) *RoomService {
	if roomRepo == nil || activityRepo == nil || stateRepo == nil || locker == nil {
		panic("repositories and locker must be non-nil for RoomService")
	}
	return &RoomService{
		roomRepo:     roomRepo,
		activityRepo: activityRepo,
		stateRepo:    stateRepo,
		asynqClient:  asynqClient,
		locker:       locker,
	}
}

// RoomPatch is a partial update of host-editable room fields. Nil means
// leave unchanged; for CurrentTrackID a pointer to "" clears it.
type RoomPatch struct {
	Name           *string
	Description    *string
	CurrentTrackID *string
}

// Create opens a new room with the creator as host, an empty queue and no
// current track.
func (s *RoomService) Create(ctx context.Context, hostID uint, name, description string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"host_id": hostID, "room_name": name})

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(name) > maxRoomNameLen {
		return nil, fmt.Errorf("%w: name must be at most %d characters", ErrValidation, maxRoomNameLen)
	}
	if len(description) > maxRoomDescriptionLen {
		return nil, fmt.Errorf("%w: description must be at most %d characters", ErrValidation, maxRoomDescriptionLen)
	}

	room := &domain.Room{
		HostID:      hostID,
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	if err := room.SetQueue(nil); err != nil {
		logCtx.WithError(err).Error("Failed to initialize empty queue")
		return nil, ErrInternalServer
	}
	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to save new room")
		return nil, ErrInternalServer
	}
	logCtx.WithField("room_id", room.ID).Info("Room created")
	return room, nil
}

// Get returns a room by id.
func (s *RoomService) Get(ctx context.Context, id uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", id).Error("Failed to load room")
		return nil, ErrInternalServer
	}
	return room, nil
}

// List returns rooms newest first, optionally restricted to active ones.
func (s *RoomService) List(ctx context.Context, activeOnly bool) ([]domain.Room, error) {
	rooms, err := s.roomRepo.FindAll(ctx, activeOnly)
	if err != nil {
		logrus.WithError(err).Error("Failed to list rooms")
		return nil, ErrInternalServer
	}
	return rooms, nil
}

// Update patches host-editable fields. Only the host may call it, and a
// current-track change must reference a queued track.
func (s *RoomService) Update(ctx context.Context, id, actorID uint, patch RoomPatch) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": id, "actor_id": actorID})

	unlock := s.locker.Lock(id)
	defer unlock()

	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.HostID != actorID {
		return nil, ErrForbidden
	}
	if !room.IsActive {
		return nil, ErrRoomEnded
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		if len(*patch.Name) > maxRoomNameLen {
			return nil, fmt.Errorf("%w: name must be at most %d characters", ErrValidation, maxRoomNameLen)
		}
		room.Name = *patch.Name
	}
	if patch.Description != nil {
		if len(*patch.Description) > maxRoomDescriptionLen {
			return nil, fmt.Errorf("%w: description must be at most %d characters", ErrValidation, maxRoomDescriptionLen)
		}
		room.Description = *patch.Description
	}
	if patch.CurrentTrackID != nil {
		if *patch.CurrentTrackID == "" {
			room.CurrentTrackID = nil
		} else {
			queue, parseErr := room.ParseQueue()
			if parseErr != nil {
				logCtx.WithError(parseErr).Error("Failed to parse queue")
				return nil, ErrInternalServer
			}
			if !queueContains(queue, *patch.CurrentTrackID) {
				return nil, ErrTrackNotFound
			}
			trackID := *patch.CurrentTrackID
			room.CurrentTrackID = &trackID
		}
	}

	if err := s.roomRepo.SaveVersioned(ctx, room); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConflict
		}
		logCtx.WithError(err).Error("Failed to save room update")
		return nil, ErrInternalServer
	}
	logCtx.Info("Room updated")
	return room, nil
}

// End transitions the room to inactive. Host only. Ending an already ended
// room succeeds as a no-op.
func (s *RoomService) End(ctx context.Context, id, actorID uint) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": id, "actor_id": actorID})

	unlock := s.locker.Lock(id)
	defer unlock()

	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.HostID != actorID {
		return nil, ErrForbidden
	}
	if !room.IsActive {
		return room, nil
	}

	room.End()
	if err := s.roomRepo.SaveVersioned(ctx, room); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConflict
		}
		logCtx.WithError(err).Error("Failed to save room end")
		return nil, ErrInternalServer
	}

	// The chat sequence counter dies with the session.
	if err := s.stateRepo.CleanupRoomState(ctx, id); err != nil {
		logCtx.WithError(err).Warn("Failed to clean up realtime state for ended room")
	}
	s.recordActivity(domain.RoomActivity{RoomID: id, ActorID: actorID, Kind: domain.ActivityRoomEnded})

	logCtx.Info("Room ended")
	return room, nil
}

// RecentActivity returns the latest durable activity records for a room.
func (s *RoomService) RecentActivity(ctx context.Context, roomID uint) ([]domain.RoomActivity, error) {
	if _, err := s.Get(ctx, roomID); err != nil {
		return nil, err
	}
	activities, err := s.activityRepo.FindRecentByRoom(ctx, roomID, defaultActivityLimit)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load room activity")
		return nil, ErrInternalServer
	}
	return activities, nil
}

func (s *RoomService) recordActivity(activity domain.RoomActivity) {
	if s.asynqClient == nil {
		return
	}
	task, err := tasks.NewActivityRecordTask(activity)
	if err != nil {
		logrus.WithError(err).Warn("Failed to build activity record task")
		return
	}
	if _, err := s.asynqClient.Enqueue(task, asynq.Queue("low")); err != nil {
		logrus.WithError(err).Warn("Failed to enqueue activity record task")
	}
}

func queueContains(queue []domain.Track, trackID string) bool {
	for _, track := range queue {
		if track.ID == trackID {
			return true
		}
	}
	return false
}
