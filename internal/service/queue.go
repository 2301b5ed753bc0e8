package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/dto"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
	"github.com/Raunaq22/Musicbrew-sub000/internal/tasks"
)

// Playback control actions relayed to a room.
const (
	ControlPlay       = "play"
	ControlPause      = "pause"
	ControlSetCurrent = "set-current"
)

// versionedRetries bounds re-reads after a cross-instance write conflict.
// Within one process the room lock already serializes writers.
const versionedRetries = 3

// QueueService serializes every queue mutation per room: the in-process lock
// keeps local writers from interleaving their read-modify-write, the
// versioned save turns a concurrent write from another instance into a retry
// instead of a lost update. Every successful mutation broadcasts the full new
// queue to the room.
type QueueService struct {
	roomRepo    repository.RoomRepository
	stateRepo   repository.StateRepository
	asynqClient *asynq.Client
	locker      *RoomLocker
}

// NewQueueService creates a QueueService instance. asynqClient may be nil, in
// which case activity recording is skipped.
func NewQueueService(
	roomRepo repository.RoomRepository,
	stateRepo repository.StateRepository,
	asynqClient *asynq.Client,
	locker *RoomLocker,
) *QueueService {
	if roomRepo == nil || stateRepo == nil || locker == nil {
		panic("repositories and locker must be non-nil for QueueService")
	}
	return &QueueService{
		roomRepo:    roomRepo,
		stateRepo:   stateRepo,
		asynqClient: asynqClient,
		locker:      locker,
	}
}

// Append adds a track to the end of the room's queue. Open to every
// participant; position is the queue length at append time.
func (s *QueueService) Append(ctx context.Context, roomID, actorID uint, track domain.Track) (*domain.Room, error) {
	if track.ID == "" {
		return nil, fmt.Errorf("%w: track id is required", ErrValidation)
	}

	room, err := s.mutate(ctx, roomID, func(room *domain.Room, queue []domain.Track) ([]domain.Track, error) {
		track.AddedBy = actorID
		return append(queue, track), nil
	})
	if err != nil {
		return nil, err
	}
	s.recordActivity(domain.RoomActivity{RoomID: roomID, ActorID: actorID, Kind: domain.ActivityTrackAdded, TrackID: track.ID})
	return room, nil
}

// Remove deletes the first queue entry matching trackID, preserving the
// relative order of the rest. If it was the current track the current track
// is cleared rather than left dangling.
func (s *QueueService) Remove(ctx context.Context, roomID, actorID uint, trackID string) (*domain.Room, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id is required", ErrValidation)
	}

	room, err := s.mutate(ctx, roomID, func(room *domain.Room, queue []domain.Track) ([]domain.Track, error) {
		index := -1
		for i, track := range queue {
			if track.ID == trackID {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, ErrTrackNotFound
		}
		queue = append(queue[:index], queue[index+1:]...)
		if room.CurrentTrackID != nil && *room.CurrentTrackID == trackID {
			room.CurrentTrackID = nil
		}
		return queue, nil
	})
	if err != nil {
		return nil, err
	}
	s.recordActivity(domain.RoomActivity{RoomID: roomID, ActorID: actorID, Kind: domain.ActivityTrackRemoved, TrackID: trackID})
	return room, nil
}

// SetCurrentTrack selects the playing track. Host only; the track must be in
// the queue. There is no auto-advance — the host re-invokes this per track.
func (s *QueueService) SetCurrentTrack(ctx context.Context, roomID, actorID uint, trackID string) (*domain.Room, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id is required", ErrValidation)
	}

	room, err := s.mutate(ctx, roomID, func(room *domain.Room, queue []domain.Track) ([]domain.Track, error) {
		if room.HostID != actorID {
			return nil, ErrForbidden
		}
		if !queueContains(queue, trackID) {
			return nil, ErrTrackNotFound
		}
		id := trackID
		room.CurrentTrackID = &id
		return queue, nil
	})
	if err != nil {
		return nil, err
	}
	s.recordActivity(domain.RoomActivity{RoomID: roomID, ActorID: actorID, Kind: domain.ActivityTrackSet, TrackID: trackID})
	return room, nil
}

// RelayTrackControl handles a playback control event. Host only. A
// set-current action mutates the room; play/pause are metadata-only and just
// fan out to the room.
func (s *QueueService) RelayTrackControl(ctx context.Context, roomID, actorID uint, action string, track *domain.Track) (*domain.Room, error) {
	switch action {
	case ControlSetCurrent:
		if track == nil {
			return nil, fmt.Errorf("%w: track is required for %s", ErrValidation, ControlSetCurrent)
		}
		return s.SetCurrentTrack(ctx, roomID, actorID, track.ID)
	case ControlPlay, ControlPause:
	default:
		return nil, fmt.Errorf("%w: unknown control action '%s'", ErrValidation, action)
	}

	room, err := s.loadActive(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.HostID != actorID {
		return nil, ErrForbidden
	}

	payload, err := dto.EncodeEnvelope(roomID, "", dto.EventTrackControl, dto.TrackControlBroadcastPayload{
		Action: action,
		Track:  track,
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to encode track control broadcast")
		return nil, ErrInternalServer
	}
	if err := s.stateRepo.PublishEvent(ctx, roomID, payload); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to publish track control broadcast")
		return nil, ErrInternalServer
	}
	return room, nil
}

// mutate runs one serialized read-modify-write cycle against the room record
// and broadcasts the resulting queue.
func (s *QueueService) mutate(ctx context.Context, roomID uint, apply func(*domain.Room, []domain.Track) ([]domain.Track, error)) (*domain.Room, error) {
	logCtx := logrus.WithField("room_id", roomID)

	unlock := s.locker.Lock(roomID)
	defer unlock()

	var room *domain.Room
	for attempt := 0; attempt < versionedRetries; attempt++ {
		var err error
		room, err = s.loadActive(ctx, roomID)
		if err != nil {
			return nil, err
		}
		queue, err := room.ParseQueue()
		if err != nil {
			logCtx.WithError(err).Error("Failed to parse room queue")
			return nil, ErrInternalServer
		}
		newQueue, err := apply(room, queue)
		if err != nil {
			return nil, err
		}
		if err := room.SetQueue(newQueue); err != nil {
			logCtx.WithError(err).Error("Failed to encode room queue")
			return nil, ErrInternalServer
		}

		err = s.roomRepo.SaveVersioned(ctx, room)
		if err == nil {
			s.broadcastQueue(ctx, room, newQueue)
			return room, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			logCtx.WithError(err).Error("Failed to save queue mutation")
			return nil, ErrInternalServer
		}
		logCtx.WithField("attempt", attempt+1).Warn("Version conflict on queue mutation, retrying")
	}
	return nil, ErrConflict
}

func (s *QueueService) loadActive(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load room")
		return nil, ErrInternalServer
	}
	if !room.IsActive {
		return nil, ErrRoomEnded
	}
	return room, nil
}

func (s *QueueService) broadcastQueue(ctx context.Context, room *domain.Room, queue []domain.Track) {
	payload, err := dto.EncodeEnvelope(room.ID, "", dto.EventQueueUpdated, dto.QueueUpdatedPayload{
		Queue:          queue,
		CurrentTrackID: room.CurrentTrackID,
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to encode queue broadcast")
		return
	}
	if err := s.stateRepo.PublishEvent(ctx, room.ID, payload); err != nil {
		logrus.WithError(err).WithField("room_id", room.ID).Error("Failed to publish queue broadcast")
	}
}

func (s *QueueService) recordActivity(activity domain.RoomActivity) {
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
