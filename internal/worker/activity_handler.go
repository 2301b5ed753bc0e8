package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
	"github.com/Raunaq22/Musicbrew-sub000/internal/tasks"
)

// ActivityHandler persists room activity records and enforces their
// retention window, off the request path.
type ActivityHandler struct {
	activityRepo repository.ActivityRepository
	retention    time.Duration
}

// NewActivityHandler creates an ActivityHandler instance.
func NewActivityHandler(activityRepo repository.ActivityRepository, retention time.Duration) *ActivityHandler {
	if activityRepo == nil {
		panic("ActivityRepository cannot be nil for ActivityHandler")
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &ActivityHandler{activityRepo: activityRepo, retention: retention}
}

// ProcessRecord handles an activity:record task.
func (h *ActivityHandler) ProcessRecord(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ActivityRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal activity record payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.activityRepo.SaveBatch(ctx, []domain.RoomActivity{payload.Activity}); err != nil {
		logrus.WithError(err).WithField("room_id", payload.Activity.RoomID).
			Error("Failed to save activity record")
		return fmt.Errorf("failed to save activity for room %d: %w", payload.Activity.RoomID, err)
	}
	logrus.WithFields(logrus.Fields{
		"room_id": payload.Activity.RoomID,
		"kind":    payload.Activity.Kind,
	}).Debug("Activity record persisted")
	return nil
}

// ProcessPrune handles the periodic activity:prune task.
func (h *ActivityHandler) ProcessPrune(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-h.retention)
	removed, err := h.activityRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("Failed to prune activity records")
		return fmt.Errorf("failed to prune activity before %v: %w", cutoff, err)
	}
	logrus.WithFields(logrus.Fields{"removed": removed, "cutoff": cutoff}).
		Info("Activity prune completed")
	return nil
}
