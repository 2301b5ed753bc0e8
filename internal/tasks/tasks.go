package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
)

// Task type names.
const (
	TypeActivityRecord = "activity:record"
	TypeActivityPrune  = "activity:prune"
)

// ActivityRecordPayload carries one activity record to the worker.
type ActivityRecordPayload struct {
	Activity domain.RoomActivity `json:"activity"`
}

// NewActivityRecordTask creates a task that persists a room activity record.
func NewActivityRecordTask(activity domain.RoomActivity) (*asynq.Task, error) {
	payload, err := json.Marshal(ActivityRecordPayload{Activity: activity})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeActivityRecord, payload), nil
}

// NewActivityPruneTask creates the periodic activity retention task.
func NewActivityPruneTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeActivityPrune, nil), nil
}
