package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TypePinPurge = "pin:purge_disabled"

// PinPurgePayload carries the retention window for the disabled-record sweep.
type PinPurgePayload struct {
	RetentionDays int `json:"retentionDays"`
}

// NewPinPurgeTask builds the periodic task that hard-deletes PIN records
// disabled for longer than the retention window.
func NewPinPurgeTask(retentionDays int) (*asynq.Task, error) {
	b, err := json.Marshal(PinPurgePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePinPurge, b), nil
}
