package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskForecastCacheWarm = "forecasting.cache.warm"

// CacheWarmPayload selects the operations to recompute. Empty means all
// warmable operations.
type CacheWarmPayload struct {
	Ops []string `json:"ops"`
}

func NewCacheWarmTask(payload CacheWarmPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskForecastCacheWarm, data), nil
}

func ParseCacheWarmPayload(task *asynq.Task) (CacheWarmPayload, error) {
	var payload CacheWarmPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CacheWarmPayload{}, err
	}
	return payload, nil
}
