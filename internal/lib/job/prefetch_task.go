package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskScenePrefetch warms the scene image cache for upcoming pages.
	TaskScenePrefetch = "scenes:prefetch"
)

// ScenePrefetchPayload lists the scenes whose images should be cached.
type ScenePrefetchPayload struct {
	Timestamps []int64 `json:"timestamps"`
}

// NewScenePrefetchTask builds a low-priority prefetch task. Prefetching is
// best effort, so it is retried only once.
func NewScenePrefetchTask(timestamps []int64) (*asynq.Task, error) {
	payload, err := json.Marshal(ScenePrefetchPayload{Timestamps: timestamps})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskScenePrefetch,
		payload,
		asynq.MaxRetry(1),
		asynq.Queue("low"),
		asynq.Timeout(30*time.Second),
	), nil
}
