package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// ImageWarmer loads scene images into the cache.
type ImageWarmer interface {
	Warm(ctx context.Context, timestamps []int64) (int, error)
}

// InitHandlers wires the dependencies job handlers need. Without a warmer,
// prefetch tasks are acknowledged and dropped.
func (j *JobService) InitHandlers(warmer ImageWarmer) {
	j.warmer = warmer
}

func (j *JobService) handleScenePrefetchTask(ctx context.Context, t *asynq.Task) error {
	var p ScenePrefetchPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal scene prefetch payload: %w: %w", err, asynq.SkipRetry)
	}

	if j.warmer == nil {
		j.logger.Debug().Int("scenes", len(p.Timestamps)).Msg("no image cache, skipping prefetch")
		return nil
	}

	start := time.Now()
	fetched, err := j.warmer.Warm(ctx, p.Timestamps)
	if err != nil {
		j.logger.Error().
			Err(err).
			Int("scenes", len(p.Timestamps)).
			Int("fetched", fetched).
			Msg("Failed to prefetch scene images")
		return err
	}

	j.logger.Info().
		Int("scenes", len(p.Timestamps)).
		Int("fetched", fetched).
		Dur("duration", time.Since(start)).
		Msg("Prefetched scene images")

	return nil
}
