// Package job runs background work on asynq, a redis-backed task queue.
//
// The web process is both producer (Enqueue) and consumer (Start); the only
// task today prefetches scene images into the redis cache.
package job

import (
	"context"

	"github.com/deppfellow/rsweb/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the asynq client (enqueue) and server (workers).
type JobService struct {
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger
	warmer ImageWarmer
}

// NewJobService creates a JobService on the configured redis.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:   newAsynqLogger(logger),
			LogLevel: asynq.WarnLevel,
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}
}

// mux routes task types to handlers.
func (j *JobService) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskScenePrefetch, j.handleScenePrefetchTask)
	return mux
}

// Start starts the workers in the background and returns.
func (j *JobService) Start() error {
	j.logger.Info().Msg("Starting background job server")
	return j.server.Start(j.mux())
}

// EnqueueScenePrefetch queues a prefetch of the given scene images.
func (j *JobService) EnqueueScenePrefetch(ctx context.Context, timestamps []int64) error {
	if len(timestamps) == 0 {
		return nil
	}

	task, err := NewScenePrefetchTask(timestamps)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Int("scenes", len(timestamps)).
		Msg("Enqueued scene prefetch")
	return nil
}

// Stop waits for running tasks and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
