package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/rsweb/internal/command"
	"github.com/deppfellow/rsweb/internal/metrics"
	"github.com/deppfellow/rsweb/internal/model"
	"github.com/deppfellow/rsweb/internal/pagination"
	"github.com/deppfellow/rsweb/internal/repository"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/rs/zerolog"
)

// Prefetcher queues a background load of scene images.
type Prefetcher interface {
	EnqueueScenePrefetch(ctx context.Context, timestamps []int64) error
}

// SceneService answers console commands against the scene store.
type SceneService struct {
	store      repository.Store
	prefetcher Prefetcher
	metrics    *metrics.Metrics
	logger     *zerolog.Logger
	slowCall   time.Duration
}

func NewSceneService(s *server.Server, store repository.Store) *SceneService {
	svc := &SceneService{
		store:    store,
		metrics:  s.Metrics,
		logger:   s.Logger,
		slowCall: s.Config.Observability.Logging.SlowQueryThreshold,
	}
	// Assigned only when set so the interface stays nil without redis.
	if s.Job != nil {
		svc.prefetcher = s.Job
	}
	return svc
}

// ScenePage is the result of ListScenes.
type ScenePage struct {
	Scenes []model.Scene

	// Total is the number of scenes in the store, not on the page.
	Total int

	// Next holds the timestamps of the following page, if any.
	Next []int64
}

// observe times a store call, feeding the histogram and warning on slow calls.
func (s *SceneService) observe(ctx context.Context, op string, start time.Time) {
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.StoreCalls.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	if s.slowCall > 0 && elapsed > s.slowCall {
		zerolog.Ctx(ctx).Warn().
			Str("operation", op).
			Dur("duration", elapsed).
			Dur("threshold", s.slowCall).
			Msg("slow store call")
	}
}

// RecordCommand counts a classified console command.
func (s *SceneService) RecordCommand(cmd command.Command) {
	if s.metrics != nil {
		s.metrics.Commands.WithLabelValues(string(cmd.Kind())).Inc()
	}
}

// ListObjects returns every persistent object.
func (s *SceneService) ListObjects(ctx context.Context) ([]model.PersistentObject, error) {
	defer s.observe(ctx, "persistent_objects", time.Now())

	objs, err := s.store.PersistentObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing persistent objects: %w", err)
	}
	return objs, nil
}

// LookupObjectInstances returns every sighting of persistent object id.
func (s *SceneService) LookupObjectInstances(ctx context.Context, id int) ([]model.ObjectInstance, error) {
	defer s.observe(ctx, "object_instances", time.Now())

	instances, err := s.store.ObjectInstances(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("looking up instances of object %d: %w", id, err)
	}
	return instances, nil
}

// ListScenes assembles the scenes inside the pagination window, or every
// scene when args is nil. The page always holds exactly as many scenes as
// the window spans.
func (s *SceneService) ListScenes(ctx context.Context, args *pagination.Args) (*ScenePage, error) {
	start := time.Now()
	timestamps, err := s.store.Timestamps(ctx)
	s.observe(ctx, "timestamps", start)
	if err != nil {
		return nil, fmt.Errorf("listing scene timestamps: %w", err)
	}

	page := &ScenePage{Total: len(timestamps)}

	window := timestamps
	if args != nil {
		from, to := args.Window(len(timestamps))
		window = timestamps[from:to]

		next := pagination.Args{Page: args.Page + 1, PerPage: args.PerPage}
		nextFrom, nextTo := next.Window(len(timestamps))
		page.Next = timestamps[nextFrom:nextTo]
	}

	page.Scenes = make([]model.Scene, 0, len(window))
	for _, ts := range window {
		scene, err := s.scene(ctx, ts)
		if err != nil {
			return nil, err
		}
		page.Scenes = append(page.Scenes, scene)
	}

	s.prefetch(ctx, page.Next)

	return page, nil
}

func (s *SceneService) scene(ctx context.Context, ts int64) (model.Scene, error) {
	start := time.Now()
	img, err := s.store.SceneImage(ctx, ts)
	s.observe(ctx, "scene_image", start)
	if err != nil {
		return model.Scene{}, fmt.Errorf("loading image of scene %d: %w", ts, err)
	}

	start = time.Now()
	hyps, err := s.store.ObjectHypsForScene(ctx, ts)
	s.observe(ctx, "object_hypotheses", start)
	if err != nil {
		return model.Scene{}, fmt.Errorf("loading hypotheses of scene %d: %w", ts, err)
	}

	return model.Scene{Timestamp: ts, Image: img, Objects: hyps}, nil
}

// prefetch queues the next page's images. Failures only cost a cold cache.
func (s *SceneService) prefetch(ctx context.Context, timestamps []int64) {
	if s.prefetcher == nil || len(timestamps) == 0 {
		return
	}
	if err := s.prefetcher.EnqueueScenePrefetch(ctx, timestamps); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("scenes", len(timestamps)).Msg("failed to enqueue scene prefetch")
	}
}

// Ping checks the store.
func (s *SceneService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
