package service

import (
	"context"
	"errors"
	"testing"

	"github.com/deppfellow/rsweb/internal/command"
	"github.com/deppfellow/rsweb/internal/config"
	"github.com/deppfellow/rsweb/internal/metrics"
	"github.com/deppfellow/rsweb/internal/model"
	"github.com/deppfellow/rsweb/internal/pagination"
	"github.com/deppfellow/rsweb/internal/repository"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrefetcher struct {
	got [][]int64
	err error
}

func (p *fakePrefetcher) EnqueueScenePrefetch(_ context.Context, ts []int64) error {
	p.got = append(p.got, ts)
	return p.err
}

func setupSceneService(t *testing.T, timestamps ...int64) (*SceneService, *repository.MemoryStore) {
	t.Helper()

	logger := zerolog.Nop()
	store := repository.NewMemoryStore()
	for _, ts := range timestamps {
		store.AddScene(model.Scene{
			Timestamp: ts,
			Image:     []byte{byte(ts)},
			Objects:   []model.ObjectHypothesis{{ID: "h", Timestamp: ts}},
		})
	}

	s := &server.Server{Config: config.Default(), Logger: &logger, Metrics: metrics.New()}
	return NewSceneService(s, store), store
}

func TestListScenes_Window(t *testing.T) {
	svc, _ := setupSceneService(t, 1, 2, 3, 4, 5)

	page, err := svc.ListScenes(context.Background(), &pagination.Args{Page: 2, PerPage: 2})
	require.NoError(t, err)

	require.Len(t, page.Scenes, 2)
	assert.Equal(t, int64(3), page.Scenes[0].Timestamp)
	assert.Equal(t, int64(4), page.Scenes[1].Timestamp)
	assert.Equal(t, []byte{3}, page.Scenes[0].Image)
	assert.Len(t, page.Scenes[0].Objects, 1)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, []int64{5}, page.Next)
}

func TestListScenes_LengthMatchesWindow(t *testing.T) {
	tests := []struct {
		name string
		args *pagination.Args
		want int
	}{
		{"all", nil, 5},
		{"first page", &pagination.Args{Page: 1, PerPage: 10}, 5},
		{"partial", &pagination.Args{Page: 3, PerPage: 2}, 1},
		{"out of range", &pagination.Args{Page: 7, PerPage: 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setupSceneService(t, 1, 2, 3, 4, 5)

			page, err := svc.ListScenes(context.Background(), tt.args)
			require.NoError(t, err)
			assert.Len(t, page.Scenes, tt.want)
			assert.Equal(t, tt.want, store.Calls("SceneImage"))
			assert.Equal(t, tt.want, store.Calls("ObjectHypsForScene"))
		})
	}
}

func TestListScenes_PrefetchesNextPage(t *testing.T) {
	svc, _ := setupSceneService(t, 1, 2, 3, 4, 5)
	p := &fakePrefetcher{}
	svc.prefetcher = p

	_, err := svc.ListScenes(context.Background(), &pagination.Args{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{3, 4}}, p.got)

	// The last page has nothing after it.
	_, err = svc.ListScenes(context.Background(), &pagination.Args{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, p.got, 1)
}

func TestListScenes_PrefetchFailureIgnored(t *testing.T) {
	svc, _ := setupSceneService(t, 1, 2, 3)
	svc.prefetcher = &fakePrefetcher{err: errors.New("redis down")}

	page, err := svc.ListScenes(context.Background(), &pagination.Args{Page: 1, PerPage: 1})
	require.NoError(t, err)
	assert.Len(t, page.Scenes, 1)
}

func TestListScenes_StoreError(t *testing.T) {
	svc, store := setupSceneService(t, 1)
	boom := errors.New("boom")
	store.Err = boom

	_, err := svc.ListScenes(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestListObjectsAndLookup(t *testing.T) {
	svc, store := setupSceneService(t)
	store.AddObject(model.PersistentObject{ID: 2, Label: "bowl"})
	store.AddObject(model.PersistentObject{ID: 1, Label: "cup"},
		model.ObjectInstance{ObjectID: 1, Timestamp: 10},
		model.ObjectInstance{ObjectID: 1, Timestamp: 20},
	)

	objs, err := svc.ListObjects(context.Background())
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "cup", objs[0].Label)

	instances, err := svc.LookupObjectInstances(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, instances, 2)

	instances, err = svc.LookupObjectInstances(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestRecordCommand(t *testing.T) {
	svc, _ := setupSceneService(t)
	svc.RecordCommand(command.Parse("(3)"))
	svc.RecordCommand(command.Parse("(4)"))
	svc.RecordCommand(command.Parse("objects"))

	assert.Equal(t, 2.0, testutil.ToFloat64(svc.metrics.Commands.WithLabelValues("object_instance_lookup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.Commands.WithLabelValues("list_objects")))
}
