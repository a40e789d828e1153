package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/deppfellow/rsweb/internal/model"
)

// MemoryStore is an in-process Store, used to exercise handlers and
// services without a database.
type MemoryStore struct {
	mu sync.RWMutex

	images    map[int64][]byte
	hyps      map[int64][]model.ObjectHypothesis
	objects   []model.PersistentObject
	instances map[int][]model.ObjectInstance

	// Err, when set, is returned by every call.
	Err error

	calls map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		images:    map[int64][]byte{},
		hyps:      map[int64][]model.ObjectHypothesis{},
		instances: map[int][]model.ObjectInstance{},
		calls:     map[string]int{},
	}
}

// AddScene stores a scene with its image and hypotheses.
func (m *MemoryStore) AddScene(scene model.Scene) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[scene.Timestamp] = scene.Image
	m.hyps[scene.Timestamp] = scene.Objects
}

func (m *MemoryStore) AddObject(obj model.PersistentObject, instances ...model.ObjectInstance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = append(m.objects, obj)
	m.instances[obj.ID] = append(m.instances[obj.ID], instances...)
}

// Calls reports how often the named method was invoked.
func (m *MemoryStore) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

func (m *MemoryStore) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	return m.Err
}

func (m *MemoryStore) Timestamps(context.Context) ([]int64, error) {
	if err := m.record("Timestamps"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ts := make([]int64, 0, len(m.images))
	for t := range m.images {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
	return ts, nil
}

func (m *MemoryStore) SceneImage(_ context.Context, ts int64) ([]byte, error) {
	if err := m.record("SceneImage"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if img, ok := m.images[ts]; ok && img != nil {
		return img, nil
	}
	return []byte{}, nil
}

func (m *MemoryStore) ObjectHypsForScene(_ context.Context, ts int64) ([]model.ObjectHypothesis, error) {
	if err := m.record("ObjectHypsForScene"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.ObjectHypothesis{}, m.hyps[ts]...), nil
}

func (m *MemoryStore) PersistentObjects(context.Context) ([]model.PersistentObject, error) {
	if err := m.record("PersistentObjects"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	objs := append([]model.PersistentObject{}, m.objects...)
	sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
	return objs, nil
}

func (m *MemoryStore) ObjectInstances(_ context.Context, id int) ([]model.ObjectInstance, error) {
	if err := m.record("ObjectInstances"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.ObjectInstance{}, m.instances[id]...), nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return m.record("Ping")
}
