// Package repository is the read-only client of the scene store.
//
// Store is implemented by PostgresStore and SQLiteStore; CachedStore wraps
// either one with a redis read-through cache for scene images.
package repository

import (
	"context"

	"github.com/deppfellow/rsweb/internal/model"
)

// Store is everything the front-end reads from the scene store.
//
// A scene without an image yields an empty image, and an object without
// sightings yields an empty instance list. Neither is an error.
type Store interface {
	// Timestamps lists every scene timestamp in ascending order.
	Timestamps(ctx context.Context) ([]int64, error)

	// SceneImage returns the RGB image of a scene.
	SceneImage(ctx context.Context, ts int64) ([]byte, error)

	// ObjectHypsForScene lists a scene's object hypotheses ordered by index.
	ObjectHypsForScene(ctx context.Context, ts int64) ([]model.ObjectHypothesis, error)

	// PersistentObjects lists all persistent objects ordered by id.
	PersistentObjects(ctx context.Context) ([]model.PersistentObject, error)

	// ObjectInstances lists every sighting of persistent object id.
	ObjectInstances(ctx context.Context, id int) ([]model.ObjectInstance, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
