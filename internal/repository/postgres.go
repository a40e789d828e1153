package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/rsweb/internal/model"
	"github.com/deppfellow/rsweb/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads the scene store from PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Timestamps(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT timestamp FROM scenes ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("failed to query timestamps: %w", sqlerr.WithTable("scenes", err))
	}

	timestamps, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect timestamps: %w", err)
	}
	return timestamps, nil
}

func (s *PostgresStore) SceneImage(ctx context.Context, ts int64) ([]byte, error) {
	var img []byte
	err := s.pool.QueryRow(ctx, `SELECT rgb FROM scenes WHERE timestamp = $1`, ts).Scan(&img)
	if errors.Is(err, pgx.ErrNoRows) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scene image %d: %w", ts, sqlerr.WithTable("scenes", err))
	}
	if img == nil {
		img = []byte{}
	}
	return img, nil
}

func (s *PostgresStore) ObjectHypsForScene(ctx context.Context, ts int64) ([]model.ObjectHypothesis, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, timestamp, idx, annotations, image
		FROM object_hypotheses
		WHERE timestamp = $1
		ORDER BY idx, id`, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to query object hypotheses for %d: %w", ts, sqlerr.WithTable("object_hypotheses", err))
	}

	hyps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ObjectHypothesis, error) {
		var h model.ObjectHypothesis
		err := row.Scan(&h.ID, &h.Timestamp, &h.Index, &h.Annotations, &h.Image)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect object hypotheses for %d: %w", ts, err)
	}
	return hyps, nil
}

func (s *PostgresStore) PersistentObjects(ctx context.Context) ([]model.PersistentObject, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, label, annotations, image
		FROM persistent_objects
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query persistent objects: %w", sqlerr.WithTable("persistent_objects", err))
	}

	objs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PersistentObject, error) {
		var o model.PersistentObject
		err := row.Scan(&o.ID, &o.Label, &o.Annotations, &o.Image)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect persistent objects: %w", err)
	}
	return objs, nil
}

func (s *PostgresStore) ObjectInstances(ctx context.Context, id int) ([]model.ObjectInstance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT object_id, timestamp, hypothesis_id, annotations, image
		FROM object_instances
		WHERE object_id = $1
		ORDER BY timestamp, hypothesis_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances of object %d: %w", id, sqlerr.WithTable("object_instances", err))
	}

	instances, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ObjectInstance, error) {
		var o model.ObjectInstance
		err := row.Scan(&o.ObjectID, &o.Timestamp, &o.HypothesisID, &o.Annotations, &o.Image)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect instances of object %d: %w", id, err)
	}
	return instances, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
