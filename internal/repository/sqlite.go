package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deppfellow/rsweb/internal/model"
	"github.com/deppfellow/rsweb/internal/sqlerr"
)

// SQLiteStore reads the scene store from a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func decodeAnnotations(raw string) (model.Annotations, error) {
	if raw == "" {
		return model.Annotations{}, nil
	}
	var a model.Annotations
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("invalid annotations: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) Timestamps(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp FROM scenes ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("failed to query timestamps: %w", sqlerr.WithTable("scenes", err))
	}
	defer rows.Close()

	timestamps := []int64{}
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		timestamps = append(timestamps, ts)
	}
	return timestamps, rows.Err()
}

func (s *SQLiteStore) SceneImage(ctx context.Context, ts int64) ([]byte, error) {
	var img []byte
	err := s.db.QueryRowContext(ctx, `SELECT rgb FROM scenes WHERE timestamp = ?`, ts).Scan(&img)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLiteStore) ObjectHypsForScene(ctx context.Context, ts int64) ([]model.ObjectHypothesis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, idx, annotations, image
		FROM object_hypotheses
		WHERE timestamp = ?
		ORDER BY idx, id`, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to query object hypotheses for %d: %w", ts, sqlerr.WithTable("object_hypotheses", err))
	}
	defer rows.Close()

	hyps := []model.ObjectHypothesis{}
	for rows.Next() {
		var (
			h   model.ObjectHypothesis
			raw string
		)
		if err := rows.Scan(&h.ID, &h.Timestamp, &h.Index, &raw, &h.Image); err != nil {
			return nil, fmt.Errorf("failed to scan object hypothesis: %w", err)
		}
		if h.Annotations, err = decodeAnnotations(raw); err != nil {
			return nil, fmt.Errorf("object hypothesis %s: %w", h.ID, err)
		}
		hyps = append(hyps, h)
	}
	return hyps, rows.Err()
}

func (s *SQLiteStore) PersistentObjects(ctx context.Context) ([]model.PersistentObject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, annotations, image
		FROM persistent_objects
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query persistent objects: %w", sqlerr.WithTable("persistent_objects", err))
	}
	defer rows.Close()

	objs := []model.PersistentObject{}
	for rows.Next() {
		var (
			o   model.PersistentObject
			raw string
		)
		if err := rows.Scan(&o.ID, &o.Label, &raw, &o.Image); err != nil {
			return nil, fmt.Errorf("failed to scan persistent object: %w", err)
		}
		if o.Annotations, err = decodeAnnotations(raw); err != nil {
			return nil, fmt.Errorf("persistent object %d: %w", o.ID, err)
		}
		objs = append(objs, o)
	}
	return objs, rows.Err()
}

func (s *SQLiteStore) ObjectInstances(ctx context.Context, id int) ([]model.ObjectInstance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT object_id, timestamp, hypothesis_id, annotations, image
		FROM object_instances
		WHERE object_id = ?
		ORDER BY timestamp, hypothesis_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances of object %d: %w", id, sqlerr.WithTable("object_instances", err))
	}
	defer rows.Close()

	instances := []model.ObjectInstance{}
	for rows.Next() {
		var (
			o   model.ObjectInstance
			raw string
		)
		if err := rows.Scan(&o.ObjectID, &o.Timestamp, &o.HypothesisID, &raw, &o.Image); err != nil {
			return nil, fmt.Errorf("failed to scan object instance: %w", err)
		}
		if o.Annotations, err = decodeAnnotations(raw); err != nil {
			return nil, fmt.Errorf("instance of object %d: %w", id, err)
		}
		instances = append(instances, o)
	}
	return instances, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
