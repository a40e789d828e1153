package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/deppfellow/rsweb/internal/config"
	"github.com/deppfellow/rsweb/internal/database"
	"github.com/deppfellow/rsweb/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.OpenSQLite(context.Background(),
		config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "scenes.db")}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLiteStore(db), db
}

func seedScenes(t *testing.T, db *sql.DB) {
	t.Helper()

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO scenes (timestamp, rgb) VALUES (?, ?)`, []any{300, []byte{3}}},
		{`INSERT INTO scenes (timestamp, rgb) VALUES (?, ?)`, []any{100, []byte{1}}},
		{`INSERT INTO scenes (timestamp, rgb) VALUES (?, ?)`, []any{200, nil}},
		{`INSERT INTO object_hypotheses (id, timestamp, idx, annotations) VALUES (?, ?, ?, ?)`,
			[]any{"h-b", 100, 1, `{"class":"bowl"}`}},
		{`INSERT INTO object_hypotheses (id, timestamp, idx, annotations) VALUES (?, ?, ?, ?)`,
			[]any{"h-a", 100, 0, `{"class":"cup","confidence":0.9}`}},
		{`INSERT INTO persistent_objects (id, label, annotations) VALUES (?, ?, ?)`,
			[]any{2, "bowl", `{}`}},
		{`INSERT INTO persistent_objects (id, label, annotations) VALUES (?, ?, ?)`,
			[]any{1, "cup", `{"color":"red"}`}},
		{`INSERT INTO object_instances (object_id, timestamp, hypothesis_id, annotations) VALUES (?, ?, ?, ?)`,
			[]any{1, 300, "h-z", `{}`}},
		{`INSERT INTO object_instances (object_id, timestamp, hypothesis_id, annotations) VALUES (?, ?, ?, ?)`,
			[]any{1, 100, "h-a", `{"class":"cup"}`}},
	}

	for _, s := range stmts {
		_, err := db.Exec(s.query, s.args...)
		require.NoError(t, err, s.query)
	}
}

func TestSQLiteStore_Timestamps(t *testing.T) {
	store, db := setupSQLiteStore(t)
	ctx := context.Background()

	ts, err := store.Timestamps(ctx)
	require.NoError(t, err)
	assert.Empty(t, ts)

	seedScenes(t, db)

	ts, err = store.Timestamps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, 300}, ts)
}

func TestSQLiteStore_SceneImage(t *testing.T) {
	store, db := setupSQLiteStore(t)
	seedScenes(t, db)
	ctx := context.Background()

	img, err := store.SceneImage(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, img)

	img, err = store.SceneImage(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, img)

	img, err = store.SceneImage(ctx, 999)
	require.NoError(t, err, "a missing scene yields an empty image")
	assert.Empty(t, img)
}

func TestSQLiteStore_ObjectHypsForScene(t *testing.T) {
	store, db := setupSQLiteStore(t)
	seedScenes(t, db)

	hyps, err := store.ObjectHypsForScene(context.Background(), 100)
	require.NoError(t, err)

	want := []model.ObjectHypothesis{
		{ID: "h-a", Timestamp: 100, Index: 0, Annotations: model.Annotations{"class": "cup", "confidence": 0.9}},
		{ID: "h-b", Timestamp: 100, Index: 1, Annotations: model.Annotations{"class": "bowl"}},
	}
	if diff := cmp.Diff(want, hyps); diff != "" {
		t.Errorf("ObjectHypsForScene mismatch (-want +got):\n%s", diff)
	}

	hyps, err = store.ObjectHypsForScene(context.Background(), 300)
	require.NoError(t, err)
	assert.Empty(t, hyps)
}

func TestSQLiteStore_PersistentObjects(t *testing.T) {
	store, db := setupSQLiteStore(t)
	seedScenes(t, db)

	objs, err := store.PersistentObjects(context.Background())
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, 1, objs[0].ID)
	assert.Equal(t, "cup", objs[0].Label)
	assert.Equal(t, "red", objs[0].Annotations["color"])
	assert.Equal(t, 2, objs[1].ID)
}

func TestSQLiteStore_ObjectInstances(t *testing.T) {
	store, db := setupSQLiteStore(t)
	seedScenes(t, db)
	ctx := context.Background()

	instances, err := store.ObjectInstances(ctx, 1)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, int64(100), instances[0].Timestamp)
	assert.Equal(t, "h-a", instances[0].HypothesisID)
	assert.Equal(t, int64(300), instances[1].Timestamp)

	instances, err = store.ObjectInstances(ctx, 7)
	require.NoError(t, err, "an unknown object yields no instances")
	assert.Empty(t, instances)
}

func TestSQLiteStore_BadAnnotations(t *testing.T) {
	store, db := setupSQLiteStore(t)
	_, err := db.Exec(`INSERT INTO persistent_objects (id, label, annotations) VALUES (1, 'x', 'not json')`)
	require.NoError(t, err)

	_, err = store.PersistentObjects(context.Background())
	assert.ErrorContains(t, err, "invalid annotations")
}

func TestSQLiteStore_Ping(t *testing.T) {
	store, db := setupSQLiteStore(t)
	require.NoError(t, store.Ping(context.Background()))

	db.Close()
	assert.Error(t, store.Ping(context.Background()))
}
