package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSlot(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "chaos.db"))
	require.NoError(t, err)
	defer db.Close()

	slot := NewSQLiteSlot(db, "default")
	_, ok, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty slot")

	require.NoError(t, slot.Save(ctx, []byte(`{"chaos":1}`)))
	require.NoError(t, slot.Save(ctx, []byte(`{"chaos":2}`)))

	data, ok, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"chaos":2}`, string(data))

	other := NewSQLiteSlot(db, "other")
	_, ok, err = other.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "slots are independent")
}

func TestSQLiteSlotSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chaos.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, NewSQLiteSlot(db, "default").Save(ctx, []byte(`{"tokens":3}`)))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	data, ok, err := NewSQLiteSlot(db, "default").Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"tokens":3}`, string(data))
}

func TestMemorySlotCopiesData(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()

	_, ok, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	buf := []byte(`{"a":1}`)
	require.NoError(t, slot.Save(ctx, buf))
	buf[2] = 'b'

	data, ok, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestExportImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")

	require.NoError(t, ExportFile(path, []byte(`{"chaos":5,"tokens":1}`)))
	data, err := ImportFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chaos":5,"tokens":1}`, string(data))
	assert.Contains(t, string(data), "\n  ", "exported saves are indented")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	assert.Error(t, ExportFile(path, []byte("not json")))
	_, err = ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
