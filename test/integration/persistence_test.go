package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/colonnade/colonnade/internal/build"
	"github.com/colonnade/colonnade/internal/catalog"
	colerr "github.com/colonnade/colonnade/internal/errors"
	"github.com/colonnade/colonnade/internal/storage"
	"github.com/colonnade/colonnade/internal/table"
	"github.com/colonnade/colonnade/pkg/types"
)

// setupPersistenceTestEnv creates local storage and a snapshot catalog
// under a temp directory.
func setupPersistenceTestEnv(t *testing.T) (*storage.LocalStorage, *catalog.SQLiteCatalog) {
	t.Helper()

	tempDir := t.TempDir()

	store, err := storage.NewLocalStorage(filepath.Join(tempDir, "storage"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	cat, err := catalog.NewCatalog(filepath.Join(tempDir, "catalog.db"))
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	return store, cat
}

// buildTrialsTable creates a table with flat, ragged, and enum columns.
func buildTrialsTable(t *testing.T) *table.DynamicTable {
	t.Helper()

	tbl, err := table.NewDynamicTable("trials", "a table of trials",
		table.WithIDs(0, 1, 2))
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	if err := tbl.AddColumn("score", "trial score",
		table.WithData([]float64{0.5, 0.9, 0.1})); err != nil {
		t.Fatalf("failed to add score column: %v", err)
	}
	if err := tbl.AddColumn("spikes", "spike times",
		table.WithData([]any{
			[]any{int64(1), int64(2)},
			[]any{int64(3)},
			[]any{int64(4), int64(5), int64(6)},
		}),
		table.WithIndex()); err != nil {
		t.Fatalf("failed to add spikes column: %v", err)
	}
	if err := tbl.AddColumn("cond", "trial condition",
		table.WithData([]string{"go", "stop", "go"}),
		table.AsEnum()); err != nil {
		t.Fatalf("failed to add cond column: %v", err)
	}

	return tbl
}

// persistTable serializes a table into a snapshot frame, stores it, and
// registers it in the catalog.
func persistTable(t *testing.T, store *storage.LocalStorage, cat *catalog.SQLiteCatalog, tbl *table.DynamicTable) string {
	t.Helper()
	ctx := context.Background()

	g, err := build.BuildTable(tbl)
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	payload, err := build.EncodeJSON(g)
	if err != nil {
		t.Fatalf("failed to encode builder tree: %v", err)
	}
	frame := storage.EncodeSnapshot(payload)

	objectPath := "tables/" + tbl.Name() + ".snap"
	if err := store.Put(ctx, objectPath, frame); err != nil {
		t.Fatalf("failed to store snapshot: %v", err)
	}

	checksum, err := storage.SnapshotChecksum(frame)
	if err != nil {
		t.Fatalf("failed to read snapshot checksum: %v", err)
	}

	rec := &catalog.SnapshotRecord{
		ObjectID:   tbl.ObjectID(),
		Name:       tbl.Name(),
		ObjectPath: objectPath,
		Checksum:   checksum,
		RowCount:   int64(tbl.Len()),
		CreatedAt:  time.Now().UTC(),
	}
	if err := cat.Register(ctx, rec); err != nil {
		t.Fatalf("failed to register snapshot: %v", err)
	}

	return objectPath
}

// loadTable fetches a registered snapshot and reconstructs the table.
func loadTable(t *testing.T, store *storage.LocalStorage, cat *catalog.SQLiteCatalog, name string) *table.DynamicTable {
	t.Helper()
	ctx := context.Background()

	rec, err := cat.Get(ctx, name)
	if err != nil {
		t.Fatalf("failed to look up snapshot: %v", err)
	}

	frame, err := store.Get(ctx, rec.ObjectPath)
	if err != nil {
		t.Fatalf("failed to fetch snapshot: %v", err)
	}

	sum, err := storage.SnapshotChecksum(frame)
	if err != nil {
		t.Fatalf("failed to read stored checksum: %v", err)
	}
	if sum != rec.Checksum {
		t.Fatalf("stored checksum %x does not match catalog record %x", sum, rec.Checksum)
	}

	payload, err := storage.DecodeSnapshot(frame)
	if err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	g, err := build.DecodeJSON(payload)
	if err != nil {
		t.Fatalf("failed to decode builder tree: %v", err)
	}
	tbl, err := build.ReconstructTable(g, build.DefaultTypeMap())
	if err != nil {
		t.Fatalf("failed to reconstruct table: %v", err)
	}
	return tbl
}

// TestPersistReconstruct exercises the full export and reload path:
// build, snapshot, store, catalog, fetch, reconstruct.
func TestPersistReconstruct(t *testing.T) {
	store, cat := setupPersistenceTestEnv(t)
	tbl := buildTrialsTable(t)

	persistTable(t, store, cat, tbl)
	got := loadTable(t, store, cat, "trials")

	if !tbl.ContentEquals(got) {
		t.Errorf("reconstructed table does not match the original")
	}
	if got.ObjectID() != tbl.ObjectID() {
		t.Errorf("object id not preserved: want %s, got %s", tbl.ObjectID(), got.ObjectID())
	}
	if got.Modified() {
		t.Errorf("reconstructed table should not be marked modified")
	}

	spikes, err := got.Cell(2, "spikes")
	if err != nil {
		t.Fatalf("failed to read ragged cell: %v", err)
	}
	arr, err := types.AsArray(spikes)
	if err != nil {
		t.Fatalf("ragged cell is not list-like: %v", err)
	}
	if arr.Len() != 3 {
		t.Errorf("expected 3 spike times in row 2, got %d", arr.Len())
	}
}

// TestPersistMultipleTables verifies independent snapshots coexist in
// one store and catalog.
func TestPersistMultipleTables(t *testing.T) {
	store, cat := setupPersistenceTestEnv(t)
	ctx := context.Background()

	trials := buildTrialsTable(t)
	persistTable(t, store, cat, trials)

	units, err := table.NewDynamicTable("units", "sorted units",
		table.WithIDs(0, 1))
	if err != nil {
		t.Fatalf("failed to create units table: %v", err)
	}
	if err := units.AddColumn("depth", "electrode depth",
		table.WithData([]int64{120, 340})); err != nil {
		t.Fatalf("failed to add depth column: %v", err)
	}
	persistTable(t, store, cat, units)

	recs, err := cat.List(ctx)
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 catalog records, got %d", len(recs))
	}

	paths, err := store.List(ctx, "tables/")
	if err != nil {
		t.Fatalf("failed to list objects: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 stored snapshots, got %d", len(paths))
	}

	got := loadTable(t, store, cat, "units")
	if !units.ContentEquals(got) {
		t.Errorf("reconstructed units table does not match the original")
	}
}

// TestCorruptedSnapshot verifies that flipping a stored byte surfaces a
// checksum failure on reload.
func TestCorruptedSnapshot(t *testing.T) {
	store, cat := setupPersistenceTestEnv(t)
	ctx := context.Background()

	tbl := buildTrialsTable(t)
	objectPath := persistTable(t, store, cat, tbl)

	frame, err := store.Get(ctx, objectPath)
	if err != nil {
		t.Fatalf("failed to fetch snapshot: %v", err)
	}
	frame[len(frame)-1] ^= 0xFF
	if err := store.Put(ctx, objectPath, frame); err != nil {
		t.Fatalf("failed to overwrite snapshot: %v", err)
	}

	corrupted, err := store.Get(ctx, objectPath)
	if err != nil {
		t.Fatalf("failed to re-fetch snapshot: %v", err)
	}
	_, err = storage.DecodeSnapshot(corrupted)
	if err == nil {
		t.Fatalf("expected checksum failure for corrupted snapshot")
	}
	if !colerr.HasCode(err, colerr.CodeChecksum) {
		t.Errorf("expected CHECKSUM_MISMATCH, got %v", err)
	}
}

// TestReExportUpdatesCatalog verifies that re-exporting a grown table
// refreshes its catalog record.
func TestReExportUpdatesCatalog(t *testing.T) {
	store, cat := setupPersistenceTestEnv(t)
	ctx := context.Background()

	tbl := buildTrialsTable(t)
	persistTable(t, store, cat, tbl)

	err := tbl.AddRow(map[string]any{
		"score":  0.7,
		"spikes": []any{int64(7)},
		"cond":   "stop",
	})
	if err != nil {
		t.Fatalf("failed to add row: %v", err)
	}
	persistTable(t, store, cat, tbl)

	rec, err := cat.Get(ctx, "trials")
	if err != nil {
		t.Fatalf("failed to look up snapshot: %v", err)
	}
	if rec.RowCount != 4 {
		t.Errorf("expected row count 4 after re-export, got %d", rec.RowCount)
	}

	got := loadTable(t, store, cat, "trials")
	if got.Len() != 4 {
		t.Errorf("expected 4 rows after reload, got %d", got.Len())
	}
}
