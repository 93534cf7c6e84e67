// Package catalog manages snapshot metadata in a SQLite database.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	colerr "github.com/colonnade/colonnade/internal/errors"
)

// Catalog records which table snapshots exist and where they live.
type Catalog interface {
	// Register adds a snapshot record. Registering a name that already
	// exists with a different object id fails with WRITE_CONFLICT.
	Register(ctx context.Context, rec *SnapshotRecord) error

	// Get retrieves the latest snapshot record for a table name.
	Get(ctx context.Context, name string) (*SnapshotRecord, error)

	// List returns all snapshot records ordered by table name.
	List(ctx context.Context) ([]*SnapshotRecord, error)

	// Delete removes the snapshot record for a table name.
	Delete(ctx context.Context, name string) error

	// Close closes the catalog database connection.
	Close() error
}

// SnapshotRecord describes one persisted table snapshot.
type SnapshotRecord struct {
	ObjectID   string
	Name       string
	ObjectPath string
	Checksum   uint64
	RowCount   int64
	CreatedAt  time.Time
}

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db         *sql.DB
	dbPath     string
	mu         sync.Mutex
	insertStmt *sql.Stmt
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	name        TEXT PRIMARY KEY,
	object_id   TEXT NOT NULL,
	object_path TEXT NOT NULL,
	checksum    INTEGER NOT NULL,
	row_count   INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
`

// NewCatalog opens or creates a snapshot catalog at dbPath.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, colerr.NewCatalogError(colerr.CodeUnexpected,
			"opening catalog database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, colerr.NewCatalogError(colerr.CodeUnexpected,
			"initializing catalog schema", err)
	}

	insertStmt, err := db.Prepare(`
		INSERT INTO snapshots (name, object_id, object_path, checksum, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			object_path = excluded.object_path,
			checksum    = excluded.checksum,
			row_count   = excluded.row_count,
			created_at  = excluded.created_at`)
	if err != nil {
		db.Close()
		return nil, colerr.NewCatalogError(colerr.CodeUnexpected,
			"preparing insert statement", err)
	}

	return &SQLiteCatalog{db: db, dbPath: dbPath, insertStmt: insertStmt}, nil
}

// Register adds or refreshes a snapshot record. A name may only ever
// map to one object id; re-registering under a different id is a
// conflict.
func (c *SQLiteCatalog) Register(ctx context.Context, rec *SnapshotRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var existingID string
	err := c.db.QueryRowContext(ctx,
		"SELECT object_id FROM snapshots WHERE name = ?", rec.Name,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return colerr.NewCatalogError(colerr.CodeUnexpected,
			"checking existing snapshot", err)
	case existingID != rec.ObjectID:
		return colerr.NewCatalogError(colerr.CodeWriteConflict,
			fmt.Sprintf("snapshot '%s' is already registered for a different table", rec.Name), nil)
	}

	_, err = c.insertStmt.ExecContext(ctx,
		rec.Name, rec.ObjectID, rec.ObjectPath,
		int64(rec.Checksum), rec.RowCount, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return colerr.NewCatalogError(colerr.CodeUnexpected,
			"inserting snapshot record", err)
	}
	return nil
}

// Get retrieves the snapshot record for a table name.
func (c *SQLiteCatalog) Get(ctx context.Context, name string) (*SnapshotRecord, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT name, object_id, object_path, checksum, row_count, created_at
		FROM snapshots WHERE name = ?`, name)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, colerr.NewCatalogError(colerr.CodeSnapshotNotFound,
			fmt.Sprintf("no snapshot registered for '%s'", name), nil)
	}
	if err != nil {
		return nil, colerr.NewCatalogError(colerr.CodeUnexpected,
			"querying snapshot record", err)
	}
	return rec, nil
}

// List returns all snapshot records ordered by table name.
func (c *SQLiteCatalog) List(ctx context.Context) ([]*SnapshotRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, object_id, object_path, checksum, row_count, created_at
		FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, colerr.NewCatalogError(colerr.CodeUnexpected,
			"listing snapshot records", err)
	}
	defer rows.Close()

	var out []*SnapshotRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, colerr.NewCatalogError(colerr.CodeUnexpected,
				"scanning snapshot record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, colerr.NewCatalogError(colerr.CodeUnexpected,
			"iterating snapshot records", err)
	}
	return out, nil
}

// Delete removes the snapshot record for a table name.
func (c *SQLiteCatalog) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM snapshots WHERE name = ?", name)
	if err != nil {
		return colerr.NewCatalogError(colerr.CodeUnexpected,
			"deleting snapshot record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return colerr.NewCatalogError(colerr.CodeUnexpected,
			"reading delete result", err)
	}
	if n == 0 {
		return colerr.NewCatalogError(colerr.CodeSnapshotNotFound,
			fmt.Sprintf("no snapshot registered for '%s'", name), nil)
	}
	return nil
}

// Close closes the catalog database connection.
func (c *SQLiteCatalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.insertStmt != nil {
		c.insertStmt.Close()
	}
	return c.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	var checksum, createdAt int64
	if err := s.Scan(&rec.Name, &rec.ObjectID, &rec.ObjectPath,
		&checksum, &rec.RowCount, &createdAt); err != nil {
		return nil, err
	}
	rec.Checksum = uint64(checksum)
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}
