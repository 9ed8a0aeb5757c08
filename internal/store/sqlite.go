// Package store implements the local persistence layer on SQLite: one table
// per collection, primary key on id, one secondary non-unique index, and the
// full record stored as a JSON document.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"buildflow/internal/buildflow"
	"buildflow/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// collectionSpec maps a collection to its table and secondary index.
type collectionSpec struct {
	table       string
	indexColumn string
	indexName   string
}

var collections = map[buildflow.Collection]collectionSpec{
	buildflow.CollectionSiteVisits:   {table: "site_visits", indexColumn: "date", indexName: buildflow.IndexByDate},
	buildflow.CollectionNotepadNotes: {table: "notepad_notes", indexColumn: "date", indexName: buildflow.IndexByDate},
	buildflow.CollectionContacts:     {table: "contacts", indexColumn: "name", indexName: buildflow.IndexByName},
}

// SQLiteStore implements the buildflow.Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a store at path and brings its schema up
// to date. path can be a file path or ":memory:" for an in-memory store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrating schema: %v", buildflow.ErrStoreUnavailable, err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw configured handle.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", buildflow.ErrStoreUnavailable, err)
	}

	// Each pooled connection to ":memory:" gets its own private empty
	// database, so everything must go through a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Wait for locks instead of failing immediately: backup reads and UI
	// writes share one handle-per-call model.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: setting busy timeout: %v", buildflow.ErrStoreUnavailable, err)
	}

	return db, nil
}

func spec(c buildflow.Collection) (collectionSpec, error) {
	cs, ok := collections[c]
	if !ok {
		return collectionSpec{}, fmt.Errorf("unknown collection %q", c)
	}
	return cs, nil
}

// Put upserts a record by primary key. The write is a single statement, so
// callers never observe a half-written record.
func (s *SQLiteStore) Put(ctx context.Context, c buildflow.Collection, id, indexValue string, record []byte) error {
	cs, err := spec(c)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("empty id for %s record", c)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (id, %s, record) VALUES (?, ?, ?) ON CONFLICT (id) DO UPDATE SET %s = excluded.%s, record = excluded.record",
		cs.table, cs.indexColumn, cs.indexColumn, cs.indexColumn,
	)
	if _, err := s.db.ExecContext(ctx, query, id, indexValue, string(record)); err != nil {
		return fmt.Errorf("%w: putting %s record %s: %v", buildflow.ErrStoreUnavailable, c, id, err)
	}
	return nil
}

// Get returns the record with the given id, or nil if absent.
func (s *SQLiteStore) Get(ctx context.Context, c buildflow.Collection, id string) ([]byte, error) {
	cs, err := spec(c)
	if err != nil {
		return nil, err
	}

	var record string
	query := fmt.Sprintf("SELECT record FROM %s WHERE id = ?", cs.table)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("%w: getting %s record %s: %v", buildflow.ErrStoreUnavailable, c, id, err)
	}
	return []byte(record), nil
}

// GetByIndex returns all records whose secondary index value matches, in
// insertion order.
func (s *SQLiteStore) GetByIndex(ctx context.Context, c buildflow.Collection, index, value string) ([][]byte, error) {
	cs, err := spec(c)
	if err != nil {
		return nil, err
	}
	if index != cs.indexName {
		return nil, fmt.Errorf("collection %s has no index %q", c, index)
	}

	query := fmt.Sprintf("SELECT record FROM %s WHERE %s = ? ORDER BY rowid", cs.table, cs.indexColumn)
	return s.queryRecords(ctx, c, query, value)
}

// GetAll returns every record in the collection, in insertion order.
func (s *SQLiteStore) GetAll(ctx context.Context, c buildflow.Collection) ([][]byte, error) {
	cs, err := spec(c)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT record FROM %s ORDER BY rowid", cs.table)
	return s.queryRecords(ctx, c, query)
}

// Delete removes a record by id. Deleting an absent id is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, c buildflow.Collection, id string) error {
	cs, err := spec(c)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", cs.table)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: deleting %s record %s: %v", buildflow.ErrStoreUnavailable, c, id, err)
	}
	return nil
}

func (s *SQLiteStore) queryRecords(ctx context.Context, c buildflow.Collection, query string, args ...any) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", buildflow.ErrStoreUnavailable, c, err)
	}
	defer rows.Close()

	var records [][]byte
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("%w: scanning %s record: %v", buildflow.ErrStoreUnavailable, c, err)
		}
		records = append(records, []byte(record))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s records: %v", buildflow.ErrStoreUnavailable, c, err)
	}
	return records, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.Check(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements the Store interface
var _ buildflow.Store = (*SQLiteStore)(nil)
