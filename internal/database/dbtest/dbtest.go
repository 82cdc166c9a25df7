// Package dbtest provides an in-memory sqlite database with the Sigmmar
// schema for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iliyamo/sigmmar-api/internal/database"
)

// New returns a fresh in-memory database closed at the end of the test.
// The pool is capped at one connection because every sqlite :memory:
// connection is a separate database.
func New(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return db
}
