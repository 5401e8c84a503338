// Package sqltest opens throwaway in-memory SQLite databases for repository tests.
package sqltest

import (
	"context"
	"testing"

	"GameStore/pkg/db/mysql"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open returns an empty database with the given schema applied. Every call gets its own
// database; it is closed when the test ends.
func Open(t testing.TB, schema ...[]string) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// each connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmts := range schema {
		if err := mysql.Migrate(context.Background(), db, stmts...); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}
