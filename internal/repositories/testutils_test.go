package repositories_test

import (
	"context"
	"github.com/opsdrill/opsdrill/internal/sqlite"
	"github.com/opsdrill/opsdrill/internal/testhelpers"
	"io"
	"testing"
)

// newTestDB creates a new in-memory database seeded with the embedded fixtures.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	var (
		db  *sqlite.Database
		err error
	)

	if db, err = sqlite.NewDatabase(context.Background(), ":memory:", testhelpers.NewLogger(io.Discard)); err != nil {
		t.Fatal(err)
	}

	// Set database to read-only mode.
	// The mode=ro flag doesn't seem to work with :memory: and cache=shared.
	if _, err = db.ReadOnly.Exec("PRAGMA query_only = TRUE;"); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Fatal(err)
		}
	})

	return db
}
