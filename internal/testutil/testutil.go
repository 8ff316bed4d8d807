// Package testutil provides shared test helpers for setting up ledgers,
// staging areas, and a fake tracker.
package testutil

import (
	"os"
	"testing"

	"github.com/opsshop/jiratrack/internal/ledger"
	"github.com/opsshop/jiratrack/internal/staging"
)

// TestLedger creates a temporary SQLite ledger that is automatically
// cleaned up.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "jiratrack-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := ledger.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStaging creates a temporary staging area.
func TestStaging(t *testing.T) *staging.Dir {
	t.Helper()
	dir, err := staging.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}
