// Package ledger persists which issues have been delivered to the shop,
// backed by SQLite.
package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opsshop/jiratrack/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tracked_issues (
	issue_key       TEXT PRIMARY KEY,
	project_key     TEXT NOT NULL,
	summary         TEXT NOT NULL DEFAULT '',
	sent_ts         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_sent_ts    DATETIME,
	sent_by_user_id TEXT NOT NULL DEFAULT '',
	delete_ind      TEXT NOT NULL DEFAULT 'N'
);

CREATE INDEX IF NOT EXISTS idx_tracked_project ON tracked_issues(project_key);

CREATE TABLE IF NOT EXISTS tracker_feedback (
	ref_id      INTEGER PRIMARY KEY AUTOINCREMENT,
	type        TEXT NOT NULL,
	description TEXT NOT NULL,
	created_by  TEXT NOT NULL DEFAULT '',
	create_ts   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// batchSize caps how many rows a single transaction touches.
const batchSize = 50

// Store defines the ledger operations the rest of the application uses.
// Consumers should depend on this interface rather than the concrete *DB
// so a down or absent ledger can be simulated in tests.
type Store interface {
	TrackedKeys(project string) (map[string]struct{}, error)
	Tracked(project string) ([]models.TrackedIssue, error)
	Insert(rows []models.TrackedIssue) error
	MarkResent(keys []string) error
	SoftDelete(keys []string) error
	InsertFeedback(f models.Feedback) error
	Close() error
}

// DB wraps a sql.DB with ledger-specific operations.
type DB struct {
	conn *sql.DB
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
