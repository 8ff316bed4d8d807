package ledger

import (
	"database/sql"
	"fmt"

	"github.com/opsshop/jiratrack/internal/models"
)

// TrackedKeys returns the live (not soft-deleted) issue keys for a project.
func (db *DB) TrackedKeys(project string) (map[string]struct{}, error) {
	rows, err := db.conn.Query(
		`SELECT issue_key FROM tracked_issues WHERE project_key = ? AND delete_ind = 'N'`, project)
	if err != nil {
		return nil, fmt.Errorf("ledger: tracked keys: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out[k] = struct{}{}
	}
	return out, rows.Err()
}

// Tracked returns the live ledger rows for a project.
func (db *DB) Tracked(project string) ([]models.TrackedIssue, error) {
	rows, err := db.conn.Query(`
		SELECT issue_key, project_key, summary, sent_ts, last_sent_ts, sent_by_user_id
		FROM tracked_issues
		WHERE project_key = ? AND delete_ind = 'N'
		ORDER BY sent_ts DESC`, project)
	if err != nil {
		return nil, fmt.Errorf("ledger: tracked rows: %w", err)
	}
	defer rows.Close()

	var out []models.TrackedIssue
	for rows.Next() {
		var t models.TrackedIssue
		var lastSent sql.NullTime
		if err := rows.Scan(&t.IssueKey, &t.ProjectKey, &t.Summary, &t.SentAt, &lastSent, &t.SentBy); err != nil {
			return nil, err
		}
		if lastSent.Valid {
			ts := lastSent.Time
			t.LastSentAt = &ts
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Insert records first-time deliveries. Rows are written in batches of 50
// so a large send never holds one long transaction. A key that already
// exists is revived: summary refreshed, resend stamped, delete flag reset.
func (db *DB) Insert(rows []models.TrackedIssue) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := db.insertChunk(rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) insertChunk(rows []models.TrackedIssue) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.Prepare(`
		INSERT INTO tracked_issues (issue_key, project_key, summary, sent_ts, sent_by_user_id, delete_ind)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?, 'N')
		ON CONFLICT(issue_key) DO UPDATE SET
			summary      = excluded.summary,
			last_sent_ts = CURRENT_TIMESTAMP,
			delete_ind   = 'N'`)
	if err != nil {
		return fmt.Errorf("ledger: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.IssueKey, r.ProjectKey, r.Summary, r.SentBy); err != nil {
			return fmt.Errorf("ledger: insert %s: %w", r.IssueKey, err)
		}
	}
	return tx.Commit()
}

// MarkResent stamps last_sent_ts on already-ledgered issues.
func (db *DB) MarkResent(keys []string) error {
	return db.batchByKey(keys,
		`UPDATE tracked_issues SET last_sent_ts = CURRENT_TIMESTAMP WHERE issue_key = ?`,
		"mark resent")
}

// SoftDelete hides ledger rows without removing them.
func (db *DB) SoftDelete(keys []string) error {
	return db.batchByKey(keys,
		`UPDATE tracked_issues SET delete_ind = 'Y', last_sent_ts = CURRENT_TIMESTAMP WHERE issue_key = ?`,
		"soft delete")
}

func (db *DB) batchByKey(keys []string, query, verb string) error {
	for start := 0; start < len(keys); start += batchSize {
		end := min(start+batchSize, len(keys))
		if err := db.execChunk(keys[start:end], query, verb); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) execChunk(keys []string, query, verb string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("ledger: prepare %s: %w", verb, err)
	}
	defer stmt.Close()

	for _, k := range keys {
		if _, err := stmt.Exec(k); err != nil {
			return fmt.Errorf("ledger: %s %s: %w", verb, k, err)
		}
	}
	return tx.Commit()
}
