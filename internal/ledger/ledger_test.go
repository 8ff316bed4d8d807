package ledger

import (
	"fmt"
	"os"
	"testing"

	"github.com/opsshop/jiratrack/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ledger-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndTrackedKeys(t *testing.T) {
	db := testDB(t)

	rows := []models.TrackedIssue{
		{IssueKey: "MOCIS-1", ProjectKey: "MOCIS", Summary: "first", SentBy: "user1"},
		{IssueKey: "MOCIS-2", ProjectKey: "MOCIS", Summary: "second", SentBy: "user1"},
		{IssueKey: "JSTUI-9", ProjectKey: "JSTUI", Summary: "other project", SentBy: "user1"},
	}
	if err := db.Insert(rows); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	keys, err := db.TrackedKeys("MOCIS")
	if err != nil {
		t.Fatalf("TrackedKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2 entries", keys)
	}
	if _, ok := keys["MOCIS-1"]; !ok {
		t.Error("missing MOCIS-1")
	}
	if _, ok := keys["JSTUI-9"]; ok {
		t.Error("JSTUI-9 leaked into MOCIS keys")
	}
}

func TestInsertBeyondBatchSize(t *testing.T) {
	db := testDB(t)

	var rows []models.TrackedIssue
	for i := 1; i <= batchSize*2+7; i++ {
		rows = append(rows, models.TrackedIssue{
			IssueKey:   fmt.Sprintf("MOCIS-%d", i),
			ProjectKey: "MOCIS",
			Summary:    "bulk",
			SentBy:     "user1",
		})
	}
	if err := db.Insert(rows); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	keys, err := db.TrackedKeys("MOCIS")
	if err != nil {
		t.Fatalf("TrackedKeys: %v", err)
	}
	if len(keys) != len(rows) {
		t.Errorf("keys = %d, want %d", len(keys), len(rows))
	}
}

func TestInsertExistingKeyRevivesRow(t *testing.T) {
	db := testDB(t)

	row := models.TrackedIssue{IssueKey: "MOCIS-1", ProjectKey: "MOCIS", Summary: "v1", SentBy: "user1"}
	if err := db.Insert([]models.TrackedIssue{row}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.SoftDelete([]string{"MOCIS-1"}); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	row.Summary = "v2"
	if err := db.Insert([]models.TrackedIssue{row}); err != nil {
		t.Fatalf("re-Insert: %v", err)
	}

	tracked, err := db.Tracked("MOCIS")
	if err != nil {
		t.Fatalf("Tracked: %v", err)
	}
	if len(tracked) != 1 {
		t.Fatalf("tracked = %v, want 1 row", tracked)
	}
	if tracked[0].Summary != "v2" {
		t.Errorf("summary = %q, want v2", tracked[0].Summary)
	}
	if tracked[0].LastSentAt == nil {
		t.Error("revived row should carry a resend timestamp")
	}
}

func TestMarkResentStampsTimestamp(t *testing.T) {
	db := testDB(t)

	if err := db.Insert([]models.TrackedIssue{
		{IssueKey: "MOCIS-1", ProjectKey: "MOCIS", SentBy: "user1"},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	tracked, _ := db.Tracked("MOCIS")
	if tracked[0].LastSentAt != nil {
		t.Fatal("fresh row should have no resend timestamp")
	}

	if err := db.MarkResent([]string{"MOCIS-1"}); err != nil {
		t.Fatalf("MarkResent: %v", err)
	}

	tracked, _ = db.Tracked("MOCIS")
	if tracked[0].LastSentAt == nil {
		t.Error("resent row should carry a resend timestamp")
	}
}

func TestSoftDeleteHidesButKeepsRow(t *testing.T) {
	db := testDB(t)

	if err := db.Insert([]models.TrackedIssue{
		{IssueKey: "MOCIS-1", ProjectKey: "MOCIS", SentBy: "user1"},
		{IssueKey: "MOCIS-2", ProjectKey: "MOCIS", SentBy: "user1"},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := db.SoftDelete([]string{"MOCIS-1"}); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	keys, err := db.TrackedKeys("MOCIS")
	if err != nil {
		t.Fatalf("TrackedKeys: %v", err)
	}
	if _, ok := keys["MOCIS-1"]; ok {
		t.Error("soft-deleted key still visible")
	}
	if _, ok := keys["MOCIS-2"]; !ok {
		t.Error("unrelated key disappeared")
	}

	// The row itself must survive.
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM tracked_issues`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("row count = %d, want 2", n)
	}
}

func TestInsertFeedbackTruncatesLongDescription(t *testing.T) {
	db := testDB(t)

	long := make([]byte, maxFeedbackLen+500)
	for i := range long {
		long[i] = 'x'
	}
	err := db.InsertFeedback(models.Feedback{
		Type:        "ENHANCEMENT",
		Description: string(long),
		CreatedBy:   "user1",
	})
	if err != nil {
		t.Fatalf("InsertFeedback: %v", err)
	}

	var stored string
	if err := db.conn.QueryRow(`SELECT description FROM tracker_feedback`).Scan(&stored); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(stored) != maxFeedbackLen {
		t.Errorf("stored length = %d, want %d", len(stored), maxFeedbackLen)
	}
}
