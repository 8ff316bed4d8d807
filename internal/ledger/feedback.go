package ledger

import (
	"fmt"

	"github.com/opsshop/jiratrack/internal/models"
)

// maxFeedbackLen caps the stored description.
const maxFeedbackLen = 1000

// InsertFeedback stores a user-submitted enhancement or bug report.
func (db *DB) InsertFeedback(f models.Feedback) error {
	desc := f.Description
	if len(desc) > maxFeedbackLen {
		desc = desc[:maxFeedbackLen]
	}
	_, err := db.conn.Exec(`
		INSERT INTO tracker_feedback (type, description, created_by, create_ts)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		f.Type, desc, f.CreatedBy)
	if err != nil {
		return fmt.Errorf("ledger: insert feedback: %w", err)
	}
	return nil
}
