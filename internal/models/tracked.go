package models

import "time"

// TrackedIssue is a ledger row recording an issue delivered to the shop.
// Identity is the issue key; rows are soft-deleted, never removed.
type TrackedIssue struct {
	IssueKey   string     `json:"issue_key"`
	ProjectKey string     `json:"project_key"`
	Summary    string     `json:"summary"`
	SentBy     string     `json:"sent_by"`
	SentAt     time.Time  `json:"sent_at"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
	Deleted    bool       `json:"-"`
}

// Feedback is a user-submitted enhancement request or bug report about
// the bridge itself.
type Feedback struct {
	RefID       int64     `json:"ref_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeliveryBatch describes one send request. It is ephemeral; nothing about
// the batch itself is persisted, only the resulting ledger rows.
type DeliveryBatch struct {
	Issues          []Issue
	ProjectKey      string
	StatusID        string
	Note            string
	ExtraRecipients []string
	Resend          bool
}
