// Package models defines the domain types shared across the tracker bridge.
package models

import "time"

// Issue is a work item fetched from the remote tracker.
type Issue struct {
	Key         string           `json:"key"`
	ProjectKey  string           `json:"project_key"`
	ProjectName string           `json:"project_name,omitempty"`
	StatusID    string           `json:"status_id"`
	StatusName  string           `json:"status_name"`
	TypeName    string           `json:"type_name,omitempty"`
	Priority    string           `json:"priority,omitempty"`
	Summary     string           `json:"summary"`
	Description string           `json:"description,omitempty"`
	Reporter    string           `json:"reporter,omitempty"`
	Assignee    string           `json:"assignee,omitempty"`
	Labels      []string         `json:"labels,omitempty"`
	Components  []string         `json:"components,omitempty"`
	FixVersions []string         `json:"fix_versions,omitempty"`
	Created     *time.Time       `json:"created,omitempty"`
	Updated     *time.Time       `json:"updated,omitempty"`
	Attachments []Attachment     `json:"attachments,omitempty"`
	Comments    []Comment        `json:"comments,omitempty"`
	Changelog   []ChangelogGroup `json:"changelog,omitempty"`
}

// Attachment is a file listed on an issue.
type Attachment struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	ContentURL string `json:"content_url"`
	Size       int64  `json:"size,omitempty"`
}

// Comment is a single comment on an issue, kept for the detail document.
type Comment struct {
	Author  string     `json:"author,omitempty"`
	Body    string     `json:"body"`
	Created *time.Time `json:"created,omitempty"`
}

// ChangelogGroup is one batch of field changes recorded against an issue.
type ChangelogGroup struct {
	Author  string          `json:"author,omitempty"`
	Created *time.Time      `json:"created,omitempty"`
	Items   []ChangelogItem `json:"items"`
}

// ChangelogItem is a single field change within a changelog group.
type ChangelogItem struct {
	Field      string  `json:"field"`
	From       *string `json:"from,omitempty"`
	FromString string  `json:"from_string,omitempty"`
	To         *string `json:"to,omitempty"`
	ToString   string  `json:"to_string,omitempty"`
}
