// Package delivery assembles issue packages and sends them to the shop.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/opsshop/jiratrack/internal/jira"
	"github.com/opsshop/jiratrack/internal/models"
	"github.com/opsshop/jiratrack/internal/staging"
)

// changelogAttachmentField is the changelog field name that records an
// attachment being added.
const changelogAttachmentField = "Attachment"

// AttachmentResolver downloads an issue's attachments into its staging
// directory. The issue's attachment list is tried first; when it yields
// nothing, attachment-add entries in the changelog are used to rebuild
// download URLs. Some older issues only carry attachments there.
type AttachmentResolver struct {
	tracker jira.Tracker
	staging *staging.Dir
	logger  *slog.Logger
}

// NewAttachmentResolver builds a resolver writing into dir.
func NewAttachmentResolver(t jira.Tracker, dir *staging.Dir, logger *slog.Logger) *AttachmentResolver {
	return &AttachmentResolver{tracker: t, staging: dir, logger: logger}
}

// Resolve downloads every attachment it can and reports the filenames
// that were saved and the ones that had to be excluded. A failed file
// never aborts the rest.
func (r *AttachmentResolver) Resolve(ctx context.Context, issue *models.Issue) (saved, excluded []string) {
	for _, att := range issue.Attachments {
		if r.download(ctx, issue.Key, att.Filename, att.ContentURL) {
			saved = append(saved, att.Filename)
		} else {
			excluded = append(excluded, att.Filename)
		}
	}
	if len(saved) > 0 {
		return saved, excluded
	}

	// Fallback: reconstruct attachments from the changelog.
	for _, group := range issue.Changelog {
		for _, item := range group.Items {
			if item.Field != changelogAttachmentField || item.To == nil {
				continue
			}
			filename := item.ToString
			url := r.tracker.AttachmentURL(*item.To, filename)
			if r.download(ctx, issue.Key, filename, url) {
				saved = append(saved, filename)
			} else {
				excluded = append(excluded, filename)
			}
		}
	}
	return saved, excluded
}

func (r *AttachmentResolver) download(ctx context.Context, issueKey, filename, url string) bool {
	name, err := safeName(filename)
	if err != nil {
		r.logger.Warn("skipping attachment with unusable name",
			slog.String("issue", issueKey),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return false
	}
	body, err := r.tracker.FetchAttachment(ctx, url)
	if err != nil {
		r.logger.Warn("attachment download failed",
			slog.String("issue", issueKey),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return false
	}
	defer body.Close()

	if err := r.staging.WriteFile(filepath.Join(issueKey, name), body); err != nil {
		r.logger.Warn("attachment write failed",
			slog.String("issue", issueKey),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// safeName validates that the filename is a plain name (no path
// separators, no traversal).
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	return cleaned, nil
}
