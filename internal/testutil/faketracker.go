package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/opsshop/jiratrack/internal/jira"
	"github.com/opsshop/jiratrack/internal/models"
)

// FakeTracker is an in-memory stand-in for the remote tracker. Queries
// are answered from canned responses keyed by JQL; attachments from a
// content map keyed by URL.
type FakeTracker struct {
	// ByJQL maps a JQL string to the issues it returns.
	ByJQL map[string][]models.Issue
	// ByKey answers GetIssueWithChangelog.
	ByKey map[string]*models.Issue
	// AttachmentData maps content URLs to bodies; missing URLs fail.
	AttachmentData map[string][]byte
	// ProjectKeys answers Projects.
	ProjectKeys []string
	// MaxKey answers HighestKey.
	MaxKey int

	// Err, when set, fails every call.
	Err error

	// SearchCalls records the JQL strings seen. Guarded by mu; warmup
	// runs searches concurrently.
	SearchCalls []string

	mu sync.Mutex
}

var _ jira.Tracker = (*FakeTracker)(nil)

func (f *FakeTracker) Search(_ context.Context, jql string, max int) ([]models.Issue, error) {
	f.mu.Lock()
	f.SearchCalls = append(f.SearchCalls, jql)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	issues := f.ByJQL[jql]
	if len(issues) > max {
		issues = issues[:max]
	}
	return issues, nil
}

func (f *FakeTracker) GetIssueWithChangelog(_ context.Context, key string) (*models.Issue, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	issue, ok := f.ByKey[key]
	if !ok {
		return nil, fmt.Errorf("fake tracker: no issue %s", key)
	}
	return issue, nil
}

func (f *FakeTracker) FetchAttachment(_ context.Context, contentURL string) (io.ReadCloser, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	data, ok := f.AttachmentData[contentURL]
	if !ok {
		return nil, fmt.Errorf("fake tracker: no attachment at %s", contentURL)
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (f *FakeTracker) Projects(context.Context) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.ProjectKeys, nil
}

func (f *FakeTracker) HighestKey(context.Context, string) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.MaxKey, nil
}

func (f *FakeTracker) AttachmentURL(id, filename string) string {
	return "https://tracker.test/secure/attachment/" + id + "/" + filename
}
