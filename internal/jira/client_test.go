package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/opsshop/jiratrack/internal/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "svc-user", "secret", []string{"MOCIS"}, "DOC ")
}

func TestSearch_ParsesIssues(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("jql"); got != "project = MOCIS AND status = 1" {
			t.Errorf("jql = %q", got)
		}
		fmt.Fprint(w, `{
			"startAt": 0, "maxResults": 50, "total": 1,
			"issues": [{
				"key": "MOCIS-7",
				"fields": {
					"summary": "Fix the thing",
					"status": {"id": "1", "name": "Open"},
					"project": {"key": "MOCIS", "name": "Shop"},
					"created": "2024-03-01T10:00:00.000-0600"
				}
			}]
		}`)
	})

	issues, err := c.Search(context.Background(), "project = MOCIS AND status = 1", 75)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	issue := issues[0]
	if issue.Key != "MOCIS-7" || issue.StatusID != "1" || issue.ProjectKey != "MOCIS" {
		t.Errorf("issue = %+v", issue)
	}
	if issue.Created == nil {
		t.Error("created timestamp not parsed")
	}
}

func TestSearch_PaginatesUpToMax(t *testing.T) {
	var starts []int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		starts = append(starts, startAt)

		issues := make([]map[string]interface{}, 0, 2)
		for i := 0; i < 2; i++ {
			issues = append(issues, map[string]interface{}{
				"key": fmt.Sprintf("MOCIS-%d", startAt+i+1), "fields": map[string]interface{}{},
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"startAt": startAt, "maxResults": 2, "total": 10, "issues": issues,
		})
	})

	issues, err := c.Search(context.Background(), "project = MOCIS", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Server hands back 2 per page regardless of the asked size; the
	// client keeps paging until the max is met.
	if len(issues) < 5 {
		t.Errorf("issues = %d, want at least 5", len(issues))
	}
	if len(starts) < 2 {
		t.Errorf("expected multiple pages, got startAts %v", starts)
	}
}

func TestDoRequest_MapsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Unauthorized (401)", http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "project = MOCIS", 10)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestGetIssueWithChangelog(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("expand") != "changelog" {
			t.Errorf("expand = %q, want changelog", r.URL.Query().Get("expand"))
		}
		fmt.Fprint(w, `{
			"key": "MOCIS-9",
			"fields": {
				"summary": "Old ticket",
				"attachment": [{"id": "11", "filename": "a.txt", "content": "https://x/att/11", "size": 3}]
			},
			"changelog": {"histories": [{
				"created": "2024-01-05T08:30:00.000-0600",
				"items": [{"field": "Attachment", "to": "12", "toString": "b.txt"}]
			}]}
		}`)
	})

	issue, err := c.GetIssueWithChangelog(context.Background(), "MOCIS-9")
	if err != nil {
		t.Fatalf("GetIssueWithChangelog: %v", err)
	}
	if len(issue.Attachments) != 1 || issue.Attachments[0].Filename != "a.txt" {
		t.Errorf("attachments = %+v", issue.Attachments)
	}
	if len(issue.Changelog) != 1 || len(issue.Changelog[0].Items) != 1 {
		t.Fatalf("changelog = %+v", issue.Changelog)
	}
	item := issue.Changelog[0].Items[0]
	if item.Field != "Attachment" || item.To == nil || *item.To != "12" || item.ToString != "b.txt" {
		t.Errorf("changelog item = %+v", item)
	}
}

func TestHighestKey_ParsesNumericSuffix(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"startAt":0,"maxResults":1,"total":1,"issues":[{"key":"MOCIS-4821","fields":{}}]}`)
	})

	n, err := c.HighestKey(context.Background(), "MOCIS")
	if err != nil {
		t.Fatalf("HighestKey: %v", err)
	}
	if n != 4821 {
		t.Errorf("n = %d, want 4821", n)
	}
}

func TestProjects_FiltersByKnownListAndMarker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/2/project":
			fmt.Fprint(w, `[{"key":"MOCIS"},{"key":"DOCNEW"},{"key":"OTHER"}]`)
		case "/rest/api/2/project/DOCNEW":
			fmt.Fprint(w, `{"issueTypes":[{"name":"DOC Bug"}]}`)
		case "/rest/api/2/project/OTHER":
			fmt.Fprint(w, `{"issueTypes":[{"name":"Task"}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	keys, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	want := []string{"DOCNEW", "MOCIS"}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestAttachmentURL_EncodesFilename(t *testing.T) {
	c := NewClient("https://tracker.example.com", "u", "p", nil, "")
	got := c.AttachmentURL("42", "my file.pdf")
	want := "https://tracker.example.com/secure/attachment/42/my%20file.pdf"
	if got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
}
