// Package jira provides HTTP access to the remote issue tracker.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/opsshop/jiratrack/internal/apperr"
	"github.com/opsshop/jiratrack/internal/models"
)

// searchFields is the default set of fields requested by search and get queries.
const searchFields = "summary,description,status,priority,issuetype,project,reporter,assignee,labels,components,fixVersions,created,updated,attachment,comment"

// Tracker is the capability the rest of the application depends on.
// Consumers hold this interface rather than the concrete *Client so tests
// can substitute fakes.
type Tracker interface {
	Search(ctx context.Context, jql string, max int) ([]models.Issue, error)
	GetIssueWithChangelog(ctx context.Context, key string) (*models.Issue, error)
	FetchAttachment(ctx context.Context, contentURL string) (io.ReadCloser, error)
	Projects(ctx context.Context) ([]string, error)
	HighestKey(ctx context.Context, project string) (int, error)
	AttachmentURL(id, filename string) string
}

// Client talks to a Jira server over its REST API.
type Client struct {
	baseURL  string
	username string
	password string

	// knownProjects short-circuits the per-project detail lookup; keys
	// outside the list are kept only when their issue types carry typeMarker.
	knownProjects map[string]struct{}
	typeMarker    string

	httpClient *http.Client
}

var _ Tracker = (*Client)(nil)

// NewClient creates a tracker client. knownProjects and typeMarker drive
// project filtering, see Projects.
func NewClient(baseURL, username, password string, knownProjects []string, typeMarker string) *Client {
	known := make(map[string]struct{}, len(knownProjects))
	for _, k := range knownProjects {
		known[strings.TrimSpace(k)] = struct{}{}
	}
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		username:      username,
		password:      password,
		knownProjects: known,
		typeMarker:    typeMarker,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Search runs a JQL query and returns at most max issues, paging through
// the result set as needed.
func (c *Client) Search(ctx context.Context, jql string, max int) ([]models.Issue, error) {
	var out []models.Issue
	startAt := 0

	for {
		pageSize := max - len(out)
		if pageSize <= 0 {
			break
		}
		params := url.Values{
			"jql":        {jql},
			"fields":     {searchFields},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(pageSize)},
		}
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("%s/rest/api/2/search?%s", c.baseURL, params.Encode()))
		if err != nil {
			return nil, fmt.Errorf("jira: search: %w", err)
		}

		var result searchResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("jira: parse search response: %w", err)
		}
		for i := range result.Issues {
			out = append(out, toIssue(&result.Issues[i]))
		}

		if startAt+len(result.Issues) >= result.Total || len(result.Issues) == 0 {
			break
		}
		startAt += len(result.Issues)
	}

	return out, nil
}

// GetIssueWithChangelog fetches a single issue including its changelog,
// which the attachment fallback strategy needs.
func (c *Client) GetIssueWithChangelog(ctx context.Context, key string) (*models.Issue, error) {
	apiURL := fmt.Sprintf("%s/rest/api/2/issue/%s?fields=%s&expand=changelog", c.baseURL, url.PathEscape(key), searchFields)
	body, err := c.doRequest(ctx, http.MethodGet, apiURL)
	if err != nil {
		return nil, fmt.Errorf("jira: get issue %s: %w", key, err)
	}

	var wi wireIssue
	if err := json.Unmarshal(body, &wi); err != nil {
		return nil, fmt.Errorf("jira: parse issue response: %w", err)
	}
	issue := toIssue(&wi)
	return &issue, nil
}

// FetchAttachment streams an attachment body. The caller owns the reader.
func (c *Client) FetchAttachment(ctx context.Context, contentURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("jira: create attachment request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira: fetch attachment: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("jira: fetch attachment: %w", apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("jira: fetch attachment: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// AttachmentURL builds the direct download URL for an attachment known
// only through the changelog.
func (c *Client) AttachmentURL(id, filename string) string {
	return fmt.Sprintf("%s/secure/attachment/%s/%s", c.baseURL, url.PathEscape(id), url.PathEscape(filename))
}

// Projects returns the project keys the bridge works with, sorted. Keys on
// the known list pass directly; anything else is kept only when its issue
// types mention the configured marker.
func (c *Client) Projects(ctx context.Context) ([]string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/rest/api/2/project")
	if err != nil {
		return nil, fmt.Errorf("jira: list projects: %w", err)
	}

	var all []struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("jira: parse project list: %w", err)
	}

	var keys []string
	for _, p := range all {
		key := strings.TrimSpace(p.Key)
		if _, ok := c.knownProjects[key]; ok {
			keys = append(keys, p.Key)
			continue
		}
		if c.typeMarker == "" {
			continue
		}
		ok, err := c.projectHasMarker(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, p.Key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (c *Client) projectHasMarker(ctx context.Context, key string) (bool, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("%s/rest/api/2/project/%s", c.baseURL, url.PathEscape(key)))
	if err != nil {
		return false, fmt.Errorf("jira: get project %s: %w", key, err)
	}
	var detail struct {
		IssueTypes []struct {
			Name string `json:"name"`
		} `json:"issueTypes"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return false, fmt.Errorf("jira: parse project detail: %w", err)
	}
	for _, t := range detail.IssueTypes {
		if strings.Contains(t.Name, c.typeMarker) {
			return true, nil
		}
	}
	return false, nil
}

// HighestKey returns the numeric suffix of the newest issue key in a
// project. Wildcard search uses it as the scan bound.
func (c *Client) HighestKey(ctx context.Context, project string) (int, error) {
	jql := fmt.Sprintf("project = %s AND created < now() ORDER BY created desc", project)
	issues, err := c.Search(ctx, jql, 1)
	if err != nil {
		return 0, fmt.Errorf("jira: highest key for %s: %w", project, err)
	}
	if len(issues) == 0 {
		return 0, fmt.Errorf("jira: project %s has no issues", project)
	}
	key := issues[0].Key
	idx := strings.LastIndex(key, "-")
	if idx < 0 {
		return 0, fmt.Errorf("jira: malformed issue key %q", key)
	}
	n, err := strconv.Atoi(key[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("jira: malformed issue key %q: %w", key, err)
	}
	return n, nil
}

// doRequest executes an authenticated GET and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(respBody)), apperr.ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tracker returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}
