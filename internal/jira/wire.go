package jira

import (
	"time"

	"github.com/opsshop/jiratrack/internal/models"
)

// jiraTime is the timestamp layout the server emits.
const jiraTime = "2006-01-02T15:04:05.000-0700"

type searchResult struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []wireIssue `json:"issues"`
}

type wireIssue struct {
	ID        string        `json:"id"`
	Key       string        `json:"key"`
	Fields    wireFields    `json:"fields"`
	Changelog *wireHistory  `json:"changelog"`
}

type wireFields struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	Status      *wireNamed    `json:"status"`
	Priority    *wireNamed    `json:"priority"`
	IssueType   *wireNamed    `json:"issuetype"`
	Project     *wireProject  `json:"project"`
	Reporter    *wireUser     `json:"reporter"`
	Assignee    *wireUser     `json:"assignee"`
	Labels      []string      `json:"labels"`
	Components  []wireNamed   `json:"components"`
	FixVersions []wireNamed   `json:"fixVersions"`
	Created     string        `json:"created"`
	Updated     string        `json:"updated"`
	Attachment  []wireAttach  `json:"attachment"`
	Comment     *wireComments `json:"comment"`
}

type wireNamed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireProject struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type wireUser struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type wireAttach struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
}

type wireComments struct {
	Comments []wireComment `json:"comments"`
}

type wireComment struct {
	Author  *wireUser `json:"author"`
	Body    string    `json:"body"`
	Created string    `json:"created"`
}

type wireHistory struct {
	Histories []struct {
		Author  *wireUser `json:"author"`
		Created string    `json:"created"`
		Items   []struct {
			Field      string  `json:"field"`
			From       *string `json:"from"`
			FromString string  `json:"fromString"`
			To         *string `json:"to"`
			ToString   string  `json:"toString"`
		} `json:"items"`
	} `json:"histories"`
}

func toIssue(wi *wireIssue) models.Issue {
	f := wi.Fields
	issue := models.Issue{
		Key:         wi.Key,
		Summary:     f.Summary,
		Description: f.Description,
		Labels:      f.Labels,
		Created:     parseTime(f.Created),
		Updated:     parseTime(f.Updated),
	}
	if f.Project != nil {
		issue.ProjectKey = f.Project.Key
		issue.ProjectName = f.Project.Name
	}
	if f.Status != nil {
		issue.StatusID = f.Status.ID
		issue.StatusName = f.Status.Name
	}
	if f.IssueType != nil {
		issue.TypeName = f.IssueType.Name
	}
	if f.Priority != nil {
		issue.Priority = f.Priority.Name
	}
	if f.Reporter != nil {
		issue.Reporter = displayName(f.Reporter)
	}
	if f.Assignee != nil {
		issue.Assignee = displayName(f.Assignee)
	}
	for _, c := range f.Components {
		issue.Components = append(issue.Components, c.Name)
	}
	for _, v := range f.FixVersions {
		issue.FixVersions = append(issue.FixVersions, v.Name)
	}
	for _, a := range f.Attachment {
		issue.Attachments = append(issue.Attachments, models.Attachment{
			ID:         a.ID,
			Filename:   a.Filename,
			ContentURL: a.Content,
			Size:       a.Size,
		})
	}
	if f.Comment != nil {
		for _, c := range f.Comment.Comments {
			issue.Comments = append(issue.Comments, models.Comment{
				Author:  displayName(c.Author),
				Body:    c.Body,
				Created: parseTime(c.Created),
			})
		}
	}
	if wi.Changelog != nil {
		for _, h := range wi.Changelog.Histories {
			group := models.ChangelogGroup{
				Author:  displayName(h.Author),
				Created: parseTime(h.Created),
			}
			for _, it := range h.Items {
				group.Items = append(group.Items, models.ChangelogItem{
					Field:      it.Field,
					From:       it.From,
					FromString: it.FromString,
					To:         it.To,
					ToString:   it.ToString,
				})
			}
			issue.Changelog = append(issue.Changelog, group)
		}
	}
	return issue
}

func displayName(u *wireUser) string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(jiraTime, s)
	if err != nil {
		return nil
	}
	return &t
}
