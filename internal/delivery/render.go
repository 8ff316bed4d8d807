package delivery

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/opsshop/jiratrack/internal/models"
)

// subjectPrefix opens every notification subject.
const subjectPrefix = "Shop Tracker: "

// subjectKeyLimit caps how many issue keys appear in a subject line.
const subjectKeyLimit = 3

// triageProject gets a special opening statement addressed to its triage
// group.
const triageProject = "MOCIS"

// Subject builds the notification subject from the batch's issue keys.
// Past the first three keys the rest collapse to MORE.
func Subject(keys []string) string {
	shown := keys
	more := false
	if len(shown) > subjectKeyLimit {
		shown = shown[:subjectKeyLimit]
		more = true
	}
	s := subjectPrefix + strings.Join(shown, ", ")
	if more {
		s += ", MORE"
	}
	return s
}

// openingStatement returns the free-text note when the user supplied one,
// otherwise a default derived from the project.
func openingStatement(batch *models.DeliveryBatch) string {
	if strings.TrimSpace(batch.Note) != "" {
		return batch.Note
	}
	if batch.ProjectKey == triageProject {
		return "The following issues are ready for the Triage group to review:"
	}
	return fmt.Sprintf("The following %s issues are ready for review:", batch.ProjectKey)
}

var bodyTmpl = template.Must(template.New("body").Parse(`<html>
<body>
<p>{{.Opening}}</p>
<ul>
{{- range .Keys}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- if .DropPath}}
<p>The files are too large to attach and have been placed on the shared drive at: <b>{{.DropPath}}</b></p>
{{- else}}
<p>Please see the attached files for details.</p>
{{- end}}
<p>This message was generated by the shop tracker bridge.</p>
</body>
</html>
`))

// EmailBody renders the notification body. dropPath is empty for an
// attachment send and the shared-drive location for a link-only send.
func EmailBody(batch *models.DeliveryBatch, dropPath string) (string, error) {
	keys := make([]string, 0, len(batch.Issues))
	for _, issue := range batch.Issues {
		keys = append(keys, issue.Key)
	}
	var sb strings.Builder
	err := bodyTmpl.Execute(&sb, struct {
		Opening  string
		Keys     []string
		DropPath string
	}{openingStatement(batch), keys, dropPath})
	if err != nil {
		return "", fmt.Errorf("delivery: render body: %w", err)
	}
	return sb.String(), nil
}

var issueTmpl = template.Must(template.New("issue").Parse(`<html>
<head><title>{{.Key}}</title></head>
<body>
<h1>{{.Key}}: {{.Summary}}</h1>
<table border="1" cellpadding="4">
<tr><td><b>Project</b></td><td>{{.ProjectKey}}{{if .ProjectName}} ({{.ProjectName}}){{end}}</td></tr>
<tr><td><b>Status</b></td><td>{{.StatusName}}</td></tr>
{{- if .TypeName}}
<tr><td><b>Type</b></td><td>{{.TypeName}}</td></tr>
{{- end}}
{{- if .Priority}}
<tr><td><b>Priority</b></td><td>{{.Priority}}</td></tr>
{{- end}}
{{- if .Reporter}}
<tr><td><b>Reporter</b></td><td>{{.Reporter}}</td></tr>
{{- end}}
{{- if .Assignee}}
<tr><td><b>Assignee</b></td><td>{{.Assignee}}</td></tr>
{{- end}}
{{- if .Created}}
<tr><td><b>Created</b></td><td>{{.Created.Format "2006-01-02 15:04"}}</td></tr>
{{- end}}
{{- if .Updated}}
<tr><td><b>Updated</b></td><td>{{.Updated.Format "2006-01-02 15:04"}}</td></tr>
{{- end}}
{{- if .Labels}}
<tr><td><b>Labels</b></td><td>{{range $i, $l := .Labels}}{{if $i}}, {{end}}{{$l}}{{end}}</td></tr>
{{- end}}
{{- if .Components}}
<tr><td><b>Components</b></td><td>{{range $i, $c := .Components}}{{if $i}}, {{end}}{{$c}}{{end}}</td></tr>
{{- end}}
{{- if .FixVersions}}
<tr><td><b>Fix Versions</b></td><td>{{range $i, $v := .FixVersions}}{{if $i}}, {{end}}{{$v}}{{end}}</td></tr>
{{- end}}
</table>
<h2>Description</h2>
<pre>{{.Description}}</pre>
{{- if .Attachments}}
<h2>Attachments</h2>
<ul>
{{- range .Attachments}}
<li>{{.Filename}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Comments}}
<h2>Comments</h2>
{{- range .Comments}}
<p><b>{{.Author}}</b>{{if .Created}} ({{.Created.Format "2006-01-02 15:04"}}){{end}}:</p>
<pre>{{.Body}}</pre>
{{- end}}
{{- end}}
</body>
</html>
`))

// IssueHTML renders the detail document included with every delivered
// issue.
func IssueHTML(issue *models.Issue) (string, error) {
	var sb strings.Builder
	if err := issueTmpl.Execute(&sb, issue); err != nil {
		return "", fmt.Errorf("delivery: render issue %s: %w", issue.Key, err)
	}
	return sb.String(), nil
}
