package delivery

import (
	"strings"
	"testing"

	"github.com/opsshop/jiratrack/internal/models"
)

func TestSubject_ThreeKeysOrFewer(t *testing.T) {
	got := Subject([]string{"MOCIS-1", "MOCIS-2"})
	want := "Shop Tracker: MOCIS-1, MOCIS-2"
	if got != want {
		t.Errorf("Subject = %q, want %q", got, want)
	}
}

func TestSubject_MoreThanThreeKeysCollapses(t *testing.T) {
	got := Subject([]string{"MOCIS-1", "MOCIS-2", "MOCIS-3", "MOCIS-4", "MOCIS-5"})
	want := "Shop Tracker: MOCIS-1, MOCIS-2, MOCIS-3, MORE"
	if got != want {
		t.Errorf("Subject = %q, want %q", got, want)
	}
}

func TestEmailBody_UserNoteWins(t *testing.T) {
	batch := &models.DeliveryBatch{
		Issues:     []models.Issue{{Key: "JSTUI-1"}},
		ProjectKey: "JSTUI",
		Note:       "Here are this week's fixes.",
	}
	body, err := EmailBody(batch, "")
	if err != nil {
		t.Fatalf("EmailBody: %v", err)
	}
	if !strings.Contains(body, "Here are this week&#39;s fixes.") {
		t.Errorf("body missing note: %q", body)
	}
	if !strings.Contains(body, "<li>JSTUI-1</li>") {
		t.Errorf("body missing key list: %q", body)
	}
}

func TestEmailBody_DefaultReferencesProject(t *testing.T) {
	batch := &models.DeliveryBatch{
		Issues:     []models.Issue{{Key: "JSTUI-1"}},
		ProjectKey: "JSTUI",
	}
	body, err := EmailBody(batch, "")
	if err != nil {
		t.Fatalf("EmailBody: %v", err)
	}
	if !strings.Contains(body, "The following JSTUI issues are ready for review:") {
		t.Errorf("body missing default opening: %q", body)
	}
}

func TestEmailBody_TriageProjectSpecialCase(t *testing.T) {
	batch := &models.DeliveryBatch{
		Issues:     []models.Issue{{Key: "MOCIS-1"}},
		ProjectKey: "MOCIS",
	}
	body, err := EmailBody(batch, "")
	if err != nil {
		t.Fatalf("EmailBody: %v", err)
	}
	if !strings.Contains(body, "Triage group") {
		t.Errorf("body missing triage opening: %q", body)
	}
}

func TestEmailBody_DropPathVariant(t *testing.T) {
	batch := &models.DeliveryBatch{
		Issues:     []models.Issue{{Key: "MOCIS-1"}},
		ProjectKey: "MOCIS",
	}
	body, err := EmailBody(batch, `\\share\drops\2026-08-27T101500`)
	if err != nil {
		t.Fatalf("EmailBody: %v", err)
	}
	if !strings.Contains(body, "2026-08-27T101500") {
		t.Errorf("body missing drop path: %q", body)
	}
	if strings.Contains(body, "attached files") {
		t.Errorf("drop variant should not mention attachments: %q", body)
	}
}

func TestIssueHTML_ContainsCoreFields(t *testing.T) {
	issue := &models.Issue{
		Key:         "MOCIS-7",
		ProjectKey:  "MOCIS",
		StatusName:  "Open",
		Summary:     "Printer on fire",
		Description: "It is <really> on fire",
	}
	doc, err := IssueHTML(issue)
	if err != nil {
		t.Fatalf("IssueHTML: %v", err)
	}
	for _, want := range []string{"MOCIS-7", "Printer on fire", "Open"} {
		if !strings.Contains(doc, want) {
			t.Errorf("doc missing %q", want)
		}
	}
	// html/template must escape markup in user content.
	if strings.Contains(doc, "<really>") {
		t.Error("description not escaped")
	}
}

func TestAttachableSize_Boundary(t *testing.T) {
	// 4.2 MiB is 4404019.2 bytes; the last attachable total is 4404019.
	if !attachableSize(4404019) {
		t.Error("4404019 bytes should go by email")
	}
	if attachableSize(4404020) {
		t.Error("4404020 bytes should go to the shared drive")
	}
}
