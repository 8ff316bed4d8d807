package jira

import (
	"fmt"
	"strings"

	"github.com/opsshop/jiratrack/internal/models"
)

// StatusJQL builds the query for a project/status pair. The all-active
// sentinel expands to the fixed set of active status IDs.
func StatusJQL(project, statusID string) string {
	if statusID == models.StatusAllActive {
		return fmt.Sprintf("project = %s AND status in (%s)", project, strings.Join(models.ActiveStatusIDs, ", "))
	}
	return fmt.Sprintf("project = %s AND status = %s", project, statusID)
}

// KeysJQL builds the query for an explicit set of issue keys.
func KeysJQL(project string, keys []string) string {
	return fmt.Sprintf("project = %s AND issueKey IN (%s)", project, strings.Join(keys, ","))
}
