package models

// Status is a workflow status in the remote tracker.
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StatusAllActive is the sentinel status meaning "every active status".
// Queries for it expand to the set in ActiveStatusIDs.
const StatusAllActive = "0"

// ActiveStatusIDs is the expansion of the all-active sentinel, in the
// order the remote tracker expects them in a status IN (...) clause.
var ActiveStatusIDs = []string{"1", "3", "10102", "10736", "10737", "10738", "10111", "10047"}

// StatusCatalog is the fixed set of statuses the UI offers. The first
// entry is the all-active sentinel.
func StatusCatalog() []Status {
	return []Status{
		{ID: StatusAllActive, Name: ". . ."},
		{ID: "1", Name: "Open"},
		{ID: "3", Name: "In Progress"},
		{ID: "10102", Name: "Production Fix"},
		{ID: "10111", Name: "Research"},
		{ID: "10047", Name: "Researching Issue"},
		{ID: "5", Name: "Closed"},
		{ID: "10736", Name: "In Development"},
		{ID: "10737", Name: "In Testing"},
		{ID: "10738", Name: "Ready to Migrate"},
		{ID: "4", Name: "Reopened"},
		{ID: "6", Name: "Resolved"},
		{ID: "10005", Name: "Accepted"},
		{ID: "10026", Name: "System Testing"},
		{ID: "10028", Name: "Coding"},
		{ID: "10032", Name: "Status Needs Updated"},
		{ID: "10100", Name: "Code Migrated"},
		{ID: "10177", Name: "In Production"},
		{ID: "10202", Name: "Migrate"},
		{ID: "10217", Name: "Migration Complete"},
		{ID: "10219", Name: "Approved"},
		{ID: "10222", Name: "Pending"},
		{ID: "10226", Name: "Development"},
		{ID: "10234", Name: "Testing"},
		{ID: "10339", Name: "Ready for Production"},
		{ID: "10340", Name: "Ready for Development"},
		{ID: "10342", Name: "Ready for Deployment"},
		{ID: "10633", Name: "Closed - Procedural"},
		{ID: "10638", Name: "Ready for Test"},
	}
}

// StatusName resolves a status ID against the catalog. Unknown IDs come
// back as the ID itself so log lines stay readable.
func StatusName(id string) string {
	for _, s := range StatusCatalog() {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}
