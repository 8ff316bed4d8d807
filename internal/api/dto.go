package api

// deliverRequest is the POST /deliver body.
type deliverRequest struct {
	Project         string   `json:"project"`
	Status          string   `json:"status"`
	Keys            []string `json:"keys"`
	Note            string   `json:"note,omitempty"`
	ExtraRecipients []string `json:"extra_recipients,omitempty"`
	Resend          bool     `json:"resend,omitempty"`
}

// untrackRequest is the DELETE /tracked body.
type untrackRequest struct {
	Keys []string `json:"keys"`
}

// feedbackRequest is the POST /feedback body.
type feedbackRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// statusResponse is one catalog entry in GET /statuses.
type statusResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
