package schema

// SystemWebhookTable represents the 'system.webhook' table
type SystemWebhookTable struct {
	Table        string
	ID           string
	Name         string
	URL          string
	Secret       string
	IsActive     string
	Events       string
	Headers      string
	TotalCalls   string
	FailedCalls  string
	LastCalledAt string
	CreatedAt    string
	UpdatedAt    string
}

// SystemWebhook is the schema definition for system.webhook
var SystemWebhook = SystemWebhookTable{
	Table:        "system.webhook",
	ID:           "id",
	Name:         "name",
	URL:          "url",
	Secret:       "secret",
	IsActive:     "isactive",
	Events:       "events",
	Headers:      "headers",
	TotalCalls:   "totalcalls",
	FailedCalls:  "failedcalls",
	LastCalledAt: "lastcalledat",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// Columns returns all standard column names
func (t SystemWebhookTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.URL, t.Secret, t.IsActive, t.Events, t.Headers,
		t.TotalCalls, t.FailedCalls, t.LastCalledAt, t.CreatedAt, t.UpdatedAt,
	}
}
