package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table        string
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	UserAgent    string
	Details      string
	CreatedAt    string
}

// SystemAuditLog is the schema definition for system.auditlog
var SystemAuditLog = SystemAuditLogTable{
	Table:        "system.auditlog",
	ID:           "id",
	UserID:       "userid",
	Action:       "action",
	ResourceType: "resourcetype",
	ResourceID:   "resourceid",
	IPAddress:    "ipaddress",
	UserAgent:    "useragent",
	Details:      "details",
	CreatedAt:    "createdat",
}

// Columns returns all standard column names
func (t SystemAuditLogTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Action, t.ResourceType, t.ResourceID, t.IPAddress, t.UserAgent, t.Details, t.CreatedAt,
	}
}
