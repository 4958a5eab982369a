package schema

// UserAPIKeyTable represents the 'users.apikey' table
type UserAPIKeyTable struct {
	Table       string
	ID          string
	Name        string
	Prefix      string
	Fingerprint string
	SecretHash  string
	UserID      string
	StoreID     string
	Permissions string
	IsActive    string
	ExpiresAt   string
	LastUsedAt  string
	CreatedAt   string
	UpdatedAt   string
}

// UserAPIKey is the schema definition for users.apikey
var UserAPIKey = UserAPIKeyTable{
	Table:       "users.apikey",
	ID:          "id",
	Name:        "name",
	Prefix:      "prefix",
	Fingerprint: "fingerprint",
	SecretHash:  "secrethash",
	UserID:      "userid",
	StoreID:     "storeid",
	Permissions: "permissions",
	IsActive:    "isactive",
	ExpiresAt:   "expiresat",
	LastUsedAt:  "lastusedat",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t UserAPIKeyTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Prefix, t.Fingerprint, t.SecretHash, t.UserID, t.StoreID,
		t.Permissions, t.IsActive, t.ExpiresAt, t.LastUsedAt, t.CreatedAt, t.UpdatedAt,
	}
}
