package schema

// UserSessionTable represents the 'users.session' table
type UserSessionTable struct {
	Table     string
	Token     string
	UserID    string
	IPAddress string
	UserAgent string
	CreatedAt string
	ExpiresAt string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:     "users.session",
	Token:     "token",
	UserID:    "userid",
	IPAddress: "ipaddress",
	UserAgent: "useragent",
	CreatedAt: "createdat",
	ExpiresAt: "expiresat",
}

// Columns returns all standard column names
func (t UserSessionTable) Columns() []string {
	return []string{t.Token, t.UserID, t.IPAddress, t.UserAgent, t.CreatedAt, t.ExpiresAt}
}
