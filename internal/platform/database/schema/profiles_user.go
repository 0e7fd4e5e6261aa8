package schema

import "github.com/taibuivan/edubadge/internal/platform/constants"

// ProfileUserTable represents the 'profiles.user' table
type ProfileUserTable struct {
	Table          string
	ID             string
	Username       string
	CredentialHash string
	CreatedAt      string
	LastSeenAt     string
}

// ProfileUser is the schema definition for profiles.user
var ProfileUser = ProfileUserTable{
	Table:          constants.SchemaProfiles + ".user",
	ID:             "id",
	Username:       "username",
	CredentialHash: "credentialhash",
	CreatedAt:      "createdat",
	LastSeenAt:     "lastseenat",
}

// Columns returns every column in insert order.
func (t ProfileUserTable) Columns() []string {
	return []string{t.ID, t.Username, t.CredentialHash, t.CreatedAt, t.LastSeenAt}
}
