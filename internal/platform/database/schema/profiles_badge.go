package schema

import "github.com/taibuivan/edubadge/internal/platform/constants"

// ProfileBadgeTable represents the 'profiles.badge' table
type ProfileBadgeTable struct {
	Table    string
	ID       string
	UserID   string
	Name     string
	Emoji    string
	EarnedAt string
}

// ProfileBadge is the schema definition for profiles.badge.
// Rows are insert-only.
var ProfileBadge = ProfileBadgeTable{
	Table:    constants.SchemaProfiles + ".badge",
	ID:       "id",
	UserID:   "userid",
	Name:     "name",
	Emoji:    "emoji",
	EarnedAt: "earnedat",
}

// Columns returns every column in insert order.
func (t ProfileBadgeTable) Columns() []string {
	return []string{t.ID, t.UserID, t.Name, t.Emoji, t.EarnedAt}
}
