package models

import "time"

// Session is a server-side record backing one issued session token. Deleting
// the row revokes the token regardless of its remaining cookie lifetime.
type Session struct {
	ID        string
	UserID    int64
	Expires   time.Time
	CreatedAt time.Time
}
