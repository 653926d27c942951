package models

import "time"

// Note is a user-owned text record. UserID is set at creation and never
// changes. Version is the optimistic concurrency token: it starts at 1 and is
// incremented by every successful update.
type Note struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time
	Version   int64
}
