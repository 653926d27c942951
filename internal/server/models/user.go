package models

import "time"

// User is a registered account. PasswordHash holds a bcrypt hash; the
// plaintext password is never stored or logged.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
