package models

import "time"

// User is a registered caller. ID is the caller identity carried in tokens.
type User struct {
	ID           string
	UserName     string
	Salt         []byte
	PasswordHash []byte
	CreatedAt    time.Time
}
