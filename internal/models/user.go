package models

import "time"

// User is a member of the academy's directory.
type User struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter encapsulates search parameters for listing users.
type UserFilter struct {
	Search   string
	Page     int
	PageSize int
}
