package models

import "time"

// Workshop is a one-time-format course offering.
type Workshop struct {
	ID          string        `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Slug        string        `db:"slug" json:"slug"`
	Description string        `db:"description" json:"description"`
	Instructor  string        `db:"instructor" json:"instructor"`
	Price       float64       `db:"price" json:"price"`
	Currency    string        `db:"currency" json:"currency"`
	Location    *string       `db:"location" json:"location,omitempty"`
	StartsAt    *time.Time    `db:"starts_at" json:"starts_at,omitempty"`
	CoverImage  *string       `db:"cover_image" json:"cover_image,omitempty"`
	Status      PublishStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// WorkshopFilter provides filters for listing workshops.
type WorkshopFilter struct {
	Status   PublishStatus
	Page     int
	PageSize int
}
