package models

import "time"

// Batch is a recurring-cohort course offering with a fixed schedule.
type Batch struct {
	ID           string        `db:"id" json:"id"`
	Title        string        `db:"title" json:"title"`
	Slug         string        `db:"slug" json:"slug"`
	Description  string        `db:"description" json:"description"`
	Instructor   string        `db:"instructor" json:"instructor"`
	Level        string        `db:"level" json:"level"`
	PricingType  PaymentType   `db:"pricing_type" json:"pricing_type"`
	Price        float64       `db:"price" json:"price"`
	Currency     string        `db:"currency" json:"currency"`
	Duration     string        `db:"duration" json:"duration"`
	Schedule     *string       `db:"schedule" json:"schedule,omitempty"`
	CoverImage   *string       `db:"cover_image" json:"cover_image,omitempty"`
	VideoPreview *string       `db:"video_preview" json:"video_preview,omitempty"`
	Status       PublishStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// BatchFilter provides filters for listing batches.
type BatchFilter struct {
	Status   PublishStatus
	Page     int
	PageSize int
}
