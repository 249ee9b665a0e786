package models

// PaymentType distinguishes lifetime purchases from monthly subscriptions.
type PaymentType string

// Supported payment types.
const (
	PaymentOneTime   PaymentType = "one-time"
	PaymentRecurring PaymentType = "recurring"
)

// PublishStatus controls public visibility of a course offering.
type PublishStatus string

// Publish states.
const (
	PublishStatusDraft     PublishStatus = "draft"
	PublishStatusPublished PublishStatus = "published"
)

// CourseKind identifies which catalog a course reference points into.
type CourseKind string

// Course kinds.
const (
	CourseKindBatch    CourseKind = "batch"
	CourseKindWorkshop CourseKind = "workshop"
)
