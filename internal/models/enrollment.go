package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Expired is only ever set by the lapse sweep;
// no decision path produces it.
const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusActive   EnrollmentStatus = "active"
	EnrollmentStatusRejected EnrollmentStatus = "rejected"
	EnrollmentStatusExpired  EnrollmentStatus = "expired"
)

// Enrollment is a member's claim of payment against a batch or workshop,
// subject to administrative verification. User and course fields are
// snapshots taken at submission time and never updated afterwards.
type Enrollment struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	UserName    string           `db:"user_name" json:"user_name"`
	UserEmail   string           `db:"user_email" json:"user_email"`
	UserPhone   string           `db:"user_phone" json:"user_phone"`
	BatchID     *string          `db:"batch_id" json:"batch_id,omitempty"`
	WorkshopID  *string          `db:"workshop_id" json:"workshop_id,omitempty"`
	CourseTitle string           `db:"course_title" json:"course_title"`
	Branch      string           `db:"branch" json:"branch"`
	UTRNumber   string           `db:"utr_number" json:"utr_number"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	PaymentType PaymentType      `db:"payment_type" json:"payment_type"`
	Price       float64          `db:"price" json:"price"`
	PaymentDate time.Time        `db:"payment_date" json:"payment_date"`
	ValidUntil  *time.Time       `db:"valid_until" json:"valid_until,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// CourseKind reports whether the enrollment targets a batch or a workshop.
func (e *Enrollment) CourseKind() CourseKind {
	if e.BatchID != nil {
		return CourseKindBatch
	}
	return CourseKindWorkshop
}

// Open reports whether the enrollment still blocks a new submission for the
// same (user, course) pair.
func (e *Enrollment) Open() bool {
	return e.Status == EnrollmentStatusPending || e.Status == EnrollmentStatusActive
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	UserID   string
	Status   EnrollmentStatus
	Kind     CourseKind
	Page     int
	PageSize int
}

// StatusNotification is the payload handed to the notification dispatcher
// after a decision. It carries snapshot data only, so delivery never needs
// another database read.
type StatusNotification struct {
	ToEmail     string           `json:"to_email"`
	UserName    string           `json:"user_name"`
	Status      EnrollmentStatus `json:"status"`
	CourseTitle string           `json:"course_title"`
	CourseKind  CourseKind       `json:"course_kind"`
}
