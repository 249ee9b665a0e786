package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/letsdance/academy-api/internal/models"
)

// ErrDuplicateOpenEnrollment is returned when the partial unique indexes on
// (user, course, open-status) reject an insert. The check-then-insert in the
// service is advisory only; this is the authoritative guard.
var ErrDuplicateOpenEnrollment = errors.New("open enrollment already exists for user and course")

const pqUniqueViolation = "23505"

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, user_id, user_name, user_email, user_phone, batch_id, workshop_id,
        course_title, branch, utr_number, status, payment_type, price, payment_date, valid_until,
        created_at, updated_at`

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// HasOpen checks whether a pending or active enrollment exists for the
// (user, course) pair. Exactly one of batchID and workshopID must be set.
func (r *EnrollmentRepository) HasOpen(ctx context.Context, userID string, batchID, workshopID *string) (bool, error) {
	query := "SELECT 1 FROM enrollments WHERE user_id = $1 AND status IN ($2, $3)"
	args := []interface{}{userID, models.EnrollmentStatusPending, models.EnrollmentStatusActive}
	if batchID != nil {
		query += " AND batch_id = $4"
		args = append(args, *batchID)
	} else if workshopID != nil {
		query += " AND workshop_id = $4"
		args = append(args, *workshopID)
	}
	query += " LIMIT 1"

	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check open enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record. A unique-index violation on the
// open-enrollment indexes is mapped to ErrDuplicateOpenEnrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.PaymentDate.IsZero() {
		enrollment.PaymentDate = now
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	const query = `INSERT INTO enrollments (id, user_id, user_name, user_email, user_phone, batch_id, workshop_id,
        course_title, branch, utr_number, status, payment_type, price, payment_date, valid_until, created_at, updated_at)
        VALUES (:id, :user_id, :user_name, :user_email, :user_phone, :batch_id, :workshop_id,
        :course_title, :branch, :utr_number, :status, :payment_type, :price, :payment_date, :valid_until, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateOpenEnrollment
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update applies a transition inside a transaction. The row is locked with
// FOR UPDATE so concurrent decisions on the same record serialize instead of
// losing writes. Only the mutable lifecycle fields are written back.
func (r *EnrollmentRepository) Update(ctx context.Context, id string, apply func(*models.Enrollment) error) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enrollment update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1 FOR UPDATE", enrollmentColumns)
	var enrollment models.Enrollment
	if err := tx.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}

	if err := apply(&enrollment); err != nil {
		return nil, err
	}
	enrollment.UpdatedAt = time.Now().UTC()

	const update = `UPDATE enrollments SET status = $2, payment_date = $3, valid_until = $4, updated_at = $5 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, enrollment.ID, enrollment.Status, enrollment.PaymentDate, enrollment.ValidUntil, enrollment.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enrollment update: %w", err)
	}
	return &enrollment, nil
}

// List returns enrollments filtered by the provided criteria, newest first.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	switch filter.Kind {
	case models.CourseKindBatch:
		conditions = append(conditions, "batch_id IS NOT NULL")
	case models.CourseKindWorkshop:
		conditions = append(conditions, "workshop_id IS NOT NULL")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	// Report exports pull the full result set in one page.
	if size > 10000 {
		size = 10000
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM enrollments%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		enrollmentColumns, clause, size, offset)

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM enrollments" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// ExpireLapsed marks recurring active enrollments whose validity window has
// passed as expired. Returns the number of records transitioned.
func (r *EnrollmentRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE enrollments SET status = $1, updated_at = $2
        WHERE status = $3 AND payment_type = $4 AND valid_until IS NOT NULL AND valid_until < $2`
	res, err := r.db.ExecContext(ctx, query, models.EnrollmentStatusExpired, now, models.EnrollmentStatusActive, models.PaymentRecurring)
	if err != nil {
		return 0, fmt.Errorf("expire lapsed enrollments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire lapsed enrollments: %w", err)
	}
	return affected, nil
}
