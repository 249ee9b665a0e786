package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	"github.com/letsdance/academy-api/internal/repository"
	appErrors "github.com/letsdance/academy-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	HasOpen(ctx context.Context, userID string, batchID, workshopID *string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, id string, apply func(*models.Enrollment) error) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

type batchReader interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

type workshopReader interface {
	FindByID(ctx context.Context, id string) (*models.Workshop, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// statusNotifier dispatches a status-change email without blocking. Delivery
// is best effort; the lifecycle transition never waits on it.
type statusNotifier interface {
	DispatchStatusChange(n models.StatusNotification)
}

// SubmitEnrollmentRequest describes a payment claim submission.
type SubmitEnrollmentRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	BatchID    string `json:"batch_id"`
	WorkshopID string `json:"workshop_id"`
	Branch     string `json:"branch" validate:"required"`
	UTRNumber  string `json:"utr_number" validate:"required"`
}

// EnrollmentService owns the enrollment status field and validity window.
type EnrollmentService struct {
	repo      enrollmentRepository
	batches   batchReader
	workshops workshopReader
	users     userReader
	notifier  statusNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, batches batchReader, workshops workshopReader, users userReader, notifier statusNotifier, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		batches:   batches,
		workshops: workshops,
		users:     users,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit records a payment claim as a pending enrollment, snapshotting the
// user and course details at this instant.
func (s *EnrollmentService) Submit(ctx context.Context, req SubmitEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if (req.BatchID == "") == (req.WorkshopID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of batch_id or workshop_id must be provided")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	enrollment := &models.Enrollment{
		UserID:      user.ID,
		UserName:    user.Name,
		UserEmail:   user.Email,
		UserPhone:   user.Phone,
		Branch:      req.Branch,
		UTRNumber:   req.UTRNumber,
		Status:      models.EnrollmentStatusPending,
		PaymentDate: s.now().UTC(),
	}

	if req.BatchID != "" {
		batch, err := s.batches.FindByID(ctx, req.BatchID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
		}
		enrollment.BatchID = &batch.ID
		enrollment.CourseTitle = batch.Title
		enrollment.Price = batch.Price
		enrollment.PaymentType = batch.PricingType
	} else {
		workshop, err := s.workshops.FindByID(ctx, req.WorkshopID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
		}
		enrollment.WorkshopID = &workshop.ID
		enrollment.CourseTitle = workshop.Title
		enrollment.Price = workshop.Price
		enrollment.PaymentType = models.PaymentOneTime
	}

	// Friendly pre-check; the partial unique indexes remain the authority
	// when two submissions race.
	open, err := s.repo.HasOpen(ctx, user.ID, enrollment.BatchID, enrollment.WorkshopID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an enrollment for this course is already pending or active")
	}

	if err := s.repo.Create(ctx, enrollment); err != nil {
		if err == repository.ErrDuplicateOpenEnrollment {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an enrollment for this course is already pending or active")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Decide applies an administrative verification outcome. Deciding an
// already-decided enrollment overwrites it; re-decides are permitted.
func (s *EnrollmentService) Decide(ctx context.Context, id string, decision models.EnrollmentStatus) (*models.Enrollment, error) {
	if decision != models.EnrollmentStatusActive && decision != models.EnrollmentStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be active or rejected")
	}

	enrollment, err := s.repo.Update(ctx, id, func(e *models.Enrollment) error {
		e.Status = decision
		if decision == models.EnrollmentStatusActive {
			if e.PaymentType == models.PaymentRecurring {
				validUntil := endOfMonth(s.now().UTC())
				e.ValidUntil = &validUntil
			} else {
				// One-time payment means lifetime access.
				e.ValidUntil = nil
			}
		}
		return nil
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	if s.notifier != nil {
		s.notifier.DispatchStatusChange(models.StatusNotification{
			ToEmail:     enrollment.UserEmail,
			UserName:    enrollment.UserName,
			Status:      enrollment.Status,
			CourseTitle: enrollment.CourseTitle,
			CourseKind:  enrollment.CourseKind(),
		})
	}
	return enrollment, nil
}

// Extend renews a subscription by one calendar month. It reactivates the
// enrollment regardless of its prior status; this is the administrative
// escape hatch for lapsed or mistakenly rejected records.
func (s *EnrollmentService) Extend(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Update(ctx, id, func(e *models.Enrollment) error {
		now := s.now().UTC()
		base := now
		if e.ValidUntil != nil && e.ValidUntil.After(now) {
			base = *e.ValidUntil
		}
		validUntil := endOfMonth(base.AddDate(0, 1, 0))
		e.ValidUntil = &validUntil
		e.PaymentDate = now
		e.Status = models.EnrollmentStatusActive
		return nil
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to extend enrollment")
	}
	return enrollment, nil
}

// Get returns a single enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// ExpireLapsed sweeps recurring enrollments whose validity window has passed.
func (s *EnrollmentService) ExpireLapsed(ctx context.Context) (int64, error) {
	expired, err := s.repo.ExpireLapsed(ctx, s.now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expire enrollments")
	}
	if expired > 0 {
		s.logger.Info("expired lapsed enrollments", zap.Int64("count", expired))
	}
	return expired, nil
}

// endOfMonth returns the last representable instant (23:59:59.999) of t's
// calendar month. Renewal billing always lands on a month boundary; the
// original submission day is deliberately not preserved as an anchor.
func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 23, 59, 59, 999_000_000, t.Location())
}
